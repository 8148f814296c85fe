// Package github fetches pull-request records through the integration
// proxy endpoint.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fr0stylo/mergelog/internal/app/ports"
)

// Client queries the record source for recently updated pull requests.
type Client struct {
	endpoint   string
	token      string
	owner      string
	repo       string
	httpClient *http.Client
}

// NewClient constructs a record source client.
func NewClient(endpoint, token, owner, repo string) *Client {
	return &Client{
		endpoint:   strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		token:      strings.TrimSpace(token),
		owner:      strings.TrimSpace(owner),
		repo:       strings.TrimSpace(repo),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type pullRequest struct {
	ID        int64      `json:"id"`
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Body      *string    `json:"body"`
	HTMLURL   string     `json:"html_url"`
	CreatedAt time.Time  `json:"created_at"`
	MergedAt  *time.Time `json:"merged_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
}

// FetchRecords retrieves the latest closed pull requests, newest updates
// first, one page of 100.
func (c *Client) FetchRecords(ctx context.Context) ([]ports.Record, error) {
	body := map[string]any{
		"input": map[string]any{
			"owner":     c.owner,
			"repo":      c.repo,
			"state":     "closed",
			"sort":      "updated",
			"direction": "desc",
			"per_page":  100,
		},
	}
	raw, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch pull requests failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed struct {
		Output struct {
			Data []pullRequest `json:"data"`
		} `json:"output"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode source response: %w", err)
	}
	if parsed.Output.Data == nil {
		return nil, fmt.Errorf("missing output data in source response")
	}

	records := make([]ports.Record, 0, len(parsed.Output.Data))
	for _, pr := range parsed.Output.Data {
		body := ""
		if pr.Body != nil {
			body = *pr.Body
		}
		records = append(records, ports.Record{
			ID:        pr.ID,
			Number:    pr.Number,
			Title:     pr.Title,
			Body:      body,
			Author:    pr.User.Login,
			CreatedAt: pr.CreatedAt,
			MergedAt:  pr.MergedAt,
			URL:       pr.HTMLURL,
		})
	}
	return records, nil
}

var _ ports.RecordSource = (*Client)(nil)
