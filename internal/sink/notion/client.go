// Package notion sends chunked changelog batches to the downstream note
// store.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fr0stylo/mergelog/internal/app/ports"
)

// maxBlockTextLength is the per-field ceiling the note store enforces.
// Chunks arrive already packed below this, the truncation here is defense
// in depth at the payload boundary.
const maxBlockTextLength = 2000

// Client creates notes in the downstream record store.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient constructs a sink client.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint:   strings.TrimSpace(endpoint),
		token:      strings.TrimSpace(token),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type textContent struct {
	Content string `json:"content"`
}

type richText struct {
	Type string      `json:"type"`
	Text textContent `json:"text"`
}

type paragraph struct {
	RichText []richText `json:"rich_text"`
}

type paragraphBlock struct {
	Object    string    `json:"object"`
	Type      string    `json:"type"`
	Paragraph paragraph `json:"paragraph"`
}

type propertyRichText struct {
	RichText []richText `json:"rich_text"`
}

type propertyTitle struct {
	Title []richText `json:"title"`
}

type noteProperties struct {
	MergedRecords propertyRichText `json:"merged_records"`
	Raw           propertyRichText `json:"raw"`
	Timestamp     propertyTitle    `json:"timestamp"`
}

type notePayload struct {
	Children   []paragraphBlock `json:"children"`
	Properties noteProperties   `json:"properties"`
}

// CreateNote builds the block-structured payload from the draft, posts it
// to the note store and returns the assigned record identifier.
func (c *Client) CreateNote(ctx context.Context, draft ports.NoteDraft) (string, error) {
	children := make([]paragraphBlock, 0, len(draft.Chunks))
	for _, chunk := range draft.Chunks {
		children = append(children, paragraphBlock{
			Object: "block",
			Type:   "paragraph",
			Paragraph: paragraph{
				RichText: []richText{textItem(truncate(chunk))},
			},
		})
	}

	payload := notePayload{
		Children: children,
		Properties: noteProperties{
			MergedRecords: propertyRichText{
				RichText: []richText{textItem(fmt.Sprintf("%d PRs", draft.RecordCount))},
			},
			Raw: propertyRichText{
				RichText: []richText{textItem(truncate(draft.Preview))},
			},
			Timestamp: propertyTitle{
				Title: []richText{textItem(draft.Timestamp.UTC().Format(time.RFC3339))},
			},
		},
	}

	raw, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", &ports.SinkError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var parsed struct {
		Output string `json:"output"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode sink response: %w", err)
	}
	if strings.TrimSpace(parsed.Output) == "" {
		return "", fmt.Errorf("missing record id in sink response")
	}
	return parsed.Output, nil
}

func textItem(content string) richText {
	return richText{Type: "text", Text: textContent{Content: content}}
}

// The field limit is counted in characters, so truncation slices on runes
// to avoid tearing a multi-byte character at the boundary.
func truncate(s string) string {
	if utf8.RuneCountInString(s) > maxBlockTextLength {
		return string([]rune(s)[:maxBlockTextLength])
	}
	return s
}

var _ ports.RecordSink = (*Client)(nil)
