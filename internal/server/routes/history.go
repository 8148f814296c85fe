package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fr0stylo/mergelog/internal/app/ports"
	appservices "github.com/fr0stylo/mergelog/internal/app/services"
)

// HistoryRoutes registers the ingestion and forwarding API.
type HistoryRoutes struct {
	store   ports.HistoryStore
	ingest  *appservices.IngestService
	forward *appservices.ForwardService
}

// NewHistoryRoutes constructs the history API routes.
func NewHistoryRoutes(store ports.HistoryStore, ingest *appservices.IngestService, forward *appservices.ForwardService) *HistoryRoutes {
	return &HistoryRoutes{store: store, ingest: ingest, forward: forward}
}

// RegisterRoutes registers the history API endpoints.
func (h *HistoryRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/healthz", h.handleHealthz)

	api := s.Group("/api")
	api.GET("/history", h.handleGetHistory)
	api.POST("/history/ingest", h.handleIngest)
	api.DELETE("/history", h.handleClearHistory)
	api.POST("/history/:id/forward", h.handleForward)
}

func (h *HistoryRoutes) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HistoryRoutes) handleGetHistory(c echo.Context) error {
	ctx := c.Request().Context()
	entries, err := h.store.LoadHistory(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load history", "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody("failed to load history"))
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *HistoryRoutes) handleIngest(c echo.Context) error {
	ctx := c.Request().Context()
	result, err := h.ingest.Ingest(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Ingestion cycle failed", "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, appservices.ErrSourceUnavailable) {
			status = http.StatusBadGateway
		}
		return c.JSON(status, errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"count":   result.Added,
		"message": result.Message,
	})
}

func (h *HistoryRoutes) handleClearHistory(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.store.ClearHistory(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to clear history", "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody("failed to clear history"))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "history cleared successfully",
	})
}

func (h *HistoryRoutes) handleForward(c echo.Context) error {
	ctx := c.Request().Context()
	entryID := c.Param("id")

	ref, err := h.forward.Forward(ctx, entryID)
	if err != nil {
		slog.ErrorContext(ctx, "Forward failed", "entry_id", entryID, "error", err)

		var sinkErr *ports.SinkError
		switch {
		case errors.Is(err, ports.ErrEntryNotFound):
			return c.JSON(http.StatusNotFound, errorBody("history entry not found"))
		case errors.Is(err, appservices.ErrEmptyBatch):
			return c.JSON(http.StatusBadRequest, errorBody("history entry has no records"))
		case errors.As(err, &sinkErr):
			return c.JSON(http.StatusBadGateway, errorBody(sinkErr.Error()))
		default:
			return c.JSON(http.StatusInternalServerError, errorBody("failed to forward history entry"))
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"recordId": ref,
	})
}

func errorBody(message string) map[string]any {
	return map[string]any{
		"success": false,
		"error":   message,
	}
}
