package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/rijulg06/thriftchain/internal/domain"
)

// EventService defines the event-log and diagnostics methods the event
// handler requires.
type EventService interface {
	Events(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error)
	Stats(ctx context.Context) (map[string]uint64, error)
}

// EventHandler serves the event log and diagnostic counters.
type EventHandler struct {
	events EventService
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler with the given service and logger.
func NewEventHandler(events EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events: events,
		logger: logHandler(logger, "event"),
	}
}

// listEventsResponse wraps the list endpoint output with pagination metadata.
type listEventsResponse struct {
	Events []domain.Event `json:"events"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ListEvents returns the event log, newest first, with optional since/until
// filtering.
// GET /api/events?limit=50&offset=0&since=...&until=...
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	events, err := h.events.Events(r.Context(), opts)
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	if events == nil {
		events = []domain.Event{}
	}
	writeJSON(w, http.StatusOK, listEventsResponse{
		Events: events,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// Stats reports the monotonic diagnostic counters plus the catalog size.
// GET /api/stats
func (h *EventHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.events.Stats(r.Context())
	if err != nil {
		writeFault(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
