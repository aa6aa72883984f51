package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	eventModel "rushledger/internal/event/models"
	eventService "rushledger/internal/event/service"
	"rushledger/internal/platform/middleware"
)

type EventService interface {
	Create(ctx context.Context, callerID uuid.UUID, req eventService.CreateRequest) (*eventModel.Event, error)
	Update(ctx context.Context, callerID, eventID uuid.UUID, req eventService.UpdateRequest) (*eventModel.Event, error)
	Deactivate(ctx context.Context, callerID, eventID uuid.UUID) error
	Get(ctx context.Context, eventID uuid.UUID) (*eventModel.Event, error)
	List(ctx context.Context, eventType *eventModel.EventType, upcomingOnly bool) ([]*eventModel.Event, error)
}

// EventHandler exposes the event calendar.
type EventHandler struct {
	events EventService
	logger *slog.Logger
}

func NewEventHandler(events EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

func (h *EventHandler) Register(r chi.Router) {
	r.Post("/events", h.handleCreate)
	r.Get("/events", h.handleList)
	r.Get("/events/{eventID}", h.handleGet)
	r.Patch("/events/{eventID}", h.handleUpdate)
	r.Delete("/events/{eventID}", h.handleDeactivate)
}

func (h *EventHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req eventService.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	event, err := h.events.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var eventType *eventModel.EventType
	if t := q.Get("type"); t != "" {
		et := eventModel.EventType(t)
		eventType = &et
	}
	events, err := h.events.List(r.Context(), eventType, q.Get("upcoming") == "true")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, err)
		return
	}
	event, err := h.events.Get(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, err)
		return
	}
	var req eventService.UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	event, err := h.events.Update(r.Context(), middleware.GetUserID(r.Context()), eventID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.events.Deactivate(r.Context(), middleware.GetUserID(r.Context()), eventID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
