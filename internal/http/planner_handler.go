package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/event-planner/internal/application"
	"github.com/example/event-planner/internal/selection"
)

type plannerService interface {
	ListEvents(ctx context.Context, params application.ListEventsParams) ([]application.ListedEvent, error)
	Selection(ctx context.Context, mode string) (selection.View, error)
	AddEvent(ctx context.Context, id string) (selection.View, error)
	RemoveEvent(ctx context.Context, id string) (selection.View, error)
	ToggleEvent(ctx context.Context, id string) (selection.View, error)
	ClearAll(ctx context.Context) (selection.View, error)
	ResolveConflicts(ctx context.Context) (selection.View, error)
	SetViewMode(ctx context.Context, mode string) (selection.View, error)
	Itinerary(ctx context.Context, params application.ItineraryParams) (application.Itinerary, error)
}

// PlannerHandler serves the catalog, selection and itinerary endpoints.
type PlannerHandler struct {
	service   plannerService
	responder responder
	logger    *slog.Logger
}

func NewPlannerHandler(service plannerService, logger *slog.Logger) *PlannerHandler {
	return &PlannerHandler{service: service, responder: newResponder(logger), logger: defaultLogger(logger)}
}

func (h *PlannerHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	events, err := h.service.ListEvents(r.Context(), application.ListEventsParams{
		State: strings.TrimSpace(query.Get("state")),
		Type:  strings.TrimSpace(query.Get("type")),
		Query: strings.TrimSpace(query.Get("q")),
		Sort:  strings.TrimSpace(query.Get("sort")),
		Order: strings.TrimSpace(query.Get("order")),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if events == nil {
		events = []application.ListedEvent{}
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventListResponse{Events: events, Count: len(events)})
}

func (h *PlannerHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	view, err := h.service.Selection(r.Context(), r.URL.Query().Get("mode"))
	h.renderView(r.Context(), w, view, err)
}

func (h *PlannerHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	view, err := h.service.ClearAll(r.Context())
	h.renderView(r.Context(), w, view, err)
}

func (h *PlannerHandler) AddEvent(w http.ResponseWriter, r *http.Request) {
	h.mutateEvent(w, r, "AddEvent", func(ctx context.Context, id string) (selection.View, error) {
		return h.service.AddEvent(ctx, id)
	})
}

func (h *PlannerHandler) RemoveEvent(w http.ResponseWriter, r *http.Request) {
	h.mutateEvent(w, r, "RemoveEvent", func(ctx context.Context, id string) (selection.View, error) {
		return h.service.RemoveEvent(ctx, id)
	})
}

func (h *PlannerHandler) ToggleEvent(w http.ResponseWriter, r *http.Request) {
	h.mutateEvent(w, r, "ToggleEvent", func(ctx context.Context, id string) (selection.View, error) {
		return h.service.ToggleEvent(ctx, id)
	})
}

func (h *PlannerHandler) mutateEvent(w http.ResponseWriter, r *http.Request, operation string, fn func(context.Context, string) (selection.View, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	handlerLogger(r.Context(), h.logger, "PlannerHandler", operation).
		DebugContext(r.Context(), "selection mutation requested")
	view, err := fn(r.Context(), eventID)
	h.renderView(r.Context(), w, view, err)
}

func (h *PlannerHandler) ResolveConflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	view, err := h.service.ResolveConflicts(r.Context())
	h.renderView(r.Context(), w, view, err)
}

func (h *PlannerHandler) SetViewMode(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req viewModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	view, err := h.service.SetViewMode(r.Context(), req.Mode)
	h.renderView(r.Context(), w, view, err)
}

func (h *PlannerHandler) Itinerary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	doc, err := h.service.Itinerary(r.Context(), application.ItineraryParams{
		Format: application.ItineraryFormat(strings.ToLower(strings.TrimSpace(query.Get("format")))),
		Title:  query.Get("title"),
		Mode:   query.Get("mode"),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(doc.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(doc.Body)); err != nil {
		handlerLogger(r.Context(), h.logger, "PlannerHandler", "Itinerary").
			ErrorContext(r.Context(), "failed to write itinerary", "error", err)
	}
}

func (h *PlannerHandler) renderView(ctx context.Context, w http.ResponseWriter, view selection.View, err error) {
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, view)
}

type eventListResponse struct {
	Events []application.ListedEvent `json:"events"`
	Count  int                       `json:"count"`
}

type viewModeRequest struct {
	Mode string `json:"mode"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health reports liveness.
func Health(w http.ResponseWriter, r *http.Request) {
	newResponder(nil).writeJSON(r.Context(), w, http.StatusOK, healthResponse{Status: "ok"})
}
