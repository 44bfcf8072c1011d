package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Planner    *PlannerHandler
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		Health(w, r)
	})

	if cfg.Planner != nil {
		mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Planner.ListEvents(w, r)
		})
		mux.HandleFunc("/itinerary", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Planner.Itinerary(w, r)
		})
		mux.HandleFunc("/selection", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Planner.GetSelection(w, r)
			case http.MethodDelete:
				cfg.Planner.ClearSelection(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		})
		mux.HandleFunc("/selection/", func(w http.ResponseWriter, r *http.Request) {
			routeSelection(cfg.Planner, w, r)
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func routeSelection(h *PlannerHandler, w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/selection/"), "/")
	switch rest {
	case "":
		http.NotFound(w, r)
		return
	case "resolve":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.ResolveConflicts(w, r)
		return
	case "view-mode":
		if r.Method != http.MethodPut {
			methodNotAllowed(w, http.MethodPut)
			return
		}
		h.SetViewMode(w, r)
		return
	}

	id, action, _ := strings.Cut(rest, "/")
	r = r.WithContext(ContextWithEventID(r.Context(), id))
	switch action {
	case "":
		switch r.Method {
		case http.MethodPost:
			h.AddEvent(w, r)
		case http.MethodDelete:
			h.RemoveEvent(w, r)
		default:
			methodNotAllowed(w, http.MethodPost, http.MethodDelete)
		}
	case "toggle":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.ToggleEvent(w, r)
	default:
		http.NotFound(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
