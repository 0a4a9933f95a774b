package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"easyfinances/internal/core"
)

type homeHandlers struct {
	ResponseHandler ResponseHandler
	HomeSvc         homeService
	Today           func() core.Date
}

func NewHomeHandlers(deps *Deps) *homeHandlers {
	return &homeHandlers{
		ResponseHandler: deps.ResponseHandler,
		HomeSvc:         deps.HomeSvc,
		Today:           deps.Today,
	}
}

// RegisterRoutes adds the home routes to r. They share the /api prefix
// with other handlers, so they are registered rather than mounted.
func (h *homeHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/home", h.GetHome)
	r.Get("/upcoming", h.GetUpcoming)
	r.Get("/calendar/{year}/{month}", h.GetCalendar)
}

func (h *homeHandlers) GetHome(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	today, err := ParseToday(query, h.Today)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	var day *core.Date
	if d, ok, err := ParseDateQuery(query, "day"); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	} else if ok {
		day = &d
	}

	view, err := h.HomeSvc.Build(r.Context(), today, day)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, view)
}

func (h *homeHandlers) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	today, err := ParseToday(r.URL.Query(), h.Today)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	items, err := h.HomeSvc.Upcoming(r.Context(), today)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, items)
}

func (h *homeHandlers) GetCalendar(w http.ResponseWriter, r *http.Request) {
	today, err := ParseToday(r.URL.Query(), h.Today)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	year, err := parseIntParam(r, "year")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	month, err := parseIntParam(r, "month")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	view, err := h.HomeSvc.Month(r.Context(), year, month, today)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, view)
}
