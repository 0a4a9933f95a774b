package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"easyfinances/internal/core"
)

type notificationsResponse struct {
	core.Notifications
	ShowPopup bool `json:"show_popup"`
}

type notificationHandlers struct {
	ResponseHandler ResponseHandler
	HomeSvc         homeService
	NotificationSvc notificationService
	Today           func() core.Date
}

func NewNotificationHandlers(deps *Deps) *notificationHandlers {
	return &notificationHandlers{
		ResponseHandler: deps.ResponseHandler,
		HomeSvc:         deps.HomeSvc,
		NotificationSvc: deps.NotificationSvc,
		Today:           deps.Today,
	}
}

func (h *notificationHandlers) NotificationRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListNotifications)
	r.Post("/dismiss", h.Dismiss) // must be before /{id}
	r.Post("/{id}/paid", h.MarkAsPaid)
	return r
}

// ListNotifications returns the unacknowledged due lists and whether the
// reminder popup should open. Asking counts as showing it.
func (h *notificationHandlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	today, err := ParseToday(r.URL.Query(), h.Today)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	due, show, err := h.HomeSvc.Notifications(r.Context(), today)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, notificationsResponse{Notifications: due, ShowPopup: show})
}

// MarkAsPaid acknowledges a due transaction and returns the lists that are
// still visible.
func (h *notificationHandlers) MarkAsPaid(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r, "id")
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	today, err := ParseToday(r.URL.Query(), h.Today)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	remaining, err := h.HomeSvc.MarkAsPaid(r.Context(), today, id)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, remaining)
}

func (h *notificationHandlers) Dismiss(w http.ResponseWriter, r *http.Request) {
	if err := h.NotificationSvc.Dismiss(r.Context()); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
