package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"easyfinances/internal/errs"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionHandlers struct {
	ResponseHandler ResponseHandler
	SessionSvc      sessionService
}

func NewSessionHandlers(deps *Deps) *sessionHandlers {
	return &sessionHandlers{
		ResponseHandler: deps.ResponseHandler,
		SessionSvc:      deps.SessionSvc,
	}
}

func (h *sessionHandlers) SessionRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	return r
}

func (h *sessionHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("username and password are required"))
		return
	}

	if err := h.SessionSvc.Login(r.Context(), req.Username, req.Password); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]string{"username": req.Username})
}

func (h *sessionHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionSvc.Logout(r.Context()); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
