package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"easyfinances/internal/errs"
	"easyfinances/internal/log"
	"easyfinances/internal/services"
)

// SuccessEnvelope wraps every successful payload.
type SuccessEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ResponseHandler interface {
	WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data any)
	WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string)
	HandleError(w http.ResponseWriter, r *http.Request, err error)
}

type responseHandler struct{}

func NewResponseHandler() ResponseHandler {
	return responseHandler{}
}

func (responseHandler) WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(SuccessEnvelope{Success: true, Data: data}); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode success response", log.FieldError, err)
	}
}

func (responseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Code: code, Message: message}); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode error response",
			log.FieldError, err, log.FieldStatusCode, status, "code", code)
	}
}

// HandleError maps err onto a status and an error code. Service errors
// arrive wrapped, so matching goes through errors.As.
func (h responseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var (
		notFound     *errs.NotFoundError
		validation   *errs.ValidationError
		unauthorized *errs.UnauthorizedError
		external     *errs.ExternalServiceError
	)
	switch {
	case errors.As(err, &validation):
		logger.WarnContext(ctx, "Validation failed", log.FieldError, validation.Message)
		h.WriteError(w, r, http.StatusBadRequest, "invalid_input", validation.Message)

	case errors.As(err, &notFound):
		logger.WarnContext(ctx, "Resource not found", log.FieldError, notFound.Message)
		h.WriteError(w, r, http.StatusNotFound, "not_found", notFound.Message)

	case errors.As(err, &unauthorized):
		logger.InfoContext(ctx, "Backend rejected credentials", log.FieldError, unauthorized.Message)
		h.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Log in again to continue")

	case services.IsSuperseded(err):
		h.WriteError(w, r, http.StatusConflict, "superseded", "A newer request replaced this one")

	case errors.As(err, &external):
		level := slog.LevelError
		status := http.StatusBadGateway
		if external.Transient {
			level = slog.LevelWarn
			status = http.StatusServiceUnavailable
		}
		logger.Log(ctx, level, "External service error",
			"service", external.Service,
			"transient", external.Transient,
			log.FieldError, external.Message)
		h.WriteError(w, r, status, "service_unavailable", "Service temporarily unavailable")

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.WarnContext(ctx, "Request abandoned", log.FieldError, err)
		h.WriteError(w, r, http.StatusServiceUnavailable, "service_unavailable", "Service temporarily unavailable")

	default:
		logger.ErrorContext(ctx, "Unexpected error", log.FieldError, err)
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
