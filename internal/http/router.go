package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"easyfinances/internal/log"
	"easyfinances/internal/middleware/ratelimit"
	"easyfinances/internal/middleware/security"
)

// RouterConfig holds the cross-cutting pieces of the router. Nil Limiter
// or Detector disables that middleware.
type RouterConfig struct {
	Logger   *log.Logger
	Limiter  *ratelimit.Limiter
	Detector *security.Detector
	Headers  security.HeadersConfig
}

func NewRouter(deps *Deps, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.Logger != nil {
		r.Use(log.Middleware(cfg.Logger))
	}
	r.Use(log.AccessLog)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(cfg.Headers))
	if cfg.Detector != nil {
		r.Use(cfg.Detector.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		deps.ResponseHandler.WriteError(w, r, http.StatusNotFound, "not_found", "No such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		deps.ResponseHandler.WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		deps.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		if cfg.Limiter != nil {
			api.Use(writeLimit(cfg.Limiter, cfg.Detector, deps.ResponseHandler))
		}

		NewHomeHandlers(deps).RegisterRoutes(api)
		NewCatalogHandlers(deps).RegisterRoutes(api)
		api.Mount("/notifications", NewNotificationHandlers(deps).NotificationRoutes())
		api.Mount("/session", NewSessionHandlers(deps).SessionRoutes())
		api.Mount("/transactions", NewTransactionHandlers(deps).TransactionRoutes())
		api.Mount("/goals", NewGoalHandlers(deps).GoalRoutes())
	})

	return r
}

// writeLimit rate-limits requests that change state, keyed by client
// address. Reads are never limited.
func writeLimit(l *ratelimit.Limiter, d *security.Detector, rh ResponseHandler) func(http.Handler) http.Handler {
	key := func(r *http.Request) string {
		if d != nil {
			return d.ClientIP(r)
		}
		return r.RemoteAddr
	}
	limited := l.Middleware(key, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		rh.WriteError(w, r, http.StatusTooManyRequests, "rate_limited", "Too many requests, try again later")
	})

	return func(next http.Handler) http.Handler {
		guarded := limited(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
			default:
				guarded.ServeHTTP(w, r)
			}
		})
	}
}
