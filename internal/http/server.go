package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"easyfinances/internal/middleware/ratelimit"
)

// Server is the API listener. Shutdown also stops the rate limiter sweep.
type Server struct {
	http.Server
	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer returns a ready-to-run server for handler. limiter may be nil.
func NewServer(addr string, handler http.Handler, limiter *ratelimit.Limiter) *Server {
	return &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 16,
		},
		limiter: limiter,
	}
}

// Shutdown drains connections and stops background work. Only the first
// call has any effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
