package backend

import (
	"context"
	"time"

	"easyfinances/internal/ports"
)

// Backend is everything the client needs from the finance backend.
type Backend interface {
	ports.TransactionSource
	ports.TransactionWriter
	ports.DashboardReader
	ports.CatalogReader
	ports.GoalStore
	ports.Authenticator
}

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend builds the backend selected by config. tokens holds the
	// bearer token of the REST backend.
	CreateBackend(ctx context.Context, config Config, tokens ports.KeyValueStore) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// REST
	APIBaseURL string
	APITimeout time.Duration

	// Memory backend expands recurring creates itself.
	HorizonMonths int
}

// BackendType represents the type of backend
type BackendType string

const (
	RESTBackend   BackendType = "rest"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case RESTBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
