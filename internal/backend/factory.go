package backend

import (
	"context"
	"fmt"
	"log/slog"

	"easyfinances/internal/api"
	"easyfinances/internal/backend/memory"
	"easyfinances/internal/ports"
	"easyfinances/internal/recurrence"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config, tokens ports.KeyValueStore) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case RESTBackend:
		return f.createRESTBackend(config, tokens)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createRESTBackend(config Config, tokens ports.KeyValueStore) (*BackendResult, error) {
	if tokens == nil {
		return nil, fmt.Errorf("rest backend needs a token store")
	}
	client, err := api.NewClient(api.Config{
		BaseURL: config.APIBaseURL,
		Timeout: config.APITimeout,
	}, tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize REST client: %w", err)
	}

	f.logger.Info("Initialized REST backend",
		"base_url", config.APIBaseURL,
		"timeout", config.APITimeout)

	return &BackendResult{Backend: client}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.NewSeeded(memory.WithExpander(recurrence.NewExpander(config.HorizonMonths)))

	f.logger.Info("Initialized memory backend", "horizon_months", config.HorizonMonths)

	return &BackendResult{Backend: store}, nil
}
