package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easyfinances/internal/api"
	"easyfinances/internal/backend/memory"
	"easyfinances/internal/config"
	kv "easyfinances/internal/ports/memory"
)

func TestBackendType_IsValid(t *testing.T) {
	tests := []struct {
		name string
		bt   BackendType
		want bool
	}{
		{"rest", RESTBackend, true},
		{"memory", MemoryBackend, true},
		{"sqlite", BackendType("sqlite"), false},
		{"empty", BackendType(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bt.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	assert.Equal(t, []string{"rest", "memory"}, GetBackendTypeStrings())
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	cfg := &config.Config{
		DataBackend:             config.BackendREST,
		APIBaseURL:              "http://localhost:8000/api",
		APITimeout:              5 * time.Second,
		RecurrenceHorizonMonths: 12,
	}
	got, err := FromAppConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, RESTBackend, got.Type)
	assert.Equal(t, "http://localhost:8000/api", got.APIBaseURL)
	assert.Equal(t, 5*time.Second, got.APITimeout)
	assert.Equal(t, 12, got.HorizonMonths)

	cfg.DataBackend = "csv"
	_, err = FromAppConfig(cfg)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"rest ok", Config{Type: RESTBackend, APIBaseURL: "https://api.example.com"}, false},
		{"rest without url", Config{Type: RESTBackend}, true},
		{"rest relative url", Config{Type: RESTBackend, APIBaseURL: "/api"}, true},
		{"rest negative timeout", Config{Type: RESTBackend, APIBaseURL: "https://api.example.com", APITimeout: -time.Second}, true},
		{"memory", Config{Type: MemoryBackend}, false},
		{"unknown", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactoryCreatesBackends(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend, HorizonMonths: 6}, nil)
	require.NoError(t, err)
	_, ok := res.Backend.(*memory.Backend)
	assert.True(t, ok)
	assert.Nil(t, res.Cleanup)

	res, err = f.CreateBackend(ctx, Config{Type: RESTBackend, APIBaseURL: "http://localhost:8000/api"}, kv.New())
	require.NoError(t, err)
	_, ok = res.Backend.(*api.Client)
	assert.True(t, ok)

	_, err = f.CreateBackend(ctx, Config{Type: RESTBackend, APIBaseURL: "http://localhost:8000/api"}, nil)
	assert.Error(t, err, "the rest backend needs somewhere to keep its token")

	_, err = f.CreateBackend(ctx, Config{Type: "csv"}, nil)
	assert.Error(t, err)
}
