package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"easyfinances/internal/cli"
	apphttp "easyfinances/internal/http"
	"easyfinances/internal/log"
	"easyfinances/internal/middleware/ratelimit"
	"easyfinances/internal/middleware/security"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	app, err := cli.NewApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize application", log.FieldError, err)
		os.Exit(1)
	}

	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig())
	router := apphttp.NewRouter(&apphttp.Deps{
		ResponseHandler: apphttp.NewResponseHandler(),
		Today:           app.Today,
		HomeSvc:         app.Home,
		NotificationSvc: app.Reconciler,
		SessionSvc:      app.Session,
		TransactionSvc:  app.Transactions,
		CatalogSvc:      app.Backend,
		GoalSvc:         app.Goals,
	}, apphttp.RouterConfig{
		Logger:   logger.WithComponent(log.ComponentHTTP),
		Limiter:  limiter,
		Detector: security.NewDetector(),
		Headers:  security.DefaultHeadersConfig(),
	})
	srv := apphttp.NewServer(":"+cfg.Port, router, limiter)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := app.Close(ctx); err != nil {
			logger.Error("Failed to release resources", log.FieldError, err)
		}
	})

	if err := app.Start(ctx); err != nil {
		logger.Error("Failed to start background work", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting EasyFinances server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"api_base_url", cfg.APIBaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
