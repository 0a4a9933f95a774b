package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"easyfinances/internal/cli"
	"easyfinances/internal/config"
	"easyfinances/internal/errs"
	"easyfinances/internal/log"
)

func main() {
	cli.LoadEnvFile()

	// commands print their own output; logs only carry problems
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	logger := log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentCLI,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)

	var app *cli.App
	load := func(ctx context.Context) (*cli.App, error) {
		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		a, err := cli.NewApp(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		app = a
		return a, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	err := cli.NewRootCommand(load).ExecuteContext(ctx)
	cancel()

	if app != nil {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if cerr := app.Close(closeCtx); cerr != nil {
			logger.Warn("Failed to release resources", log.FieldError, cerr)
		}
		closeCancel()
	}

	if err != nil {
		if errs.IsUnauthorized(err) {
			fmt.Fprintln(os.Stderr, "Not logged in or session expired. Run: finctl login -u <user> -p <password>")
		}
		os.Exit(1)
	}
}
