package main

import (
	"context"
	"errors"
	"os"
	"time"

	"easyfinances/internal/amqp"
	"easyfinances/internal/cli"
	"easyfinances/internal/log"
	"easyfinances/internal/services"
	"easyfinances/internal/storage"
	"easyfinances/internal/worker"
)

const (
	pruneInterval = time.Hour
	pruneMaxAge   = 7 * 24 * time.Hour
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	logger.Info("Starting ack-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the ack worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.StateDBPath)
	defer repo.Close()

	durable := repo.Store(storage.ScopeLocal)
	deviceID, err := amqp.DeviceID(context.Background(), durable)
	if err != nil {
		logger.Error("Failed to resolve device id", log.FieldError, err)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, amqp.QueueName(cfg.AMQPQueue, deviceID))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	// the worker only touches the durable acknowledged set
	reconciler := services.NewNotificationReconciler(durable, repo.Store(storage.ScopeSession))
	ackWorker := worker.NewAckWorker(repo, reconciler, deviceID)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	if err := ackWorker.PruneProcessed(ctx, pruneMaxAge); err != nil {
		logger.Warn("Startup prune failed", log.FieldError, err)
	}
	go ackWorker.PeriodicPrune(ctx, pruneInterval, pruneMaxAge)

	logger.Info("Consuming ack events",
		"exchange", cfg.AMQPExchange,
		log.FieldDeviceID, deviceID)
	if err := client.Consume(ctx, ackWorker.HandleAck); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Ack worker stopped")
}
