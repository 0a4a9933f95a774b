// Package worker applies acknowledgment events received from other devices.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"easyfinances/internal/amqp"
	"easyfinances/internal/log"
)

// Deduper records processed message ids. MarkEventProcessed returns false
// for an id seen before.
type Deduper interface {
	IsEventProcessed(ctx context.Context, messageID string) (bool, error)
	MarkEventProcessed(ctx context.Context, messageID string) (bool, error)
	PruneProcessedEvents(ctx context.Context, cutoff time.Time) (int64, error)
}

// Acknowledger adds a transaction id to the durable acknowledged set.
type Acknowledger interface {
	Acknowledge(ctx context.Context, id int64) (bool, error)
}

// AckWorker folds mark-as-paid events from other devices into this
// device's acknowledged set.
type AckWorker struct {
	dedup    Deduper
	acks     Acknowledger
	deviceID string
}

func NewAckWorker(dedup Deduper, acks Acknowledger, deviceID string) *AckWorker {
	return &AckWorker{
		dedup:    dedup,
		acks:     acks,
		deviceID: deviceID,
	}
}

// HandleAck processes a single ack event from AMQP. Events published by
// this device and redelivered events are skipped.
func (w *AckWorker) HandleAck(ctx context.Context, event *amqp.AckEvent) error {
	if event.DeviceID != "" && event.DeviceID == w.deviceID {
		slog.DebugContext(ctx, "Skipping own ack event", "message_id", event.MessageID)
		return nil
	}

	seen, err := w.dedup.IsEventProcessed(ctx, event.MessageID)
	if err != nil {
		return fmt.Errorf("check event %s: %w", event.MessageID, err)
	}
	if seen {
		slog.DebugContext(ctx, "Skipping redelivered ack event", "message_id", event.MessageID)
		return nil
	}

	slog.InfoContext(ctx, "Processing ack event",
		log.FieldOperation, log.OpAck,
		"message_id", event.MessageID,
		log.FieldTransactionID, event.TransactionID,
		log.FieldDeviceID, event.DeviceID)

	added, err := w.acks.Acknowledge(ctx, event.TransactionID)
	if err != nil {
		return fmt.Errorf("acknowledge transaction %d: %w", event.TransactionID, err)
	}

	// recorded only after the set is written, so a failed write is retried
	// on redelivery
	if _, err := w.dedup.MarkEventProcessed(ctx, event.MessageID); err != nil {
		slog.ErrorContext(ctx, "Failed to record processed event",
			"message_id", event.MessageID, "error", err)
	}

	slog.InfoContext(ctx, "Ack event applied",
		"transaction_id", event.TransactionID,
		"new", added)
	return nil
}

// PruneProcessed forgets processed message ids older than maxAge.
func (w *AckWorker) PruneProcessed(ctx context.Context, maxAge time.Duration) error {
	n, err := w.dedup.PruneProcessedEvents(ctx, time.Now().Add(-maxAge))
	if err != nil {
		return fmt.Errorf("prune processed events: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Pruned processed events", "count", n)
	}
	return nil
}

// PeriodicPrune prunes every interval until ctx is done.
func (w *AckWorker) PeriodicPrune(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.PruneProcessed(ctx, maxAge); err != nil {
				slog.WarnContext(ctx, "Prune failed", "error", err)
			}
		}
	}
}
