package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"easyfinances/internal/ports"
)

// EventNotificationPaid is the routing key and type of a mark-as-paid event.
const EventNotificationPaid = "notification.paid"

// DeviceIDKey is where a device's identifier is kept in the durable store.
const DeviceIDKey = "deviceId"

var ErrInvalidEvent = errors.New("invalid ack event")

// AckEvent tells other devices that a due notification was marked as paid.
// Only the transaction id travels; the acknowledged set is rebuilt locally.
type AckEvent struct {
	MessageID     string    `json:"message_id"`
	Type          string    `json:"type"`
	TransactionID int64     `json:"transaction_id"`
	DeviceID      string    `json:"device_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewAckEvent(transactionID int64, deviceID string) *AckEvent {
	return &AckEvent{
		MessageID:     uuid.NewString(),
		Type:          EventNotificationPaid,
		TransactionID: transactionID,
		DeviceID:      deviceID,
		Timestamp:     time.Now().UTC(),
	}
}

func (e *AckEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func (e *AckEvent) Validate() error {
	if e.MessageID == "" {
		return fmt.Errorf("%w: missing message id", ErrInvalidEvent)
	}
	if e.Type != EventNotificationPaid {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.TransactionID <= 0 {
		return fmt.Errorf("%w: transaction id %d", ErrInvalidEvent, e.TransactionID)
	}
	return nil
}

// AckEventFromJSON decodes and validates an event.
func AckEventFromJSON(data []byte) (*AckEvent, error) {
	var e AckEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// DeviceID returns this device's identifier, creating it on first use.
func DeviceID(ctx context.Context, store ports.KeyValueStore) (string, error) {
	id, ok, err := store.Get(ctx, DeviceIDKey)
	if err != nil {
		return "", fmt.Errorf("read device id: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := store.Set(ctx, DeviceIDKey, id); err != nil {
		return "", fmt.Errorf("store device id: %w", err)
	}
	return id, nil
}

// QueueName returns the queue of one device. Each device consumes its own
// copy of every event.
func QueueName(prefix, deviceID string) string {
	return prefix + "." + deviceID
}
