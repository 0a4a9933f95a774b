package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"easyfinances/internal/core"
	"easyfinances/internal/log"
	"easyfinances/internal/ports"
)

// Store keys of the acknowledgment state.
const (
	PaidNotificationIDsKey       = "paidNotificationIds"
	NotificationsAcknowledgedKey = "notificationsAcknowledged"
)

const publishTimeout = 5 * time.Second

// AckPublisher announces a mark-as-paid to other devices.
type AckPublisher interface {
	PublishPaid(ctx context.Context, transactionID int64) error
}

// AckSet is the set of acknowledged transaction ids.
type AckSet map[int64]struct{}

func (s AckSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// FilterAcknowledged removes acknowledged ids from both due lists. The two
// lists are filtered independently; an id in both is removed from both.
func FilterAcknowledged(due core.Notifications, acked AckSet) core.Notifications {
	keep := func(in []core.Transaction) []core.Transaction {
		out := make([]core.Transaction, 0, len(in))
		for _, t := range in {
			if !acked.Has(t.ID) {
				out = append(out, t)
			}
		}
		return out
	}
	return core.Notifications{DueToday: keep(due.DueToday), DueTomorrow: keep(due.DueTomorrow)}
}

// IsEmpty reports whether neither list has an entry.
func IsEmpty(n core.Notifications) bool {
	return len(n.DueToday) == 0 && len(n.DueTomorrow) == 0
}

// NotificationReconciler combines the due lists from the backend with the
// locally acknowledged ids, and decides whether the reminder popup shows.
// The durable store keeps acknowledged ids across sessions; the session
// store keeps the popup dismissal until logout.
type NotificationReconciler struct {
	durable   ports.KeyValueStore
	session   ports.KeyValueStore
	publisher AckPublisher

	mu       sync.Mutex
	visible  core.Notifications
	computed bool
	shown    bool
}

type ReconcilerOption func(*NotificationReconciler)

// WithPublisher announces mark-as-paid events through p.
func WithPublisher(p AckPublisher) ReconcilerOption {
	return func(r *NotificationReconciler) { r.publisher = p }
}

func NewNotificationReconciler(durable, session ports.KeyValueStore, opts ...ReconcilerOption) *NotificationReconciler {
	r := &NotificationReconciler{durable: durable, session: session}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// loadIDs reads the stored ids in insertion order. Unreadable content is
// treated as an empty set.
func (r *NotificationReconciler) loadIDs(ctx context.Context) ([]int64, error) {
	raw, ok, err := r.durable.Get(ctx, PaidNotificationIDsKey)
	if err != nil {
		return nil, fmt.Errorf("read acknowledged ids: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		slog.WarnContext(ctx, "Ignoring corrupt acknowledged ids", log.FieldKey, PaidNotificationIDsKey, log.FieldError, err)
		return nil, nil
	}
	return ids, nil
}

func (r *NotificationReconciler) saveIDs(ctx context.Context, ids []int64) error {
	buf, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode acknowledged ids: %w", err)
	}
	if err := r.durable.Set(ctx, PaidNotificationIDsKey, string(buf)); err != nil {
		return fmt.Errorf("write acknowledged ids: %w", err)
	}
	return nil
}

// Acknowledged returns the acknowledged set.
func (r *NotificationReconciler) Acknowledged(ctx context.Context) (AckSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acknowledgedLocked(ctx)
}

func (r *NotificationReconciler) acknowledgedLocked(ctx context.Context) (AckSet, error) {
	ids, err := r.loadIDs(ctx)
	if err != nil {
		return nil, err
	}
	set := make(AckSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// Visible filters due against the acknowledged set and remembers the
// result as the current visible lists. The lock is held from reading the
// set to storing the result so a concurrent MarkAsPaid is never undone.
func (r *NotificationReconciler) Visible(ctx context.Context, due core.Notifications) (core.Notifications, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	acked, err := r.acknowledgedLocked(ctx)
	if err != nil {
		return core.Notifications{}, err
	}
	r.visible = FilterAcknowledged(due, acked)
	r.computed = true
	return r.visible, nil
}

// HasView reports whether Visible has run since construction or the last
// Logout, that is whether Current reflects real due lists.
func (r *NotificationReconciler) HasView() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.computed
}

// Acknowledge adds id to the durable set. It reports whether the id was
// new; an existing id causes no write.
func (r *NotificationReconciler) Acknowledge(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acknowledgeLocked(ctx, id)
}

func (r *NotificationReconciler) acknowledgeLocked(ctx context.Context, id int64) (bool, error) {
	ids, err := r.loadIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, existing := range ids {
		if existing == id {
			return false, nil
		}
	}
	if err := r.saveIDs(ctx, append(ids, id)); err != nil {
		return false, err
	}
	return true, nil
}

// MarkAsPaid acknowledges id and drops it from the current visible lists,
// which are the lists of the last Visible call (empty before the first).
// It needs no network: publishing to other devices is best effort and its
// failure is only logged.
func (r *NotificationReconciler) MarkAsPaid(ctx context.Context, id int64) (core.Notifications, error) {
	r.mu.Lock()
	added, err := r.acknowledgeLocked(ctx, id)
	if err != nil {
		r.mu.Unlock()
		return core.Notifications{}, err
	}
	r.visible = FilterAcknowledged(r.visible, AckSet{id: {}})
	visible := r.visible
	r.mu.Unlock()

	slog.InfoContext(ctx, "Notification marked as paid",
		log.FieldOperation, log.OpAck, log.FieldTransactionID, id, "new", added)

	if added && r.publisher != nil {
		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := r.publisher.PublishPaid(pctx, id); err != nil {
			slog.WarnContext(ctx, "Failed to publish ack event", "transaction_id", id, "error", err)
		}
	}
	return visible, nil
}

// Current returns the last computed visible lists.
func (r *NotificationReconciler) Current() core.Notifications {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visible
}

// ShouldShowPopup is true when the popup was not dismissed in this session
// and something is visible.
func (r *NotificationReconciler) ShouldShowPopup(ctx context.Context, visible core.Notifications) (bool, error) {
	if IsEmpty(visible) {
		return false, nil
	}
	v, ok, err := r.session.Get(ctx, NotificationsAcknowledgedKey)
	if err != nil {
		return false, fmt.Errorf("read session flag: %w", err)
	}
	return !(ok && v == "true"), nil
}

// Evaluate returns the popup decision once: after it returns true, later
// evaluations return false until Logout.
func (r *NotificationReconciler) Evaluate(ctx context.Context, visible core.Notifications) (bool, error) {
	r.mu.Lock()
	shown := r.shown
	r.mu.Unlock()
	if shown {
		return false, nil
	}

	show, err := r.ShouldShowPopup(ctx, visible)
	if err != nil || !show {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.shown {
		return false, nil
	}
	r.shown = true
	return true, nil
}

// Dismiss records that the user closed the popup in this session.
func (r *NotificationReconciler) Dismiss(ctx context.Context) error {
	if err := r.session.Set(ctx, NotificationsAcknowledgedKey, "true"); err != nil {
		return fmt.Errorf("write session flag: %w", err)
	}
	slog.DebugContext(ctx, "Reminder dismissed", log.FieldOperation, log.OpDismiss)
	return nil
}

// Logout clears the session flag so the next login evaluates the popup
// afresh. Acknowledged ids are kept.
func (r *NotificationReconciler) Logout(ctx context.Context) error {
	if err := r.session.Remove(ctx, NotificationsAcknowledgedKey); err != nil {
		return fmt.Errorf("clear session flag: %w", err)
	}
	r.mu.Lock()
	r.shown = false
	r.visible = core.Notifications{}
	r.computed = false
	r.mu.Unlock()
	return nil
}
