package cache

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned for a request that a newer request on the same
// slot replaced before it completed.
var ErrSuperseded = errors.New("request superseded by a newer one")

// Latest keeps at most one live request per slot. Starting a request on a
// slot cancels the one in flight there, and the older result is discarded
// even when it arrives after the newer one.
type Latest struct {
	mu    sync.Mutex
	seq   uint64
	slots map[string]flight
}

type flight struct {
	seq    uint64
	cancel context.CancelFunc
}

func NewLatest() *Latest {
	return &Latest{slots: make(map[string]flight)}
}

func (l *Latest) begin(ctx context.Context, slot string) (context.Context, uint64, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.slots[slot]; ok {
		prev.cancel()
	}
	l.seq++
	l.slots[slot] = flight{seq: l.seq, cancel: cancel}
	return ctx, l.seq, cancel
}

// finish reports whether seq is still the live request of slot, and releases
// the slot when it is.
func (l *Latest) finish(slot string, seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, ok := l.slots[slot]
	if !ok || cur.seq != seq {
		return false
	}
	delete(l.slots, slot)
	return true
}

// InFlight reports whether slot has a live request.
func (l *Latest) InFlight(slot string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.slots[slot]
	return ok
}

// Run executes fn as the latest request of slot. fn receives a context that
// is cancelled when a newer Run on the same slot starts.
func Run[T any](ctx context.Context, l *Latest, slot string, fn func(context.Context) (T, error)) (T, error) {
	runCtx, seq, cancel := l.begin(ctx, slot)
	defer cancel()

	v, err := fn(runCtx)
	if !l.finish(slot, seq) {
		var zero T
		return zero, ErrSuperseded
	}
	return v, err
}
