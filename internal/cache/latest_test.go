package cache

import (
	"context"
	"errors"
	"testing"
)

func TestRunReturnsResult(t *testing.T) {
	l := NewLatest()
	v, err := Run(context.Background(), l, "transactions:list", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil || v != 42 {
		t.Fatalf("Run() = %d, %v", v, err)
	}
	if l.InFlight("transactions:list") {
		t.Error("slot should be released after completion")
	}
}

func TestRunPropagatesError(t *testing.T) {
	l := NewLatest()
	boom := errors.New("boom")
	_, err := Run(context.Background(), l, "s", func(ctx context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestRunSupersedesOlderRequest(t *testing.T) {
	l := NewLatest()
	started := make(chan struct{})
	result := make(chan error, 1)

	go func() {
		_, err := Run(context.Background(), l, "transactions:list", func(ctx context.Context) (string, error) {
			close(started)
			<-ctx.Done()
			// a slow backend still answers after cancellation
			return "stale page", nil
		})
		result <- err
	}()

	<-started
	v, err := Run(context.Background(), l, "transactions:list", func(ctx context.Context) (string, error) {
		return "fresh page", nil
	})
	if err != nil || v != "fresh page" {
		t.Fatalf("newer Run() = %q, %v", v, err)
	}

	if err := <-result; !errors.Is(err, ErrSuperseded) {
		t.Errorf("older Run() err = %v, want ErrSuperseded", err)
	}
}

func TestRunSlotsAreIndependent(t *testing.T) {
	l := NewLatest()
	started := make(chan struct{})
	release := make(chan struct{})
	result := make(chan error, 1)

	go func() {
		_, err := Run(context.Background(), l, "a", func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 1, ctx.Err()
		})
		result <- err
	}()

	<-started
	if _, err := Run(context.Background(), l, "b", func(ctx context.Context) (int, error) { return 2, nil }); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-result; err != nil {
		t.Errorf("slot a should not be cancelled by slot b: %v", err)
	}
}
