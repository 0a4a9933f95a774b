package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"easyfinances/internal/core"
	"easyfinances/internal/log"
)

// HolidayRefresherConfig holds configuration for the holiday refresher
type HolidayRefresherConfig struct {
	// Interval is how often the cached years are refetched (default: 24h)
	Interval time.Duration

	// YearsAhead is how many years after the current one are kept warm (default: 1)
	YearsAhead int
}

// DefaultHolidayRefresherConfig returns the defaults
func DefaultHolidayRefresherConfig() HolidayRefresherConfig {
	return HolidayRefresherConfig{
		Interval:   24 * time.Hour,
		YearsAhead: 1,
	}
}

// YearRefresher refetches one year of holidays past any cache.
type YearRefresher interface {
	Refresh(ctx context.Context, year int) ([]core.Holiday, error)
}

// HolidayRefresher keeps the holiday cache of the current and next years
// warm, so the calendar keeps its holidays when the upstream is down.
type HolidayRefresher struct {
	source YearRefresher
	today  func() core.Date
	config HolidayRefresherConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewHolidayRefresher(source YearRefresher, today func() core.Date, config HolidayRefresherConfig) *HolidayRefresher {
	if today == nil {
		today = core.Today
	}
	if config.Interval <= 0 {
		config.Interval = DefaultHolidayRefresherConfig().Interval
	}
	if config.YearsAhead < 0 {
		config.YearsAhead = 0
	}
	return &HolidayRefresher{source: source, today: today, config: config}
}

// Start begins the refresh loop. Returns an error if already running.
func (r *HolidayRefresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("holiday refresher is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "Holiday refresher started",
		log.FieldComponent, log.ComponentHolidays,
		"interval", r.config.Interval,
		"years_ahead", r.config.YearsAhead)
	return nil
}

// Stop stops the loop and waits for it to finish.
func (r *HolidayRefresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.running = false
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Holiday refresher stopped")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Holiday refresher stop timed out")
		return ctx.Err()
	}
}

func (r *HolidayRefresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *HolidayRefresher) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.RefreshNow(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RefreshNow(ctx)
		}
	}
}

// RefreshNow refetches every tracked year once and returns how many
// succeeded. Failures are logged; the cached copy stays in place.
func (r *HolidayRefresher) RefreshNow(ctx context.Context) int {
	year := r.today().Year()
	ok := 0
	for y := year; y <= year+r.config.YearsAhead; y++ {
		select {
		case <-ctx.Done():
			return ok
		default:
		}

		hs, err := r.source.Refresh(ctx, y)
		if err != nil {
			slog.WarnContext(ctx, "Holiday refresh failed",
				log.FieldOperation, log.OpSync, log.FieldYear, y, log.FieldError, err)
			continue
		}
		ok++
		slog.DebugContext(ctx, "Holidays refreshed",
			log.FieldOperation, log.OpSync, log.FieldYear, y, "count", len(hs))
	}
	return ok
}
