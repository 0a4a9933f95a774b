package holidays

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"easyfinances/internal/cache"
	"easyfinances/internal/config"
	"easyfinances/internal/core"
	"easyfinances/internal/log"
	"easyfinances/internal/ports"
)

var ErrUnknownSource = errors.New("unknown holiday source")

// None is the source used when holidays are disabled.
type None struct{}

func (None) Holidays(context.Context, int) ([]core.Holiday, error) { return nil, nil }

// New builds the source named by cfg.HolidaySource.
func New(ctx context.Context, cfg *config.Config) (ports.HolidaySource, error) {
	switch cfg.HolidaySource {
	case config.HolidaysBrasilAPI:
		return NewBrasilAPI(cfg.HolidayBaseURL, nil), nil
	case config.HolidaysGoogle:
		return NewGoogleCalendar(ctx, cfg.GoogleAPIKey, cfg.GoogleCalendarID)
	case config.HolidaysNone, "":
		return None{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, cfg.HolidaySource)
	}
}

// Persister is the durable side of the cache.
type Persister interface {
	SaveHolidays(ctx context.Context, year int, holidays []core.Holiday) error
	LoadHolidays(ctx context.Context, year int, maxAge time.Duration) ([]core.Holiday, bool, error)
}

// Cached wraps a source with an in-memory LRU and an optional durable
// store. When the upstream fails, stale durable data is served instead.
type Cached struct {
	upstream ports.HolidaySource
	memory   cache.Cache[[]core.Holiday]
	store    Persister
	maxAge   time.Duration
}

var _ ports.HolidaySource = (*Cached)(nil)

// NewCached wraps upstream. store may be nil.
func NewCached(upstream ports.HolidaySource, memory cache.Cache[[]core.Holiday], store Persister, maxAge time.Duration) *Cached {
	return &Cached{upstream: upstream, memory: memory, store: store, maxAge: maxAge}
}

func (c *Cached) Holidays(ctx context.Context, year int) ([]core.Holiday, error) {
	key := strconv.Itoa(year)
	if hs, ok := c.memory.Get(key); ok {
		return hs, nil
	}

	var stale []core.Holiday
	if c.store != nil {
		hs, fresh, err := c.store.LoadHolidays(ctx, year, c.maxAge)
		if err != nil {
			slog.WarnContext(ctx, "Failed to read holiday cache", log.FieldYear, year, log.FieldError, err)
		} else if fresh {
			c.memory.Set(key, hs)
			return hs, nil
		}
		stale = hs
	}

	hs, err := c.upstream.Holidays(ctx, year)
	if err != nil {
		if len(stale) > 0 {
			slog.WarnContext(ctx, "Serving stale holidays",
				log.FieldComponent, log.ComponentHolidays, log.FieldYear, year, log.FieldError, err)
			return stale, nil
		}
		return nil, err
	}

	c.memory.Set(key, hs)
	if c.store != nil {
		if err := c.store.SaveHolidays(ctx, year, hs); err != nil {
			slog.WarnContext(ctx, "Failed to persist holidays", log.FieldYear, year, log.FieldError, err)
		}
	}
	return hs, nil
}

// Refresh fetches year from upstream regardless of what is cached, and
// replaces both cached copies on success.
func (c *Cached) Refresh(ctx context.Context, year int) ([]core.Holiday, error) {
	hs, err := c.upstream.Holidays(ctx, year)
	if err != nil {
		return nil, err
	}
	c.memory.Set(strconv.Itoa(year), hs)
	if c.store != nil {
		if err := c.store.SaveHolidays(ctx, year, hs); err != nil {
			return hs, fmt.Errorf("persist holidays %d: %w", year, err)
		}
	}
	return hs, nil
}

// ForYears fetches several years concurrently and returns the holidays
// sorted by date. Duplicate years are fetched once.
func ForYears(ctx context.Context, src ports.HolidaySource, years ...int) ([]core.Holiday, error) {
	seen := make(map[int]bool, len(years))
	var unique []int
	for _, y := range years {
		if !seen[y] {
			seen[y] = true
			unique = append(unique, y)
		}
	}

	results := make([][]core.Holiday, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	for i, y := range unique {
		g.Go(func() error {
			hs, err := src.Holidays(gctx, y)
			if err != nil {
				return fmt.Errorf("holidays %d: %w", y, err)
			}
			results[i] = hs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []core.Holiday
	for _, hs := range results {
		out = append(out, hs...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
