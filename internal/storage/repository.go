package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"easyfinances/internal/core"
	"easyfinances/internal/log"
	"easyfinances/internal/ports"

	_ "modernc.org/sqlite"
)

// Key-value scopes. Local entries survive restarts and logouts; session
// entries are wiped on logout.
const (
	ScopeLocal   = "local"
	ScopeSession = "session"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// KVStore is a ports.KeyValueStore backed by one scope of kv_entries.
type KVStore struct {
	db    *sql.DB
	scope string
}

var _ ports.KeyValueStore = (*KVStore)(nil)

// Store returns the key-value store for scope.
func (r *SQLiteRepository) Store(scope string) *KVStore {
	return &KVStore{db: r.db, scope: scope}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv_entries WHERE scope = ? AND key = ?`, s.scope, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s/%s: %w", s.scope, key, err)
	}
	return value, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv_entries (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.scope, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", s.scope, key, err)
	}
	return nil
}

func (s *KVStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE scope = ? AND key = ?`, s.scope, key); err != nil {
		return fmt.Errorf("remove %s/%s: %w", s.scope, key, err)
	}
	return nil
}

// Clear removes every key of the scope.
func (s *KVStore) Clear(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE scope = ?`, s.scope)
	if err != nil {
		return fmt.Errorf("clear %s: %w", s.scope, err)
	}
	n, _ := res.RowsAffected()
	slog.DebugContext(ctx, "Cleared key-value scope",
		log.FieldComponent, log.ComponentStorage, log.FieldScope, s.scope, "removed", n)
	return nil
}

// SaveHolidays replaces the cached holidays of a year.
func (r *SQLiteRepository) SaveHolidays(ctx context.Context, year int, holidays []core.Holiday) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM holidays WHERE year = ?`, year); err != nil {
		return fmt.Errorf("delete holidays for %d: %w", year, err)
	}
	now := time.Now().Unix()
	for _, h := range holidays {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO holidays (year, date, name, type, fetched_at) VALUES (?, ?, ?, ?, ?)`,
			year, h.Date.String(), h.Name, h.Type, now); err != nil {
			return fmt.Errorf("insert holiday %s: %w", h.Date, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit holidays: %w", err)
	}

	slog.InfoContext(ctx, "Holidays cached",
		log.FieldComponent, log.ComponentStorage, log.FieldYear, year, "count", len(holidays))
	return nil
}

// LoadHolidays returns the cached holidays of a year. ok is false when the
// year was never cached or the cache is older than maxAge.
func (r *SQLiteRepository) LoadHolidays(ctx context.Context, year int, maxAge time.Duration) ([]core.Holiday, bool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT date, name, type, fetched_at FROM holidays WHERE year = ? ORDER BY date, name`, year)
	if err != nil {
		return nil, false, fmt.Errorf("query holidays for %d: %w", year, err)
	}
	defer rows.Close()

	var (
		out    []core.Holiday
		oldest int64
	)
	for rows.Next() {
		var (
			date, name, typ string
			fetchedAt       int64
		)
		if err := rows.Scan(&date, &name, &typ, &fetchedAt); err != nil {
			return nil, false, fmt.Errorf("scan holiday: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, false, fmt.Errorf("parse cached holiday date: %w", err)
		}
		if oldest == 0 || fetchedAt < oldest {
			oldest = fetchedAt
		}
		out = append(out, core.Holiday{Date: d, Name: name, Type: typ})
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate holidays: %w", err)
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	if maxAge > 0 && time.Since(time.Unix(oldest, 0)) > maxAge {
		return out, false, nil
	}
	return out, true, nil
}

// MarkEventProcessed records a message id. It returns false when the id was
// already recorded, so redelivered messages can be skipped.
func (r *SQLiteRepository) MarkEventProcessed(ctx context.Context, messageID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_events (message_id, processed_at) VALUES (?, ?)`,
		messageID, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("mark event %s processed: %w", messageID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// PruneProcessedEvents forgets message ids recorded before cutoff.
func (r *SQLiteRepository) PruneProcessedEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM processed_events WHERE processed_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune processed events: %w", err)
	}
	return res.RowsAffected()
}

// IsEventProcessed reports whether messageID was recorded.
func (r *SQLiteRepository) IsEventProcessed(ctx context.Context, messageID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_events WHERE message_id = ?`, messageID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check event %s: %w", messageID, err)
	}
	return n > 0, nil
}
