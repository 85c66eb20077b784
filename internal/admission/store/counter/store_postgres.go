package counter

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wealthgate/internal/admission/models"
	"wealthgate/pkg/requestcontext"
)

// PostgresStore keeps one row per request in rate_limit_events. Increments for
// a key are serialized with a transaction-scoped advisory lock.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Increment(ctx context.Context, key string, window time.Duration) (models.WindowCount, error) {
	if err := validateKey(key, window); err != nil {
		return models.WindowCount{}, err
	}
	now := requestcontext.Now(ctx)
	cutoff := now.Add(-window)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.WindowCount{}, fmt.Errorf("begin rate limit tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1)::bigint)`, key); err != nil {
		return models.WindowCount{}, fmt.Errorf("acquire rate limit lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE key = $1 AND occurred_at <= $2`, key, cutoff); err != nil {
		return models.WindowCount{}, fmt.Errorf("cleanup rate limit events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO rate_limit_events (key, occurred_at) VALUES ($1, $2)`, key, now); err != nil {
		return models.WindowCount{}, fmt.Errorf("insert rate limit event: %w", err)
	}

	wc, err := windowCount(ctx, tx, key, cutoff, window)
	if err != nil {
		return models.WindowCount{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.WindowCount{}, fmt.Errorf("commit rate limit tx: %w", err)
	}
	return wc, nil
}

func (s *PostgresStore) Count(ctx context.Context, key string, window time.Duration) (models.WindowCount, error) {
	if err := validateKey(key, window); err != nil {
		return models.WindowCount{}, err
	}
	cutoff := requestcontext.Now(ctx).Add(-window)
	return windowCount(ctx, s.db, key, cutoff, window)
}

func (s *PostgresStore) Reset(ctx context.Context, key string) error {
	if key == "" {
		return errKeyRequired
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rate_limit_events WHERE key = $1`, key); err != nil {
		return fmt.Errorf("reset rate limit: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func windowCount(ctx context.Context, q queryer, key string, cutoff time.Time, window time.Duration) (models.WindowCount, error) {
	var (
		count  int
		oldest sql.NullTime
	)
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(occurred_at)
		FROM rate_limit_events
		WHERE key = $1 AND occurred_at > $2
	`, key, cutoff).Scan(&count, &oldest)
	if err != nil {
		return models.WindowCount{}, fmt.Errorf("count rate limit events: %w", err)
	}
	if !oldest.Valid {
		return models.WindowCount{}, nil
	}
	return models.WindowCount{Count: count, ResetAt: oldest.Time.Add(window)}, nil
}
