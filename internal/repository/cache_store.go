package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// CacheStore persists cache entries in sqlite. It satisfies cache.Store.
type CacheStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewCacheStore(sqlDB *sql.DB, logger zerolog.Logger) *CacheStore {
	return &CacheStore{db: sqlDB, logger: logger}
}

func (r *CacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM cache_entries WHERE cache_key = ?`, key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	return payload, true, nil
}

func (r *CacheStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cache_entries (cache_key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

func (r *CacheStore) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry %s: %w", key, err)
	}
	return nil
}

func (r *CacheStore) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cache_key, payload FROM cache_entries WHERE cache_key LIKE ? ESCAPE '\'`,
		likePrefix(prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string][]byte)
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		entries[key] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cache entries: %w", err)
	}

	r.logger.Debug().Str("prefix", prefix).Int("count", len(entries)).Msg("listed cache entries")
	return entries, nil
}

func (r *CacheStore) DeletePrefix(ctx context.Context, prefix string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE cache_key LIKE ? ESCAPE '\'`,
		likePrefix(prefix),
	)
	if err != nil {
		return fmt.Errorf("failed to clear cache entries: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil {
		r.logger.Debug().Str("prefix", prefix).Int64("deleted", n).Msg("cleared cache entries")
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
