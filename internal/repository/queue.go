package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"pokemon-sysbot/internal/constants"
	"pokemon-sysbot/internal/domain"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

var (
	ErrQueuedBuildNotFound = errors.New("queued build not found")
	ErrTeamFull            = errors.New("team size limit reached")
)

type QueueStatus string

const (
	StatusQueued    QueueStatus = "queued"
	StatusTrading   QueueStatus = "trading"
	StatusDelivered QueueStatus = "delivered"
	StatusCancelled QueueStatus = "cancelled"
)

type QueuedBuild struct {
	ID          string              `json:"id"`
	PrincipalID string              `json:"principal_id"`
	Payload     domain.BuildPayload `json:"payload"`
	Status      QueueStatus         `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type QueueRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewQueueRepository(sqlDB *sql.DB, logger zerolog.Logger) *QueueRepository {
	return &QueueRepository{db: sqlDB, logger: logger}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertQueued(ctx context.Context, db execer, principalID string, payload domain.BuildPayload, now time.Time) (*QueuedBuild, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal build payload: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO queued_builds (id, principal_id, species, payload, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, principalID, payload.Species, string(body), StatusQueued, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue build: %w", err)
	}

	return &QueuedBuild{
		ID:          id,
		PrincipalID: principalID,
		Payload:     payload,
		Status:      StatusQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (r *QueueRepository) Enqueue(ctx context.Context, principalID string, payload domain.BuildPayload) (*QueuedBuild, error) {
	qb, err := insertQueued(ctx, r.db, principalID, payload, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("id", qb.ID).Str("principal", principalID).Str("species", payload.Species).Msg("build enqueued")
	return qb, nil
}

// EnqueueBatch inserts every payload or none. The active count and the inserts share one
// write transaction, so concurrent batches for a principal cannot overshoot limit.
func (r *QueueRepository) EnqueueBatch(ctx context.Context, principalID string, limit int, payloads []domain.BuildPayload) ([]QueuedBuild, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	active, err := countActive(ctx, tx, principalID)
	if err != nil {
		return nil, err
	}
	if active+len(payloads) > limit {
		return nil, fmt.Errorf("%w: %d queued, %d requested, limit %d", ErrTeamFull, active, len(payloads), limit)
	}

	now := time.Now().UTC()
	queued := make([]QueuedBuild, 0, len(payloads))
	for _, p := range payloads {
		qb, err := insertQueued(ctx, tx, principalID, p, now)
		if err != nil {
			return nil, err
		}
		queued = append(queued, *qb)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit queued builds: %w", err)
	}

	r.logger.Debug().Str("principal", principalID).Int("count", len(queued)).Int("active", active+len(queued)).Msg("builds enqueued")
	return queued, nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func countActive(ctx context.Context, db rowQuerier, principalID string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queued_builds WHERE principal_id = ? AND status IN (?, ?)`,
		principalID, StatusQueued, StatusTrading,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count queued builds: %w", err)
	}
	return n, nil
}

func (r *QueueRepository) CountActive(ctx context.Context, principalID string) (int, error) {
	return countActive(ctx, r.db, principalID)
}

// ListByPrincipal returns builds in the given statuses, oldest first. No statuses means all.
func (r *QueueRepository) ListByPrincipal(ctx context.Context, principalID string, statuses ...QueueStatus) ([]QueuedBuild, error) {
	query := `SELECT id, principal_id, payload, status, created_at, updated_at
		FROM queued_builds WHERE principal_id = ?`
	args := []any{principalID}
	if len(statuses) > 0 {
		query += ` AND status IN (?` + strings.Repeat(",?", len(statuses)-1) + `)`
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += ` ORDER BY created_at, id LIMIT ?`
	args = append(args, constants.QueueListLimit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list queued builds: %w", err)
	}
	defer rows.Close()

	var result []QueuedBuild
	for rows.Next() {
		qb, err := scanQueued(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, qb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queued builds: %w", err)
	}
	return result, nil
}

func (r *QueueRepository) Get(ctx context.Context, id string) (*QueuedBuild, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, principal_id, payload, status, created_at, updated_at
		FROM queued_builds WHERE id = ?`, id)
	qb, err := scanQueued(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQueuedBuildNotFound
	}
	if err != nil {
		return nil, err
	}
	return &qb, nil
}

// SetStatus moves every listed build to status inside one transaction.
func (r *QueueRepository) SetStatus(ctx context.Context, status QueueStatus, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, id := range ids {
		res, err := tx.ExecContext(ctx,
			`UPDATE queued_builds SET status = ?, updated_at = ? WHERE id = ?`,
			status, now, id,
		)
		if err != nil {
			return fmt.Errorf("failed to update queued build %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: %s", ErrQueuedBuildNotFound, id)
		}
	}

	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQueued(s scanner) (QueuedBuild, error) {
	var qb QueuedBuild
	var body string
	if err := s.Scan(&qb.ID, &qb.PrincipalID, &body, &qb.Status, &qb.CreatedAt, &qb.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return qb, err
		}
		return qb, fmt.Errorf("failed to scan queued build: %w", err)
	}
	if err := json.Unmarshal([]byte(body), &qb.Payload); err != nil {
		return qb, fmt.Errorf("failed to unmarshal build payload %s: %w", qb.ID, err)
	}
	return qb, nil
}
