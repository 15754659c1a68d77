package version

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool}
}

// Create inserts a version. ID and Timestamp are filled in when unset.
func (s *PostgresStore) Create(ctx context.Context, v *Version) error {
	query := `
		INSERT INTO versions (id, room_id, code, message, auto, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}

	_, err := s.pool.Exec(ctx, query,
		v.ID,
		v.RoomID,
		v.Code,
		v.Message,
		v.Auto,
		v.Timestamp,
	)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("operation cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("failed to create version: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Version, error) {
	query := `
		SELECT id, room_id, code, message, auto, created_at
		FROM versions
		WHERE id = $1
	`

	v, err := scanVersion(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	return v, nil
}

func (s *PostgresStore) ListByRoom(ctx context.Context, roomID string, limit int) ([]*Version, error) {
	query := `
		SELECT id, room_id, code, message, auto, created_at
		FROM versions
		WHERE room_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	versions := []*Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, v)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating versions: %w", err)
	}

	return versions, nil
}

func (s *PostgresStore) LatestAuto(ctx context.Context, roomID string) (*Version, error) {
	query := `
		SELECT id, room_id, code, message, auto, created_at
		FROM versions
		WHERE room_id = $1 AND auto
		ORDER BY created_at DESC
		LIMIT 1
	`

	v, err := scanVersion(s.pool.QueryRow(ctx, query, roomID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest auto version: %w", err)
	}

	return v, nil
}

func scanVersion(row pgx.Row) (*Version, error) {
	v := &Version{}
	err := row.Scan(
		&v.ID,
		&v.RoomID,
		&v.Code,
		&v.Message,
		&v.Auto,
		&v.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return v, nil
}
