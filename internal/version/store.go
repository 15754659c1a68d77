package version

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("version not found")

type Store interface {
	Create(ctx context.Context, v *Version) error
	GetByID(ctx context.Context, id uuid.UUID) (*Version, error)
	// ListByRoom returns at most limit versions, newest first.
	ListByRoom(ctx context.Context, roomID string, limit int) ([]*Version, error)
	// LatestAuto returns the newest automatic snapshot, or ErrNotFound.
	LatestAuto(ctx context.Context, roomID string) (*Version, error)
}
