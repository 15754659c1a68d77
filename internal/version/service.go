package version

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rx3lixir/codetogether/internal/clock"
)

const autoMessage = "Auto-save"

// Service is the version history used by sessions and the REST API.
type Service struct {
	store    Store
	clock    clock.Clock
	pageSize int
}

func NewService(store Store, clk clock.Clock, pageSize int) *Service {
	return &Service{store: store, clock: clk, pageSize: pageSize}
}

// Save stores a manual version. A blank message becomes "Saved at" and
// the current time of day.
func (s *Service) Save(ctx context.Context, roomID, code, message string) (*Version, error) {
	now := s.clock.Now()
	if strings.TrimSpace(message) == "" {
		message = "Saved at " + now.Format("15:04:05")
	}

	v := &Version{
		ID:        uuid.New(),
		RoomID:    roomID,
		Code:      code,
		Message:   message,
		Timestamp: now,
	}
	if err := s.store.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// List returns the newest versions of a room. limit is clamped to the
// page size; zero or negative means a full page.
func (s *Service) List(ctx context.Context, roomID string, limit int) ([]*Version, error) {
	if limit <= 0 || limit > s.pageSize {
		limit = s.pageSize
	}
	return s.store.ListByRoom(ctx, roomID, limit)
}

// Get returns a version of the given room.
func (s *Service) Get(ctx context.Context, roomID string, id uuid.UUID) (*Version, error) {
	v, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.RoomID != roomID {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *Service) PageSize() int {
	return s.pageSize
}

// autoSave stores code as an automatic snapshot unless it matches the
// latest one. It reports whether a version was written.
func (s *Service) autoSave(ctx context.Context, roomID, code string) (bool, error) {
	last, err := s.store.LatestAuto(ctx, roomID)
	switch {
	case err == nil:
		if last.Code == code {
			return false, nil
		}
	case !errors.Is(err, ErrNotFound):
		return false, err
	}

	v := &Version{
		ID:        uuid.New(),
		RoomID:    roomID,
		Code:      code,
		Message:   autoMessage,
		Auto:      true,
		Timestamp: s.clock.Now(),
	}
	if err := s.store.Create(ctx, v); err != nil {
		return false, err
	}
	return true, nil
}
