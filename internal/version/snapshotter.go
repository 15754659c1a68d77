package version

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rx3lixir/codetogether/internal/clock"
	"github.com/rx3lixir/codetogether/internal/room"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

// RoomSource lists the rooms to snapshot.
type RoomSource interface {
	Rooms() []*room.Room
}

// Snapshotter periodically saves the code of every occupied room as an
// automatic version, skipping rooms whose code has not changed since
// their last automatic version.
type Snapshotter struct {
	service  *Service
	rooms    RoomSource
	clock    clock.Clock
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewSnapshotter(service *Service, rooms RoomSource, clk clock.Clock, interval time.Duration, log *logger.Logger) *Snapshotter {
	return &Snapshotter{
		service:  service,
		rooms:    rooms,
		clock:    clk,
		interval: interval,
		timeout:  5 * time.Second,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the snapshot loop until ctx is done or Stop is called.
func (s *Snapshotter) Start(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)

	go func() {
		defer close(s.done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.SnapshotAll(ctx)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for an in-flight pass to finish.
func (s *Snapshotter) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

// SnapshotAll makes one pass over the rooms and returns how many
// versions were written.
func (s *Snapshotter) SnapshotAll(ctx context.Context) int {
	saved := 0
	for _, r := range s.rooms.Rooms() {
		if r.ParticipantCount() == 0 {
			continue
		}
		code := r.Code()
		if strings.TrimSpace(code) == "" {
			continue
		}

		opCtx, cancel := context.WithTimeout(ctx, s.timeout)
		ok, err := s.service.autoSave(opCtx, r.ID(), code)
		cancel()

		if err != nil {
			s.log.Error("auto-save failed", "room_id", r.ID(), "error", err)
			continue
		}
		if ok {
			saved++
			s.log.Debug("room auto-saved", "room_id", r.ID())
		}
	}
	return saved
}
