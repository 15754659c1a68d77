package room

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rx3lixir/codetogether/internal/clock"
	"github.com/rx3lixir/codetogether/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grace = 60 * time.Second

func newTestRegistry(t *testing.T) (*Registry, *clock.FakeClock) {
	t.Helper()
	clk := clock.Fake(epoch)
	return NewRegistry(clk, grace, logger.Nop()), clk
}

func TestRegistryGetOrCreate(t *testing.T) {
	reg, _ := newTestRegistry(t)

	var created []string
	reg.OnCreate(func(rm *Room) { created = append(created, rm.ID()) })

	r1, isNew := reg.GetOrCreate("ABC123")
	assert.True(t, isNew)
	r2, isNew := reg.GetOrCreate("ABC123")
	assert.False(t, isNew)

	assert.Same(t, r1, r2)
	assert.Equal(t, []string{"ABC123"}, created)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryGraceWindow(t *testing.T) {
	t.Run("empty room removed after grace", func(t *testing.T) {
		reg, clk := newTestRegistry(t)
		var removed []string
		reg.OnRemove(func(rm *Room) { removed = append(removed, rm.ID()) })

		reg.Join("room", "c1", "ann")
		_, ok := reg.Leave("room", "c1")
		require.True(t, ok)

		clk.Advance(grace - time.Second)
		_, ok = reg.Get("room")
		assert.True(t, ok, "still present inside the window")

		clk.Advance(time.Second)
		_, ok = reg.Get("room")
		assert.False(t, ok)
		assert.Equal(t, []string{"room"}, removed)
	})

	t.Run("rejoin cancels pending removal", func(t *testing.T) {
		reg, clk := newTestRegistry(t)

		rm, _, _ := reg.Join("room", "c1", "ann")
		_, err := rm.CreateFile("keep.js", "state")
		require.NoError(t, err)
		reg.Leave("room", "c1")

		clk.Advance(30 * time.Second)
		again, _, created := reg.Join("room", "c2", "ann")
		assert.False(t, created)
		assert.Same(t, rm, again)
		assert.Equal(t, 0, clk.PendingCount())

		clk.Advance(time.Hour)
		got, ok := reg.Get("room")
		require.True(t, ok)
		files, _ := got.Files()
		assert.Equal(t, "state", files["keep.js"].Content)
	})

	t.Run("timer rechecks emptiness", func(t *testing.T) {
		reg, clk := newTestRegistry(t)

		rm, _, _ := reg.Join("room", "c1", "ann")
		reg.Leave("room", "c1")
		// Attach directly to the room, bypassing the registry.
		rm.Join("c2", "bob", epoch)

		clk.Advance(grace)
		_, ok := reg.Get("room")
		assert.True(t, ok)
	})

	t.Run("leave of unknown room or participant", func(t *testing.T) {
		reg, clk := newTestRegistry(t)

		_, ok := reg.Leave("nope", "c1")
		assert.False(t, ok)

		reg.Join("room", "c1", "ann")
		_, ok = reg.Leave("room", "c9")
		assert.False(t, ok)
		assert.Equal(t, 0, clk.PendingCount())
	})
}

func TestRegistryRemove(t *testing.T) {
	reg, clk := newTestRegistry(t)
	reg.Join("room", "c1", "ann")
	reg.Leave("room", "c1")

	assert.True(t, reg.Remove("room"))
	assert.False(t, reg.Remove("room"))
	assert.Equal(t, 0, clk.PendingCount())
}

func TestRegistryRoomsSorted(t *testing.T) {
	reg, _ := newTestRegistry(t)
	reg.GetOrCreate("b")
	reg.GetOrCreate("a")

	rooms := reg.Rooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "a", rooms[0].ID())
	assert.Equal(t, "b", rooms[1].ID())
}

func TestHandleGetRoom(t *testing.T) {
	reg, _ := newTestRegistry(t)
	reg.Join("ABC123", "c1", "ann")

	router := chi.NewRouter()
	router.Route("/api/rooms", NewHandler(reg, logger.Nop()).RegisterRoutes)

	t.Run("known room", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/ABC123", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var snap Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
		assert.Equal(t, "ABC123", snap.ID)
		assert.Equal(t, DefaultFileName, snap.ActiveFile)
		require.Len(t, snap.Participants, 1)
		assert.Equal(t, "ann", snap.Participants[0].Username)
	})

	t.Run("unknown room", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/missing", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("nested routes", func(t *testing.T) {
		nested := chi.NewRouter()
		h := NewHandler(reg, logger.Nop()).Nest(func(r chi.Router) {
			r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(chi.URLParam(r, "roomID")))
			})
		})
		nested.Route("/api/rooms", h.RegisterRoutes)

		rec := httptest.NewRecorder()
		nested.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/ABC123/ping", nil))
		assert.Equal(t, "ABC123", rec.Body.String())

		rec = httptest.NewRecorder()
		nested.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/ABC123", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body ListRoomsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, 1, body.Rooms[0].Participants)
	})
}
