package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rx3lixir/codetogether/internal/clock"
	"github.com/rx3lixir/codetogether/internal/events"
	"github.com/rx3lixir/codetogether/internal/executor"
	"github.com/rx3lixir/codetogether/internal/interview"
	"github.com/rx3lixir/codetogether/internal/language"
	"github.com/rx3lixir/codetogether/internal/limiter"
	"github.com/rx3lixir/codetogether/internal/room"
	"github.com/rx3lixir/codetogether/internal/version"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

const storeTimeout = 5 * time.Second

var (
	errNotJoined   = errors.New("join a room first")
	errRateLimited = errors.New("too many runs in this room, try again shortly")
)

type EngineConfig struct {
	Rooms      *room.Registry
	Hubs       *Manager
	Dispatcher *executor.Dispatcher
	Versions   *version.Service
	Catalog    *interview.Catalog
	Limiter    limiter.Limiter
	Events     events.Publisher
	Clock      clock.Clock
	Log        *logger.Logger
}

// Engine applies participant intents to rooms and fans the results out.
// Frames of one connection are handled in receipt order; runs finish on
// their own goroutines.
type Engine struct {
	rooms      *room.Registry
	hubs       *Manager
	dispatcher *executor.Dispatcher
	versions   *version.Service
	catalog    *interview.Catalog
	limiter    limiter.Limiter
	events     events.Publisher
	clock      clock.Clock
	log        *logger.Logger

	timers sync.Map // *room.Room -> *clock.Timer
	runs   sync.WaitGroup
}

// NewEngine hooks the engine into the registry, so it must be called
// before the registry is shared.
func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		rooms:      cfg.Rooms,
		hubs:       cfg.Hubs,
		dispatcher: cfg.Dispatcher,
		versions:   cfg.Versions,
		catalog:    cfg.Catalog,
		limiter:    cfg.Limiter,
		events:     cfg.Events,
		clock:      cfg.Clock,
		log:        cfg.Log,
	}
	if e.limiter == nil {
		e.limiter = limiter.Unlimited{}
	}
	if e.events == nil {
		e.events = events.Nop{}
	}

	e.rooms.OnCreate(func(rm *room.Room) {
		e.publishEvent(context.Background(), events.RoomCreated, rm.ID(), nil)
	})
	e.rooms.OnRemove(func(rm *room.Room) {
		e.disarmTimeout(rm)
		e.hubs.RemoveHub(rm)
		e.publishEvent(context.Background(), events.RoomRemoved, rm.ID(), nil)
	})
	return e
}

// Wait blocks until in-flight runs have replied
func (e *Engine) Wait() {
	e.runs.Wait()
}

func (e *Engine) reply(c *Client, msg ServerMessage) {
	data, err := encode(msg, e.clock.Now())
	if err != nil {
		e.log.Error("failed to marshal message", "type", msg.Type, "error", err)
		return
	}
	c.enqueue(data)
}

func (e *Engine) fail(c *Client, event, code, message string) {
	e.reply(c, NewError(event, code, message))
}

func (e *Engine) failErr(c *Client, event string, err error) {
	code := errorCode(err)
	if code == CodeInternal {
		e.log.Error("request failed", "client_id", c.id, "type", event, "error", err)
		e.fail(c, event, code, "Internal error")
		return
	}
	e.fail(c, event, code, err.Error())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, room.ErrDuplicateName):
		return CodeDuplicateName
	case errors.Is(err, room.ErrLastFile):
		return CodeLastFile
	case errors.Is(err, room.ErrNotFound), errors.Is(err, version.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, room.ErrInvalidName):
		return CodeInvalidName
	case errors.Is(err, room.ErrInterviewActive):
		return CodeInterviewActive
	case errors.Is(err, room.ErrNoInterview):
		return CodeNoInterview
	case errors.Is(err, language.ErrUnsupported):
		return CodeUnsupportedLanguage
	case errors.Is(err, errRateLimited):
		return CodeRateLimited
	case errors.Is(err, errNotJoined):
		return CodeBadRequest
	default:
		return CodeInternal
	}
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (e *Engine) publishEvent(ctx context.Context, typ, roomID string, data map[string]any) {
	e.events.Publish(ctx, events.Event{
		Type:   typ,
		RoomID: roomID,
		At:     e.clock.Now().UTC(),
		Data:   data,
	})
}

// Handle applies one inbound frame.
func (e *Engine) Handle(ctx context.Context, c *Client, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil || msg.Type == "" {
		e.fail(c, "", CodeBadRequest, "Malformed frame")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("panic while handling frame",
				"client_id", c.id,
				"type", msg.Type,
				"panic", r)
			e.fail(c, msg.Type, CodeInternal, "Internal error")
		}
	}()

	if msg.Type == TypeJoin {
		e.join(c, msg)
		return
	}

	rm, hub := c.session()
	if rm == nil {
		e.failErr(c, msg.Type, errNotJoined)
		return
	}

	s := &session{engine: e, client: c, room: rm, hub: hub, event: msg.Type}

	var err error
	switch msg.Type {
	case TypeFileCreate:
		err = s.createFile(msg.Data)
	case TypeFileDelete:
		err = s.deleteFile(msg.Data)
	case TypeFileRename:
		err = s.renameFile(msg.Data)
	case TypeFileSelect:
		err = s.selectFile(msg.Data)
	case TypeFileContentChange:
		err = s.changeFileContent(msg.Data)
	case TypeCodeChange:
		err = s.changeCode(msg.Data)
	case TypeLanguageChange:
		err = s.changeLanguage(msg.Data)
	case TypeTestCasesUpdate:
		err = s.updateTestCases(msg.Data)
	case TypeRunCode:
		err = s.runCode(ctx, msg.Data)
	case TypeRunTestCases:
		err = s.runTestCases(ctx, msg.Data)
	case TypeInterviewStart:
		err = s.startInterview(msg.Data)
	case TypeInterviewEnd:
		err = s.endInterview()
	case TypeInterviewSubmit:
		err = s.submitInterview(msg.Data)
	case TypeVersionSave:
		err = s.saveVersion(ctx, msg.Data)
	case TypeVersionGet:
		err = s.listVersions(ctx, msg.Data)
	case TypeVersionRestore:
		err = s.restoreVersion(ctx, msg.Data)
	case TypeChatMessage:
		err = s.chat(msg.Data)
	case TypeCursorMove:
		err = s.moveCursor(msg.Data)
	default:
		e.fail(c, msg.Type, CodeBadRequest, "Unknown event type")
		return
	}

	if err != nil {
		var bad badRequest
		if errors.As(err, &bad) {
			e.fail(c, msg.Type, CodeBadRequest, bad.msg)
			return
		}
		e.failErr(c, msg.Type, err)
	}
}

type badRequest struct{ msg string }

func (b badRequest) Error() string { return b.msg }

func invalidPayload(err error) error {
	return badRequest{msg: "Invalid payload: " + err.Error()}
}

func (e *Engine) join(c *Client, msg ClientMessage) {
	var d JoinData
	if err := decode(msg.Data, &d); err != nil {
		e.fail(c, msg.Type, CodeBadRequest, invalidPayload(err).Error())
		return
	}
	roomID := strings.TrimSpace(d.RoomID)
	if roomID == "" {
		e.fail(c, msg.Type, CodeBadRequest, "roomId is required")
		return
	}

	// A connection sits in one room at a time
	e.leave(c)

	name := strings.TrimSpace(d.Username)
	if name == "" {
		name = strings.TrimSpace(d.DisplayName)
	}

	rm, p, _ := e.rooms.Join(roomID, c.id, name)
	hub := e.hubs.Hub(rm)
	if !hub.Register(c) {
		e.log.Warn("hub stopped during join", "room_id", roomID, "client_id", c.id)
	}
	c.attach(rm, hub)

	e.reply(c, ServerMessage{Type: TypeRoomState, Data: rm.Snapshot()})
	hub.Publish(ServerMessage{
		Type: TypePresenceUpdate,
		Data: PresenceData{Event: "joined", User: p, Users: rm.Participants()},
	}, c)

	e.log.Info("participant joined",
		"room_id", roomID,
		"client_id", c.id,
		"username", p.Username)
}

// Disconnect removes the client from its room and closes it
func (e *Engine) Disconnect(c *Client) {
	e.leave(c)
	c.close()
}

func (e *Engine) leave(c *Client) {
	rm, hub := c.detach()
	if rm == nil {
		return
	}
	hub.Unregister(c)

	p, ok := e.rooms.Leave(rm.ID(), c.id)
	if !ok {
		return
	}
	hub.Publish(ServerMessage{
		Type: TypePresenceUpdate,
		Data: PresenceData{Event: "left", User: p, Users: rm.Participants()},
	}, nil)

	e.log.Info("participant left",
		"room_id", rm.ID(),
		"client_id", c.id)
}

// armTimeout schedules the advisory timeout of the interview that just
// started. It fires only if that same interview is still running.
func (e *Engine) armTimeout(rm *room.Room, hub *Hub, iv room.Interview) {
	stamp := iv.StartedAt.UnixNano()
	t := e.clock.AfterFunc(iv.Duration, func() {
		if !rm.InterviewStartedAt(stamp) {
			return
		}
		hub.Publish(ServerMessage{
			Type: TypeInterviewTimeout,
			Data: InterviewTimeoutData{ProblemID: iv.ProblemID},
		}, nil)
	})
	if old, loaded := e.timers.Swap(rm, t); loaded {
		old.(*clock.Timer).Stop()
	}
}

func (e *Engine) disarmTimeout(rm *room.Room) {
	if v, ok := e.timers.LoadAndDelete(rm); ok {
		v.(*clock.Timer).Stop()
	}
}

// goRun runs fn on its own goroutine so the read loop stays free
func (e *Engine) goRun(ctx context.Context, fn func(ctx context.Context)) {
	e.runs.Add(1)
	go func() {
		defer e.runs.Done()
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("panic in run", "panic", r)
			}
		}()
		fn(ctx)
	}()
}
