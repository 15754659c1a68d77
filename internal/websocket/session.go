package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rx3lixir/codetogether/internal/events"
	"github.com/rx3lixir/codetogether/internal/executor"
	"github.com/rx3lixir/codetogether/internal/language"
	"github.com/rx3lixir/codetogether/internal/room"
	"github.com/rx3lixir/codetogether/internal/version"
)

// session binds one inbound frame to the sender's room
type session struct {
	engine *Engine
	client *Client
	room   *room.Room
	hub    *Hub
	event  string
}

func (s *session) reply(msg ServerMessage) { s.engine.reply(s.client, msg) }

// others fans msg out to everyone in the room but the sender
func (s *session) others(typ string, data any) {
	s.hub.Publish(ServerMessage{Type: typ, Data: data}, s.client)
}

// everyone fans msg out to the whole room, the sender included
func (s *session) everyone(typ string, data any) {
	s.hub.Publish(ServerMessage{Type: typ, Data: data}, nil)
}

func (s *session) decode(data json.RawMessage, v any) error {
	if err := decode(data, v); err != nil {
		return invalidPayload(err)
	}
	return nil
}

// File set

func (s *session) createFile(data json.RawMessage) error {
	var d FileData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	f, err := s.room.CreateFile(d.Name, d.Content)
	if err != nil {
		return err
	}
	s.others(TypeFileCreated, FileCreatedData{File: f})
	return nil
}

// Deleting may move the active file, which only the server knows, so
// the whole room is told.
func (s *session) deleteFile(data json.RawMessage) error {
	var d FileData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	active, err := s.room.DeleteFile(d.Name)
	if err != nil {
		return err
	}
	s.everyone(TypeFileDeleted, FileDeletedData{Name: d.Name, ActiveFile: active})
	return nil
}

func (s *session) renameFile(data json.RawMessage) error {
	var d RenameData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	f, err := s.room.RenameFile(d.OldName, d.NewName)
	if err != nil {
		return err
	}
	s.others(TypeFileRenamed, FileRenamedData{OldName: d.OldName, NewName: d.NewName, File: f})
	return nil
}

func (s *session) selectFile(data json.RawMessage) error {
	var d FileData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	if err := s.room.SelectFile(d.Name); err != nil {
		return err
	}
	s.others(TypeFileSelected, FileSelectedData{Name: d.Name})
	return nil
}

func (s *session) changeFileContent(data json.RawMessage) error {
	var d FileData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	if err := s.room.UpdateFileContent(d.Name, d.Content); err != nil {
		return err
	}
	s.others(TypeFileContentUpdate, FileData{Name: d.Name, Content: d.Content})
	return nil
}

// Room settings

func (s *session) changeCode(data json.RawMessage) error {
	var d CodeData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	s.room.SetCode(d.Code)
	s.others(TypeCodeUpdate, d)
	return nil
}

func (s *session) changeLanguage(data json.RawMessage) error {
	var d LanguageData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	if err := s.room.SetLanguage(d.Language); err != nil {
		return err
	}
	s.others(TypeLanguageUpdate, LanguageData{Language: s.room.Language()})
	return nil
}

func (s *session) updateTestCases(data json.RawMessage) error {
	var d TestCasesData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	if d.TestCases == nil {
		d.TestCases = []room.TestCase{}
	}
	s.room.SetTestCases(d.TestCases)
	s.others(TypeTestCasesUpdated, d)
	return nil
}

// Execution

// prepareRun resolves the run language and takes a slot from the room's
// run budget.
func (s *session) prepareRun(ctx context.Context, tag string) (language.Kind, error) {
	if strings.TrimSpace(tag) == "" {
		tag = s.room.Language()
	}
	kind, err := language.Parse(tag)
	if err != nil {
		return kind, err
	}
	if !s.engine.limiter.Allow(ctx, s.room.ID()) {
		return kind, errRateLimited
	}
	return kind, nil
}

func (s *session) project() executor.Project {
	p := s.room.Project()
	return executor.Project{Files: p.Files, ActiveFile: p.ActiveFile}
}

func (s *session) runCode(ctx context.Context, data json.RawMessage) error {
	var d RunData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	kind, err := s.prepareRun(ctx, d.Language)
	if err != nil {
		return err
	}

	p := s.project()
	s.engine.goRun(ctx, func(ctx context.Context) {
		res := s.engine.dispatcher.RunOnce(ctx, p, kind, d.Stdin)
		s.reply(ServerMessage{Type: TypeCodeOutput, Data: res})

		s.engine.publishEvent(ctx, events.CodeRan, s.room.ID(), map[string]any{
			"language": kind.String(),
			"success":  res.Success,
		})
	})
	return nil
}

func (s *session) runTestCases(ctx context.Context, data json.RawMessage) error {
	var d RunData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	kind, err := s.prepareRun(ctx, d.Language)
	if err != nil {
		return err
	}

	src := d.TestCases
	if src == nil {
		src = s.room.TestCases()
	}
	cases := make([]executor.Case, len(src))
	for i, tc := range src {
		cases[i] = executor.Case{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput}
	}

	s.engine.goRun(ctx, func(ctx context.Context) {
		res := s.engine.dispatcher.RunBatch(ctx, s.project, kind, cases)
		s.reply(ServerMessage{Type: TypeTestResults, Data: res})

		s.engine.publishEvent(ctx, events.TestsRan, s.room.ID(), map[string]any{
			"language": kind.String(),
			"total":    res.Summary.Total,
			"passed":   res.Summary.Passed,
		})
	})
	return nil
}

// Interview

func (s *session) startInterview(data json.RawMessage) error {
	var d InterviewStartData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	var ref problemRef
	if err := s.decode(d.Problem, &ref); err != nil {
		return err
	}
	if strings.TrimSpace(ref.ID) == "" {
		return badRequest{msg: "problem.id is required"}
	}

	lang := s.room.Language()
	problem := d.Problem
	difficulty := d.Difficulty
	starter := ""

	if p, ok := s.engine.catalog.Get(ref.ID); ok {
		if raw, err := json.Marshal(p); err == nil {
			problem = raw
		}
		if difficulty == "" {
			difficulty = p.Difficulty
		}
		starter = p.Starter(lang)
	}
	if starter == "" {
		starter = ref.StarterCode[lang]
	}

	duration := time.Duration(d.Duration) * time.Second
	if duration <= 0 {
		duration = s.engine.catalog.Duration(difficulty)
	}

	iv := room.Interview{
		ProblemID:  ref.ID,
		Problem:    problem,
		Difficulty: difficulty,
		Duration:   duration,
		StartedAt:  s.engine.clock.Now(),
	}
	if err := s.room.StartInterview(iv, starter); err != nil {
		return err
	}
	s.engine.armTimeout(s.room, s.hub, iv)

	s.everyone(TypeInterviewStarted, InterviewStartedData{
		ProblemID:   iv.ProblemID,
		Problem:     iv.Problem,
		Difficulty:  iv.Difficulty,
		Duration:    iv.DurationSeconds(),
		StartedAt:   iv.StartedAt.UnixMilli(),
		StarterCode: starter,
	})
	s.everyone(TypeCodeUpdate, CodeData{Code: starter})

	s.engine.log.Info("interview started",
		"room_id", s.room.ID(),
		"problem_id", iv.ProblemID,
		"duration", duration)
	return nil
}

func (s *session) finishInterview() (string, error) {
	code, err := s.room.EndInterview()
	if err != nil {
		return "", err
	}
	s.engine.disarmTimeout(s.room)

	s.everyone(TypeCodeUpdate, CodeData{Code: code})
	s.everyone(TypeInterviewEnded, InterviewEndedData{Code: code})
	return code, nil
}

func (s *session) endInterview() error {
	_, err := s.finishInterview()
	return err
}

func (s *session) submitInterview(data json.RawMessage) error {
	var d InterviewSubmitData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	iv, _ := s.room.Interview()
	if _, err := s.finishInterview(); err != nil {
		return err
	}

	if d.Difficulty == "" {
		d.Difficulty = iv.Difficulty
	}
	if len(d.Problem) == 0 {
		d.Problem = iv.Problem
	}
	s.reply(ServerMessage{Type: TypeInterviewResults, Data: InterviewResultsData{
		Results: InterviewResults{
			Code:        d.Code,
			TestResults: d.TestResults,
			TimeTaken:   d.TimeTaken,
			Difficulty:  d.Difficulty,
			Problem:     d.Problem,
			SubmittedAt: s.engine.clock.Now().UnixMilli(),
		},
	}})
	return nil
}

// Versions

func (s *session) saveVersion(ctx context.Context, data json.RawMessage) error {
	var d VersionSaveData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	code := s.room.Code()
	if d.Code != nil {
		code = *d.Code
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	v, err := s.engine.versions.Save(ctx, s.room.ID(), code, d.Message)
	if err != nil {
		s.engine.log.Error("failed to save version", "room_id", s.room.ID(), "error", err)
		s.reply(ServerMessage{Type: TypeVersionSaved, Data: VersionData{Error: err.Error()}})
		return nil
	}
	s.everyone(TypeVersionSaved, VersionData{Version: v})

	s.engine.publishEvent(ctx, events.VersionSaved, s.room.ID(), map[string]any{
		"versionId": v.ID.String(),
		"auto":      false,
	})
	return nil
}

func (s *session) listVersions(ctx context.Context, data json.RawMessage) error {
	var d VersionGetData
	if err := s.decode(data, &d); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	versions, err := s.engine.versions.List(ctx, s.room.ID(), d.Limit)
	if err != nil {
		s.engine.log.Error("failed to list versions", "room_id", s.room.ID(), "error", err)
		s.reply(ServerMessage{Type: TypeVersionList, Data: VersionListData{
			Versions: []*version.Version{},
			Error:    err.Error(),
		}})
		return nil
	}
	s.reply(ServerMessage{Type: TypeVersionList, Data: VersionListData{Versions: versions}})
	return nil
}

func (s *session) restoreVersion(ctx context.Context, data json.RawMessage) error {
	var d VersionRestoreData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	id, err := uuid.Parse(d.VersionID)
	if err != nil {
		return badRequest{msg: "Invalid versionId"}
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	v, err := s.engine.versions.Get(ctx, s.room.ID(), id)
	if err != nil {
		return err
	}
	s.room.SetCode(v.Code)

	s.everyone(TypeVersionRestored, VersionData{Version: v})
	s.everyone(TypeCodeUpdate, CodeData{Code: v.Code})
	return nil
}

// Relays

func (s *session) chat(data json.RawMessage) error {
	var d ChatData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	text := strings.TrimSpace(d.Message)
	if text == "" {
		return badRequest{msg: "message is empty"}
	}
	p, ok := s.room.Participant(s.client.id)
	if !ok {
		return errNotJoined
	}

	s.everyone(TypeChatMessage, ChatOutData{
		ID:        uuid.NewString(),
		UserID:    p.ID,
		Username:  p.Username,
		Color:     p.Color,
		Message:   text,
		Timestamp: s.engine.clock.Now().UnixMilli(),
	})
	return nil
}

func (s *session) moveCursor(data json.RawMessage) error {
	var d CursorData
	if err := s.decode(data, &d); err != nil {
		return err
	}
	p, ok := s.room.Participant(s.client.id)
	if !ok {
		return errNotJoined
	}

	s.others(TypeCursorUpdate, CursorUpdateData{
		UserID:   p.ID,
		Username: p.Username,
		Color:    p.Color,
		FileName: d.FileName,
		Position: d.Position,
	})
	return nil
}
