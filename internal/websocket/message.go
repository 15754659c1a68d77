package websocket

import (
	"encoding/json"

	"github.com/rx3lixir/codetogether/internal/room"
	"github.com/rx3lixir/codetogether/internal/version"
)

// Inbound event types
const (
	TypeJoin              = "join"
	TypeFileCreate        = "file.create"
	TypeFileDelete        = "file.delete"
	TypeFileRename        = "file.rename"
	TypeFileSelect        = "file.select"
	TypeFileContentChange = "file.contentChange"
	TypeCodeChange        = "code.change"
	TypeLanguageChange    = "language.change"
	TypeTestCasesUpdate   = "testCases.update"
	TypeRunCode           = "run.code"
	TypeRunTestCases      = "run.testCases"
	TypeInterviewStart    = "interview.start"
	TypeInterviewEnd      = "interview.end"
	TypeInterviewSubmit   = "interview.submit"
	TypeVersionSave       = "version.save"
	TypeVersionGet        = "version.get"
	TypeVersionRestore    = "version.restore"
	TypeChatMessage       = "chat.message"
	TypeCursorMove        = "cursor.move"
)

// Outbound event types
const (
	TypeRoomState         = "room.state"
	TypePresenceUpdate    = "presence.update"
	TypeFileCreated       = "file.created"
	TypeFileDeleted       = "file.deleted"
	TypeFileRenamed       = "file.renamed"
	TypeFileSelected      = "file.selected"
	TypeFileContentUpdate = "file.contentUpdate"
	TypeFilesState        = "files.state"
	TypeCodeUpdate        = "code.update"
	TypeLanguageUpdate    = "language.update"
	TypeTestCasesUpdated  = "testCases.updated"
	TypeCodeOutput        = "code.output"
	TypeTestResults       = "test.results"
	TypeInterviewStarted  = "interview.started"
	TypeInterviewEnded    = "interview.ended"
	TypeInterviewResults  = "interview.results"
	TypeInterviewTimeout  = "interview.timeout"
	TypeVersionSaved      = "version.saved"
	TypeVersionList       = "version.list"
	TypeVersionRestored   = "version.restored"
	TypeCursorUpdate      = "cursor.update"
	TypeError             = "error"
)

// Error codes carried in error frames
const (
	CodeDuplicateName       = "duplicate_name"
	CodeLastFile            = "last_file"
	CodeNotFound            = "not_found"
	CodeInvalidName         = "invalid_name"
	CodeInterviewActive     = "interview_active"
	CodeNoInterview         = "no_interview"
	CodeRateLimited         = "rate_limited"
	CodeBadRequest          = "bad_request"
	CodeUnsupportedLanguage = "unsupported_language"
	CodeInternal            = "internal"
)

// ClientMessage is a frame sent by a participant
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ServerMessage is a frame sent to participants. Timestamp is stamped
// when the frame is encoded.
type ServerMessage struct {
	Type      string `json:"type"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Event   string `json:"event,omitempty"`
}

func NewError(event, code, message string) ServerMessage {
	return ServerMessage{
		Type: TypeError,
		Data: ErrorData{Code: code, Message: message, Event: event},
	}
}

// Inbound payloads

type JoinData struct {
	RoomID      string `json:"roomId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

type FileData struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type RenameData struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

type CodeData struct {
	Code string `json:"code"`
}

type LanguageData struct {
	Language string `json:"language"`
}

type TestCasesData struct {
	TestCases []room.TestCase `json:"testCases"`
}

// RunData is the payload of run.code and run.testCases. Language
// overrides the room language for this run only. TestCases, when nil,
// falls back to the room's list.
type RunData struct {
	Language  string          `json:"language"`
	Stdin     string          `json:"stdin"`
	TestCases []room.TestCase `json:"testCases"`
}

type InterviewStartData struct {
	Problem    json.RawMessage `json:"problem"`
	Difficulty string          `json:"difficulty"`
	// Duration in seconds; zero means the catalog default.
	Duration int `json:"duration"`
}

type problemRef struct {
	ID          string            `json:"id"`
	StarterCode map[string]string `json:"starterCode"`
}

type InterviewSubmitData struct {
	Code        string          `json:"code"`
	TestResults json.RawMessage `json:"testResults"`
	TimeTaken   int64           `json:"timeTaken"`
	Difficulty  string          `json:"difficulty"`
	Problem     json.RawMessage `json:"problem"`
}

type VersionSaveData struct {
	Code    *string `json:"code"`
	Message string  `json:"message"`
}

type VersionGetData struct {
	Limit int `json:"limit"`
}

type VersionRestoreData struct {
	VersionID string `json:"versionId"`
}

type ChatData struct {
	Message string `json:"message"`
}

type CursorData struct {
	FileName string          `json:"fileName"`
	Position json.RawMessage `json:"position"`
}

// Outbound payloads

type FilesStateData struct {
	Files      map[string]room.File `json:"files"`
	ActiveFile string               `json:"activeFile"`
}

type PresenceData struct {
	Event string             `json:"event"`
	User  room.Participant   `json:"user"`
	Users []room.Participant `json:"users"`
}

type FileCreatedData struct {
	File room.File `json:"file"`
}

type FileDeletedData struct {
	Name       string `json:"name"`
	ActiveFile string `json:"activeFile"`
}

type FileRenamedData struct {
	OldName string    `json:"oldName"`
	NewName string    `json:"newName"`
	File    room.File `json:"file"`
}

type FileSelectedData struct {
	Name string `json:"name"`
}

type InterviewStartedData struct {
	ProblemID   string          `json:"problemId"`
	Problem     json.RawMessage `json:"problem"`
	Difficulty  string          `json:"difficulty"`
	Duration    int             `json:"duration"`
	StartedAt   int64           `json:"startedAt"`
	StarterCode string          `json:"starterCode"`
}

type InterviewEndedData struct {
	Code string `json:"code"`
}

type InterviewResults struct {
	Code        string          `json:"code"`
	TestResults json.RawMessage `json:"testResults"`
	TimeTaken   int64           `json:"timeTaken"`
	Difficulty  string          `json:"difficulty"`
	Problem     json.RawMessage `json:"problem"`
	SubmittedAt int64           `json:"submittedAt"`
}

type InterviewResultsData struct {
	Results InterviewResults `json:"results"`
}

type InterviewTimeoutData struct {
	ProblemID string `json:"problemId"`
}

// VersionData carries either the version or, on a failed save, the error.
type VersionData struct {
	Version *version.Version `json:"version,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type VersionListData struct {
	Versions []*version.Version `json:"versions"`
	Error    string             `json:"error,omitempty"`
}

type ChatOutData struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Color     string `json:"color"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type CursorUpdateData struct {
	UserID   string          `json:"userId"`
	Username string          `json:"username"`
	Color    string          `json:"color"`
	FileName string          `json:"fileName"`
	Position json.RawMessage `json:"position"`
}
