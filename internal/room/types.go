package room

import (
	"encoding/json"
	"time"
)

const (
	DefaultLanguage = "javascript"
	DefaultFileName = "main.js"
	DefaultContent  = "// Welcome! Start coding together...\nconsole.log(\"Hello World!\");"
)

var palette = [...]string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A",
	"#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E2",
}

type File struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Language string `json:"language"`
}

type Participant struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joined_at"`
}

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

// Interview is the timed sub-state layered over a room's code.
type Interview struct {
	ProblemID  string          `json:"problemId"`
	Problem    json.RawMessage `json:"problem,omitempty"`
	Difficulty string          `json:"difficulty"`
	Duration   time.Duration   `json:"-"`
	StartedAt  time.Time       `json:"startedAt"`
}

// DurationSeconds is the wire form of Duration.
func (iv Interview) DurationSeconds() int {
	return int(iv.Duration / time.Second)
}

// Snapshot is a point-in-time copy of a room. It shares no memory with
// the room it was taken from.
type Snapshot struct {
	ID           string          `json:"id"`
	Language     string          `json:"language"`
	Code         string          `json:"code"`
	Files        map[string]File `json:"files"`
	ActiveFile   string          `json:"activeFile"`
	Participants []Participant   `json:"users"`
	TestCases    []TestCase      `json:"testCases"`
	Interview    *Interview      `json:"interview,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Project is what the bundler needs from a room: file contents keyed by
// name, the active file and the room language.
type Project struct {
	Files      map[string]string
	ActiveFile string
	Language   string
}
