package room

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rx3lixir/codetogether/internal/language"
)

// Room is the shared state of one collaboration session. All methods are
// safe for concurrent use; each one is atomic with respect to the room.
type Room struct {
	mu sync.Mutex

	id        string
	createdAt time.Time

	language   string
	files      map[string]*File
	activeFile string
	code       string

	participants map[string]*Participant
	order        []string
	colorSeq     int

	testCases    []TestCase
	interview    *Interview
	previousCode *string
}

// New returns a room holding the default file set.
func New(id string, now time.Time) *Room {
	return &Room{
		id:        id,
		createdAt: now,
		language:  DefaultLanguage,
		files: map[string]*File{
			DefaultFileName: {
				Name:     DefaultFileName,
				Content:  DefaultContent,
				Language: language.TagForFile(DefaultFileName),
			},
		},
		activeFile:   DefaultFileName,
		code:         DefaultContent,
		participants: make(map[string]*Participant),
	}
}

func (r *Room) ID() string { return r.id }

func validName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && !strings.ContainsAny(name, `/\`)
}

// CreateFile adds a file. The file set is unchanged on error.
func (r *Room) CreateFile(name, content string) (File, error) {
	if !validName(name) {
		return File{}, ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.files[name]; ok {
		return File{}, ErrDuplicateName
	}
	f := &File{Name: name, Content: content, Language: language.TagForFile(name)}
	r.files[name] = f
	return *f, nil
}

// DeleteFile removes a file and returns the active file afterwards. When
// the active file is deleted the first remaining name in sorted order
// becomes active.
func (r *Room) DeleteFile(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.files[name]; !ok {
		return r.activeFile, ErrNotFound
	}
	if len(r.files) == 1 {
		return r.activeFile, ErrLastFile
	}

	delete(r.files, name)
	if r.activeFile == name {
		r.activeFile = slices.Sorted(maps.Keys(r.files))[0]
	}
	return r.activeFile, nil
}

// RenameFile moves a file to a new name, keeping its content. The file's
// language tag follows the new extension.
func (r *Room) RenameFile(oldName, newName string) (File, error) {
	if !validName(newName) {
		return File{}, ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[oldName]
	if !ok {
		return File{}, ErrNotFound
	}
	if _, taken := r.files[newName]; taken {
		return File{}, ErrDuplicateName
	}

	delete(r.files, oldName)
	renamed := &File{Name: newName, Content: f.Content, Language: language.TagForFile(newName)}
	r.files[newName] = renamed
	if r.activeFile == oldName {
		r.activeFile = newName
	}
	return *renamed, nil
}

func (r *Room) SelectFile(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.files[name]; !ok {
		return ErrNotFound
	}
	r.activeFile = name
	return nil
}

// UpdateFileContent replaces a file's content. Edits to the active file
// are mirrored into the room code.
func (r *Room) UpdateFileContent(name, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[name]
	if !ok {
		return ErrNotFound
	}
	f.Content = content
	if name == r.activeFile {
		r.code = content
	}
	return nil
}

// ReplaceFiles swaps the whole file set, as done on import. The active
// file is kept if it survives, otherwise the first sorted name is used.
func (r *Room) ReplaceFiles(files map[string]string) (map[string]File, string, error) {
	if len(files) == 0 {
		return nil, "", ErrLastFile
	}
	for name := range files {
		if !validName(name) {
			return nil, "", ErrInvalidName
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]*File, len(files))
	for name, content := range files {
		next[name] = &File{Name: name, Content: content, Language: language.TagForFile(name)}
	}
	r.files = next
	if _, ok := next[r.activeFile]; !ok {
		r.activeFile = slices.Sorted(maps.Keys(next))[0]
	}
	r.code = next[r.activeFile].Content
	return r.filesLocked(), r.activeFile, nil
}

func (r *Room) Files() (map[string]File, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filesLocked(), r.activeFile
}

func (r *Room) filesLocked() map[string]File {
	out := make(map[string]File, len(r.files))
	for name, f := range r.files {
		out[name] = *f
	}
	return out
}

// Project copies the file contents for a bundling pass.
func (r *Room) Project() Project {
	r.mu.Lock()
	defer r.mu.Unlock()

	files := make(map[string]string, len(r.files))
	for name, f := range r.files {
		files[name] = f.Content
	}
	return Project{Files: files, ActiveFile: r.activeFile, Language: r.language}
}

func (r *Room) Code() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.code
}

func (r *Room) SetCode(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
}

func (r *Room) Language() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.language
}

// SetLanguage changes the room language. Only runnable languages are
// accepted.
func (r *Room) SetLanguage(tag string) error {
	if _, err := language.Parse(tag); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.language = tag
	return nil
}

func (r *Room) TestCases() []TestCase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.testCases)
}

func (r *Room) SetTestCases(cases []TestCase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.testCases = slices.Clone(cases)
}

// Join adds a participant. An empty username becomes Guest plus the first
// four characters of the id. Colours rotate through the palette.
func (r *Room) Join(id, username string, now time.Time) Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.participants[id]; ok {
		return *p
	}

	if strings.TrimSpace(username) == "" {
		short := id
		if len(short) > 4 {
			short = short[:4]
		}
		username = "Guest" + short
	}

	p := &Participant{
		ID:       id,
		Username: username,
		Color:    palette[r.colorSeq%len(palette)],
		JoinedAt: now,
	}
	r.colorSeq++
	r.participants[id] = p
	r.order = append(r.order, id)
	return *p
}

// Leave removes a participant and reports how many remain.
func (r *Room) Leave(id string) (Participant, int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return Participant{}, len(r.participants), false
	}
	delete(r.participants, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return *p, len(r.participants), true
}

func (r *Room) Participant(id string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Participants lists participants in join order.
func (r *Room) Participants() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.participantsLocked()
}

func (r *Room) participantsLocked() []Participant {
	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.participants[id])
	}
	return out
}

func (r *Room) ParticipantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.participants)
}

func (r *Room) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		ID:           r.id,
		Language:     r.language,
		Code:         r.code,
		Files:        r.filesLocked(),
		ActiveFile:   r.activeFile,
		Participants: r.participantsLocked(),
		TestCases:    slices.Clone(r.testCases),
		CreatedAt:    r.createdAt,
	}
	if s.TestCases == nil {
		s.TestCases = []TestCase{}
	}
	if r.interview != nil {
		iv := *r.interview
		s.Interview = &iv
	}
	return s
}
