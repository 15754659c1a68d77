// Package language is the closed set of runnable languages and the
// strategy table that maps each one to its execution-service id and its
// bundling family.
package language

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Kind is a runnable language. The zero value is not a valid Kind.
type Kind int

const (
	invalid Kind = iota
	JavaScript
	TypeScript
	Python
	Java
	Cpp
	C
	Go
	Rust
	Ruby
	PHP
	Swift
	Kotlin
	CSharp

	numKinds
)

// Family selects the bundling heuristic used for a Kind.
type Family int

const (
	FamilyConcat Family = iota
	FamilyECMAScript
	FamilyPython
	FamilyJVM
	FamilyC
)

func (f Family) String() string {
	switch f {
	case FamilyECMAScript:
		return "ecmascript"
	case FamilyPython:
		return "python"
	case FamilyJVM:
		return "jvm"
	case FamilyC:
		return "c"
	default:
		return "concat"
	}
}

// Spec is one row of the strategy table.
type Spec struct {
	Tag           string
	JudgeID       int
	Family        Family
	CommentPrefix string
	// EntryMarker is a substring that identifies the program entry file.
	EntryMarker string
}

var table = [numKinds]Spec{
	JavaScript: {Tag: "javascript", JudgeID: 93, Family: FamilyECMAScript, CommentPrefix: "//"},
	TypeScript: {Tag: "typescript", JudgeID: 101, Family: FamilyECMAScript, CommentPrefix: "//"},
	Python:     {Tag: "python", JudgeID: 100, Family: FamilyPython, CommentPrefix: "#", EntryMarker: `if __name__ == "__main__"`},
	Java:       {Tag: "java", JudgeID: 91, Family: FamilyJVM, CommentPrefix: "//", EntryMarker: "public static void main"},
	Cpp:        {Tag: "cpp", JudgeID: 105, Family: FamilyC, CommentPrefix: "//", EntryMarker: "int main("},
	C:          {Tag: "c", JudgeID: 103, Family: FamilyC, CommentPrefix: "//", EntryMarker: "int main("},
	Go:         {Tag: "go", JudgeID: 106, Family: FamilyConcat, CommentPrefix: "//", EntryMarker: "func main()"},
	Rust:       {Tag: "rust", JudgeID: 108, Family: FamilyConcat, CommentPrefix: "//", EntryMarker: "fn main()"},
	Ruby:       {Tag: "ruby", JudgeID: 72, Family: FamilyConcat, CommentPrefix: "#"},
	PHP:        {Tag: "php", JudgeID: 98, Family: FamilyConcat, CommentPrefix: "//"},
	Swift:      {Tag: "swift", JudgeID: 83, Family: FamilyConcat, CommentPrefix: "//"},
	Kotlin:     {Tag: "kotlin", JudgeID: 78, Family: FamilyConcat, CommentPrefix: "//", EntryMarker: "fun main("},
	CSharp:     {Tag: "csharp", JudgeID: 51, Family: FamilyConcat, CommentPrefix: "//", EntryMarker: "static void Main"},
}

// ErrUnsupported is returned by Parse for tags outside the table.
var ErrUnsupported = errors.New("unsupported language")

// Parse maps a language tag ("python", "cpp", ...) to its Kind.
func Parse(tag string) (Kind, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for k := JavaScript; k < numKinds; k++ {
		if table[k].Tag == tag {
			return k, nil
		}
	}
	return invalid, fmt.Errorf("%w: %q", ErrUnsupported, tag)
}

// All returns every valid Kind in table order.
func All() []Kind {
	kinds := make([]Kind, 0, numKinds-1)
	for k := JavaScript; k < numKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

func (k Kind) Valid() bool {
	return k > invalid && k < numKinds
}

func (k Kind) Spec() Spec {
	if !k.Valid() {
		return Spec{}
	}
	return table[k]
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return table[k].Tag
}

func (k Kind) JudgeID() int { return k.Spec().JudgeID }

func (k Kind) Family() Family { return k.Spec().Family }

func (k Kind) CommentPrefix() string { return k.Spec().CommentPrefix }

var extensionTags = map[string]string{
	"js":    "javascript",
	"jsx":   "javascript",
	"mjs":   "javascript",
	"ts":    "typescript",
	"tsx":   "typescript",
	"py":    "python",
	"java":  "java",
	"cpp":   "cpp",
	"cc":    "cpp",
	"cxx":   "cpp",
	"hpp":   "cpp",
	"hh":    "cpp",
	"c":     "c",
	"h":     "c",
	"cs":    "csharp",
	"go":    "go",
	"rs":    "rust",
	"rb":    "ruby",
	"php":   "php",
	"swift": "swift",
	"kt":    "kotlin",
	"html":  "html",
	"css":   "css",
	"json":  "json",
	"md":    "markdown",
}

// TagForFile derives the editor language tag of a file from its extension.
// Unknown extensions are "plaintext".
func TagForFile(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if tag, ok := extensionTags[ext]; ok {
		return tag
	}
	return "plaintext"
}
