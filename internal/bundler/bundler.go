// Package bundler reduces a multi-file project to a single source blob
// for a single-file execution service.
//
// Every strategy here is a text heuristic, not a parser. Nested import
// paths, competing entry points and cross-file name collisions are not
// guaranteed to produce a valid program.
package bundler

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rx3lixir/codetogether/internal/language"
)

var ErrNoFiles = errors.New("no files to bundle")

// Bundler merges files into one source string starting from entry.
type Bundler interface {
	Bundle(files map[string]string, entry string) string
}

// Bundle is the merged program and the file chosen as its entry point.
type Bundle struct {
	Source string
	Entry  string
}

var strategies = map[language.Family]func(language.Kind) Bundler{
	language.FamilyECMAScript: func(language.Kind) Bundler { return ecmaScript{} },
	language.FamilyPython:     func(language.Kind) Bundler { return python{} },
	language.FamilyJVM:        func(language.Kind) Bundler { return jvm{} },
	language.FamilyC:          func(language.Kind) Bundler { return cFamily{} },
	language.FamilyConcat: func(k language.Kind) Bundler {
		return concat{commentPrefix: k.CommentPrefix()}
	},
}

// For returns the bundling strategy for a language.
func For(kind language.Kind) Bundler {
	if build, ok := strategies[kind.Family()]; ok {
		return build(kind)
	}
	return concat{commentPrefix: "//"}
}

// Build resolves the entry point and bundles files. A single file is
// returned unchanged.
func Build(files map[string]string, kind language.Kind, active string) (Bundle, error) {
	if len(files) == 0 {
		return Bundle{}, ErrNoFiles
	}
	if !kind.Valid() {
		return Bundle{}, fmt.Errorf("%w: %s", language.ErrUnsupported, kind)
	}

	if len(files) == 1 {
		for name, content := range files {
			return Bundle{Source: content, Entry: name}, nil
		}
	}

	entry := ResolveEntry(files, kind, active)
	return Bundle{
		Source: For(kind).Bundle(files, entry),
		Entry:  entry,
	}, nil
}

// ResolveEntry picks the program entry file. First match wins: the
// active file, a file named main, a file named index, a file holding
// the language's entry marker, then the first name in sorted order.
func ResolveEntry(files map[string]string, kind language.Kind, active string) string {
	if _, ok := files[active]; ok && active != "" {
		return active
	}

	names := sortedNames(files)

	for _, stem := range []string{"main", "index"} {
		for _, name := range names {
			if name == stem || strings.HasPrefix(name, stem+".") {
				return name
			}
		}
	}

	if marker := kind.Spec().EntryMarker; marker != "" {
		for _, name := range names {
			if strings.Contains(files[name], marker) {
				return name
			}
		}
	}

	if len(names) == 0 {
		return ""
	}
	return names[0]
}

func sortedNames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fileHeader(prefix, name string) string {
	return prefix + " ═══ " + name + " ═══\n"
}
