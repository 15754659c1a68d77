package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyTableIsComplete(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range All() {
		spec := k.Spec()
		assert.NotEmpty(t, spec.Tag, "kind %d has no tag", int(k))
		assert.NotZero(t, spec.JudgeID, "kind %s has no judge id", k)
		assert.NotEmpty(t, spec.CommentPrefix, "kind %s has no comment prefix", k)
		assert.False(t, seen[spec.Tag], "duplicate tag %s", spec.Tag)
		seen[spec.Tag] = true
	}
	assert.Len(t, All(), int(numKinds)-1)
}

func TestParse(t *testing.T) {
	t.Run("known tags", func(t *testing.T) {
		k, err := Parse("Python")
		require.NoError(t, err)
		assert.Equal(t, Python, k)
		assert.Equal(t, 100, k.JudgeID())
		assert.Equal(t, FamilyPython, k.Family())

		k, err = Parse("javascript")
		require.NoError(t, err)
		assert.Equal(t, 93, k.JudgeID())
	})

	t.Run("unknown tag", func(t *testing.T) {
		_, err := Parse("cobol")
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("families", func(t *testing.T) {
		assert.Equal(t, FamilyECMAScript, TypeScript.Family())
		assert.Equal(t, FamilyJVM, Java.Family())
		assert.Equal(t, FamilyC, Cpp.Family())
		assert.Equal(t, FamilyConcat, Ruby.Family())
		assert.Equal(t, "#", Ruby.CommentPrefix())
	})
}

func TestTagForFile(t *testing.T) {
	cases := map[string]string{
		"main.js":    "javascript",
		"App.TSX":    "typescript",
		"helpers.py": "python",
		"Main.java":  "java",
		"util.hpp":   "cpp",
		"util.h":     "c",
		"README.md":  "markdown",
		"Makefile":   "plaintext",
		"notes.txt":  "plaintext",
	}
	for name, want := range cases {
		assert.Equal(t, want, TagForFile(name), name)
	}
}

func TestInvalidKind(t *testing.T) {
	var k Kind
	assert.False(t, k.Valid())
	assert.Equal(t, 0, k.JudgeID())
	assert.Equal(t, "Kind(0)", k.String())
}
