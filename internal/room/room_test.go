package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewRoomDefaults(t *testing.T) {
	r := New("ABC123", epoch)
	s := r.Snapshot()

	assert.Equal(t, "ABC123", s.ID)
	assert.Equal(t, DefaultLanguage, s.Language)
	assert.Equal(t, DefaultFileName, s.ActiveFile)
	require.Len(t, s.Files, 1)
	assert.Equal(t, DefaultContent, s.Files[DefaultFileName].Content)
	assert.Equal(t, "javascript", s.Files[DefaultFileName].Language)
	assert.Equal(t, DefaultContent, s.Code)
	assert.Empty(t, s.TestCases)
	assert.Nil(t, s.Interview)
}

func TestCreateFile(t *testing.T) {
	t.Run("adds file with language tag", func(t *testing.T) {
		r := New("r", epoch)
		f, err := r.CreateFile("utils.py", "X = 1")
		require.NoError(t, err)
		assert.Equal(t, "python", f.Language)

		files, active := r.Files()
		assert.Len(t, files, 2)
		assert.Equal(t, DefaultFileName, active)
	})

	t.Run("duplicate name leaves set unchanged", func(t *testing.T) {
		r := New("r", epoch)
		before := r.Snapshot()

		_, err := r.CreateFile(DefaultFileName, "overwrite")
		assert.ErrorIs(t, err, ErrDuplicateName)
		assert.Equal(t, before, r.Snapshot())
	})

	t.Run("rejects empty and path names", func(t *testing.T) {
		r := New("r", epoch)
		for _, name := range []string{"", "  ", "lib/a.js", `lib\a.js`} {
			_, err := r.CreateFile(name, "")
			assert.ErrorIs(t, err, ErrInvalidName, name)
		}
	})
}

func TestDeleteFile(t *testing.T) {
	t.Run("last file is protected", func(t *testing.T) {
		r := New("r", epoch)
		before := r.Snapshot()

		_, err := r.DeleteFile(DefaultFileName)
		assert.ErrorIs(t, err, ErrLastFile)
		assert.Equal(t, before, r.Snapshot())
	})

	t.Run("unknown file", func(t *testing.T) {
		r := New("r", epoch)
		_, err := r.DeleteFile("nope.js")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("deleting active picks first sorted name", func(t *testing.T) {
		r := New("r", epoch)
		_, err := r.CreateFile("zeta.js", "")
		require.NoError(t, err)
		_, err = r.CreateFile("alpha.js", "")
		require.NoError(t, err)

		active, err := r.DeleteFile(DefaultFileName)
		require.NoError(t, err)
		assert.Equal(t, "alpha.js", active)
	})

	t.Run("deleting inactive keeps active", func(t *testing.T) {
		r := New("r", epoch)
		_, err := r.CreateFile("a.js", "")
		require.NoError(t, err)

		active, err := r.DeleteFile("a.js")
		require.NoError(t, err)
		assert.Equal(t, DefaultFileName, active)
	})
}

func TestRenameFile(t *testing.T) {
	t.Run("preserves content and active file", func(t *testing.T) {
		r := New("r", epoch)
		f, err := r.RenameFile(DefaultFileName, "app.ts")
		require.NoError(t, err)

		assert.Equal(t, "app.ts", f.Name)
		assert.Equal(t, DefaultContent, f.Content)
		assert.Equal(t, "typescript", f.Language)

		files, active := r.Files()
		assert.Equal(t, "app.ts", active)
		assert.NotContains(t, files, DefaultFileName)
	})

	t.Run("target taken", func(t *testing.T) {
		r := New("r", epoch)
		_, err := r.CreateFile("b.js", "b")
		require.NoError(t, err)
		before := r.Snapshot()

		_, err = r.RenameFile(DefaultFileName, "b.js")
		assert.ErrorIs(t, err, ErrDuplicateName)
		assert.Equal(t, before, r.Snapshot())
	})

	t.Run("source missing", func(t *testing.T) {
		r := New("r", epoch)
		_, err := r.RenameFile("x.js", "y.js")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestSelectAndUpdate(t *testing.T) {
	r := New("r", epoch)
	_, err := r.CreateFile("b.js", "old")
	require.NoError(t, err)

	require.NoError(t, r.UpdateFileContent("b.js", "new"))
	assert.Equal(t, DefaultContent, r.Code(), "inactive edits do not touch code")

	require.NoError(t, r.SelectFile("b.js"))
	require.NoError(t, r.UpdateFileContent("b.js", "newer"))
	assert.Equal(t, "newer", r.Code())

	assert.ErrorIs(t, r.SelectFile("missing.js"), ErrNotFound)
	assert.ErrorIs(t, r.UpdateFileContent("missing.js", ""), ErrNotFound)
}

func TestReplaceFiles(t *testing.T) {
	t.Run("keeps surviving active file", func(t *testing.T) {
		r := New("r", epoch)
		files, active, err := r.ReplaceFiles(map[string]string{
			"main.js": "console.log(1)",
			"lib.js":  "",
		})
		require.NoError(t, err)
		assert.Len(t, files, 2)
		assert.Equal(t, "main.js", active)
		assert.Equal(t, "console.log(1)", r.Code())
	})

	t.Run("falls back to first sorted", func(t *testing.T) {
		r := New("r", epoch)
		_, active, err := r.ReplaceFiles(map[string]string{"b.py": "b", "a.py": "a"})
		require.NoError(t, err)
		assert.Equal(t, "a.py", active)
		assert.Equal(t, "a", r.Code())
	})

	t.Run("empty set rejected", func(t *testing.T) {
		r := New("r", epoch)
		_, _, err := r.ReplaceFiles(nil)
		assert.ErrorIs(t, err, ErrLastFile)
		assert.Len(t, r.Snapshot().Files, 1)
	})
}

func TestParticipants(t *testing.T) {
	r := New("r", epoch)

	a := r.Join("abcdef", "", epoch)
	b := r.Join("c2", "bob", epoch)

	assert.Equal(t, "Guestabcd", a.Username)
	assert.Equal(t, "bob", b.Username)
	assert.Equal(t, palette[0], a.Color)
	assert.Equal(t, palette[1], b.Color)

	again := r.Join("abcdef", "other", epoch)
	assert.Equal(t, a, again, "rejoin of same connection is a no-op")

	list := r.Participants()
	require.Len(t, list, 2)
	assert.Equal(t, "abcdef", list[0].ID)

	_, remaining, ok := r.Leave("abcdef")
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	_, _, ok = r.Leave("abcdef")
	assert.False(t, ok)
}

func TestSetLanguage(t *testing.T) {
	r := New("r", epoch)
	require.NoError(t, r.SetLanguage("python"))
	assert.Equal(t, "python", r.Language())

	assert.Error(t, r.SetLanguage("cobol"))
	assert.Equal(t, "python", r.Language())
}

func TestTestCasesAreCopied(t *testing.T) {
	r := New("r", epoch)
	cases := []TestCase{{Input: "1", ExpectedOutput: "2"}}
	r.SetTestCases(cases)
	cases[0].Input = "mutated"

	assert.Equal(t, "1", r.TestCases()[0].Input)
}

func TestInterview(t *testing.T) {
	t.Run("start then end restores code exactly", func(t *testing.T) {
		r := New("r", epoch)
		r.SetCode("original\n  code")

		err := r.StartInterview(Interview{ProblemID: "two-sum", Difficulty: "easy", StartedAt: epoch}, "starter")
		require.NoError(t, err)
		assert.Equal(t, "starter", r.Code())

		iv, ok := r.Interview()
		require.True(t, ok)
		assert.Equal(t, "two-sum", iv.ProblemID)

		restored, err := r.EndInterview()
		require.NoError(t, err)
		assert.Equal(t, "original\n  code", restored)
		assert.Equal(t, "original\n  code", r.Code())

		_, ok = r.Interview()
		assert.False(t, ok)
	})

	t.Run("second start rejected", func(t *testing.T) {
		r := New("r", epoch)
		require.NoError(t, r.StartInterview(Interview{ProblemID: "a"}, "s1"))

		err := r.StartInterview(Interview{ProblemID: "b"}, "s2")
		assert.ErrorIs(t, err, ErrInterviewActive)
		assert.Equal(t, "s1", r.Code())

		restored, err := r.EndInterview()
		require.NoError(t, err)
		assert.Equal(t, DefaultContent, restored)
	})

	t.Run("end without interview", func(t *testing.T) {
		r := New("r", epoch)
		_, err := r.EndInterview()
		assert.ErrorIs(t, err, ErrNoInterview)
	})

	t.Run("started at identifies the running interview", func(t *testing.T) {
		r := New("r", epoch)
		require.NoError(t, r.StartInterview(Interview{StartedAt: epoch}, ""))

		assert.True(t, r.InterviewStartedAt(epoch.UnixNano()))
		assert.False(t, r.InterviewStartedAt(epoch.Add(time.Second).UnixNano()))
	})
}
