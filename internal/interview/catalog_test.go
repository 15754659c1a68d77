package interview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, c.Duration(Easy))
	assert.Equal(t, 30*time.Minute, c.Duration(Medium))
	assert.Equal(t, 45*time.Minute, c.Duration(Hard))
	assert.Equal(t, 30*time.Minute, c.Duration("impossible"))

	p, ok := c.Get("two-sum")
	require.True(t, ok)
	assert.Equal(t, Easy, p.Difficulty)
	assert.Len(t, p.TestCases, 3)
	assert.Equal(t, "[0,1]", p.TestCases[0].ExpectedOutput)
	assert.Contains(t, p.Starter("python"), "def two_sum")
	assert.Empty(t, p.Starter("cobol"))

	_, ok = c.Get("missing")
	assert.False(t, ok)

	for _, level := range []string{Easy, Medium, Hard} {
		assert.NotEmpty(t, c.List(level), level)
	}
	assert.Len(t, c.List(""), len(c.Problems))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "valid",
			doc: `
durations: {easy: 10m}
problems:
  - id: a
    difficulty: easy
`,
		},
		{
			name:    "missing id",
			doc:     "problems: [{difficulty: easy}]",
			wantErr: "id is required",
		},
		{
			name:    "duplicate id",
			doc:     "problems: [{id: a, difficulty: easy}, {id: a, difficulty: hard}]",
			wantErr: "duplicate id",
		},
		{
			name:    "unknown difficulty",
			doc:     "problems: [{id: a, difficulty: brutal}]",
			wantErr: "unknown difficulty",
		},
		{
			name:    "non-positive duration",
			doc:     "durations: {easy: 0s}",
			wantErr: "must be positive",
		},
		{
			name:    "malformed",
			doc:     "problems: {",
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.doc))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 10*time.Minute, c.Duration(Easy))
		})
	}
}
