package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJudge0ClientRun(t *testing.T) {
	t.Run("posts submission and decodes result", func(t *testing.T) {
		var got Submission
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/submissions", r.URL.Path)
			assert.Equal(t, "false", r.URL.Query().Get("base64_encoded"))
			assert.Equal(t, "true", r.URL.Query().Get("wait"))
			assert.Equal(t, "secret", r.Header.Get("X-Auth-Token"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"stdout":"hi\n","stderr":null,"compile_output":null,"message":null,"status":{"id":3,"description":"Accepted"},"time":"0.01"}`))
		}))
		defer srv.Close()

		c := NewJudge0Client(srv.URL+"/", "secret", time.Second)
		out, err := c.Run(context.Background(), Submission{LanguageID: 93, SourceCode: "console.log('hi')", Stdin: "x"})
		require.NoError(t, err)

		assert.Equal(t, 93, got.LanguageID)
		assert.Equal(t, "x", got.Stdin)
		assert.Equal(t, "hi\n", out.Stdout)
		assert.Empty(t, out.ErrorText())
		assert.Equal(t, "Accepted", out.Status.Description)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "queue full", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewJudge0Client(srv.URL, "", time.Second).Run(context.Background(), Submission{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 503")
		assert.Contains(t, err.Error(), "queue full")
	})

	t.Run("timeout is an error", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer srv.Close()
		defer close(release)

		_, err := NewJudge0Client(srv.URL, "", 20*time.Millisecond).Run(context.Background(), Submission{})
		assert.Error(t, err)
	})
}

func TestOutcomeErrorText(t *testing.T) {
	tests := []struct {
		name string
		out  Outcome
		want string
	}{
		{"stderr wins", Outcome{Stderr: "boom", CompileOutput: "cc", Message: "m"}, "boom"},
		{"compile output next", Outcome{CompileOutput: "cc", Message: "m"}, "cc"},
		{"message last", Outcome{Message: "m"}, "m"},
		{"clean", Outcome{Stdout: "ok"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.out.ErrorText())
		})
	}
}
