package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rx3lixir/codetogether/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	log := logger.Nop()

	t.Run("http errors keep their status", func(t *testing.T) {
		h := Handler(func(w http.ResponseWriter, r *http.Request) error {
			return NotFound("room not found")
		}, log)

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/api/rooms/x", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "room not found", body["error"])
	})

	t.Run("plain errors become 500", func(t *testing.T) {
		h := Handler(func(w http.ResponseWriter, r *http.Request) error {
			return errors.New("boom")
		}, log)

		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		Key string `json:"key"`
	}

	t.Run("rejects empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		err := DecodeJSON(req, &target)

		var httpErr *HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"other":1}`))
		assert.Error(t, DecodeJSON(req, &target))
	})

	t.Run("decodes valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"key":"rooms/a.json"}`))
		require.NoError(t, DecodeJSON(req, &target))
		assert.Equal(t, "rooms/a.json", target.Key)
	})
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&bad=x", nil)

	assert.Equal(t, 100, QueryInt(req, "limit", 50, 100))
	assert.Equal(t, 50, QueryInt(req, "bad", 50, 100))
	assert.Equal(t, 50, QueryInt(req, "missing", 50, 100))
}

func TestRespondErrorDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/rooms/a/import", nil)

	RespondError(rec, req, BadRequest("Archive cannot be imported").WithDetails("no files"), logger.Nop())

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Archive cannot be imported", body.Error)
	assert.Equal(t, "no files", body.Details)
	assert.Equal(t, "unknown", body.RequestID)
}

func TestBadGatewayUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := error(BadGateway("Failed to store archive", cause))

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
