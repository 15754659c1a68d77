package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rx3lixir/codetogether/pkg/logger"
)

// HTTPError carries the status and client-facing message of a failed
// request. Cause is only logged.
type HTTPError struct {
	Status  int
	Message string
	Cause   error
	Details any
}

func (e *HTTPError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches extra context that is sent to the client as is.
func (e *HTTPError) WithDetails(details any) *HTTPError {
	e.Details = details
	return e
}

func BadRequest(msg string) *HTTPError {
	return &HTTPError{Status: http.StatusBadRequest, Message: msg}
}

func NotFound(msg string) *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Message: msg}
}

// BadGateway reports a failing downstream service (object storage, database).
func BadGateway(msg string, cause error) *HTTPError {
	return &HTTPError{Status: http.StatusBadGateway, Message: msg, Cause: cause}
}

func Internal(cause error) *HTTPError {
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Message: "Something went wrong",
		Cause:   cause,
	}
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
	Details   any    `json:"details,omitempty"`
}

// RespondError writes err as a JSON error body. Errors that are not an
// *HTTPError are treated as internal.
func RespondError(w http.ResponseWriter, r *http.Request, err error, log *logger.Logger) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = Internal(err)
	}

	reqID := requestID(r)
	attrs := []any{
		"error", err,
		"status", httpErr.Status,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", reqID,
	}
	if httpErr.Status >= http.StatusInternalServerError {
		log.Error("request failed", attrs...)
	} else {
		log.Warn("client error", attrs...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.Status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error:     httpErr.Message,
		RequestID: reqID,
		Details:   httpErr.Details,
	})
}
