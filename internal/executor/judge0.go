// Package executor turns a room's files into execution results. The
// Judge0 client talks to the remote sandbox; the Dispatcher bundles the
// project, submits it and shapes the reply for participants.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Submission is the request body for POST /submissions.
type Submission struct {
	LanguageID int    `json:"language_id"`
	SourceCode string `json:"source_code"`
	Stdin      string `json:"stdin"`
}

type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Outcome is the subset of a Judge0 submission response we use. Fields
// Judge0 reports as null decode to "".
type Outcome struct {
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Message       string `json:"message"`
	Status        Status `json:"status"`
	Time          string `json:"time"`
}

// ErrorText is the first non-empty of stderr, compiler output and the
// service message.
func (o Outcome) ErrorText() string {
	switch {
	case o.Stderr != "":
		return o.Stderr
	case o.CompileOutput != "":
		return o.CompileOutput
	default:
		return o.Message
	}
}

// Runner executes one submission.
type Runner interface {
	Run(ctx context.Context, sub Submission) (Outcome, error)
}

// Judge0Client is a Runner backed by a Judge0-compatible HTTP API.
type Judge0Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewJudge0Client(baseURL, apiKey string, timeout time.Duration) *Judge0Client {
	return &Judge0Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Run submits synchronously and waits for the sandbox to finish.
func (c *Judge0Client) Run(ctx context.Context, sub Submission) (Outcome, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return Outcome{}, fmt.Errorf("submit: %w", err)
	}

	url := c.baseURL + "/submissions?base64_encoded=false&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, fmt.Errorf("submit: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Auth-Token", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Outcome{}, fmt.Errorf("submit: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out Outcome
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Outcome{}, fmt.Errorf("submit: decode response: %w", err)
	}
	return out, nil
}
