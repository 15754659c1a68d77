package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rx3lixir/codetogether/internal/bundler"
	"github.com/rx3lixir/codetogether/internal/clock"
	"github.com/rx3lixir/codetogether/internal/language"
	"github.com/rx3lixir/codetogether/pkg/logger"
)

const noOutput = "Code executed successfully (no output)"

// Result is the reply to a single run.
type Result struct {
	Output  string `json:"output"`
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

type Case struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

// CaseResult is the outcome of one test case. TestCase is 1-based.
type CaseResult struct {
	TestCase       int    `json:"testCase"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	ActualOutput   string `json:"actualOutput"`
	Passed         bool   `json:"passed"`
	ExecutionTime  int64  `json:"executionTime"`
	Error          bool   `json:"error"`
}

type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

type BatchResult struct {
	Results []CaseResult `json:"results"`
	Summary Summary      `json:"summary"`
}

// transportError means the execution service could not be reached or
// answered with something other than a result.
type transportError struct{ err error }

func (e transportError) Error() string { return "Execution failed: " + e.err.Error() }

func (e transportError) Unwrap() error { return e.err }

// Project is a point-in-time view of the files to run.
type Project struct {
	Files      map[string]string
	ActiveFile string
}

// Source yields a fresh Project each time it is called.
type Source func() Project

// Dispatcher bundles projects and hands them to a Runner.
type Dispatcher struct {
	runner Runner
	clock  clock.Clock
	log    *logger.Logger
}

func NewDispatcher(runner Runner, clk clock.Clock, log *logger.Logger) *Dispatcher {
	return &Dispatcher{runner: runner, clock: clk, log: log}
}

// RunOnce bundles p and executes it with stdin. Failures of any kind are
// reported inside the Result.
func (d *Dispatcher) RunOnce(ctx context.Context, p Project, kind language.Kind, stdin string) Result {
	run, err := d.execute(ctx, p, kind, stdin)
	if err != nil {
		return Result{Error: err.Error()}
	}
	if run.errText != "" {
		return Result{Output: run.stdout, Error: run.errText}
	}
	if run.stdout == "" {
		return Result{Output: noOutput, Success: true}
	}
	return Result{Output: run.stdout, Success: true}
}

// RunBatch runs every case in order. Each case re-reads the project from
// src so edits made during the batch are picked up by later cases. A
// failing case never stops the batch.
func (d *Dispatcher) RunBatch(ctx context.Context, src Source, kind language.Kind, cases []Case) BatchResult {
	results := make([]CaseResult, 0, len(cases))
	passed := 0

	for i, c := range cases {
		r := d.runCase(ctx, i+1, src, kind, c)
		if r.Passed {
			passed++
		}
		results = append(results, r)
	}

	d.log.Debug("test batch finished",
		"language", kind.String(),
		"total", len(cases),
		"passed", passed,
	)

	return BatchResult{
		Results: results,
		Summary: Summary{
			Total:  len(results),
			Passed: passed,
			Failed: len(results) - passed,
		},
	}
}

func (d *Dispatcher) runCase(ctx context.Context, n int, src Source, kind language.Kind, c Case) (res CaseResult) {
	res = CaseResult{
		TestCase:       n,
		Input:          c.Input,
		ExpectedOutput: c.ExpectedOutput,
	}

	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error("test case panicked", "test_case", n, "panic", rec)
			res.ActualOutput = fmt.Sprint(rec)
			res.Passed = false
			res.Error = true
		}
	}()

	run, err := d.execute(ctx, src(), kind, c.Input)
	res.ExecutionTime = run.elapsed.Milliseconds()

	switch {
	case err != nil:
		res.ActualOutput = err.Error()
		res.Error = true
	case run.errText != "":
		res.ActualOutput = run.stdout
		if res.ActualOutput == "" {
			res.ActualOutput = run.errText
		}
		res.Error = true
	default:
		res.ActualOutput = run.stdout
		res.Passed = strings.TrimSpace(run.stdout) == strings.TrimSpace(c.ExpectedOutput)
	}
	return res
}

// execution is what came back from one call to the execution service.
// elapsed covers only that call.
type execution struct {
	stdout  string
	errText string
	elapsed time.Duration
}

// execute bundles p and sends it to the runner. err is set only when
// nothing ran: bundling failed or the service was unreachable.
func (d *Dispatcher) execute(ctx context.Context, p Project, kind language.Kind, stdin string) (execution, error) {
	b, err := bundler.Build(p.Files, kind, p.ActiveFile)
	if err != nil {
		return execution{}, err
	}

	start := d.clock.Now()
	out, err := d.runner.Run(ctx, Submission{
		LanguageID: kind.JudgeID(),
		SourceCode: b.Source,
		Stdin:      stdin,
	})
	elapsed := d.clock.Now().Sub(start)

	if err != nil {
		d.log.Warn("execution service call failed",
			"language", kind.String(),
			"entry", b.Entry,
			"error", err,
		)
		return execution{elapsed: elapsed}, transportError{err}
	}

	d.log.Debug("execution finished",
		"language", kind.String(),
		"entry", b.Entry,
		"files", len(p.Files),
		"status", out.Status.Description,
		"elapsed", elapsed,
	)
	return execution{stdout: out.Stdout, errText: out.ErrorText(), elapsed: elapsed}, nil
}
