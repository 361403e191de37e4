// Copyright (c) 2025 Enginebridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package runner owns the execution of the external engine process.
//
// Each Execute call spawns exactly one child, reads its stdout and stderr
// concurrently, forwards every non-empty line to the caller's Sink while the
// child runs, and once the child exits turns the accumulated output into a
// single outcome: a structured result, or an error describing why there is
// none. Processes are never reused or pooled.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"enginebridge/cli/internal/bridge/model"
	"enginebridge/cli/internal/config"
	bridgeerrors "enginebridge/cli/internal/errors"
	"enginebridge/cli/internal/logging"
	"enginebridge/cli/internal/result"

	"github.com/pterm/pterm"
	"golang.org/x/sync/errgroup"
)

// Sink receives output lines while the engine runs. It is called from the
// two pipe readers concurrently and must be safe for that.
type Sink func(model.Line)

// Runner launches the engine. A Runner is immutable and may serve any number
// of concurrent invocations.
type Runner struct {
	mode    config.Mode
	engine  config.EngineConfig
	timeout time.Duration
	env     []string
	sink    Sink
	log     *pterm.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithSink sets the line sink. Without one, lines are only accumulated.
func WithSink(s Sink) Option { return func(r *Runner) { r.sink = s } }

// WithLogger sets the diagnostic logger.
func WithLogger(l *pterm.Logger) Option { return func(r *Runner) { r.log = l } }

// WithEnv appends KEY=VALUE pairs to the inherited environment of the engine.
func WithEnv(kv ...string) Option { return func(r *Runner) { r.env = append(r.env, kv...) } }

// New creates a Runner from the bridge configuration.
func New(cfg config.Config, opts ...Option) *Runner {
	r := &Runner{
		mode:    cfg.Mode,
		engine:  cfg.Engine,
		timeout: cfg.Timeout,
		log:     logging.Nop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// WithSink returns a copy of r that forwards lines to s.
func (r *Runner) WithSink(s Sink) *Runner {
	c := *r
	c.sink = s
	return &c
}

// CommandFor resolves the executable and arguments for one invocation.
func CommandFor(mode config.Mode, engine config.EngineConfig, action model.Action, payload map[string]any) (string, []string, error) {
	var name string
	var args []string
	switch mode {
	case config.ModePackaged:
		name = filepath.Join(engine.Dir, engine.Binary)
		args = []string{"--action", string(action), "--basedir", engine.Dir}
	case config.ModeDevelopment:
		name = engine.Python
		args = []string{engine.Script, "--action", string(action)}
	default:
		return "", nil, fmt.Errorf("unknown mode %q", mode)
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", nil, fmt.Errorf("encode payload: %w", err)
		}
		args = append(args, "--data", string(data))
	}
	return name, args, nil
}

// Invoke builds a request for action and executes it.
func (r *Runner) Invoke(ctx context.Context, action model.Action, payload map[string]any) (*model.Outcome, error) {
	return r.Execute(ctx, model.NewRequest(action, payload))
}

// Run executes req with a sink scoped to this invocation.
func (r *Runner) Run(ctx context.Context, req model.Request, sink Sink) (*model.Outcome, error) {
	return r.WithSink(sink).Execute(ctx, req)
}

// Execute runs the engine for req and returns its single outcome.
func (r *Runner) Execute(ctx context.Context, req model.Request) (*model.Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, bridgeerrors.Wrap(bridgeerrors.InvalidRequest, "invalid request", err)
	}
	name, args, err := CommandFor(r.mode, r.engine, req.Action, req.Payload)
	if err != nil {
		return nil, bridgeerrors.Wrap(bridgeerrors.InvalidRequest, "build command", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	configureProcess(cmd)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, bridgeerrors.Wrap(bridgeerrors.SpawnFailed, "attach stdout", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, bridgeerrors.Wrap(bridgeerrors.SpawnFailed, "attach stderr", err)
	}

	r.log.Debug("starting engine", r.log.Args(
		"id", req.ID,
		"action", req.Action,
		"command", name+" "+strings.Join(logging.MaskArgs(args), " "),
	))
	startedAt := time.Now()
	if err := cmd.Start(); err != nil {
		r.log.Error("engine failed to start", r.log.Args("id", req.ID, "error", err))
		return nil, bridgeerrors.Wrap(bridgeerrors.SpawnFailed, "start engine "+name, err)
	}

	// get_schools prints bulk data on stdout, not progress.
	forwardStdout := req.Action != model.ActionGetSchools

	var stdout, stderr bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		return r.pump(stdoutPipe, &stdout, req.ID, model.Stdout, forwardStdout)
	})
	g.Go(func() error {
		return r.pump(stderrPipe, &stderr, req.ID, model.Stderr, true)
	})
	readErr := g.Wait()
	waitErr := cmd.Wait()
	elapsed := time.Since(startedAt).Round(time.Millisecond)

	if ctxErr := ctx.Err(); ctxErr != nil {
		r.log.Warn("engine stopped", r.log.Args("id", req.ID, "reason", ctxErr, "duration", elapsed))
		return nil, bridgeerrors.Wrap(bridgeerrors.Canceled, "engine run stopped", ctxErr)
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			r.log.Info("engine failed", r.log.Args("id", req.ID, "exit_code", exitErr.ExitCode(), "duration", elapsed))
			return nil, bridgeerrors.Exit(exitErr.ExitCode(), stderr.String())
		}
		return nil, bridgeerrors.Wrap(bridgeerrors.SpawnFailed, "wait for engine", waitErr)
	}
	if readErr != nil {
		return nil, bridgeerrors.Wrap(bridgeerrors.UnparseableResult, "read engine output", readErr)
	}

	v, err := result.Extract(stdout.String())
	if err != nil {
		r.log.Warn("engine result unreadable", r.log.Args("id", req.ID, "stdout_bytes", stdout.Len()))
		return nil, err
	}
	r.log.Info("engine finished", r.log.Args("id", req.ID, "action", req.Action, "duration", elapsed))
	return model.NewOutcome(v), nil
}

// pump copies one pipe into acc and forwards its non-empty lines in order.
// A final line without a newline is forwarded at EOF.
func (r *Runner) pump(src io.Reader, acc *bytes.Buffer, id string, stream model.Stream, forward bool) error {
	br := bufio.NewReader(src)
	for {
		chunk, err := br.ReadBytes('\n')
		if len(chunk) > 0 {
			acc.Write(chunk)
			if forward && r.sink != nil {
				line := strings.TrimRight(string(chunk), "\r\n")
				if strings.TrimSpace(line) != "" {
					r.sink(model.Line{RequestID: id, Stream: stream, Text: line})
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, fs.ErrClosed) {
				return nil
			}
			return err
		}
	}
}
