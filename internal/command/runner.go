// Package command runs external diagnostic tools with bounded lifetimes.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/skobkin/corebuddy/internal/reading"
)

const stderrSnippetLimit = 200

// Runner executes a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands as child processes. Each child gets its own
// process group which is killed as a whole on timeout or cancellation.
type ExecRunner struct {
	timeout time.Duration
	grace   time.Duration
	logger  *slog.Logger
}

// NewExecRunner builds a runner. A zero timeout disables the per-command
// deadline; the caller's context still applies.
func NewExecRunner(timeout, grace time.Duration, logger *slog.Logger) (*ExecRunner, error) {
	if timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0")
	}
	if grace < 0 {
		return nil, fmt.Errorf("grace must be >= 0")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{
		timeout: timeout,
		grace:   grace,
		logger:  logger.With("component", "command_runner"),
	}, nil
}

// Timeout returns the per-command deadline.
func (r *ExecRunner) Timeout() time.Duration {
	return r.timeout
}

// Run executes name with args. Errors wrap reading.ErrInvocation.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, reading.Invocation(name, fmt.Errorf("%s not found", name))
	}

	runCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.grace
	configureProcessGroup(cmd)

	started := time.Now()
	err = cmd.Run()
	elapsed := time.Since(started)

	if err == nil {
		r.logger.Debug("command finished", "command", name, "elapsed", elapsed)
		return stdout.Bytes(), nil
	}

	// The parent context takes precedence over our own deadline so that
	// shutdown is reported as cancellation rather than a timeout.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, reading.Invocation(name, ctxErr)
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, reading.Invocation(name, fmt.Errorf("timed out after %s: %w", r.timeout, context.DeadlineExceeded))
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		snippet := stderrSnippet(stderr.Bytes())
		if snippet != "" {
			return nil, reading.Invocation(name, fmt.Errorf("exit status %d: %s", exitErr.ExitCode(), snippet))
		}
		return nil, reading.Invocation(name, fmt.Errorf("exit status %d", exitErr.ExitCode()))
	}
	return nil, reading.Invocation(name, err)
}

func stderrSnippet(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if line, _, ok := strings.Cut(text, "\n"); ok {
		text = line
	}
	if len(text) > stderrSnippetLimit {
		text = text[:stderrSnippetLimit]
	}
	return text
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}
