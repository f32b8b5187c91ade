// Package executor provides external command execution for pipeline tasks
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/shepherdjerred/conductor/pkg/logger"
)

// Result holds the output from a command execution
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns stdout, falling back to stderr when stdout is empty.
// Several collaborators (notably the GitHub CLI) report URLs on stderr.
func (r *Result) Output() string {
	if strings.TrimSpace(r.Stdout) != "" {
		return r.Stdout
	}
	return r.Stderr
}

// TaskExecutor abstracts command execution so pipeline steps can be tested
// without spawning processes. A non-zero exit is reported as an error whose
// Result is still populated; only engine-level failures (binary missing,
// context cancelled) lack an exit code.
type TaskExecutor interface {
	Run(ctx context.Context, program string, args ...string) (*Result, error)
}

// CommandExecutor implements TaskExecutor over os/exec
type CommandExecutor struct {
	workingDir string
	env        map[string]string
	logger     logger.Logger
}

// Option configures a CommandExecutor
type Option func(*CommandExecutor)

// WithWorkingDir sets the working directory for all commands
func WithWorkingDir(dir string) Option {
	return func(e *CommandExecutor) {
		e.workingDir = dir
	}
}

// WithEnv adds environment variables appended to the current environment
func WithEnv(env map[string]string) Option {
	return func(e *CommandExecutor) {
		for k, v := range env {
			e.env[k] = v
		}
	}
}

// New creates a CommandExecutor
func New(log logger.Logger, opts ...Option) *CommandExecutor {
	e := &CommandExecutor{
		env:    make(map[string]string),
		logger: log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the command and captures its output
func (e *CommandExecutor) Run(ctx context.Context, program string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, program, args...)

	if e.workingDir != "" {
		cmd.Dir = e.workingDir
	}
	if len(e.env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range e.env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("Running command",
		logger.WithField("program", program),
		logger.WithField("args", strings.Join(args, " ")))

	err := cmd.Run()

	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return result, nil
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		return result, fmt.Errorf("%s exited with code %d: %s",
			program, result.ExitCode, firstLine(result.Stderr))
	default:
		result.ExitCode = -1
		return result, fmt.Errorf("failed to run %s: %w", program, err)
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
