// Package spawn runs the external maintenance tools triggers depend on,
// such as ldconfig and install-info.
package spawn

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/arthur-debert/fsmerge/pkg/errors"
	"github.com/arthur-debert/fsmerge/pkg/logging"
	"github.com/rs/zerolog"
)

// Result is the outcome of a command that started
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success reports a zero exit code
func (r Result) Success() bool { return r.ExitCode == 0 }

// Output returns stdout followed by stderr
func (r Result) Output() string { return r.Stdout + r.Stderr }

// Runner runs external commands. A non-zero exit is reported through
// Result, not as an error; errors mean the command could not run.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
	FindBinary(name string) (string, error)
}

// ExecRunner runs commands with os/exec
type ExecRunner struct {
	logger zerolog.Logger

	// Stdout and Stderr, when set, also receive the command output as
	// it is produced
	Stdout io.Writer
	Stderr io.Writer
	// Env is appended to the current environment
	Env []string
	// Timeout bounds each command; zero means no limit
	Timeout time.Duration
}

// NewExecRunner creates a runner that captures output only
func NewExecRunner() *ExecRunner {
	return &ExecRunner{logger: logging.GetLogger("spawn")}
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	logging.LogCommand(r.logger, name, args)
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), r.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, r.Stdout)
	cmd.Stderr = tee(&stderr, r.Stderr)

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.ExitCode = exitErr.ExitCode()
		r.logger.Debug().
			Str("command", name).
			Int("exit", res.ExitCode).
			Str("stderr", res.Stderr).
			Msg("Command exited with failure")
		return res, nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return res, errors.Wrapf(err, errors.ErrToolNotFound, "command not found: %s", name)
	}
	return res, errors.Wrapf(err, errors.ErrToolExecute, "failed to execute command: %s", name)
}

// FindBinary looks name up in PATH
func (r *ExecRunner) FindBinary(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrToolNotFound, "%s not found in PATH", name)
	}
	return p, nil
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}
