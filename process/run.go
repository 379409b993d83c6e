package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// ErrBinaryRequired is returned for a Spec without a binary.
var ErrBinaryRequired = errors.New("process: binary is required")

// ExitError reports a non-zero exit.
type ExitError struct {
	Spec     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("process %q: exit code %d", e.Spec, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

const stderrExcerpt = 256

// Run executes spec and waits for it. When ctx ends the process group gets
// SIGTERM, then SIGKILL after the grace period, and the ctx error is returned.
func Run(ctx context.Context, spec Spec) (*Result, error) {
	if spec.Binary == "" {
		return nil, ErrBinaryRequired
	}
	grace := spec.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	c := exec.CommandContext(ctx, spec.Binary, spec.Args...) //nolint:gosec // running caller-provided binaries is the point
	c.Dir = spec.Dir
	c.Env = mergeEnv(spec.Env)
	c.Stdin = spec.Stdin

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	// own process group so the whole tree is signalled
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = grace

	start := time.Now()
	err := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: -1,
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		res.ExitCode = c.ProcessState.ExitCode()
	}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("process %q killed: %w", spec.String(), ctxErr)
	}
	return res, &ExitError{
		Spec:     spec.String(),
		ExitCode: res.ExitCode,
		Stderr:   excerpt(res.Stderr),
		Err:      err,
	}
}

func excerpt(b []byte) string {
	s := string(bytes.TrimSpace(b))
	if len(s) > stderrExcerpt {
		return s[:stderrExcerpt] + "..."
	}
	return s
}

func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit
	}
	return append(os.Environ(), extra...)
}
