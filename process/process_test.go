package process

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/connector/connector"
	apperrors "github.com/kbukum/connector/errors"
	"github.com/kbukum/connector/logger"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRun_Stdout(t *testing.T) {
	requireSh(t)
	res, err := Run(context.Background(), Shell("echo hello"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(res.Stdout) != "hello\n" || res.ExitCode != 0 {
		t.Errorf("res = %q exit %d", res.Stdout, res.ExitCode)
	}
}

func TestRun_ExitCode(t *testing.T) {
	requireSh(t)
	_, err := Run(context.Background(), Shell("echo broken >&2; exit 3"))

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want *ExitError", err)
	}
	if exitErr.ExitCode != 3 || exitErr.Stderr != "broken" {
		t.Errorf("exitErr = %+v", exitErr)
	}
}

func TestRun_Env(t *testing.T) {
	requireSh(t)
	spec := Shell("printf %s \"$CONNECTOR_PROCESS_TEST\"")
	spec.Env = []string{"CONNECTOR_PROCESS_TEST=yes"}
	res, err := Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(res.Stdout) != "yes" {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestRun_Stdin(t *testing.T) {
	requireSh(t)
	spec := Spec{Binary: "sh", Args: []string{"-c", "cat"}, Stdin: strings.NewReader("piped")}
	res, err := Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(res.Stdout) != "piped" {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestRun_ContextCancelKills(t *testing.T) {
	requireSh(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	spec := Shell("sleep 10")
	spec.GracePeriod = 100 * time.Millisecond
	start := time.Now()
	_, err := Run(ctx, spec)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("process outlived cancellation: %v", elapsed)
	}
}

func TestRun_MissingBinary(t *testing.T) {
	if _, err := Run(context.Background(), Spec{}); !errors.Is(err, ErrBinaryRequired) {
		t.Errorf("err = %v", err)
	}
	_, err := Run(context.Background(), Spec{Binary: "definitely-not-a-binary-xyz"})
	if !errors.Is(err, exec.ErrNotFound) {
		t.Errorf("err = %v, want exec.ErrNotFound", err)
	}
}

func TestCommand_CacheKey(t *testing.T) {
	plain := NewCommand(Shell("date"))
	if _, ok := plain.CacheKey(); ok {
		t.Error("commands are not cacheable by default")
	}

	key, ok := NewCommand(Spec{Binary: "uname", Args: []string{"-s"}}).Cacheable().CacheKey()
	if !ok || key.String() != "exec uname -s" {
		t.Errorf("key = %q, %v", key, ok)
	}

	withStdin := NewCommand(Spec{Binary: "cat", Stdin: strings.NewReader("x")}).Cacheable()
	if _, ok := withStdin.CacheKey(); ok {
		t.Error("commands reading stdin must not be cacheable")
	}
}

func TestCommand_ThroughPipeline(t *testing.T) {
	requireSh(t)
	conn := connector.New(connector.WithLogger(logger.Nop()))
	t.Cleanup(func() { _ = conn.Close(context.Background()) })

	ok := connector.Execute(context.Background(), conn, connector.Descriptor[string]{
		Endpoint:     connector.NewEndpointConfig("sh"),
		Deserializer: connector.String(),
		Command:      NewCommand(Shell("printf ok")),
	})
	if !ok.IsSuccess() || ok.Value != "ok" {
		t.Fatalf("result = %+v", ok)
	}

	cfg := connector.NewEndpointConfig("slow-sh")
	cfg.Timeout = 50 * time.Millisecond
	slow := NewCommand(Spec{Binary: "sh", Args: []string{"-c", "sleep 5"}, GracePeriod: 50 * time.Millisecond})
	res := connector.Execute(context.Background(), conn, connector.Descriptor[string]{
		Endpoint:     cfg,
		Deserializer: connector.String(),
		Command:      slow,
	})
	if res.Code() != apperrors.ErrCodeTimeout {
		t.Errorf("code = %s, want %s", res.Code(), apperrors.ErrCodeTimeout)
	}
}
