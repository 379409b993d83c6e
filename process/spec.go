package process

import (
	"io"
	"strings"
	"time"
)

// DefaultGracePeriod is the pause between SIGTERM and SIGKILL.
const DefaultGracePeriod = 5 * time.Second

// Spec describes a subprocess.
type Spec struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	Args   []string
	// Dir is the working directory. Empty uses the current directory.
	Dir string
	// Env holds extra key=value pairs merged over os.Environ.
	Env   []string
	Stdin io.Reader
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	GracePeriod time.Duration
}

// Shell returns a Spec running line with sh -c.
func Shell(line string) Spec {
	return Spec{Binary: "sh", Args: []string{"-c", line}}
}

func (s Spec) String() string {
	if len(s.Args) == 0 {
		return s.Binary
	}
	return s.Binary + " " + strings.Join(s.Args, " ")
}

// Result is the outcome of a finished subprocess.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is -1 when the process was killed by a signal.
	ExitCode int
	Duration time.Duration
}
