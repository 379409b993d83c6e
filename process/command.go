package process

import (
	"context"

	"github.com/kbukum/connector/command"
)

// Command runs a Spec as a pipeline command. The raw response is stdout.
type Command struct {
	spec      Spec
	cacheable bool
}

var _ command.Command = (*Command)(nil)

// NewCommand creates a non-cacheable command for spec.
func NewCommand(spec Spec) *Command {
	return &Command{spec: spec}
}

// Cacheable marks the command's output as reusable. Only use it for
// deterministic commands without stdin.
func (c *Command) Cacheable() *Command {
	c.cacheable = c.spec.Stdin == nil
	return c
}

// Execute runs the process.
func (c *Command) Execute(ctx context.Context) (string, error) {
	res, err := Run(ctx, c.spec)
	if err != nil {
		return "", err
	}
	return string(res.Stdout), nil
}

// CacheKey is "exec <binary> <args...>" when cacheable.
func (c *Command) CacheKey() (command.CacheKey, bool) {
	if !c.cacheable {
		return command.CacheKey{}, false
	}
	key := "exec " + c.spec.String()
	if c.spec.Dir != "" {
		key += " dir=" + c.spec.Dir
	}
	return command.NewCacheKey(key), true
}
