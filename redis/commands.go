package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/connector/command"
)

// ErrKeyNotFound is returned by GetCommand for a missing key.
var ErrKeyNotFound = errors.New("redis key not found")

// GetCommand reads one key. It is never cacheable.
type GetCommand struct {
	client *Client
	key    command.CacheKey
}

var _ command.Command = (*GetCommand)(nil)

// NewGetCommand creates a GET command for key.
func NewGetCommand(client *Client, key command.CacheKey) *GetCommand {
	return &GetCommand{client: client, key: key}
}

// Execute returns the stored value or ErrKeyNotFound.
func (c *GetCommand) Execute(ctx context.Context) (string, error) {
	v, ok, err := c.client.Get(ctx, c.key.String())
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", c.key, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, c.key)
	}
	return v, nil
}

// CacheKey reports that KV commands are not cacheable.
func (c *GetCommand) CacheKey() (command.CacheKey, bool) { return command.CacheKey{}, false }

// SetCommand writes one key without expiration. Its raw result is "true".
type SetCommand struct {
	client *Client
	key    string
	value  string
}

var _ command.Command = (*SetCommand)(nil)

// NewSetCommand creates a SET command.
func NewSetCommand(client *Client, key, value string) *SetCommand {
	return &SetCommand{client: client, key: key, value: value}
}

// Execute stores the value.
func (c *SetCommand) Execute(ctx context.Context) (string, error) {
	if err := c.client.Set(ctx, c.key, c.value, 0); err != nil {
		return "", fmt.Errorf("redis set %q: %w", c.key, err)
	}
	return "true", nil
}

// CacheKey reports that KV commands are not cacheable.
func (c *SetCommand) CacheKey() (command.CacheKey, bool) { return command.CacheKey{}, false }
