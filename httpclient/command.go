package httpclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/kbukum/connector/command"
)

// Command adapts one HTTP request to command.Command. The raw result is the
// response body; non-2xx responses fail with *Error.
type Command struct {
	client *Client
	req    Request
	key    command.CacheKey
}

var _ command.Command = (*Command)(nil)

// NewCommand creates a command for req. GET and HEAD requests are cacheable
// under a key built from the method, resolved URL with sorted query, and the
// Accept header.
func NewCommand(client *Client, req Request) *Command {
	c := &Command{client: client, req: req}
	method := methodOf(req)
	if method != http.MethodGet && method != http.MethodHead {
		return c
	}
	u, err := client.ResolveURL(req)
	if err != nil {
		// Execute reports the error; an unparseable URL is not cacheable.
		return c
	}
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(u.String())
	if accept := client.header(req, "Accept"); accept != "" {
		b.WriteString(" accept=")
		b.WriteString(accept)
	}
	c.key = command.NewCacheKey(b.String())
	return c
}

// Get is shorthand for a GET command against path.
func Get(client *Client, path string) *Command {
	return NewCommand(client, Request{Method: http.MethodGet, Path: path})
}

// Execute sends the request and returns the response body.
func (c *Command) Execute(ctx context.Context) (string, error) {
	resp, err := c.client.Do(ctx, c.req)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// CacheKey implements command.Command.
func (c *Command) CacheKey() (command.CacheKey, bool) {
	return c.key, !c.key.IsZero()
}
