package command

import "context"

// Command is a unit of asynchronous work producing a raw string response.
type Command interface {
	// Execute performs the call. Implementations should honor ctx cancellation.
	Execute(ctx context.Context) (string, error)
	// CacheKey returns the lookup key and true when the response may be cached.
	CacheKey() (CacheKey, bool)
}

// CacheKey identifies a cacheable response. Keys compare by value.
type CacheKey struct {
	value string
}

// NewCacheKey creates a cache key from its string form.
func NewCacheKey(value string) CacheKey {
	return CacheKey{value: value}
}

// String returns the key as stored.
func (k CacheKey) String() string { return k.value }

// IsZero reports whether the key is empty.
func (k CacheKey) IsZero() bool { return k.value == "" }

// Func adapts a plain function to a non-cacheable Command.
type Func func(ctx context.Context) (string, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context) (string, error) { return f(ctx) }

// CacheKey reports that the command is not cacheable.
func (Func) CacheKey() (CacheKey, bool) { return CacheKey{}, false }

type keyed struct {
	Command
	key CacheKey
}

func (k keyed) CacheKey() (CacheKey, bool) { return k.key, true }

// WithCacheKey makes cmd cacheable under key. A zero key leaves cmd as is.
func WithCacheKey(cmd Command, key CacheKey) Command {
	if key.IsZero() {
		return cmd
	}
	return keyed{Command: cmd, key: key}
}
