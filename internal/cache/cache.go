package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrCacheMiss = errors.New("cache miss")

const (
	// DefaultPrefix namespaces every key this service writes
	DefaultPrefix = "storefront"
	// DefaultTTL bounds how long an abandoned session's entries survive
	DefaultTTL = 2 * time.Hour
)

// Cache is ephemeral per-session storage. Entries never outlive the session that wrote
// them: they expire after the TTL and are deleted when the session ends.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	Set(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID, key string) error
}

// Option customises a cache implementation
type Option func(*options)

type options struct {
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// WithTTL sets how long entries live
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithPrefix sets the key namespace
func WithPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.prefix = prefix
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{ttl: DefaultTTL, prefix: DefaultPrefix, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) key(sessionID, key string) string {
	return fmt.Sprintf("%s:%s:%s", o.prefix, sessionID, key)
}
