package store

import (
	"context"
	"fmt"
	"io"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Backend is a KV that holds resources until closed.
type Backend interface {
	KV
	io.Closer
}

// Options selects and configures a cache backend.
type Options struct {
	Backend  string
	Dir      string
	RedisURL string
}

// Open returns the backend named in opts.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileKV(opts.Dir), nil
	case BackendBadger:
		kv, err := OpenBadgerKV(opts.Dir)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case BackendRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis cache requires a Redis URL (set CLASSPULSE_REDIS_URL)")
		}
		kv, err := OpenRedisKV(ctx, opts.RedisURL)
		if err != nil {
			return nil, err
		}
		return kv, nil
	case BackendMemory:
		return NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q: must be file, badger, redis or memory", opts.Backend)
	}
}
