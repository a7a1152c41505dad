// Package store persists the current document under a single key. Backends
// are an embedded badger database, a redis server, or process memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/diagram-to-compose/composer/internal/logger"
	"github.com/diagram-to-compose/composer/internal/topology"
)

// DefaultKey is the key the document snapshot is stored under.
const DefaultKey = "network-diagram-state-v1"

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("no saved document")

// Store holds one serialized {nodes, links} snapshot.
type Store interface {
	Load(ctx context.Context) (topology.Topology, error)
	Save(ctx context.Context, t topology.Topology) error
	Reset(ctx context.Context) error
	Close() error
}

// Backend names.
const (
	BackendBadger = "badger"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Options selects and configures a backend.
type Options struct {
	Backend   string
	Key       string
	Path      string
	RedisAddr string
	RedisDB   int
	Logger    *slog.Logger
}

// Open returns the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	switch opts.Backend {
	case "", BackendBadger:
		return OpenBadger(BadgerConfig{Path: opts.Path, Key: opts.Key, Logger: opts.Logger})
	case BackendRedis:
		return OpenRedis(ctx, RedisConfig{Addr: opts.RedisAddr, DB: opts.RedisDB, Key: opts.Key})
	case BackendNone:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
}

// decode parses a stored snapshot.
func decode(data []byte) (topology.Topology, error) {
	t, err := topology.Unmarshal(data)
	if err != nil {
		return topology.Topology{}, fmt.Errorf("decode saved document: %w", err)
	}
	return t, nil
}

// LoadOrEmpty reads the saved document. A missing or unreadable entry is not
// fatal: it is logged and an empty document is returned.
func LoadOrEmpty(ctx context.Context, s Store, log *slog.Logger) topology.Topology {
	if log == nil {
		log = logger.Default
	}
	t, err := s.Load(ctx)
	switch {
	case err == nil:
		return t
	case errors.Is(err, ErrNotFound):
		log.Debug("no saved document, starting empty")
	default:
		log.Warn("saved document is unreadable, starting empty", "error", err)
	}
	return topology.Empty()
}
