package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/diagram-to-compose/composer/internal/topology"
)

// BadgerConfig configures the embedded store.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path     string
	InMemory bool
	Key      string
	// Logger receives badger's internal logs; nil silences them.
	Logger *slog.Logger
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Badger stores the document in an embedded badger database.
type Badger struct {
	db  *badger.DB
	key []byte
}

// OpenBadger opens (creating if needed) the database.
func OpenBadger(cfg BadgerConfig) (*Badger, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent store")
	}
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &Badger{db: db, key: []byte(cfg.Key)}, nil
}

func (b *Badger) Load(_ context.Context) (topology.Topology, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return topology.Topology{}, ErrNotFound
	}
	if err != nil {
		return topology.Topology{}, fmt.Errorf("read %s: %w", b.key, err)
	}
	return decode(data)
}

func (b *Badger) Save(_ context.Context, t topology.Topology) error {
	data, err := topology.Marshal(t)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, data)
	})
}

func (b *Badger) Reset(_ context.Context) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(b.key)
	})
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// put stores raw bytes; tests use it to plant corrupt state.
func (b *Badger) put(data []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, data)
	})
}
