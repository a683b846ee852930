package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/soc-pilot/drc/internal/result"
)

const badgerPrefix = "drc/report/"

// BadgerConfig configures the embedded Badger store.
type BadgerConfig struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path       string
	InMemory   bool
	SyncWrites bool
	// Logger receives Badger's internal logs; nil disables them.
	Logger *slog.Logger
}

// BadgerStore keeps msgpack-encoded reports in BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a Badger database.
func NewBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger: path is required")
	}
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(projectID string) []byte {
	return []byte(badgerPrefix + projectID)
}

func (s *BadgerStore) Get(_ context.Context, projectID string) (*result.DRCResult, error) {
	var res result.DRCResult
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(projectID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return unmarshalMsgpack(val, &res)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", projectID, err)
	}
	return &res, nil
}

func (s *BadgerStore) Put(_ context.Context, projectID string, res *result.DRCResult) error {
	b, err := marshalMsgpack(res)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(projectID), b)
	})
}

func (s *BadgerStore) Delete(_ context.Context, projectID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(projectID))
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Reports use their json tags as msgpack field names so the stored layout
// matches the API shape.
func marshalMsgpack(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalMsgpack(b []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

// badgerLogger adapts slog.Logger to badger.Logger.
type badgerLogger struct {
	log *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
