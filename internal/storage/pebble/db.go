package pebblestore

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
)

// FsyncMode defines when committed batches are synced to the WAL.
type FsyncMode int

const (
	// FsyncAlways syncs the WAL on every commit. Append returns only once the
	// record is durable.
	FsyncAlways FsyncMode = iota
	// FsyncInterval lets Pebble coalesce WAL syncs within FsyncInterval.
	FsyncInterval
	// FsyncNever leaves syncing entirely to Pebble.
	FsyncNever
)

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = pebble.ErrNotFound

// ErrClosed is returned by operations on a closed DB.
var ErrClosed = errors.New("pebblestore: closed")

// String returns the config name of the mode.
func (m FsyncMode) String() string {
	switch m {
	case FsyncAlways:
		return "always"
	case FsyncInterval:
		return "interval"
	case FsyncNever:
		return "never"
	default:
		return fmt.Sprintf("FsyncMode(%d)", int(m))
	}
}

// ParseFsyncMode parses "always", "interval" or "never".
func ParseFsyncMode(s string) (FsyncMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "always":
		return FsyncAlways, nil
	case "interval":
		return FsyncInterval, nil
	case "never":
		return FsyncNever, nil
	}
	return 0, fmt.Errorf("pebblestore: unknown fsync mode %q", s)
}

// Options configures Open.
type Options struct {
	// Dir is the Pebble database directory. Required.
	Dir string
	// Fsync determines when the WAL is synced.
	Fsync FsyncMode
	// FsyncInterval bounds group-commit latency when Fsync is FsyncInterval.
	FsyncInterval time.Duration
	// Pebble allows advanced tuning. If nil, Pebble defaults are used.
	Pebble *pebble.Options
}

// DB is a Pebble database with a fixed write policy.
type DB struct {
	mu        sync.RWMutex
	inner     *pebble.DB
	writeOpts *pebble.WriteOptions
}

// Open creates or opens the database in opts.Dir.
func Open(opts Options) (*DB, error) {
	if opts.Dir == "" {
		return nil, errors.New("pebblestore: Options.Dir is required")
	}

	po := opts.Pebble
	if po == nil {
		po = &pebble.Options{}
	}

	writeOpts := pebble.NoSync
	switch opts.Fsync {
	case FsyncAlways:
		writeOpts = pebble.Sync
	case FsyncInterval:
		interval := opts.FsyncInterval
		if interval <= 0 {
			interval = 5 * time.Millisecond
		}
		po.WALMinSyncInterval = func() time.Duration { return interval }
		writeOpts = pebble.Sync
	case FsyncNever:
	default:
		return nil, fmt.Errorf("pebblestore: invalid fsync mode %v", opts.Fsync)
	}

	inner, err := pebble.Open(opts.Dir, po)
	if err != nil {
		return nil, fmt.Errorf("pebblestore: open %s: %w", opts.Dir, err)
	}

	return &DB{inner: inner, writeOpts: writeOpts}, nil
}

// NewBatch creates a batch for an atomic multi-key update.
func (db *DB) NewBatch() *pebble.Batch {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.inner == nil {
		return nil
	}
	return db.inner.NewBatch()
}

// Commit applies b atomically using the configured fsync policy.
func (db *DB) Commit(b *pebble.Batch) error {
	if b == nil {
		return ErrClosed
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.inner == nil {
		return ErrClosed
	}
	return b.Commit(db.writeOpts)
}

// Get returns a copy of the value stored under key, or ErrNotFound.
func (db *DB) Get(key []byte) ([]byte, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.inner == nil {
		return nil, ErrClosed
	}

	val, closer, err := db.inner.Get(key)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), nil
}

// Close closes the database. It is safe to call more than once.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.inner == nil {
		return nil
	}
	err := db.inner.Close()
	db.inner = nil
	return err
}
