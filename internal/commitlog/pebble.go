package commitlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	pebblestore "github.com/rmacdonaldsmith/commitlog-go/internal/storage/pebble"
	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

// PebbleLog implements commitlog.CommitLog on top of Pebble.
//
// Each Append writes the entry and the updated record count in one batch,
// committed inside the same critical section that assigns the offset. Offsets
// therefore stay contiguous and linearizable across restarts.
type PebbleLog struct {
	mu     sync.Mutex
	db     *pebblestore.DB
	next   uint64
	closed bool
}

// OpenPebbleLog opens (or creates) a durable log in opts.Dir and restores the
// next offset from the stored record count.
func OpenPebbleLog(opts pebblestore.Options, logger logrus.FieldLogger) (*PebbleLog, error) {
	db, err := pebblestore.Open(opts)
	if err != nil {
		return nil, err
	}

	next, err := loadCount(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"dir":     opts.Dir,
			"fsync":   opts.Fsync.String(),
			"records": next,
		}).Info("opened durable log")
	}

	return &PebbleLog{db: db, next: next}, nil
}

func loadCount(db *pebblestore.DB) (uint64, error) {
	meta, err := db.Get(keyMeta)
	if errors.Is(err, pebblestore.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load record count: %w", err)
	}
	if len(meta) != 8 {
		return 0, fmt.Errorf("load record count: %w: meta is %d bytes", errCorruptEntry, len(meta))
	}
	return binary.BigEndian.Uint64(meta), nil
}

// Append durably stores record and returns its offset. If the batch commit
// fails the log is left unchanged and an IOFailure is returned.
func (l *PebbleLog) Append(ctx context.Context, record commitlog.Record) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, commitlog.Closed("append")
	}

	offset := l.next
	entry, err := encodeEntry(record.WithOffset(offset))
	if err != nil {
		return 0, commitlog.IOFailure("append", offset, err)
	}

	b := l.db.NewBatch()
	if b == nil {
		return 0, commitlog.IOFailure("append", offset, pebblestore.ErrClosed)
	}
	defer b.Close()

	if err := b.Set(keyEntry(offset), entry, nil); err != nil {
		return 0, commitlog.IOFailure("append", offset, err)
	}
	if err := b.Set(keyMeta, encodeCount(offset+1), nil); err != nil {
		return 0, commitlog.IOFailure("append", offset, err)
	}
	if err := l.db.Commit(b); err != nil {
		return 0, commitlog.IOFailure("append", offset, err)
	}

	l.next++
	return offset, nil
}

// Read loads the record at offset from storage.
func (l *PebbleLog) Read(ctx context.Context, offset uint64) (commitlog.Record, error) {
	if err := ctx.Err(); err != nil {
		return commitlog.Record{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return commitlog.Record{}, commitlog.Closed("read")
	}
	if offset >= l.next {
		return commitlog.Record{}, commitlog.OffsetNotFound("read", offset)
	}

	raw, err := l.db.Get(keyEntry(offset))
	if err != nil {
		// Every offset below next was committed, so a miss is a storage fault.
		return commitlog.Record{}, commitlog.IOFailure("read", offset, err)
	}
	record, err := decodeEntry(raw, offset)
	if err != nil {
		return commitlog.Record{}, commitlog.IOFailure("read", offset, err)
	}
	return record, nil
}

// Len returns the number of committed records.
func (l *PebbleLog) Len(_ context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, commitlog.Closed("len")
	}
	return l.next, nil
}

// Close closes the underlying database. Close is idempotent.
func (l *PebbleLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.db.Close()
}

// Verify that PebbleLog implements the CommitLog interface at compile time
var _ commitlog.CommitLog = (*PebbleLog)(nil)
