package commitlog

import (
	"context"
	"sync"

	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

// InMemoryLog implements commitlog.CommitLog on a slice held in memory.
// A single mutex covers both the append and read paths. It is safe for
// concurrent use.
type InMemoryLog struct {
	mu      sync.Mutex
	records []commitlog.Record
	closed  bool
}

// NewInMemoryLog creates an empty in-memory log.
func NewInMemoryLog() *InMemoryLog {
	return &InMemoryLog{}
}

// Append stores a copy of record at the end of the log and returns its offset.
// The in-memory log never blocks on I/O, so ctx is not consulted.
func (l *InMemoryLog) Append(_ context.Context, record commitlog.Record) (uint64, error) {
	// Copy before taking the lock to keep the critical section short.
	stored := record.Clone()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, commitlog.Closed("append")
	}

	offset := uint64(len(l.records))
	stored.Offset = offset
	l.records = append(l.records, stored)

	return offset, nil
}

// Read returns a copy of the record at offset.
func (l *InMemoryLog) Read(_ context.Context, offset uint64) (commitlog.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return commitlog.Record{}, commitlog.Closed("read")
	}
	if offset >= uint64(len(l.records)) {
		return commitlog.Record{}, commitlog.OffsetNotFound("read", offset)
	}

	return l.records[offset].Clone(), nil
}

// Len returns the number of stored records.
func (l *InMemoryLog) Len(_ context.Context) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, commitlog.Closed("len")
	}
	return uint64(len(l.records)), nil
}

// Close releases the stored records. Subsequent calls fail with
// commitlog.ErrClosed. Close is idempotent.
func (l *InMemoryLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.records = nil
	l.closed = true
	return nil
}

// Verify that InMemoryLog implements the CommitLog interface at compile time
var _ commitlog.CommitLog = (*InMemoryLog)(nil)
