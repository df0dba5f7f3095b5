package commitlog

import (
	"context"
	"io"
)

// CommitLog is an append-only, offset-indexed record store.
//
// Implementations must be safe for concurrent use. Offset assignment is
// linearizable: concurrent Appends behave as if executed one at a time, so no
// two calls ever receive the same offset and no offset is skipped.
type CommitLog interface {
	io.Closer

	// Append stores a copy of record and returns the offset assigned to it.
	// The record's Offset field is ignored. Append either fully succeeds or
	// leaves the log unchanged. A done ctx is reported as ctx.Err().
	Append(ctx context.Context, record Record) (uint64, error)

	// Read returns a copy of the record stored at offset. The returned Value
	// is never nil, even for an empty record.
	// It fails with ErrOffsetNotFound when offset >= Len.
	Read(ctx context.Context, offset uint64) (Record, error)

	// Len returns the number of records in the log, which is also the offset
	// the next Append will be assigned.
	Len(ctx context.Context) (uint64, error)
}
