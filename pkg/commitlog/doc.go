// Package commitlog defines the contract of an append-only commit log.
//
// This package holds the pieces every log engine and every transport share:
//   - Record: an opaque value plus the offset the log assigned to it
//   - CommitLog: the Append/Read interface engines implement
//   - Error: the error taxonomy (OffsetNotFound, IOFailure, Closed)
//
// Offsets are zero-based and contiguous. The record at position i always has
// Offset == i, and once assigned an offset never changes.
//
// Example usage:
//
//	offset, err := log.Append(ctx, commitlog.NewRecord([]byte("hello")))
//	if err != nil {
//		return err
//	}
//
//	record, err := log.Read(ctx, offset)
//	if errors.Is(err, commitlog.ErrOffsetNotFound) {
//		// not written yet, treat as end of log
//	}
//
// Engines live in internal/commitlog; transports (HTTP, gRPC) only depend on
// the interface defined here.
package commitlog
