package commitlog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testContract runs the behaviour every CommitLog engine must share.
func testContract(t *testing.T, newLog func(t *testing.T) commitlog.CommitLog) {
	t.Run("empty_log_read_fails", func(t *testing.T) {
		log := newLog(t)
		ctx := context.Background()

		_, err := log.Read(ctx, 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, commitlog.ErrOffsetNotFound)
		assert.Equal(t, commitlog.KindOffsetNotFound, commitlog.KindOf(err))

		n, err := log.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), n)
	})

	t.Run("append_read_scenario", func(t *testing.T) {
		log := newLog(t)
		ctx := context.Background()

		for i, value := range []string{"a", "b", "c"} {
			offset, err := log.Append(ctx, commitlog.NewRecord([]byte(value)))
			require.NoError(t, err)
			assert.Equal(t, uint64(i), offset)
		}

		record, err := log.Read(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "b", string(record.Value))
		assert.Equal(t, uint64(1), record.Offset)

		_, err = log.Read(ctx, 3)
		assert.ErrorIs(t, err, commitlog.ErrOffsetNotFound)
	})

	t.Run("caller_offset_ignored", func(t *testing.T) {
		log := newLog(t)
		ctx := context.Background()

		offset, err := log.Append(ctx, commitlog.Record{Value: []byte("x"), Offset: 99})
		require.NoError(t, err)
		assert.Equal(t, uint64(0), offset)

		record, err := log.Read(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), record.Offset)
	})

	t.Run("not_found_boundary", func(t *testing.T) {
		log := newLog(t)
		ctx := context.Background()

		for n := uint64(0); n < 5; n++ {
			_, err := log.Read(ctx, n)
			assert.ErrorIs(t, err, commitlog.ErrOffsetNotFound, "Read(%d) after %d appends", n, n)
			if n > 0 {
				_, err = log.Read(ctx, n-1)
				assert.NoError(t, err, "Read(%d) after %d appends", n-1, n)
			}

			_, err = log.Append(ctx, commitlog.NewRecord([]byte(fmt.Sprintf("r%d", n))))
			require.NoError(t, err)
		}
	})

	t.Run("empty_value_round_trip", func(t *testing.T) {
		log := newLog(t)
		ctx := context.Background()

		for _, value := range [][]byte{nil, {}} {
			offset, err := log.Append(ctx, commitlog.Record{Value: value})
			require.NoError(t, err)

			record, err := log.Read(ctx, offset)
			require.NoError(t, err)
			require.NotNil(t, record.Value, "empty values read back as an empty slice")
			assert.Len(t, record.Value, 0)
			assert.Equal(t, offset, record.Offset)
		}
	})

	t.Run("immutability", func(t *testing.T) {
		log := newLog(t)
		ctx := context.Background()

		input := []byte("original")
		offset, err := log.Append(ctx, commitlog.Record{Value: input})
		require.NoError(t, err)

		// Mutating the caller's slice must not reach the stored record
		input[0] = 'X'

		first, err := log.Read(ctx, offset)
		require.NoError(t, err)
		first.Value[1] = 'Y'

		for i := 0; i < 3; i++ {
			_, err := log.Append(ctx, commitlog.NewRecord([]byte("later")))
			require.NoError(t, err)
		}

		again, err := log.Read(ctx, offset)
		require.NoError(t, err)
		assert.Equal(t, "original", string(again.Value))
	})

	t.Run("concurrent_appends_are_linearizable", func(t *testing.T) {
		log := newLog(t)
		ctx := context.Background()

		const writers = 64
		offsets := make([]uint64, writers)
		errs := make([]error, writers)

		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				offsets[i], errs[i] = log.Append(ctx, commitlog.NewRecord([]byte(fmt.Sprintf("writer-%d", i))))
			}(i)
		}
		close(start)
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err, "writer %d", i)
		}

		sorted := append([]uint64(nil), offsets...)
		sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })
		for i, offset := range sorted {
			assert.Equal(t, uint64(i), offset, "offsets must be exactly 0..%d", writers-1)
		}

		n, err := log.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(writers), n)

		// Every writer reads back its own value at its own offset
		for i, offset := range offsets {
			record, err := log.Read(ctx, offset)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("writer-%d", i), string(record.Value))
		}
	})

	t.Run("concurrent_reads_and_appends", func(t *testing.T) {
		log := newLog(t)
		ctx := context.Background()

		_, err := log.Append(ctx, commitlog.NewRecord([]byte("seed")))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					if _, err := log.Append(ctx, commitlog.NewRecord([]byte("v"))); err != nil {
						t.Errorf("append: %v", err)
						return
					}
				}
			}()
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					record, err := log.Read(ctx, 0)
					if err != nil {
						t.Errorf("read: %v", err)
						return
					}
					if string(record.Value) != "seed" {
						t.Errorf("expected seed, got %q", record.Value)
						return
					}
				}
			}()
		}
		wg.Wait()

		n, err := log.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1+8*20), n)
	})

	t.Run("closed_log_rejects_operations", func(t *testing.T) {
		log := newLog(t)
		ctx := context.Background()

		require.NoError(t, log.Close())
		require.NoError(t, log.Close(), "Close should be idempotent")

		_, err := log.Append(ctx, commitlog.NewRecord([]byte("late")))
		assert.True(t, errors.Is(err, commitlog.ErrClosed))

		_, err = log.Read(ctx, 0)
		assert.True(t, errors.Is(err, commitlog.ErrClosed))
	})
}
