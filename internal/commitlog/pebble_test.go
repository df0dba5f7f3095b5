package commitlog

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pebblestore "github.com/rmacdonaldsmith/commitlog-go/internal/storage/pebble"
	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

func openTestPebbleLog(t *testing.T, dir string) *PebbleLog {
	t.Helper()
	log, err := OpenPebbleLog(pebblestore.Options{Dir: dir, Fsync: pebblestore.FsyncAlways}, nil)
	require.NoError(t, err)
	return log
}

func TestPebbleLog_Contract(t *testing.T) {
	testContract(t, func(t *testing.T) commitlog.CommitLog {
		log := openTestPebbleLog(t, t.TempDir())
		t.Cleanup(func() { _ = log.Close() })
		return log
	})
}

func TestPebbleLog_OffsetsContinueAfterReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := openTestPebbleLog(t, dir)
	for _, v := range []string{"a", "b", "c"} {
		_, err := first.Append(ctx, commitlog.NewRecord([]byte(v)))
		require.NoError(t, err)
	}
	require.NoError(t, first.Close())

	logger, hook := test.NewNullLogger()
	second, err := OpenPebbleLog(pebblestore.Options{Dir: dir}, logger)
	require.NoError(t, err)
	defer second.Close()

	n, err := second.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	record, err := second.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", string(record.Value))
	assert.Equal(t, uint64(1), record.Offset)

	offset, err := second.Append(ctx, commitlog.NewRecord([]byte("d")))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), offset)

	_, err = second.Read(ctx, 4)
	assert.ErrorIs(t, err, commitlog.ErrOffsetNotFound)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, uint64(3), hook.LastEntry().Data["records"])
}

func TestPebbleLog_CorruptEntryIsIOFailure(t *testing.T) {
	log := openTestPebbleLog(t, t.TempDir())
	defer log.Close()
	ctx := context.Background()

	_, err := log.Append(ctx, commitlog.NewRecord([]byte("good")))
	require.NoError(t, err)

	b := log.db.NewBatch()
	require.NoError(t, b.Set(keyEntry(0), []byte("garbage"), nil))
	require.NoError(t, log.db.Commit(b))
	b.Close()

	_, err = log.Read(ctx, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, commitlog.ErrIOFailure)
	assert.ErrorIs(t, err, errCorruptEntry)
	assert.NotErrorIs(t, err, commitlog.ErrOffsetNotFound)
}

func TestPebbleLog_FailedAppendLeavesLogUnchanged(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	log := openTestPebbleLog(t, dir)
	for _, v := range []string{"a", "b"} {
		_, err := log.Append(ctx, commitlog.NewRecord([]byte(v)))
		require.NoError(t, err)
	}

	// Pull the storage out from under the engine so the write cannot commit
	require.NoError(t, log.db.Close())

	_, err := log.Append(ctx, commitlog.NewRecord([]byte("lost")))
	require.Error(t, err)
	assert.ErrorIs(t, err, commitlog.ErrIOFailure)
	assert.Equal(t, commitlog.KindIOFailure, commitlog.KindOf(err))

	var logErr *commitlog.Error
	require.ErrorAs(t, err, &logErr)
	assert.Equal(t, uint64(2), logErr.Offset)
	assert.Equal(t, uint64(2), log.next, "a failed append must not consume its offset")

	n, err := log.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	_, err = log.Read(ctx, 2)
	assert.ErrorIs(t, err, commitlog.ErrOffsetNotFound)
	require.NoError(t, log.Close())

	db, err := pebblestore.Open(pebblestore.Options{Dir: dir})
	require.NoError(t, err)
	count, err := loadCount(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count, "stored record count must be unchanged")
	_, err = db.Get(keyEntry(2))
	assert.ErrorIs(t, err, pebblestore.ErrNotFound)
	require.NoError(t, db.Close())

	reopened := openTestPebbleLog(t, dir)
	defer reopened.Close()
	offset, err := reopened.Append(ctx, commitlog.NewRecord([]byte("c")))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), offset)
}

func TestPebbleLog_HonoursCancelledContext(t *testing.T) {
	log := openTestPebbleLog(t, t.TempDir())
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := log.Append(ctx, commitlog.NewRecord([]byte("x")))
	assert.ErrorIs(t, err, context.Canceled)

	n, err := log.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), n, "a rejected append must not change the log")
}

func TestEntryEncoding(t *testing.T) {
	entry, err := encodeEntry(commitlog.Record{Value: []byte("v"), Offset: 5})
	require.NoError(t, err)

	record, err := decodeEntry(entry, 5)
	require.NoError(t, err)
	assert.Equal(t, "v", string(record.Value))

	_, err = decodeEntry(entry, 6)
	assert.ErrorIs(t, err, errCorruptEntry)

	entry[0] ^= 0xff
	_, err = decodeEntry(entry, 5)
	assert.ErrorIs(t, err, errCorruptEntry)
}

func TestKeyEntryOrdering(t *testing.T) {
	assert.Less(t, string(keyEntry(1)), string(keyEntry(2)))
	assert.Less(t, string(keyEntry(255)), string(keyEntry(256)))
}
