package commitlog

import "encoding/binary"

// Pebble keyspace for the durable log (byte-wise, lexicographically sortable):
//   - log/m                 record count, 8 bytes big-endian
//   - log/e/{offset_be8}    entry

var (
	keyMeta     = []byte("log/m")
	entryPrefix = []byte("log/e/")
)

func keyEntry(offset uint64) []byte {
	k := make([]byte, 0, len(entryPrefix)+8)
	k = append(k, entryPrefix...)
	return binary.BigEndian.AppendUint64(k, offset)
}

func encodeCount(n uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, n)
}
