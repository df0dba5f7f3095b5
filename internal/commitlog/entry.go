package commitlog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	api "github.com/rmacdonaldsmith/commitlog-go/pkg/api/v1"
	"github.com/rmacdonaldsmith/commitlog-go/pkg/commitlog"
)

// Entry encoding: api.Record wire bytes | crc32c(wire bytes) big-endian.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

var errCorruptEntry = errors.New("corrupt entry")

func encodeEntry(r commitlog.Record) ([]byte, error) {
	body, err := api.FromRecord(r).Marshal()
	if err != nil {
		return nil, err
	}
	return binary.BigEndian.AppendUint32(body, crc32.Checksum(body, castagnoli)), nil
}

func decodeEntry(b []byte, offset uint64) (commitlog.Record, error) {
	if len(b) < 4 {
		return commitlog.Record{}, fmt.Errorf("%w: %d bytes", errCorruptEntry, len(b))
	}
	body := b[:len(b)-4]
	if crc32.Checksum(body, castagnoli) != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return commitlog.Record{}, fmt.Errorf("%w: checksum mismatch", errCorruptEntry)
	}

	var wire api.Record
	if err := wire.Unmarshal(body); err != nil {
		return commitlog.Record{}, fmt.Errorf("%w: %v", errCorruptEntry, err)
	}
	if wire.Offset != offset {
		return commitlog.Record{}, fmt.Errorf("%w: stored offset %d under key %d", errCorruptEntry, wire.Offset, offset)
	}
	return wire.ToRecord(), nil
}
