package commitlog

// Record is a single immutable unit of data stored in the log.
type Record struct {
	// Value is the opaque payload. The log never interprets it.
	Value []byte `json:"value"`

	// Offset is the record's position in the log. It is assigned by the log
	// on append; any value supplied by the caller is ignored.
	Offset uint64 `json:"offset"`
}

// NewRecord creates a Record holding a copy of value.
func NewRecord(value []byte) Record {
	return Record{Value: cloneBytes(value)}
}

// Clone returns a deep copy of the record.
// Engines use it on the way in and out so callers never share memory with
// stored records. The copied Value is never nil.
func (r Record) Clone() Record {
	return Record{
		Value:  cloneBytes(r.Value),
		Offset: r.Offset,
	}
}

// WithOffset returns a copy of the record stamped with offset.
func (r Record) WithOffset(offset uint64) Record {
	c := r.Clone()
	c.Offset = offset
	return c
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
