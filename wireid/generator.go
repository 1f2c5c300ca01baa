package wireid

import "sync/atomic"

// Generator hands out RequestIds for a single writer entity
// (one per Client/Server instance), incrementing the sequence number
// on every call. Safe for concurrent use.
type Generator struct {
	writer GUID
	seq    int64
}

// NewGenerator returns a Generator tagged with writer as its writer GUID.
func NewGenerator(writer GUID) *Generator {
	return &Generator{writer: writer}
}

// Next returns the next RequestId from this generator.
func (g *Generator) Next() RequestId {
	n := atomic.AddInt64(&g.seq, 1)
	return RequestId{WriterGUID: g.writer, SequenceNr: n}
}
