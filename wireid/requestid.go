// Package wireid implements the correlation-id side of a DDS request/reply
// exchange: the RequestId type and the three ServiceMapping wire
// conventions that carry it in a sample's key fields.
package wireid

import (
	"encoding/binary"
	"fmt"
)

// GUID is a stand-in for an RTPS writer GUID: the 12-byte prefix
// identifying the writer's participant/entity plus a 4-byte entity id.
type GUID [16]byte

// RequestId correlates a single request with its eventual response.
// Two RequestIds are equal exactly when they denote the same exchange.
type RequestId struct {
	WriterGUID GUID
	SequenceNr int64
}

func (r RequestId) String() string {
	return fmt.Sprintf("%x/%d", r.WriterGUID, r.SequenceNr)
}

// ServiceMapping selects how a RequestId is encoded into and decoded
// out of a sample's correlation fields. All services belonging to one
// action must agree on the same mapping as their peer; the mapping is
// fixed at ActionClient/ActionServer construction time.
type ServiceMapping uint8

const (
	// Basic is the plain RMW mapping: writer GUID followed by an 8-byte
	// big-endian sequence number, with no padding.
	Basic ServiceMapping = iota
	// Enhanced adds a leading 4-byte mapping-version tag ahead of the
	// Basic encoding, so that a Basic-only peer fails fast on
	// mismatched framing rather than silently misreading the sequence
	// number.
	Enhanced
	// Cyclone matches the CycloneDDS RMW layout: the sequence number
	// comes first (little-endian), followed by the writer GUID.
	Cyclone
)

func (m ServiceMapping) String() string {
	switch m {
	case Basic:
		return "Basic"
	case Enhanced:
		return "Enhanced"
	case Cyclone:
		return "Cyclone"
	default:
		return "Unknown"
	}
}

const enhancedTag uint32 = 0x52325243 // "R2RC"

// Encode serializes a RequestId into the byte layout this mapping
// uses for a sample's correlation key.
func (m ServiceMapping) Encode(id RequestId) []byte {
	switch m {
	case Enhanced:
		buf := make([]byte, 4+16+8)
		binary.BigEndian.PutUint32(buf[0:4], enhancedTag)
		copy(buf[4:20], id.WriterGUID[:])
		binary.BigEndian.PutUint64(buf[20:28], uint64(id.SequenceNr))
		return buf
	case Cyclone:
		buf := make([]byte, 8+16)
		binary.LittleEndian.PutUint64(buf[0:8], uint64(id.SequenceNr))
		copy(buf[8:24], id.WriterGUID[:])
		return buf
	case Basic:
		fallthrough
	default:
		buf := make([]byte, 16+8)
		copy(buf[0:16], id.WriterGUID[:])
		binary.BigEndian.PutUint64(buf[16:24], uint64(id.SequenceNr))
		return buf
	}
}

// Decode is the inverse of Encode. It returns an error if buf does not
// have the length this mapping expects, or (for Enhanced) its framing
// tag does not match.
func (m ServiceMapping) Decode(buf []byte) (RequestId, error) {
	switch m {
	case Enhanced:
		if len(buf) != 4+16+8 {
			return RequestId{}, fmt.Errorf("wireid: Enhanced mapping expects %d bytes, got %d", 4+16+8, len(buf))
		}
		if tag := binary.BigEndian.Uint32(buf[0:4]); tag != enhancedTag {
			return RequestId{}, fmt.Errorf("wireid: Enhanced mapping tag mismatch: %#x", tag)
		}
		var id RequestId
		copy(id.WriterGUID[:], buf[4:20])
		id.SequenceNr = int64(binary.BigEndian.Uint64(buf[20:28]))
		return id, nil
	case Cyclone:
		if len(buf) != 8+16 {
			return RequestId{}, fmt.Errorf("wireid: Cyclone mapping expects %d bytes, got %d", 8+16, len(buf))
		}
		var id RequestId
		id.SequenceNr = int64(binary.LittleEndian.Uint64(buf[0:8]))
		copy(id.WriterGUID[:], buf[8:24])
		return id, nil
	case Basic:
		fallthrough
	default:
		if len(buf) != 16+8 {
			return RequestId{}, fmt.Errorf("wireid: Basic mapping expects %d bytes, got %d", 16+8, len(buf))
		}
		var id RequestId
		copy(id.WriterGUID[:], buf[0:16])
		id.SequenceNr = int64(binary.BigEndian.Uint64(buf[16:24]))
		return id, nil
	}
}
