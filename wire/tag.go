// Package wire pins the on-the-wire layout for everything that crosses a
// multicast socket. Every type here is encoded with a manual, explicit
// byte-offset marshal/unmarshal pair — no reflection, no allocation on
// the hot path — a fixed layout reinterpreted directly rather than
// pushed through a general-purpose codec.
//
// All multi-byte integers use little-endian on every participant,
// whatever the host's own byte order — cross-architecture deployment is
// out of scope, so one fixed byte order is sufficient.
package wire

import "encoding/binary"

var byteOrder = binary.LittleEndian

// Tag identifies which arm of EngineMessage is populated. It occupies the
// first 4 bytes of every encoded EngineMessage.
type Tag uint32

const (
	TagNewOrder Tag = iota
	TagNewOrderAck
	TagCancelOrder
	TagCancelOrderAck
	TagTradeExecution
	TagRejection
	TagEngineError
	tagCount
)

// IsKnown reports whether t is one of the tags this build understands.
// An unknown tag (a future version's addition, or line noise) causes the
// frame to be dropped with a counter increment — never a fatal error.
func (t Tag) IsKnown() bool {
	return t < tagCount
}

// bodySize is the byte size of the largest EngineMessage variant
// (ExecutionReport, at 67 bytes); the body buffer is padded to 80 bytes
// to leave headroom for TIF/Side/enum width changes without reshuffling
// every offset in this file.
const bodySize = 80

// MessageSize is the encoded size of one EngineMessage: tag + body.
const MessageSize = 4 + bodySize

// SequencedSize is the encoded size of one SequencedEngineMessage:
// sequence number + message + sent timestamp.
const SequencedSize = 4 + MessageSize + 8

// BatchCap is the per-datagram message cap.
const BatchCap = 32

// BatchSize is the encoded size of one WireBatch.
const BatchSize = 2 + BatchCap*SequencedSize

// RangeNackSize is the encoded size of one RangeNack.
const RangeNackSize = 4 + 4

// MaxUDPPacketSize bounds the receive buffer; a WireBatch is the largest
// frame ever sent.
const MaxUDPPacketSize = BatchSize
