// Package transport implements the reliable-ordered multicast transport:
// a sender that assigns monotonic sequence numbers and services NACKs,
// and a receiver that reassembles the stream in strict order, detecting
// gaps and throttling its own NACK traffic. One writer, one reader per
// ring — no locks on the hot path.
package transport

import (
	"sync/atomic"

	"matchcore/wire"
)

// RingSlot is the cache-line-sized mailbox: a writer publishes by writing
// the payload then releasing seq; a reader acquires seq, compares against
// what it expects, and only reads the payload on equality. The
// discriminator (seq) keeps a slot's validity evident from state it
// carries itself, never from assumed-initialized memory — no unsafe
// uninitialized arrays.
//
// Go's sync/atomic operations are sequentially consistent (stronger than
// the release/acquire pair the source uses), so a plain write to payload
// followed by an atomic store to seq is safely observed by a reader that
// atomically loads seq and then reads payload — no weaker guarantee is
// available or needed here.
type RingSlot struct {
	seq         atomic.Uint32
	pendingNack atomic.Bool
	lastNackNs  atomic.Uint64
	payload     wire.SequencedEngineMessage
	// Padding keeps the hot control fields (seq/pendingNack/lastNackNs) of
	// adjacent slots from sharing a cache line with each other; the
	// payload itself already spaces slots well apart, but the explicit pad
	// documents the intent the way rishavpaul's RingBufferSlot does with
	// its own trailing `_ [N]byte`.
	_ [16]byte
}

// Store publishes seq/payload.
func (s *RingSlot) Store(seq uint32, payload wire.SequencedEngineMessage) {
	s.payload = payload
	s.seq.Store(seq)
}

// Load returns (payload, true) only if the slot currently holds exactly
// expectedSeq; otherwise (zero value, false) — the slot may be empty,
// stale, or hold a different (wrapped) sequence.
func (s *RingSlot) Load(expectedSeq uint32) (wire.SequencedEngineMessage, bool) {
	if s.seq.Load() != expectedSeq {
		return wire.SequencedEngineMessage{}, false
	}
	return s.payload, true
}

// CurrentSeq returns the slot's current sequence number, used by the
// receiver's TryRecv to tell whether the slot for the sequence it is
// waiting on has already been overwritten by a later one.
func (s *RingSlot) CurrentSeq() uint32 {
	return s.seq.Load()
}

// ShouldNack implements the receiver's per-slot NACK throttle: the first gap observation always issues a
// NACK; subsequent observations of the same gap only re-issue once
// intervalNs has elapsed since the last one.
func (s *RingSlot) ShouldNack(nowNs, intervalNs uint64) bool {
	if !s.pendingNack.Load() {
		s.pendingNack.Store(true)
		s.lastNackNs.Store(nowNs)
		return true
	}
	if nowNs-s.lastNackNs.Load() >= intervalNs {
		s.lastNackNs.Store(nowNs)
		return true
	}
	return false
}

// ClearNack resets the NACK-throttle state once the slot's message is
// finally delivered.
func (s *RingSlot) ClearNack() {
	s.pendingNack.Store(false)
	s.lastNackNs.Store(0)
}
