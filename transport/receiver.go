package transport

import (
	"log"
	"net"
	"runtime"
	"sort"
	"time"

	"matchcore/wire"
)

// Receiver is the reliable multicast receiver: it reassembles
// the sender's monotonic stream in strict order, detects gaps, and
// issues throttled range-NACKs. Three roles drive it — a feed goroutine
// (RunFeed), a NACK/retransmit goroutine (RunNackService), and the
// application goroutine, which calls TryRecv in its own loop; all three
// communicate only through the lock-free ring and SeqRing, never a
// mutex.
type Receiver struct {
	expectedSeq uint32 // owned by the application goroutine only
	lastDelivered uint32

	ring     []RingSlot
	ringMask uint32
	nackRing *SeqRing

	dataConn *net.UDPConn
	nackConn *net.UDPConn

	gapsDetected uint64
	nacksSent    uint64
	droppedFrames uint64
	unknownTags   uint64

	windowOverflow bool
}

// NewReceiver constructs a Receiver. dataConn must be joined to the data
// multicast group (read-only from this side); nackConn must be a
// connected UDP socket (see DialUnicast), since it is used with bare
// Read/Write both to send RangeNack requests to its one peer and to
// receive the retransmissions that peer sends back. RangeNacks are not
// published to a shared NACK multicast group.
func NewReceiver(dataConn, nackConn *net.UDPConn, ringSize, nackRingSize int) *Receiver {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	size := 1
	for size < ringSize {
		size <<= 1
	}
	return &Receiver{
		expectedSeq: 1,
		ring:        make([]RingSlot, size),
		ringMask:    uint32(size - 1),
		nackRing:    NewSeqRing(nackRingSize),
		dataConn:    dataConn,
		nackConn:    nackConn,
	}
}

// RunFeed reads WireBatch datagrams off the data socket and stores each
// enclosed message into the transport ring by its own sequence number.
// Duplicate or out-of-order arrivals simply overwrite the slot with
// identical or newer data; ordering is imposed later, by TryRecv.
func (r *Receiver) RunFeed(stop <-chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	buf := make([]byte, wire.MaxUDPPacketSize)
	var wb wire.WireBatch
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, err := r.dataConn.Read(buf)
		if err != nil {
			continue
		}
		if err := wire.DecodeWireBatch(buf[:n], &wb); err != nil {
			r.droppedFrames++
			continue
		}
		for i := 0; i < int(wb.Size); i++ {
			sm := wb.Batch[i]
			if !sm.Message.Tag.IsKnown() {
				r.unknownTags++
				continue
			}
			r.ring[sm.SequenceNumber&r.ringMask].Store(sm.SequenceNumber, sm)
		}
	}
}

// RunNackService drains the nack ring, coalesces pending gaps into
// RangeNack requests, publishes them, and also absorbs retransmissions
// arriving back on the same socket. It alternates a short-deadline read
// of nackConn with a drain-and-coalesce pass so neither starves the
// other.
func (r *Receiver) RunNackService(stop <-chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	buf := make([]byte, wire.MaxUDPPacketSize)
	pending := make([]uint32, 0, NackCoalesceBudget)
	var wb wire.WireBatch

	for {
		select {
		case <-stop:
			return
		default:
		}

		r.nackConn.SetReadDeadline(time.Now().Add(time.Millisecond))
		n, err := r.nackConn.Read(buf)
		if err == nil {
			if decErr := wire.DecodeWireBatch(buf[:n], &wb); decErr == nil {
				for i := 0; i < int(wb.Size); i++ {
					sm := wb.Batch[i]
					r.ring[sm.SequenceNumber&r.ringMask].Store(sm.SequenceNumber, sm)
				}
			}
		}

		pending = pending[:0]
		for len(pending) < NackCoalesceBudget {
			seq, ok := r.nackRing.Pop()
			if !ok {
				break
			}
			pending = append(pending, seq)
		}
		if len(pending) == 0 {
			continue
		}
		sort.Slice(pending, func(i, j int) bool { return pending[i] < pending[j] })
		for _, rn := range coalesce(pending) {
			frame := wire.EncodeRangeNack(rn)
			if _, werr := r.nackConn.Write(frame); werr != nil {
				log.Printf("transport: receiver nack write failed: %v", werr)
				continue
			}
			r.nacksSent++
		}
	}
}

// coalesce groups a sorted slice of sequence numbers into contiguous
// RangeNack runs.
func coalesce(seqs []uint32) []wire.RangeNack {
	if len(seqs) == 0 {
		return nil
	}
	var out []wire.RangeNack
	start, end := seqs[0], seqs[0]
	for _, s := range seqs[1:] {
		if s == end+1 {
			end = s
			continue
		}
		out = append(out, wire.RangeNack{Start: start, End: end})
		start, end = s, s
	}
	out = append(out, wire.RangeNack{Start: start, End: end})
	return out
}

// TryRecv implements the non-blocking try_recv contract: it returns the next
// in-order message if its slot has been filled, or (zero, false) if the
// receiver is still waiting on a gap — in which case it may enqueue or
// re-enqueue a NACK request, throttled per slot by RingSlot.ShouldNack.
func (r *Receiver) TryRecv(nowNs uint64) (wire.SequencedEngineMessage, bool) {
	expected := r.expectedSeq
	slot := &r.ring[expected&r.ringMask]

	if sm, ok := slot.Load(expected); ok {
		slot.ClearNack()
		r.expectedSeq = expected + 1
		r.lastDelivered = expected
		return sm, true
	}

	// The slot this expected sequence maps to has already been overwritten
	// by a later sequence number: the sender has advanced at least a full
	// ring size past us while we were still waiting on expected, so the
	// gap can never be filled by retransmission. This is the window's
	// fatal-overflow condition (sender.next_seq - receiver.expected_seq >= R).
	if cur := slot.CurrentSeq(); cur != 0 && cur > expected {
		r.windowOverflow = true
	}

	if slot.ShouldNack(nowNs, NackIntervalNs) {
		if !r.nackRing.Push(expected) {
			r.gapsDetected++
		}
	}
	return wire.SequencedEngineMessage{}, false
}

// WindowOverflow reports whether the sender has advanced far enough past
// expectedSeq that the gap can never be closed by retransmission — the
// transport-fatal condition the owning process must abort on.
func (r *Receiver) WindowOverflow() bool { return r.windowOverflow }

// ExpectedSeq reports the next sequence number the application is
// waiting on.
func (r *Receiver) ExpectedSeq() uint32 { return r.expectedSeq }

// LastDelivered reports the most recently delivered sequence number, for
// observability.
func (r *Receiver) LastDelivered() uint32 { return r.lastDelivered }

// GapsDetected reports the lifetime count of NACK-ring push failures
// (the ring was full when a gap needed reporting).
func (r *Receiver) GapsDetected() uint64 { return r.gapsDetected }

// NacksSent reports the lifetime count of RangeNack frames published.
func (r *Receiver) NacksSent() uint64 { return r.nacksSent }

// DroppedFrames reports datagrams that failed to decode as a WireBatch.
func (r *Receiver) DroppedFrames() uint64 { return r.droppedFrames }

// UnknownTags reports messages dropped because their Tag was not
// recognized by this build.
func (r *Receiver) UnknownTags() uint64 { return r.unknownTags }
