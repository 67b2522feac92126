package transport

import (
	"log"
	"net"
	"runtime"
	"sync/atomic"

	"matchcore/wire"
)

// Sender/receiver tuning constants.
const (
	FlushGapNs         = 10_000 // 10µs
	NackIntervalNs     = 50_000 // 50µs
	DefaultRingSize    = 1 << 16
	NackCoalesceBudget = 64
)

// Sender is the reliable multicast sender: it assigns monotonic
// sequence numbers, batches outgoing messages into wire frames, keeps a
// resend ring for replay, and services range-NACKs on a second socket.
// Send is called from exactly one goroutine (the engine's outbound
// worker); the NACK service runs on its own goroutine and only reads the
// resend ring, so the two never contend on shared state.
type Sender struct {
	nextSeq uint32
	ring    []RingSlot
	ringMask uint32

	dataConn *net.UDPConn
	nackConn *net.UDPConn

	batch       wire.WireBatch
	scratch     []byte
	retransBuf  []byte
	lastFlushNs uint64

	retransmits atomic.Uint64
	nacksServed atomic.Uint64
	sendErrors  atomic.Uint64
}

// NewSender constructs a Sender. dataConn must already be connected (or
// dialed) to the data multicast group; nackConn must be a connected UDP
// socket (see DialUnicast), since it is used with bare Read/Write both to
// receive RangeNack requests and to send retransmissions back on that
// same socket. Retransmissions reach only nackConn's one peer; they are
// not published to a shared NACK multicast group.
func NewSender(dataConn, nackConn *net.UDPConn, ringSize int) *Sender {
	if ringSize <= 0 {
		ringSize = DefaultRingSize
	}
	size := 1
	for size < ringSize {
		size <<= 1
	}
	return &Sender{
		ring:       make([]RingSlot, size),
		ringMask:   uint32(size - 1),
		dataConn:   dataConn,
		nackConn:   nackConn,
		scratch:    make([]byte, wire.BatchSize),
		retransBuf: make([]byte, 2+wire.SequencedSize),
	}
}

// Send assigns the next sequence number to msg, records it in the resend
// ring, and appends it to the pending batch, flushing the batch if it is
// full or the flush deadline has elapsed. Send never blocks and never
// returns an error to the caller for transient socket failures — those
// are logged and swallowed; multicast delivery is best-effort and
// durability is the receiver's NACK responsibility.
func (s *Sender) Send(msg wire.EngineMessage, nowNs uint64) uint32 {
	s.nextSeq++
	seq := s.nextSeq
	sm := wire.SequencedEngineMessage{SequenceNumber: seq, Message: msg, SentTimeNs: nowNs}

	s.ring[seq&s.ringMask].Store(seq, sm)

	s.batch.Batch[s.batch.Size] = sm
	s.batch.Size++

	if s.batch.Size == wire.BatchCap || nowNs-s.lastFlushNs > FlushGapNs {
		s.flush(nowNs)
	}
	return seq
}

// FlushIfStale forces a flush of a partial batch once FLUSH_GAP has
// elapsed since the last transmit, even if no new message arrived to
// trigger it from Send. engine.Process calls this from its flush-ticker
// goroutine every millisecond, and once more when the outbound worker
// stops.
func (s *Sender) FlushIfStale(nowNs uint64) {
	if s.batch.Size > 0 && nowNs-s.lastFlushNs > FlushGapNs {
		s.flush(nowNs)
	}
}

func (s *Sender) flush(nowNs uint64) {
	if s.batch.Size == 0 {
		s.lastFlushNs = nowNs
		return
	}
	n := s.batch.EncodeInto(s.scratch)
	if _, err := s.dataConn.Write(s.scratch[:n]); err != nil {
		s.sendErrors.Add(1)
		log.Printf("transport: sender flush write failed: %v", err)
	}
	s.batch.Size = 0
	s.lastFlushNs = nowNs
}

// RunNackService owns nackConn: it loops reading RangeNack requests and
// retransmitting any still-resident slots. It pins itself to an OS
// thread, following the dedicated-thread pattern for I/O loops that must
// not be preempted onto an arbitrary M.
func (s *Sender) RunNackService(stop <-chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	buf := make([]byte, wire.RangeNackSize)
	for {
		select {
		case <-stop:
			return
		default:
		}
		n, err := s.nackConn.Read(buf)
		if err != nil {
			continue
		}
		rn, err := wire.DecodeRangeNack(buf[:n])
		if err != nil {
			continue
		}
		s.serviceRange(rn)
	}
}

// serviceRange retransmits every sequence in [rn.Start, rn.End] still
// resident in the resend ring; out-of-window sequences (overwritten
// since the NACK was issued) are silently dropped.
func (s *Sender) serviceRange(rn wire.RangeNack) {
	for seq := rn.Start; ; seq++ {
		slot := &s.ring[seq&s.ringMask]
		if sm, ok := slot.Load(seq); ok {
			s.retransmit(sm)
			s.nacksServed.Add(1)
		}
		if seq == rn.End {
			break
		}
	}
}

func (s *Sender) retransmit(sm wire.SequencedEngineMessage) {
	var wb wire.WireBatch
	wb.Size = 1
	wb.Batch[0] = sm
	n := wb.EncodeInto(s.retransBuf)
	if _, err := s.nackConn.Write(s.retransBuf[:n]); err != nil {
		s.sendErrors.Add(1)
		log.Printf("transport: sender retransmit write failed: %v", err)
		return
	}
	s.retransmits.Add(1)
}

// Retransmits reports the lifetime count of messages replayed via the
// NACK service, for metrics export.
func (s *Sender) Retransmits() uint64 { return s.retransmits.Load() }

// NacksServed reports the lifetime count of individual sequence numbers
// satisfied by the NACK service.
func (s *Sender) NacksServed() uint64 { return s.nacksServed.Load() }

// SendErrors reports the lifetime count of socket write failures.
func (s *Sender) SendErrors() uint64 { return s.sendErrors.Load() }
