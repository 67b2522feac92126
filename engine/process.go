// Package engine wires the three pinned workers of the matching process:
// an inbound worker turning received wire frames into matching.Commands,
// the single-writer matching worker driving matching.Core, and an
// outbound worker encoding matching.Events back onto the wire. Each
// worker runs on its own runtime.LockOSThread()'d goroutine, a
// dedicated-thread pattern generalized from one matching goroutine into
// a three-stage pipeline connected by bounded matching.Queue SPSC
// handoffs instead of a single channel.
package engine

import (
	"log"
	"os"
	"runtime"
	"time"

	"matchcore/domain"
	"matchcore/matching"
	"matchcore/metrics"
	"matchcore/transport"
	"matchcore/wire"
)

// startupStagger spaces each worker's launch by 50ms so the runtime
// scheduler isn't contending for Ms while every pinned thread is still
// spinning up.
const startupStagger = 50 * time.Millisecond

// flushTick is how often the flush-ticker goroutine calls
// Sender.FlushIfStale, bounding outbound latency for a partial batch
// that never gets topped off by the next Send call.
const flushTick = time.Millisecond

// queueSize is the SPSC queue capacity between pipeline stages. It must
// be a power of two; sized well above any plausible burst so Push never
// blocks under normal operation.
const queueSize = 1 << 16

// Process owns one instrument's complete pipeline: transport in, core,
// transport out.
type Process struct {
	instrument domain.Instrument

	receiver *transport.Receiver
	sender   *transport.Sender
	core     *matching.Core
	metrics  *metrics.Registry

	inbound  *matching.Queue[matching.Command]
	outbound *matching.Queue[matching.Event]

	stopInbound chan struct{}
	stopFlusher chan struct{}
	stopNackIn  chan struct{}
	stopNackOut chan struct{}

	doneInbound  chan struct{}
	doneMatching chan struct{}
	doneOutbound chan struct{}
	doneFlusher  chan struct{}
}

// NewProcess builds a Process around an already-dialed sender and
// receiver for one instrument. initialOrderID seeds the matching core's
// order-id counter.
func NewProcess(instrument domain.Instrument, initialOrderID uint32, sender *transport.Sender, receiver *transport.Receiver, reg *metrics.Registry) *Process {
	return &Process{
		instrument:   instrument,
		receiver:     receiver,
		sender:       sender,
		core:         matching.NewCore(instrument, initialOrderID),
		metrics:      reg,
		inbound:      matching.NewQueue[matching.Command](queueSize),
		outbound:     matching.NewQueue[matching.Event](queueSize),
		stopInbound:  make(chan struct{}),
		stopFlusher:  make(chan struct{}),
		stopNackIn:   make(chan struct{}),
		stopNackOut:  make(chan struct{}),
		doneInbound:  make(chan struct{}),
		doneMatching: make(chan struct{}),
		doneOutbound: make(chan struct{}),
		doneFlusher:  make(chan struct{}),
	}
}

// Core exposes the matching state machine for read-only observability.
func (p *Process) Core() *matching.Core { return p.core }

// Run starts every pinned worker (transport feed, NACK services, the
// inbound decode loop, the matching loop, and the outbound encode loop)
// staggered by startupStagger, and blocks until stop is closed, then
// waits for a clean shutdown of all three pipeline stages.
func (p *Process) Run(stop <-chan struct{}) {
	go p.receiver.RunFeed(p.stopInbound)
	time.Sleep(startupStagger)
	go p.receiver.RunNackService(p.stopNackIn)
	time.Sleep(startupStagger)
	go p.sender.RunNackService(p.stopNackOut)
	time.Sleep(startupStagger)

	go p.runInbound()
	time.Sleep(startupStagger)
	go p.runMatching()
	time.Sleep(startupStagger)
	go p.runOutbound()
	go p.runFlusher()

	<-stop

	close(p.stopInbound)
	<-p.doneInbound
	p.inbound.Push(matching.Command{Kind: matching.CommandStop})
	<-p.doneMatching
	<-p.doneOutbound
	close(p.stopFlusher)
	<-p.doneFlusher
	close(p.stopNackIn)
	close(p.stopNackOut)
}

// runFlusher calls Sender.FlushIfStale on a short, fixed tick,
// independent of message arrival, so a partial batch that never gets
// topped off by a subsequent Send still reaches the wire within
// flushTick instead of sitting buffered until shutdown.
func (p *Process) runFlusher() {
	defer close(p.doneFlusher)

	ticker := time.NewTicker(flushTick)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopFlusher:
			return
		case <-ticker.C:
			p.sender.FlushIfStale(uint64(time.Now().UnixNano()))
		}
	}
}

// runInbound decodes NewOrder/CancelOrder wire frames into Commands and
// pushes them onto the inbound queue, in delivered sequence order. It
// spins on TryRecv with runtime.Gosched() when no frame is ready.
func (p *Process) runInbound() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(p.doneInbound)

	for {
		select {
		case <-p.stopInbound:
			return
		default:
		}

		nowNs := uint64(time.Now().UnixNano())
		sm, ok := p.receiver.TryRecv(nowNs)
		if !ok {
			if p.receiver.WindowOverflow() {
				p.abortTransport("inbound receiver window overflow: sender advanced past the retransmit window")
			}
			runtime.Gosched()
			continue
		}

		cmd, ok := decodeCommand(sm.Message)
		if !ok {
			if p.metrics != nil {
				p.metrics.UnknownTags.Inc()
			}
			continue
		}
		if p.inbound.Full() {
			p.abortFatal(domain.EngineErrorQueueOverflow, "inbound queue overflow")
		}
		p.inbound.Push(cmd)
		if p.metrics != nil {
			p.metrics.InboundDepth.Set(float64(p.inbound.Depth()))
		}
	}
}

// abortTransport implements the receiver-window-overflow fatal-abort
// contract: the gap can never be closed by retransmission, so there is no
// recovery but to log and terminate with a non-zero exit code.
func (p *Process) abortTransport(detail string) {
	log.Printf("engine: fatal transport error: %s", detail)
	os.Exit(1)
}

// abortFatal publishes an EngineError directly through the sender —
// bypassing the outbound queue, which may itself be the thing that just
// overflowed — then terminates the process with a non-zero exit code so a
// supervisor can restart it and downstream consumers recover by replaying
// the outbound log.
func (p *Process) abortFatal(code domain.EngineErrorCode, detail string) {
	msg := wire.EncodeEngineError(domain.NewEngineError(code, detail))
	nowNs := uint64(time.Now().UnixNano())
	p.sender.Send(msg, nowNs)
	// FlushIfStale only flushes once FlushGapNs has passed since the last
	// flush; stamp past that gap so the batch holding the error goes out.
	p.sender.FlushIfStale(nowNs + transport.FlushGapNs + 1)
	log.Printf("engine: fatal engine error: %s", detail)
	os.Exit(1)
}

func decodeCommand(msg wire.EngineMessage) (matching.Command, bool) {
	switch msg.Tag {
	case wire.TagNewOrder:
		req, ok := msg.DecodeNewOrder()
		if !ok {
			return matching.Command{}, false
		}
		return matching.Command{Kind: matching.CommandNewOrder, NewOrder: req}, true
	case wire.TagCancelOrder:
		req, ok := msg.DecodeCancelOrder()
		if !ok {
			return matching.Command{}, false
		}
		return matching.Command{Kind: matching.CommandCancelOrder, CancelReq: req}, true
	default:
		return matching.Command{}, false
	}
}

// runMatching is the single writer: it consumes Commands in strict
// arrival order, drives Core.Apply, and forwards every Event produced to
// the outbound queue, preserving emission order across the handoff.
func (p *Process) runMatching() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(p.doneMatching)

	consumer := p.inbound.NewConsumer()
	for {
		cmd := consumer.Consume()
		if cmd.Kind == matching.CommandStop {
			p.outbound.Push(matching.Event{Kind: matching.EventStop})
			return
		}

		nowNs := uint64(time.Now().UnixNano())
		events := p.core.Apply(cmd, nowNs)
		for _, e := range events {
			if e.Kind == matching.EventEngineError {
				// abortFatal publishes this EngineError directly through
				// the sender and exits; pushing it onto the outbound
				// queue first would be pointless, since os.Exit never
				// lets runOutbound drain it.
				p.abortFatal(e.EngineError.Code, "book invariant violated during matching")
			}
			if p.outbound.Full() {
				p.abortFatal(domain.EngineErrorQueueOverflow, "outbound queue overflow")
			}
			p.outbound.Push(e)
			p.recordEvent(e)
		}
	}
}

func (p *Process) recordEvent(e matching.Event) {
	if p.metrics == nil {
		return
	}
	switch e.Kind {
	case matching.EventNewOrderAck:
		p.metrics.OrdersAdmitted.Inc()
	case matching.EventRejection:
		p.metrics.OrdersRejected.Inc()
	case matching.EventTradeExecution:
		if e.TradeExecution.ExecType == domain.ExecTypeSelfMatchPrevented {
			p.metrics.SelfMatches.Inc()
		} else {
			p.metrics.TradesExecuted.Inc()
		}
	}
}

// runOutbound encodes Events back into EngineMessages and hands them to
// the sender. A partial batch left behind when the stream goes quiet is
// flushed by the separate flush-ticker goroutine, not by this loop,
// since Consume blocks and would otherwise never get a chance to check.
func (p *Process) runOutbound() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(p.doneOutbound)

	consumer := p.outbound.NewConsumer()
	for {
		e := consumer.Consume()
		if e.Kind == matching.EventStop {
			p.sender.FlushIfStale(uint64(time.Now().UnixNano()))
			return
		}

		nowNs := uint64(time.Now().UnixNano())
		msg, ok := encodeEvent(e)
		if !ok {
			log.Printf("engine: outbound worker dropped an event it could not encode: %+v", e)
			continue
		}
		p.sender.Send(msg, nowNs)
		if p.metrics != nil {
			p.metrics.OutboundDepth.Set(float64(p.outbound.Depth()))
		}
	}
}

func encodeEvent(e matching.Event) (wire.EngineMessage, bool) {
	switch e.Kind {
	case matching.EventNewOrderAck:
		return wire.EncodeNewOrderAck(e.NewOrderAck), true
	case matching.EventCancelledOrderAck:
		return wire.EncodeCancelOrderAck(e.CancelledAck), true
	case matching.EventTradeExecution:
		return wire.EncodeTradeExecution(e.TradeExecution), true
	case matching.EventRejection:
		return wire.EncodeRejection(e.Rejection), true
	case matching.EventEngineError:
		return wire.EncodeEngineError(e.EngineError), true
	default:
		return wire.EngineMessage{}, false
	}
}
