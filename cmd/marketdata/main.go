// Command marketdata is a stateless top-of-book projector: it joins the
// engine's outbound multicast group, replays NewOrderAck and
// TradeExecution events into a per-side price/quantity ladder, and logs
// the best bid/ask after every event it applies. It never runs the NACK service,
// so a dropped frame is never repaired: TryRecv stops delivering at the
// gap, the ladder stays frozen, and once the sender has lapped the
// receive ring WindowOverflow reports it and the process exits.
// Cancellations are not reflected: CancelledOrderAck carries no
// remaining quantity, so removing the cancelled resting order from the
// ladder would need a full order-id-keyed book, which this projector
// does not keep.
package main

import (
	"flag"
	"log"
	"runtime"
	"time"

	"matchcore/config"
	"matchcore/domain"
	"matchcore/transport"
	"matchcore/wire"
)

type ladder struct {
	bid map[uint32]uint32
	ask map[uint32]uint32
}

func newLadder() *ladder {
	return &ladder{bid: make(map[uint32]uint32), ask: make(map[uint32]uint32)}
}

func (l *ladder) sideMap(side domain.Side) map[uint32]uint32 {
	if side == domain.SideBuy {
		return l.bid
	}
	return l.ask
}

func (l *ladder) add(side domain.Side, px, qty uint32) {
	m := l.sideMap(side)
	m[px] += qty
	if m[px] == 0 {
		delete(m, px)
	}
}

func (l *ladder) reduce(side domain.Side, px, qty uint32) {
	m := l.sideMap(side)
	if cur, ok := m[px]; ok {
		if qty >= cur {
			delete(m, px)
		} else {
			m[px] = cur - qty
		}
	}
}

func best(m map[uint32]uint32, highest bool) (uint32, uint32, bool) {
	found := false
	var bestPx, bestQty uint32
	for px, qty := range m {
		if !found || (highest && px > bestPx) || (!highest && px < bestPx) {
			bestPx, bestQty, found = px, qty, true
		}
	}
	return bestPx, bestQty, found
}

func main() {
	configPath := flag.String("config", "engine.json", "path to the engine's JSON config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("marketdata: %v", err)
	}

	dataConn, err := transport.JoinMulticastGroup(cfg.OutboundGroupAddr(), nil)
	if err != nil {
		log.Fatalf("marketdata: outbound data group: %v", err)
	}
	defer dataConn.Close()

	receiver := transport.NewReceiver(dataConn, dataConn, transport.DefaultRingSize, transport.DefaultRingSize)
	go receiver.RunFeed(make(chan struct{}))

	book := newLadder()
	log.Printf("marketdata: %s projecting top-of-book from %s", cfg.Instrument, cfg.OutboundGroupAddr())

	for {
		sm, ok := receiver.TryRecv(uint64(time.Now().UnixNano()))
		if !ok {
			if receiver.WindowOverflow() {
				log.Fatalf("marketdata: receiver window overflow: sender advanced past the retransmit window")
			}
			runtime.Gosched()
			continue
		}
		applyEvent(book, sm.Message)
	}
}

func applyEvent(book *ladder, msg wire.EngineMessage) {
	switch msg.Tag {
	case wire.TagNewOrderAck:
		ack, ok := msg.DecodeNewOrderAck()
		if !ok {
			return
		}
		book.add(ack.Side, ack.Px, ack.Qty)
		logTop(book)

	case wire.TagTradeExecution:
		tr, ok := msg.DecodeTradeExecution()
		if !ok {
			return
		}
		book.reduce(domain.SideBuy, tr.BidOrderPx, tr.ExecQty)
		book.reduce(domain.SideSell, tr.AskOrderPx, tr.ExecQty)
		logTop(book)
	}
}

func logTop(book *ladder) {
	bidPx, bidQty, bidOK := best(book.bid, true)
	askPx, askQty, askOK := best(book.ask, false)
	switch {
	case bidOK && askOK:
		log.Printf("marketdata: bid %d@%d / ask %d@%d", bidQty, bidPx, askQty, askPx)
	case bidOK:
		log.Printf("marketdata: bid %d@%d / ask -", bidQty, bidPx)
	case askOK:
		log.Printf("marketdata: bid - / ask %d@%d", askQty, askPx)
	}
}
