// Package matching implements the single-writer matching state machine:
// NewOrder admission, the price-time FIFO matching loop with self-match
// prevention, TIF handling, and CancelOrder. It descends from a classic
// matchBuyOrder/matchSellOrder/executeTrade loop, generalized from a
// two-sided symbol map to one instrument's Core plus self-match
// prevention and an all-or-nothing FOK pre-pass.
package matching

import (
	"matchcore/domain"
	"matchcore/orderbook"
)

// Core is the matching state machine for one instrument. It is owned
// exclusively by the matching worker goroutine; every field is mutated
// only from Apply, so Core itself needs no synchronization.
type Core struct {
	book *orderbook.OrderBook

	nextOrderID    uint32
	nextTradeID    uint32
	nextTradeSeq   uint32
	arrivalCounter uint64

	instrument domain.Instrument
}

// NewCore constructs a Core for instrument, starting order IDs at
// initialOrderID (non-zero, since order_id 0 would be indistinguishable
// from a zero-valued RestingOrder).
func NewCore(instrument domain.Instrument, initialOrderID uint32) *Core {
	return &Core{
		book:         orderbook.NewOrderBook(instrument),
		nextOrderID:  initialOrderID,
		nextTradeID:  1,
		nextTradeSeq: 1,
		instrument:   instrument,
	}
}

// Book exposes the order book for read-only observability (depth
// snapshots, market-data projections).
func (c *Core) Book() *orderbook.OrderBook { return c.book }

// Apply processes one Command and returns every Event it produced, in
// emission order. Given the same command stream, Apply is deterministic:
// no randomness, no wall-clock influence on matching decisions — nowNs
// is stamped only into outbound messages.
func (c *Core) Apply(cmd Command, nowNs uint64) []Event {
	switch cmd.Kind {
	case CommandNewOrder:
		return c.admitNewOrder(cmd.NewOrder, nowNs)
	case CommandCancelOrder:
		return c.cancelOrder(cmd.CancelReq, nowNs)
	default:
		return nil
	}
}

func validateNewOrder(req domain.OrderRequest) domain.RejectReason {
	switch {
	case req.Px == 0:
		return domain.RejectReasonInvalidPrice
	case req.Qty == 0:
		return domain.RejectReasonInvalidQuantity
	case req.Side != domain.SideBuy && req.Side != domain.SideSell:
		return domain.RejectReasonUnknownSide
	case req.TIF != domain.TIFGTC && req.TIF != domain.TIFIOC && req.TIF != domain.TIFFOK:
		return domain.RejectReasonUnknownTIF
	default:
		return domain.RejectReasonNone
	}
}

func rejectEvent(req domain.OrderRequest, reason domain.RejectReason, nowNs uint64) []Event {
	return []Event{{Kind: EventRejection, Rejection: domain.RejectionMessage{
		ClientID:   req.ClientID,
		Instrument: req.Instrument,
		Side:       req.Side,
		Reason:     reason,
		RejectNs:   nowNs,
	}}}
}

// admitNewOrder implements NewOrder admission, the matching loop, and
// post-matching placement in one pass.
func (c *Core) admitNewOrder(req domain.OrderRequest, nowNs uint64) []Event {
	if reason := validateNewOrder(req); reason != domain.RejectReasonNone {
		return rejectEvent(req, reason, nowNs)
	}

	if req.TIF == domain.TIFFOK && !c.fokSatisfiable(req) {
		return rejectEvent(req, domain.RejectReasonFOKUnfillable, nowNs)
	}

	orderID := c.nextOrderID
	c.nextOrderID++
	arrivalSeq := c.arrivalCounter
	c.arrivalCounter++

	events := make([]Event, 0, 4)
	events = append(events, Event{Kind: EventNewOrderAck, NewOrderAck: domain.NewOrderAck{
		ClientID:   req.ClientID,
		Instrument: req.Instrument,
		Side:       req.Side,
		OrderID:    orderID,
		Px:         req.Px,
		Qty:        req.Qty,
		AckNs:      nowNs,
	}})

	aggressor := domain.NewRestingOrder(&req, orderID, arrivalSeq)
	events = c.matchLoop(aggressor, nowNs, events)

	if aggressor.QtyRemaining > 0 && req.TIF == domain.TIFGTC {
		c.book.Side(req.Side).Add(aggressor)
	} else {
		aggressor.Release()
	}

	if c.book.Crossed() {
		events = append(events, Event{Kind: EventEngineError, EngineError: domain.NewEngineError(
			domain.EngineErrorBookInvariant, "book crossed after admitNewOrder")})
	}

	return events
}

// crosses reports whether an aggressor on side with price aggrPx can
// trade against a resting level at levelPx.
func crosses(side domain.Side, aggrPx, levelPx uint32) bool {
	if side == domain.SideBuy {
		return aggrPx >= levelPx
	}
	return aggrPx <= levelPx
}

// matchLoop walks the opposite half-book while the aggressor still has
// quantity remaining and prices cross, handling self-match prevention and
// emitting one ExecutionReport per match or per prevented self-trade.
func (c *Core) matchLoop(aggressor *domain.RestingOrder, nowNs uint64, events []Event) []Event {
	opposite := c.book.Opposite(aggressor.Side)

	for aggressor.QtyRemaining > 0 {
		level, ok := opposite.Best()
		if !ok || !crosses(aggressor.Side, aggressor.Px, level.Px) {
			break
		}
		resting := level.Front()
		if resting == nil {
			break
		}

		if resting.ClientID == aggressor.ClientID {
			events = append(events, Event{Kind: EventTradeExecution, TradeExecution: c.selfMatchReport(resting, nowNs)})
			opposite.Cancel(resting.OrderID)
			resting.Release()
			continue
		}

		execQty := min(aggressor.QtyRemaining, resting.QtyRemaining)
		execPx := resting.Px

		aggressor.QtyRemaining -= execQty
		opposite.Decrement(resting, execQty)

		events = append(events, Event{Kind: EventTradeExecution, TradeExecution: c.tradeReport(aggressor, resting, execPx, execQty, nowNs)})

		if resting.IsFilled() {
			resting.Release()
		}
	}

	return events
}

func min(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func fillType(remaining uint32) domain.FillType {
	if remaining == 0 {
		return domain.FillFull
	}
	return domain.FillPartial
}

// tradeReport builds the canonical ExecutionReport for a real match,
// mapping aggressor/resting onto bid/ask fields by side. It is built
// through the pooled constructor and released once copied into the
// returned value, the same recycle-on-handoff pattern RestingOrder uses.
func (c *Core) tradeReport(aggressor, resting *domain.RestingOrder, execPx, execQty uint32, nowNs uint64) domain.ExecutionReport {
	r := domain.NewExecutionReport()
	defer r.Release()

	r.ExecPx = execPx
	r.ExecQty = execQty
	r.ExecType = domain.ExecTypeMatch
	r.ExecNs = nowNs
	r.Instrument = c.instrument
	r.TradeID = c.nextTradeID
	r.TradeSeq = c.nextTradeSeq
	c.nextTradeID++
	c.nextTradeSeq++

	var buy, sell *domain.RestingOrder
	if aggressor.Side == domain.SideBuy {
		buy, sell = aggressor, resting
	} else {
		buy, sell = resting, aggressor
	}

	r.BidClientID = buy.ClientID
	r.BidOrderID = buy.OrderID
	r.BidOrderPx = buy.Px
	r.BidFillType = fillType(buy.QtyRemaining)
	r.AskClientID = sell.ClientID
	r.AskOrderID = sell.OrderID
	r.AskOrderPx = sell.Px
	r.AskFillType = fillType(sell.QtyRemaining)
	return *r
}

// selfMatchReport builds the ExecutionReport for a prevented self-trade:
// it describes only the resting order being removed, with the
// aggressor's own side fields left at zero value.
func (c *Core) selfMatchReport(resting *domain.RestingOrder, nowNs uint64) domain.ExecutionReport {
	r := domain.NewExecutionReport()
	defer r.Release()

	r.ExecPx = resting.Px
	r.ExecQty = resting.QtyRemaining
	r.ExecType = domain.ExecTypeSelfMatchPrevented
	r.ExecNs = nowNs
	r.Instrument = c.instrument
	r.TradeID = c.nextTradeID
	r.TradeSeq = c.nextTradeSeq
	c.nextTradeID++
	c.nextTradeSeq++

	if resting.Side == domain.SideBuy {
		r.BidClientID = resting.ClientID
		r.BidOrderID = resting.OrderID
		r.BidOrderPx = resting.Px
		r.BidFillType = domain.FillFull
	} else {
		r.AskClientID = resting.ClientID
		r.AskOrderID = resting.OrderID
		r.AskOrderPx = resting.Px
		r.AskFillType = domain.FillFull
	}
	return *r
}

// fokSatisfiable walks the opposite side summing available quantity at
// crossing prices, without mutating anything, to decide whether a FOK
// order can be filled in full before committing any book changes.
// Same-client resting quantity is excluded from "available": matchLoop
// never fills against it (self-match prevention cancels it instead), so
// counting it here would admit a FOK order that can only ever partial-fill.
func (c *Core) fokSatisfiable(req domain.OrderRequest) bool {
	opposite := c.book.Opposite(req.Side)

	var available uint32
	for _, level := range opposite.BestFirst() {
		if !crosses(req.Side, req.Px, level.Px) {
			break
		}
		for e := level.Orders.Front(); e != nil; e = e.Next() {
			resting := e.Value.(*domain.RestingOrder)
			if resting.ClientID == req.ClientID {
				continue
			}
			available += resting.QtyRemaining
			if available >= req.Qty {
				return true
			}
		}
	}
	return available >= req.Qty
}

// cancelOrder implements CancelOrder: a cancel for an unknown
// order is not an error, just a NotFound ack.
func (c *Core) cancelOrder(req domain.CancelOrderRequest, nowNs uint64) []Event {
	half := c.book.Side(req.Side)
	order, ok := half.Cancel(req.OrderID)
	if !ok {
		return []Event{{Kind: EventCancelledOrderAck, CancelledAck: domain.CancelledOrderAck{
			ClientID:   req.ClientID,
			Instrument: req.Instrument,
			Side:       req.Side,
			OrderID:    req.OrderID,
			Status:     domain.CancelStatusNotFound,
			Reason:     domain.CancelReasonClientRequested,
			AckNs:      nowNs,
		}}}
	}
	order.Release()

	return []Event{{Kind: EventCancelledOrderAck, CancelledAck: domain.CancelledOrderAck{
		ClientID:   req.ClientID,
		Instrument: req.Instrument,
		Side:       req.Side,
		OrderID:    req.OrderID,
		Status:     domain.CancelStatusCancelled,
		Reason:     domain.CancelReasonClientRequested,
		AckNs:      nowNs,
	}}}
}
