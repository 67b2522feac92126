package orderbook

import "matchcore/domain"

// OrderBook is the central limit order book for one instrument: a pair
// of HalfBooks, bid and ask. Never shared across threads — owned
// exclusively by the matching core.
type OrderBook struct {
	Instrument domain.Instrument
	Bids       *HalfBook
	Asks       *HalfBook
}

// NewOrderBook creates an empty book for the given instrument.
func NewOrderBook(instrument domain.Instrument) *OrderBook {
	return &OrderBook{
		Instrument: instrument,
		Bids:       NewHalfBook(domain.SideBuy),
		Asks:       NewHalfBook(domain.SideSell),
	}
}

// Side returns the half-book for the given side.
func (ob *OrderBook) Side(side domain.Side) *HalfBook {
	if side == domain.SideBuy {
		return ob.Bids
	}
	return ob.Asks
}

// Opposite returns the half-book opposite to side — the one a new order
// on side matches against.
func (ob *OrderBook) Opposite(side domain.Side) *HalfBook {
	return ob.Side(side.Opposite())
}

// TotalQty returns bid total + ask total, the left-hand side of the book
// conservation invariant.
func (ob *OrderBook) TotalQty() uint64 {
	return ob.Bids.TotalQty() + ob.Asks.TotalQty()
}

// Crossed reports whether the best bid trades through the best ask — a
// state the matching loop must never leave behind, since any crossing
// price should have matched. Used as the book-invariant check the
// matching core runs after every admission.
func (ob *OrderBook) Crossed() bool {
	bid, hasBid := ob.Bids.Best()
	ask, hasAsk := ob.Asks.Best()
	if !hasBid || !hasAsk {
		return false
	}
	return bid.Px >= ask.Px
}
