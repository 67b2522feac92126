// Package orderbook implements the central limit order book: a
// pair of HalfBooks, each a price-ordered map of FIFO queues with an
// order-id index for O(log P) insert and O(log P + L) cancel.
package orderbook

import (
	"container/list"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"

	"matchcore/domain"
)

// PriceLevel holds every resting order at one price, in arrival order.
// Invariant: TotalQty equals the sum of QtyRemaining over Orders.
type PriceLevel struct {
	Px       uint32
	TotalQty uint64
	Orders   *list.List // FIFO of *domain.RestingOrder, front = earliest arrival
}

// location pins down exactly where an order sits so Cancel can remove it
// in O(L) once the O(log P) price-level lookup is done.
type location struct {
	level *PriceLevel
	elem  *list.Element
}

// HalfBook is one side of the book. Owned exclusively by the
// matching thread — never shared, never locked.
type HalfBook struct {
	side     domain.Side
	levels   *rbt.Tree[uint32, *PriceLevel]
	index    map[uint32]location
	totalQty uint64
}

func ascendingPrice(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// NewHalfBook creates an empty half-book for the given side.
func NewHalfBook(side domain.Side) *HalfBook {
	return &HalfBook{
		side:   side,
		levels: rbt.NewWith[uint32, *PriceLevel](ascendingPrice),
		index:  make(map[uint32]location),
	}
}

// Add inserts a resting order. O(log P) in the number of
// distinct prices on this side.
func (hb *HalfBook) Add(order *domain.RestingOrder) {
	level, found := hb.levels.Get(order.Px)
	if !found {
		level = &PriceLevel{Px: order.Px, Orders: list.New()}
		hb.levels.Put(order.Px, level)
	}

	elem := level.Orders.PushBack(order)
	level.TotalQty += uint64(order.QtyRemaining)
	hb.index[order.OrderID] = location{level: level, elem: elem}
	hb.totalQty += uint64(order.QtyRemaining)
}

// Cancel removes a resting order by id. O(log P + L) where L
// is the depth of its price level. Returns (order, true) on success, or
// (nil, false) if the id is not resting on this side.
func (hb *HalfBook) Cancel(orderID uint32) (*domain.RestingOrder, bool) {
	loc, ok := hb.index[orderID]
	if !ok {
		return nil, false
	}

	order := loc.elem.Value.(*domain.RestingOrder)
	loc.level.TotalQty -= uint64(order.QtyRemaining)
	hb.totalQty -= uint64(order.QtyRemaining)
	hb.removeLocked(order, loc)
	return order, true
}

// Decrement reduces a resting order's remaining quantity by qty during a
// trade and drops it from the book once exhausted, keeping level and
// half-book totals consistent.
func (hb *HalfBook) Decrement(order *domain.RestingOrder, qty uint32) {
	loc := hb.index[order.OrderID]
	order.QtyRemaining -= qty
	loc.level.TotalQty -= uint64(qty)
	hb.totalQty -= uint64(qty)

	if order.QtyRemaining == 0 {
		hb.removeLocked(order, loc)
	}
}

func (hb *HalfBook) removeLocked(order *domain.RestingOrder, loc location) {
	loc.level.Orders.Remove(loc.elem)
	delete(hb.index, order.OrderID)

	if loc.level.Orders.Len() == 0 {
		hb.levels.Remove(loc.level.Px)
	}
}

// Best returns the best price level on this side: the highest price for
// Buy, the lowest for Sell. Returns (nil, false) when empty.
func (hb *HalfBook) Best() (*PriceLevel, bool) {
	if hb.levels.Empty() {
		return nil, false
	}

	if hb.side == domain.SideBuy {
		node := hb.levels.Right()
		return node.Value, true
	}
	node := hb.levels.Left()
	return node.Value, true
}

// Front returns the earliest-arrived order in a price level.
func (level *PriceLevel) Front() *domain.RestingOrder {
	if level.Orders.Len() == 0 {
		return nil
	}
	return level.Orders.Front().Value.(*domain.RestingOrder)
}

// TotalQty returns the half-book's aggregate resting quantity, used by the
// book-conservation invariant.
func (hb *HalfBook) TotalQty() uint64 {
	return hb.totalQty
}

// BestFirst returns every price level on this side ordered from best to
// worst, with no cap — used by the FOK pre-pass, which must sum
// available quantity across however many levels cross the order's price.
func (hb *HalfBook) BestFirst() []*PriceLevel {
	if hb.levels.Empty() {
		return nil
	}
	out := make([]*PriceLevel, 0, hb.levels.Size())
	it := hb.levels.Iterator()
	for it.Next() {
		out = append(out, it.Value())
	}
	if hb.side == domain.SideBuy {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// Depth returns up to maxLevels price levels, best first.
func (hb *HalfBook) Depth(maxLevels int) []PriceLevel {
	if maxLevels <= 0 || hb.levels.Empty() {
		return nil
	}

	out := make([]PriceLevel, 0, maxLevels)
	it := hb.levels.Iterator()

	// Collect every level; direction handled by reading the ordered keys
	// and reversing for Buy, since the iterator walks ascending by key.
	var all []*PriceLevel
	for it.Next() {
		all = append(all, it.Value())
	}

	if hb.side == domain.SideBuy {
		for i := len(all) - 1; i >= 0 && len(out) < maxLevels; i-- {
			out = append(out, *all[i])
		}
	} else {
		for i := 0; i < len(all) && len(out) < maxLevels; i++ {
			out = append(out, *all[i])
		}
	}
	return out
}
