package domain

import "sync"

// OrderRequest is the inbound command admitted by the matching core.
// Px and Qty are unsigned integer ticks/lots; zero in either is invalid
// and is rejected during validation, never reaching the book.
type OrderRequest struct {
	ClientID   uint32
	Instrument Instrument
	Side       Side
	Px         uint32
	Qty        uint32
	TIF        TimeInForce
	Timestamp  uint64 // ns, client-stamped; not used for matching order
}

// CancelOrderRequest is the inbound cancel command.
type CancelOrderRequest struct {
	ClientID   uint32
	Instrument Instrument
	Side       Side
	OrderID    uint32
}

// RestingOrder is the engine-internal representation of an order sitting
// in a HalfBook. ArrivalSeq is assigned once, on admission, and is
// the FIFO tie-breaker within a price level — it never changes for the
// lifetime of the resting order.
type RestingOrder struct {
	OrderID      uint32
	ClientID     uint32
	Side         Side
	Px           uint32
	QtyRemaining uint32
	TIF          TimeInForce
	ArrivalSeq   uint64
}

// restingOrderPool recycles RestingOrder allocations via sync.Pool —
// resting orders are created and destroyed at high frequency on the
// single matching thread, so pooling avoids per-order GC pressure
// without needing any synchronization beyond what sync.Pool provides.
var restingOrderPool = sync.Pool{
	New: func() any { return &RestingOrder{} },
}

// NewRestingOrder builds a pooled RestingOrder from an admitted request.
func NewRestingOrder(req *OrderRequest, orderID uint32, arrivalSeq uint64) *RestingOrder {
	ro := restingOrderPool.Get().(*RestingOrder)
	ro.OrderID = orderID
	ro.ClientID = req.ClientID
	ro.Side = req.Side
	ro.Px = req.Px
	ro.QtyRemaining = req.Qty
	ro.TIF = req.TIF
	ro.ArrivalSeq = arrivalSeq
	return ro
}

// IsFilled reports whether the resting order has no remaining quantity.
func (o *RestingOrder) IsFilled() bool {
	return o.QtyRemaining == 0
}

// Release returns the RestingOrder to the pool. Callers must not touch o
// after calling Release — the book must drop it from its index first.
func (o *RestingOrder) Release() {
	*o = RestingOrder{}
	restingOrderPool.Put(o)
}
