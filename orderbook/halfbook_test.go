package orderbook

import (
	"testing"

	"matchcore/domain"
)

func mkReq(side domain.Side, px, qty uint32) *domain.OrderRequest {
	return &domain.OrderRequest{ClientID: 1, Side: side, Px: px, Qty: qty, TIF: domain.TIFGTC}
}

func TestHalfBookAddBest(t *testing.T) {
	hb := NewHalfBook(domain.SideBuy)

	hb.Add(domain.NewRestingOrder(mkReq(domain.SideBuy, 100, 10), 1, 0))
	hb.Add(domain.NewRestingOrder(mkReq(domain.SideBuy, 105, 5), 2, 1))
	hb.Add(domain.NewRestingOrder(mkReq(domain.SideBuy, 95, 20), 3, 2))

	level, ok := hb.Best()
	if !ok || level.Px != 105 {
		t.Fatalf("expected best bid 105, got %+v ok=%v", level, ok)
	}
	if hb.TotalQty() != 35 {
		t.Fatalf("expected total qty 35, got %d", hb.TotalQty())
	}
}

func TestHalfBookAsksBestIsLowest(t *testing.T) {
	hb := NewHalfBook(domain.SideSell)
	hb.Add(domain.NewRestingOrder(mkReq(domain.SideSell, 110, 10), 1, 0))
	hb.Add(domain.NewRestingOrder(mkReq(domain.SideSell, 100, 5), 2, 1))

	level, ok := hb.Best()
	if !ok || level.Px != 100 {
		t.Fatalf("expected best ask 100, got %+v ok=%v", level, ok)
	}
}

func TestHalfBookFIFOWithinLevel(t *testing.T) {
	hb := NewHalfBook(domain.SideBuy)
	o1 := domain.NewRestingOrder(mkReq(domain.SideBuy, 100, 10), 1, 0)
	o2 := domain.NewRestingOrder(mkReq(domain.SideBuy, 100, 5), 2, 1)
	hb.Add(o1)
	hb.Add(o2)

	level, _ := hb.Best()
	if front := level.Front(); front.OrderID != 1 {
		t.Fatalf("expected earliest arrival (id 1) at front, got id %d", front.OrderID)
	}
}

func TestHalfBookCancelDropsEmptyLevel(t *testing.T) {
	hb := NewHalfBook(domain.SideBuy)
	o1 := domain.NewRestingOrder(mkReq(domain.SideBuy, 100, 10), 1, 0)
	hb.Add(o1)

	removed, ok := hb.Cancel(1)
	if !ok || removed.OrderID != 1 {
		t.Fatalf("expected to cancel order 1, got %+v ok=%v", removed, ok)
	}
	if _, ok := hb.Best(); ok {
		t.Fatal("expected empty book after cancelling only order")
	}
	if hb.TotalQty() != 0 {
		t.Fatalf("expected zero total qty, got %d", hb.TotalQty())
	}
}

func TestHalfBookCancelNotFound(t *testing.T) {
	hb := NewHalfBook(domain.SideBuy)
	if _, ok := hb.Cancel(999); ok {
		t.Fatal("expected not-found for unknown order id")
	}
}

func TestHalfBookDecrementPartialKeepsLevel(t *testing.T) {
	hb := NewHalfBook(domain.SideBuy)
	o1 := domain.NewRestingOrder(mkReq(domain.SideBuy, 100, 10), 1, 0)
	hb.Add(o1)

	hb.Decrement(o1, 4)
	if o1.QtyRemaining != 6 {
		t.Fatalf("expected remaining 6, got %d", o1.QtyRemaining)
	}
	level, ok := hb.Best()
	if !ok || level.TotalQty != 6 {
		t.Fatalf("expected level total 6, got %+v", level)
	}
}

func TestHalfBookDecrementToZeroRemoves(t *testing.T) {
	hb := NewHalfBook(domain.SideBuy)
	o1 := domain.NewRestingOrder(mkReq(domain.SideBuy, 100, 10), 1, 0)
	hb.Add(o1)

	hb.Decrement(o1, 10)
	if _, ok := hb.Best(); ok {
		t.Fatal("expected level removed once exhausted")
	}
}

func TestHalfBookDepthOrdering(t *testing.T) {
	hb := NewHalfBook(domain.SideBuy)
	hb.Add(domain.NewRestingOrder(mkReq(domain.SideBuy, 100, 10), 1, 0))
	hb.Add(domain.NewRestingOrder(mkReq(domain.SideBuy, 105, 5), 2, 1))
	hb.Add(domain.NewRestingOrder(mkReq(domain.SideBuy, 95, 20), 3, 2))

	depth := hb.Depth(10)
	if len(depth) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(depth))
	}
	want := []uint32{105, 100, 95}
	for i, lvl := range depth {
		if lvl.Px != want[i] {
			t.Fatalf("depth[%d] = %d, want %d", i, lvl.Px, want[i])
		}
	}
}
