package orderbook

import (
	"testing"

	"matchcore/domain"
)

func TestOrderBookOppositeSide(t *testing.T) {
	ob := NewOrderBook(domain.NewInstrument("BTCUSDT"))
	ob.Bids.Add(domain.NewRestingOrder(mkReq(domain.SideBuy, 100, 10), 1, 0))
	ob.Asks.Add(domain.NewRestingOrder(mkReq(domain.SideSell, 105, 5), 2, 1))

	if ob.Opposite(domain.SideBuy) != ob.Asks {
		t.Fatal("expected opposite of buy to be asks")
	}
	if ob.Opposite(domain.SideSell) != ob.Bids {
		t.Fatal("expected opposite of sell to be bids")
	}
	if ob.TotalQty() != 15 {
		t.Fatalf("expected total qty 15, got %d", ob.TotalQty())
	}
}

func TestOrderBookCrossed(t *testing.T) {
	ob := NewOrderBook(domain.NewInstrument("BTCUSDT"))
	if ob.Crossed() {
		t.Fatal("an empty book must never report crossed")
	}

	ob.Bids.Add(domain.NewRestingOrder(mkReq(domain.SideBuy, 100, 10), 1, 0))
	if ob.Crossed() {
		t.Fatal("one-sided book must never report crossed")
	}

	ob.Asks.Add(domain.NewRestingOrder(mkReq(domain.SideSell, 105, 5), 2, 1))
	if ob.Crossed() {
		t.Fatal("bid below ask must not report crossed")
	}

	ob.Asks.Add(domain.NewRestingOrder(mkReq(domain.SideSell, 100, 5), 3, 2))
	if !ob.Crossed() {
		t.Fatal("expected a bid trading through the best ask to report crossed")
	}
}
