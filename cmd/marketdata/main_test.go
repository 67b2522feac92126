package main

import (
	"testing"

	"matchcore/domain"
	"matchcore/wire"
)

func TestLadderAddAndReduce(t *testing.T) {
	book := newLadder()
	book.add(domain.SideBuy, 100, 10)
	book.add(domain.SideBuy, 100, 5)

	if qty := book.bid[100]; qty != 15 {
		t.Fatalf("expected aggregated qty 15, got %d", qty)
	}

	book.reduce(domain.SideBuy, 100, 6)
	if qty := book.bid[100]; qty != 9 {
		t.Fatalf("expected reduced qty 9, got %d", qty)
	}

	book.reduce(domain.SideBuy, 100, 100)
	if _, ok := book.bid[100]; ok {
		t.Fatal("expected price level to be removed once qty reaches zero")
	}
}

func TestBestPicksHighestBidLowestAsk(t *testing.T) {
	book := newLadder()
	book.add(domain.SideBuy, 100, 5)
	book.add(domain.SideBuy, 101, 3)
	book.add(domain.SideSell, 105, 4)
	book.add(domain.SideSell, 104, 2)

	bidPx, bidQty, ok := best(book.bid, true)
	if !ok || bidPx != 101 || bidQty != 3 {
		t.Fatalf("unexpected best bid: px=%d qty=%d ok=%v", bidPx, bidQty, ok)
	}

	askPx, askQty, ok := best(book.ask, false)
	if !ok || askPx != 104 || askQty != 2 {
		t.Fatalf("unexpected best ask: px=%d qty=%d ok=%v", askPx, askQty, ok)
	}
}

func TestApplyEventIgnoresUnrelatedTags(t *testing.T) {
	book := newLadder()
	rejection := wire.EncodeRejection(domain.RejectionMessage{
		ClientID: 1,
		Side:     domain.SideBuy,
		Reason:   domain.RejectReasonInvalidPrice,
	})
	applyEvent(book, rejection)
	if len(book.bid) != 0 || len(book.ask) != 0 {
		t.Fatal("expected a rejection message to leave the ladder untouched")
	}
}
