package wire

import (
	"testing"

	"matchcore/domain"
)

func TestRoundTripNewOrder(t *testing.T) {
	req := domain.OrderRequest{
		ClientID:   7,
		Instrument: domain.NewInstrument("BTCUSDT"),
		Side:       domain.SideBuy,
		Px:         100,
		Qty:        10,
		TIF:        domain.TIFGTC,
		Timestamp:  123456789,
	}
	m := EncodeNewOrder(req)
	got, ok := m.DecodeNewOrder()
	if !ok {
		t.Fatal("expected DecodeNewOrder to succeed")
	}
	if got != req {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, req)
	}
}

func TestRoundTripTradeExecution(t *testing.T) {
	r := domain.ExecutionReport{
		ExecPx:      100,
		ExecQty:     10,
		ExecType:    domain.ExecTypeMatch,
		ExecNs:      42,
		Instrument:  domain.NewInstrument("BTCUSDT"),
		BidClientID: 1,
		BidOrderID:  10,
		BidOrderPx:  100,
		BidFillType: domain.FillFull,
		AskClientID: 2,
		AskOrderID:  20,
		AskOrderPx:  100,
		AskFillType: domain.FillFull,
		TradeID:     1,
		TradeSeq:    1,
	}
	m := EncodeTradeExecution(r)
	got, ok := m.DecodeTradeExecution()
	if !ok {
		t.Fatal("expected DecodeTradeExecution to succeed")
	}
	if got != r {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, r)
	}
}

func TestDecodeWrongTagFails(t *testing.T) {
	m := EncodeNewOrder(domain.OrderRequest{Px: 1, Qty: 1})
	if _, ok := m.DecodeCancelOrder(); ok {
		t.Fatal("expected DecodeCancelOrder to fail on a NewOrder message")
	}
}

func TestWireBatchRoundTrip(t *testing.T) {
	var batch WireBatch
	batch.Size = 2
	batch.Batch[0] = SequencedEngineMessage{
		SequenceNumber: 1,
		Message:        EncodeNewOrder(domain.OrderRequest{ClientID: 1, Px: 100, Qty: 10}),
		SentTimeNs:     1000,
	}
	batch.Batch[1] = SequencedEngineMessage{
		SequenceNumber: 2,
		Message:        EncodeCancelOrder(domain.CancelOrderRequest{ClientID: 1, OrderID: 5}),
		SentTimeNs:     2000,
	}

	buf := make([]byte, BatchSize)
	n := batch.EncodeInto(buf)

	var decoded WireBatch
	if err := DecodeWireBatch(buf[:n], &decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Size != 2 {
		t.Fatalf("expected size 2, got %d", decoded.Size)
	}
	if decoded.Batch[0].SequenceNumber != 1 || decoded.Batch[1].SequenceNumber != 2 {
		t.Fatalf("sequence numbers not preserved: %+v", decoded.Batch[:2])
	}
	ord, ok := decoded.Batch[0].Message.DecodeNewOrder()
	if !ok || ord.ClientID != 1 || ord.Px != 100 {
		t.Fatalf("unexpected decoded order: %+v ok=%v", ord, ok)
	}
}

func TestRangeNackRoundTrip(t *testing.T) {
	n := RangeNack{Start: 5, End: 9}
	buf := EncodeRangeNack(n)
	got, err := DecodeRangeNack(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != n {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, n)
	}
}

func TestUnknownTagIsDropped(t *testing.T) {
	tag := Tag(999)
	if tag.IsKnown() {
		t.Fatal("expected tag 999 to be unknown")
	}
}
