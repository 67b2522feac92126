package main

import (
	"testing"

	"matchcore/domain"
	"matchcore/wire"
)

func TestParseLineNewOrder(t *testing.T) {
	instrument := domain.NewInstrument("BTCUSDT")
	msg, err := parseLine("NEW 7 B 100 10 GTC", instrument)
	if err != nil {
		t.Fatalf("parseLine: %v", err)
	}
	if msg.Tag != wire.TagNewOrder {
		t.Fatalf("expected TagNewOrder, got %v", msg.Tag)
	}
	req, ok := msg.DecodeNewOrder()
	if !ok {
		t.Fatal("DecodeNewOrder returned false")
	}
	if req.ClientID != 7 || req.Side != domain.SideBuy || req.Px != 100 || req.Qty != 10 || req.TIF != domain.TIFGTC {
		t.Fatalf("unexpected decoded request: %+v", req)
	}
}

func TestParseLineCancelOrder(t *testing.T) {
	instrument := domain.NewInstrument("BTCUSDT")
	msg, err := parseLine("CANCEL 7 S 42", instrument)
	if err != nil {
		t.Fatalf("parseLine: %v", err)
	}
	req, ok := msg.DecodeCancelOrder()
	if !ok {
		t.Fatal("DecodeCancelOrder returned false")
	}
	if req.ClientID != 7 || req.Side != domain.SideSell || req.OrderID != 42 {
		t.Fatalf("unexpected decoded request: %+v", req)
	}
}

func TestParseLineRejectsUnknownCommand(t *testing.T) {
	instrument := domain.NewInstrument("BTCUSDT")
	if _, err := parseLine("PING", instrument); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}

func TestParseLineRejectsMalformedFields(t *testing.T) {
	instrument := domain.NewInstrument("BTCUSDT")
	cases := []string{
		"NEW 7 B 100 10",       // missing TIF
		"NEW x B 100 10 GTC",   // non-numeric clientID
		"NEW 7 X 100 10 GTC",   // unknown side
		"NEW 7 B 100 10 PRO",   // unknown TIF
		"CANCEL 7 B",           // missing orderID
	}
	for _, line := range cases {
		if _, err := parseLine(line, instrument); err == nil {
			t.Fatalf("expected an error for line %q", line)
		}
	}
}
