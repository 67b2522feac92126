package engine

import (
	"net"
	"testing"
	"time"

	"matchcore/domain"
	"matchcore/transport"
	"matchcore/wire"
)

// connectedPair returns two loopback UDP sockets fully connected to each
// other, mirroring package transport's own test helper of the same name.
func connectedPair(t *testing.T) (*net.UDPConn, *net.UDPConn) {
	t.Helper()
	la, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen a: %v", err)
	}
	lb, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen b: %v", err)
	}
	aAddr := la.LocalAddr().(*net.UDPAddr)
	bAddr := lb.LocalAddr().(*net.UDPAddr)
	la.Close()
	lb.Close()

	a, err := net.DialUDP("udp4", aAddr, bAddr)
	if err != nil {
		t.Fatalf("dial a->b: %v", err)
	}
	b, err := net.DialUDP("udp4", bAddr, aAddr)
	if err != nil {
		t.Fatalf("dial b->a: %v", err)
	}
	return a, b
}

func sendNewOrder(t *testing.T, conn *net.UDPConn, seq uint32, req domain.OrderRequest) {
	t.Helper()
	msg := wire.EncodeNewOrder(req)
	sm := wire.SequencedEngineMessage{SequenceNumber: seq, Message: msg, SentTimeNs: 1}
	var wb wire.WireBatch
	wb.Size = 1
	wb.Batch[0] = sm
	buf := make([]byte, wire.BatchSize)
	n := wb.EncodeInto(buf)
	if _, err := conn.Write(buf[:n]); err != nil {
		t.Fatalf("send new order: %v", err)
	}
}

// TestProcessRoundTripsNewOrderAck pushes a raw NewOrder frame into a
// Process's inbound socket and expects a NewOrderAck frame to come back
// out its outbound socket, exercising the full inbound -> matching ->
// outbound pipeline end to end over real loopback UDP.
func TestProcessRoundTripsNewOrderAck(t *testing.T) {
	inData, inDataPeer := connectedPair(t)
	defer inData.Close()
	defer inDataPeer.Close()
	inNack, inNackPeer := connectedPair(t)
	defer inNack.Close()
	defer inNackPeer.Close()

	outData, outDataPeer := connectedPair(t)
	defer outData.Close()
	defer outDataPeer.Close()
	outNack, outNackPeer := connectedPair(t)
	defer outNack.Close()
	defer outNackPeer.Close()

	instrument := domain.NewInstrument("BTCUSDT")
	receiver := transport.NewReceiver(inDataPeer, inNackPeer, 64, 16)
	sender := transport.NewSender(outDataPeer, outNackPeer, 64)
	proc := NewProcess(instrument, 1, sender, receiver, nil)

	stop := make(chan struct{})
	runDone := make(chan struct{})
	go func() {
		proc.Run(stop)
		close(runDone)
	}()

	subscriber := transport.NewReceiver(outData, outNack, 64, 16)
	subStop := make(chan struct{})
	defer close(subStop)
	go subscriber.RunFeed(subStop)

	sendNewOrder(t, inData, 1, domain.OrderRequest{
		ClientID: 7, Instrument: instrument, Side: domain.SideBuy,
		Px: 100, Qty: 10, TIF: domain.TIFGTC,
	})

	deadline := time.Now().Add(2 * time.Second)
	var ack domain.NewOrderAck
	found := false
	for time.Now().Before(deadline) {
		sm, ok := subscriber.TryRecv(uint64(time.Now().UnixNano()))
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		if a, ok := sm.Message.DecodeNewOrderAck(); ok {
			ack = a
			found = true
			break
		}
	}
	if !found {
		t.Fatal("timed out waiting for a NewOrderAck")
	}
	if ack.ClientID != 7 || ack.Px != 100 || ack.Qty != 10 {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	close(stop)
	select {
	case <-runDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Process.Run did not shut down in time")
	}
}
