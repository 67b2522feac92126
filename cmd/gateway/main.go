// Command gateway is the minimal line-protocol front door for the
// matching engine: it accepts TCP client connections speaking a tiny
// text protocol, translates each line into a wire.EngineMessage, and
// republishes the stream onto the inbound multicast group the engine
// joins. Session management, authentication, rate limiting, and risk
// checks are all out of scope here — this is a development/test
// adapter, not a FIX gateway.
//
// Protocol, one command per line, space-separated:
//
//	NEW <clientID> <side:B|S> <px> <qty> <tif:GTC|IOC|FOK>
//	CANCEL <clientID> <side:B|S> <orderID>
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"matchcore/config"
	"matchcore/domain"
	"matchcore/transport"
	"matchcore/wire"
)

func main() {
	configPath := flag.String("config", "engine.json", "path to the engine's JSON config file")
	listenAddr := flag.String("listen", ":7001", "TCP address clients connect to")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("gateway: %v", err)
	}

	dataConn, err := transport.DialMulticastGroup(cfg.InboundGroupAddr(), 0)
	if err != nil {
		log.Fatalf("gateway: inbound data group: %v", err)
	}
	defer dataConn.Close()

	nackConn, err := transport.DialUnicast(cfg.InboundNackLocalAddr(), cfg.EngineInboundNackAddr())
	if err != nil {
		log.Fatalf("gateway: inbound nack pair: %v", err)
	}
	defer nackConn.Close()

	sender := transport.NewSender(dataConn, nackConn, transport.DefaultRingSize)
	go sender.RunNackService(make(chan struct{}))

	instrument := domain.NewInstrument(cfg.Instrument)

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Fatalf("gateway: listen %s: %v", *listenAddr, err)
	}
	log.Printf("gateway: %s accepting clients on %s, publishing to %s", cfg.Instrument, *listenAddr, cfg.InboundGroupAddr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Printf("gateway: accept: %v", err)
			continue
		}
		go serveClient(conn, instrument, sender)
	}
}

func serveClient(conn net.Conn, instrument domain.Instrument, sender *transport.Sender) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		msg, err := parseLine(line, instrument)
		if err != nil {
			fmt.Fprintf(conn, "ERR %v\n", err)
			continue
		}
		sender.Send(msg, uint64(time.Now().UnixNano()))
	}
}

// parseLine translates one line of the gateway's text protocol into a
// wire.EngineMessage. Malformed input is rejected here, at the edge —
// the engine itself never sees a line it couldn't parse.
func parseLine(line string, instrument domain.Instrument) (wire.EngineMessage, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return wire.EngineMessage{}, fmt.Errorf("empty command")
	}

	switch strings.ToUpper(fields[0]) {
	case "NEW":
		if len(fields) != 6 {
			return wire.EngineMessage{}, fmt.Errorf("NEW wants 5 fields, got %d", len(fields)-1)
		}
		clientID, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return wire.EngineMessage{}, fmt.Errorf("clientID: %w", err)
		}
		side, err := parseSide(fields[2])
		if err != nil {
			return wire.EngineMessage{}, err
		}
		px, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return wire.EngineMessage{}, fmt.Errorf("px: %w", err)
		}
		qty, err := strconv.ParseUint(fields[4], 10, 32)
		if err != nil {
			return wire.EngineMessage{}, fmt.Errorf("qty: %w", err)
		}
		tif, err := parseTIF(fields[5])
		if err != nil {
			return wire.EngineMessage{}, err
		}
		return wire.EncodeNewOrder(domain.OrderRequest{
			ClientID:   uint32(clientID),
			Instrument: instrument,
			Side:       side,
			Px:         uint32(px),
			Qty:        uint32(qty),
			TIF:        tif,
			Timestamp:  uint64(time.Now().UnixNano()),
		}), nil

	case "CANCEL":
		if len(fields) != 4 {
			return wire.EngineMessage{}, fmt.Errorf("CANCEL wants 3 fields, got %d", len(fields)-1)
		}
		clientID, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return wire.EngineMessage{}, fmt.Errorf("clientID: %w", err)
		}
		side, err := parseSide(fields[2])
		if err != nil {
			return wire.EngineMessage{}, err
		}
		orderID, err := strconv.ParseUint(fields[3], 10, 32)
		if err != nil {
			return wire.EngineMessage{}, fmt.Errorf("orderID: %w", err)
		}
		return wire.EncodeCancelOrder(domain.CancelOrderRequest{
			ClientID:   uint32(clientID),
			Instrument: instrument,
			Side:       side,
			OrderID:    uint32(orderID),
		}), nil

	default:
		return wire.EngineMessage{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

func parseSide(s string) (domain.Side, error) {
	switch strings.ToUpper(s) {
	case "B", "BUY":
		return domain.SideBuy, nil
	case "S", "SELL":
		return domain.SideSell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func parseTIF(s string) (domain.TimeInForce, error) {
	switch strings.ToUpper(s) {
	case "GTC":
		return domain.TIFGTC, nil
	case "IOC":
		return domain.TIFIOC, nil
	case "FOK":
		return domain.TIFFOK, nil
	default:
		return 0, fmt.Errorf("unknown tif %q", s)
	}
}
