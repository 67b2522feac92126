// Command engine runs one matching-engine process for a single
// instrument: it joins the inbound multicast group, drives the matching
// core, publishes the outbound event stream, and serves Prometheus
// metrics.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"matchcore/config"
	"matchcore/domain"
	"matchcore/engine"
	"matchcore/metrics"
	"matchcore/transport"
)

func main() {
	configPath := flag.String("config", "engine.json", "path to the engine's JSON config file")
	initialOrderID := flag.Uint64("initial-order-id", 1, "first order id this process assigns")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("engine: %v", err)
	}

	inData, err := transport.JoinMulticastGroup(cfg.InboundGroupAddr(), nil)
	if err != nil {
		log.Fatalf("engine: inbound data group: %v", err)
	}
	defer inData.Close()

	inNack, err := transport.DialUnicast(cfg.InboundNackLocalAddr(), cfg.InboundNackPeerAddr())
	if err != nil {
		log.Fatalf("engine: inbound nack pair: %v", err)
	}
	defer inNack.Close()

	outData, err := transport.DialMulticastGroup(cfg.OutboundGroupAddr(), 0)
	if err != nil {
		log.Fatalf("engine: outbound data group: %v", err)
	}
	defer outData.Close()

	outNack, err := transport.DialUnicast(cfg.OutboundNackLocalAddr(), cfg.OutboundNackPeerAddr())
	if err != nil {
		log.Fatalf("engine: outbound nack pair: %v", err)
	}
	defer outNack.Close()

	receiver := transport.NewReceiver(inData, inNack, transport.DefaultRingSize, transport.DefaultRingSize)
	sender := transport.NewSender(outData, outNack, transport.DefaultRingSize)

	reg := metrics.NewRegistry()
	instrument := domain.NewInstrument(cfg.Instrument)
	proc := engine.NewProcess(instrument, uint32(*initialOrderID), sender, receiver, reg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metricsDone := make(chan struct{})
	go func() {
		defer close(metricsDone)
		if err := reg.Serve(ctx, cfg.MetricsAddr); err != nil {
			log.Printf("engine: metrics server: %v", err)
		}
	}()

	stop := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(stop)
	}()

	runID := uuid.New()
	log.Printf("engine: run %s starting %s, listening on %s, publishing on %s", runID, cfg.Instrument, cfg.InboundGroupAddr(), cfg.OutboundGroupAddr())
	proc.Run(stop)
	<-metricsDone
	log.Printf("engine: run %s (%s) shut down cleanly", runID, cfg.Instrument)
}
