// Command recorder is a stateless append-only sink: it joins the
// engine's outbound multicast group, runs the full NACK-repair cycle so
// its record is gap-free, and appends one line per delivered event to a
// log file opened in append mode. It holds no book state of its own —
// replaying its log against the domain types is how any downstream
// tooling reconstructs history.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"matchcore/config"
	"matchcore/transport"
)

func main() {
	configPath := flag.String("config", "engine.json", "path to the engine's JSON config file")
	outPath := flag.String("out", "recorder.log", "append-only output file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("recorder: %v", err)
	}

	dataConn, err := transport.JoinMulticastGroup(cfg.OutboundGroupAddr(), nil)
	if err != nil {
		log.Fatalf("recorder: outbound data group: %v", err)
	}
	defer dataConn.Close()

	nackConn, err := transport.DialUnicast(cfg.OutboundNackLocalAddr(), cfg.EngineOutboundNackAddr())
	if err != nil {
		log.Fatalf("recorder: outbound nack pair: %v", err)
	}
	defer nackConn.Close()

	out, err := os.OpenFile(*outPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalf("recorder: open %s: %v", *outPath, err)
	}
	defer out.Close()

	receiver := transport.NewReceiver(dataConn, nackConn, transport.DefaultRingSize, transport.DefaultRingSize)
	stopFeed := make(chan struct{})
	stopNack := make(chan struct{})
	go receiver.RunFeed(stopFeed)
	go receiver.RunNackService(stopNack)
	defer close(stopFeed)
	defer close(stopNack)

	log.Printf("recorder: %s recording %s to %s", cfg.Instrument, cfg.OutboundGroupAddr(), *outPath)

	for {
		sm, ok := receiver.TryRecv(uint64(time.Now().UnixNano()))
		if !ok {
			if receiver.WindowOverflow() {
				log.Fatalf("recorder: receiver window overflow: sender advanced past the retransmit window")
			}
			runtime.Gosched()
			continue
		}
		if _, err := fmt.Fprintf(out, "%d %d %d\n", sm.SequenceNumber, sm.SentTimeNs, sm.Message.Tag); err != nil {
			log.Printf("recorder: write failed: %v", err)
		}
	}
}
