// Package metrics exposes the engine's operational counters through
// github.com/prometheus/client_golang, the one concrete metrics stack
// anywhere in the retrieved corpus. engine.Process feeds the matching
// counters, the queue-depth gauges and UnknownTags. The transport
// counters (gaps, NACKs, retransmits, dropped frames) are registered and
// exported, but nothing in this module increments them, so they stay at
// zero; transport.Sender and transport.Receiver keep their own counts.
// The matching algorithm itself never imports this package, keeping
// observability entirely off the hot path.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles every counter/gauge the engine process reports.
type Registry struct {
	reg *prometheus.Registry

	GapsDetected   prometheus.Counter
	NacksSent      prometheus.Counter
	NacksServed    prometheus.Counter
	Retransmits    prometheus.Counter
	DroppedFrames  prometheus.Counter
	UnknownTags    prometheus.Counter
	OrdersAdmitted prometheus.Counter
	OrdersRejected prometheus.Counter
	TradesExecuted prometheus.Counter
	SelfMatches    prometheus.Counter
	InboundDepth   prometheus.Gauge
	OutboundDepth  prometheus.Gauge
}

// NewRegistry builds a fresh Registry, pre-registering every metric
// under the "matchcore" namespace.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,
		GapsDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore", Subsystem: "transport", Name: "gaps_detected_total",
			Help: "Sequence gaps observed by the receiver.",
		}),
		NacksSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore", Subsystem: "transport", Name: "nacks_sent_total",
			Help: "RangeNack requests sent by the receiver.",
		}),
		NacksServed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore", Subsystem: "transport", Name: "nacks_served_total",
			Help: "RangeNack requests serviced by the sender.",
		}),
		Retransmits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore", Subsystem: "transport", Name: "retransmits_total",
			Help: "Individual messages retransmitted by the sender.",
		}),
		DroppedFrames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore", Subsystem: "transport", Name: "dropped_frames_total",
			Help: "Datagrams dropped by the receiver (malformed or unreadable).",
		}),
		UnknownTags: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore", Subsystem: "transport", Name: "unknown_tags_total",
			Help: "Messages carrying a tag this build does not recognize.",
		}),
		OrdersAdmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore", Subsystem: "matching", Name: "orders_admitted_total",
			Help: "NewOrder commands accepted by validation.",
		}),
		OrdersRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore", Subsystem: "matching", Name: "orders_rejected_total",
			Help: "NewOrder commands rejected during validation or FOK pre-check.",
		}),
		TradesExecuted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore", Subsystem: "matching", Name: "trades_executed_total",
			Help: "Real matches produced by the matching loop.",
		}),
		SelfMatches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "matchcore", Subsystem: "matching", Name: "self_matches_prevented_total",
			Help: "Self-trades prevented and reported instead of executed.",
		}),
		InboundDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "matchcore", Subsystem: "queue", Name: "inbound_depth",
			Help: "Approximate depth of the inbound command queue.",
		}),
		OutboundDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "matchcore", Subsystem: "queue", Name: "outbound_depth",
			Help: "Approximate depth of the outbound event queue.",
		}),
	}
}

// Handler returns the HTTP handler to mount at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing /metrics on addr and blocks until
// ctx is cancelled, at which point it shuts the server down gracefully.
// A blank addr disables the server entirely.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
