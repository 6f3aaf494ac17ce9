package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

const meterName = "clubhouse"

// Event names recorded by RecordEvent.
const (
	EventSubmit     = "submit"
	EventLike       = "like"
	EventUnlike     = "unlike"
	EventSuggestion = "suggestion"
	EventApprove    = "approve"
	EventDelete     = "delete"
	EventRecompute  = "recompute"
	EventReset      = "reset"
)

// instruments are the club event counters of one meter provider
type instruments struct {
	events metric.Int64Counter
	failed metric.Int64Counter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	events, err := meter.Int64Counter("club.events",
		metric.WithDescription("Ledger events applied, by event type"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create events counter: %w", err)
	}
	failed, err := meter.Int64Counter("club.events.failed",
		metric.WithDescription("Ledger events rejected or failed, by event type and error kind"),
		metric.WithUnit("{event}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create failed events counter: %w", err)
	}
	return &instruments{events: events, failed: failed}, nil
}

// current starts out as no-op counters until Init or UseMeterProvider runs
var current atomic.Pointer[instruments]

func init() {
	ins, _ := newInstruments(metricnoop.NewMeterProvider().Meter(meterName))
	current.Store(ins)
}

// UseMeterProvider registers the club event counters on mp. Later events are
// recorded there.
func UseMeterProvider(mp metric.MeterProvider) error {
	ins, err := newInstruments(mp.Meter(meterName))
	if err != nil {
		return err
	}
	current.Store(ins)
	return nil
}

// RecordEvent counts a successfully applied event
func RecordEvent(ctx context.Context, event string) {
	current.Load().events.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

// RecordFailure counts a failed event with its error kind
func RecordFailure(ctx context.Context, event, kind string) {
	current.Load().failed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("kind", kind),
	))
}

// MetricsHandler serves the Prometheus scrape endpoint
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
