package telemetry

import (
	"bytes"
	"context"
	"sync"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/KLfungli/workers-sdk/internal/logging"
)

// DispatchStatus is the settled outcome of one send attempt.
type DispatchStatus string

const (
	DispatchSuccess DispatchStatus = "success"
	DispatchFailed  DispatchStatus = "failed"
)

// DispatchRecord is the recorded outcome of one event send. Records are
// owned by the Reporter and only ever appended; Wait drains them by
// reading, not removing.
type DispatchRecord struct {
	Status  DispatchStatus
	Payload Event
	Reason  error
}

// Reporter shapes and sends events and tracks their settlement. It is
// an explicitly constructed service: one per process, passed to call
// sites, drained with Wait before exit. Sends never block the caller
// and their failures never reach the instrumented operation.
type Reporter struct {
	session *Session
	sink    Sink
	enabled bool
	log     *logging.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	records []DispatchRecord

	registry   *promclient.Registry
	dispatched *promclient.CounterVec
	suppressed promclient.Counter
}

// NewReporter wires a reporter to its sink. A nil sink (no delivery
// credential) or enabled=false (user opt-out) turns every dispatch into
// a no-op; cancellation and error propagation semantics are unaffected.
func NewReporter(session *Session, sink Sink, enabled bool, log *logging.Logger) *Reporter {
	r := &Reporter{
		session:  session,
		sink:     sink,
		enabled:  enabled,
		log:      log,
		registry: promclient.NewRegistry(),
		dispatched: promclient.NewCounterVec(promclient.CounterOpts{
			Name: "c3_events_dispatched_total",
			Help: "Telemetry events dispatched by settlement status",
		}, []string{"status"}),
		suppressed: promclient.NewCounter(promclient.CounterOpts{
			Name: "c3_events_suppressed_total",
			Help: "Dispatch calls suppressed by opt-out or missing delivery key",
		}),
	}
	r.registry.MustRegister(r.dispatched, r.suppressed)
	return r
}

// Enabled reports whether events are actually delivered.
func (r *Reporter) Enabled() bool {
	return r.enabled && r.sink != nil
}

// Dispatch shapes one event and sends it without blocking. The event id
// and timestamp are assigned synchronously, so the id sequence reflects
// dispatch order even though delivery is concurrent. When gated, the
// call returns immediately and no Dispatch Record is created.
func (r *Reporter) Dispatch(name string, props Properties) {
	if !r.Enabled() {
		r.suppressed.Inc()
		return
	}

	event := Event{
		Name:      channelName(name),
		DeviceID:  r.session.DeviceID,
		Timestamp: time.Now().UnixMilli(),
		Properties: mergeProperties(
			r.session.baseProperties(),
			Properties{"amplitude_event_id": r.session.NextEventID()},
			props,
		),
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := r.sink.Send(context.Background(), event)
		record := DispatchRecord{Status: DispatchSuccess, Payload: event}
		if err != nil {
			record.Status = DispatchFailed
			record.Reason = err
			r.log.Debug("telemetry dispatch failed", map[string]interface{}{
				"event": event.Name,
				"error": err.Error(),
			})
		}
		r.dispatched.WithLabelValues(string(record.Status)).Inc()
		r.mu.Lock()
		r.records = append(r.records, record)
		r.mu.Unlock()
	}()
}

// Wait blocks until every outstanding dispatch has settled, success or
// failure, or ctx expires. With nothing outstanding it returns at once.
// It never fails on account of failed dispatches.
func (r *Reporter) Wait(ctx context.Context) {
	settled := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(settled)
	}()
	select {
	case <-settled:
	case <-ctx.Done():
		r.log.Warn("abandoning in-flight telemetry", map[string]interface{}{
			"reason": ctx.Err().Error(),
		})
	}
}

// Records returns a snapshot of all settled dispatch records.
func (r *Reporter) Records() []DispatchRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]DispatchRecord, len(r.records))
	copy(out, r.records)
	return out
}

// MetricsText renders the reporter's counters in Prometheus text
// exposition format. Debug surface only.
func (r *Reporter) MetricsText() (string, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
