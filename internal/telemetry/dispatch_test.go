package telemetry

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestDispatchSettlement(t *testing.T) {
	sink := &captureSink{fail: true}
	rep := newTestReporter(sink, true)

	rep.Dispatch("session started", nil)
	rep.Dispatch("session completed", nil)

	// Wait must resolve even when every dispatch failed.
	settle(t, rep)

	records := rep.Records()
	if len(records) != 2 {
		t.Fatalf("Expected 2 dispatch records, got %d", len(records))
	}
	for _, record := range records {
		if record.Status != DispatchFailed {
			t.Errorf("Expected failed record, got %s", record.Status)
		}
		if record.Reason == nil {
			t.Error("Failed record should carry its reason")
		}
	}
}

func TestWaitWithNothingOutstanding(t *testing.T) {
	rep := newTestReporter(&captureSink{}, true)

	done := make(chan struct{})
	go func() {
		rep.Wait(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait with zero dispatches did not resolve immediately")
	}
}

func TestDispatchGating(t *testing.T) {
	tests := []struct {
		name    string
		sink    Sink
		enabled bool
	}{
		{"user opt-out", &captureSink{}, false},
		{"kill-switch: no sink", nil, true},
		{"both", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := newTestReporter(tt.sink, tt.enabled)
			rep.Dispatch("session started", nil)
			settle(t, rep)

			if got := len(rep.Records()); got != 0 {
				t.Errorf("Gated dispatch created %d records, want 0", got)
			}
			if capture, ok := tt.sink.(*captureSink); ok && capture.count() != 0 {
				t.Errorf("Gated dispatch reached the sink")
			}
		})
	}
}

func TestEventIDStrictlyIncreasing(t *testing.T) {
	sink := &captureSink{}
	rep := newTestReporter(sink, true)

	rep.Dispatch("a", nil)
	rep.Dispatch("b", nil)
	rep.Dispatch("c", nil)
	settle(t, rep)

	ids := make(map[string]int64)
	for _, name := range []string{"a", "b", "c"} {
		event, ok := sink.byName(name)
		if !ok {
			t.Fatalf("Missing event %q", name)
		}
		ids[name] = event.Properties["amplitude_event_id"].(int64)
	}
	if ids["b"] != ids["a"]+1 || ids["c"] != ids["b"]+1 {
		t.Errorf("Expected consecutive ids, got a=%d b=%d c=%d", ids["a"], ids["b"], ids["c"])
	}
}

func TestEventShaping(t *testing.T) {
	sink := &captureSink{}
	session := NewSession("device-42", "pnpm", true)
	rep := NewReporter(session, sink, true, quietLogger())

	before := time.Now().UnixMilli()
	rep.Dispatch("session started", Properties{"template": "react"})
	settle(t, rep)

	event, ok := sink.byName("session started")
	if !ok {
		t.Fatal("Event not delivered")
	}
	if event.DeviceID != "device-42" {
		t.Errorf("Expected deviceId device-42, got %s", event.DeviceID)
	}
	if event.Timestamp < before {
		t.Errorf("Timestamp %d earlier than dispatch time %d", event.Timestamp, before)
	}
	if event.Properties["amplitude_session_id"] != session.ID() {
		t.Error("Missing amplitude_session_id")
	}
	if event.Properties["packageManager"] != "pnpm" {
		t.Error("Missing packageManager")
	}
	if event.Properties["isFirstUsage"] != true {
		t.Error("Missing isFirstUsage")
	}
	if event.Properties["template"] != "react" {
		t.Error("Caller property lost in shaping")
	}
}

func TestChannelPrefix(t *testing.T) {
	saved := eventChannel
	defer func() { eventChannel = saved }()

	eventChannel = "staging"
	if got := channelName("session started"); got != "test session started" {
		t.Errorf("Expected staging prefix, got %q", got)
	}

	eventChannel = "production"
	if got := channelName("session started"); got != "session started" {
		t.Errorf("Production names must be bare, got %q", got)
	}
}

func TestMetricsText(t *testing.T) {
	sink := &captureSink{}
	rep := newTestReporter(sink, true)

	rep.Dispatch("a", nil)
	settle(t, rep)

	text, err := rep.MetricsText()
	if err != nil {
		t.Fatalf("MetricsText failed: %v", err)
	}
	if !strings.Contains(text, "c3_events_dispatched_total") {
		t.Errorf("Metrics dump missing dispatch counter:\n%s", text)
	}
}
