package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// SourceKey is the delivery credential for the event collector. Empty
// means no credential was baked into the build or provided by the
// environment: the hard kill-switch. Overridden at link time for
// release builds.
var SourceKey = os.Getenv("SPARROW_SOURCE_KEY")

// eventChannel marks which delivery channel an event belongs to.
// Production builds send bare names; everything else is prefixed so
// staging traffic never pollutes real dashboards.
var eventChannel = os.Getenv("SPARROW_CHANNEL")

const defaultCollectorURL = "https://sparrow.cloudflare.com/api/v1/event"

// channelName applies the delivery-channel marker to an event name.
func channelName(name string) string {
	if eventChannel == "production" {
		return name
	}
	return "test " + name
}

// Sink delivers one shaped event to the remote collector. Implementations
// must treat delivery as fire-and-forget: an error return is recorded by
// the dispatcher, never retried.
type Sink interface {
	Send(ctx context.Context, event Event) error
}

// HTTPSink posts events as JSON to the collector endpoint.
type HTTPSink struct {
	URL       string
	SourceKey string
	Client    *http.Client
}

// NewHTTPSink builds a sink for the default collector. Returns nil when
// no delivery credential is configured; a nil sink disables dispatch
// entirely (the kill-switch).
func NewHTTPSink() *HTTPSink {
	if SourceKey == "" {
		return nil
	}
	return &HTTPSink{
		URL:       defaultCollectorURL,
		SourceKey: SourceKey,
		Client:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Send posts the event. One attempt, no retries.
func (s *HTTPSink) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %q: %w", event.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request for %q: %w", event.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Sparrow-Source-Key", s.SourceKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send event %q: %w", event.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("send event %q: collector returned %s", event.Name, resp.Status)
	}
	return nil
}
