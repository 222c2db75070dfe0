package telemetry

import "fmt"

// Properties is the free-form property map attached to an event.
type Properties map[string]any

// Phase is one of the four lifecycle phases of an instrumented operation.
type Phase string

const (
	PhaseStarted   Phase = "started"
	PhaseCompleted Phase = "completed"
	PhaseErrored   Phase = "errored"
	PhaseCancelled Phase = "cancelled"
)

// Event is a fully shaped payload ready for the collector.
// Properties always carries the session fields (amplitude_session_id,
// amplitude_event_id, platform, c3Version, isFirstUsage, packageManager)
// merged with caller-supplied properties.
type Event struct {
	Name       string     `json:"event"`
	DeviceID   string     `json:"deviceId"`
	Timestamp  int64      `json:"timestamp"` // epoch milliseconds
	Properties Properties `json:"properties"`
}

// EventName builds the canonical "<subject> <phase>" lifecycle event name.
// Every subject has exactly four names, one per phase.
func EventName(subject string, phase Phase) string {
	return subject + " " + string(phase)
}

// errorProperties describes a failure on an "errored" event. The stack
// field is only present when the error exposes one.
func errorProperties(err error) Properties {
	props := Properties{"message": err.Error()}
	if st, ok := err.(interface{ StackTrace() string }); ok {
		props["stack"] = st.StackTrace()
	}
	return props
}

// durationProperties derives all duration fields from a single monotonic
// measurement so they can never disagree with each other.
func durationProperties(ms int64) Properties {
	return Properties{
		"durationMs":      ms,
		"durationSeconds": float64(ms) / 1000,
		"durationMinutes": float64(ms) / 1000 / 60,
	}
}

func mergeProperties(layers ...Properties) Properties {
	merged := make(Properties)
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}

// String implements fmt.Stringer for log output.
func (e Event) String() string {
	return fmt.Sprintf("%s (device=%s, ts=%d)", e.Name, e.DeviceID, e.Timestamp)
}
