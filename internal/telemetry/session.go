package telemetry

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

// Version is the tool version stamped onto every event. Overridden at
// link time for release builds.
var Version = "0.0.0-dev"

// Session holds process-lifetime telemetry state. It is created once at
// startup and shared by every dispatched event; the event id counter is
// never reset for the life of the process.
type Session struct {
	DeviceID       string
	StartedAt      time.Time
	Platform       string
	PackageManager string
	FirstUsage     bool

	nextEventID atomic.Int64
}

// NewSession captures platform metadata for the current process.
// deviceID comes from the persisted config record, packageManager from
// detection at startup, firstUsage from whether the record existed.
func NewSession(deviceID, packageManager string, firstUsage bool) *Session {
	return &Session{
		DeviceID:       deviceID,
		StartedAt:      time.Now(),
		Platform:       detectPlatform(),
		PackageManager: packageManager,
		FirstUsage:     firstUsage,
	}
}

// ID is the session identifier: the session start time in epoch ms,
// matching the amplitude_session_id convention.
func (s *Session) ID() int64 {
	return s.StartedAt.UnixMilli()
}

// NextEventID returns the next event sequence number. Post-increment:
// the first call returns 0. The sequence is strictly increasing across
// all events dispatched during the process's life.
func (s *Session) NextEventID() int64 {
	return s.nextEventID.Add(1) - 1
}

// baseProperties are the session fields merged under every event's
// caller-supplied properties.
func (s *Session) baseProperties() Properties {
	return Properties{
		"amplitude_session_id": s.ID(),
		"platform":             s.Platform,
		"c3Version":            Version,
		"isFirstUsage":         s.FirstUsage,
		"packageManager":       s.PackageManager,
	}
}

// detectPlatform resolves a human-readable platform string. Host probing
// is best effort; GOOS/GOARCH alone is an acceptable fallback.
func detectPlatform() string {
	info, err := host.Info()
	if err != nil || info.Platform == "" {
		return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
	}
	return fmt.Sprintf("%s %s (%s)", info.Platform, info.PlatformVersion, runtime.GOARCH)
}
