// Package config persists the telemetry permission record and device
// identity under the user's .wrangler directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Permission is the user's telemetry consent, stamped with when it was
// last changed. Default on first run: enabled.
type Permission struct {
	Enabled bool      `json:"enabled"`
	Date    time.Time `json:"date"`
}

// Record is the on-disk shape of the metrics config file.
type Record struct {
	C3Permission *Permission `json:"c3permission,omitempty"`
	DeviceID     string      `json:"deviceId,omitempty"`
}

// Store reads and writes the metrics config file.
type Store struct {
	path string

	record     Record
	firstUsage bool
}

// DefaultPath is ~/.wrangler/config/metrics.json, shared with the rest
// of the wrangler toolchain.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".wrangler", "config", "metrics.json"), nil
}

// Open loads the record at path, initializing it on first use. A
// missing or unreadable file counts as first usage: a fresh record with
// permission enabled and a new device id is written. Corrupt content is
// replaced, never fatal.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if err == nil {
		if jsonErr := json.Unmarshal(data, &s.record); jsonErr != nil {
			// Treat corrupt records as absent.
			s.record = Record{}
		}
	}

	changed := false
	if s.record.C3Permission == nil {
		s.firstUsage = true
		s.record.C3Permission = &Permission{Enabled: true, Date: time.Now()}
		changed = true
	}
	if s.record.DeviceID == "" {
		s.record.DeviceID = uuid.NewString()
		changed = true
	}

	if changed {
		if err := s.save(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// DeviceID returns the stable per-machine identifier.
func (s *Store) DeviceID() string {
	return s.record.DeviceID
}

// Enabled reports the persisted telemetry consent.
func (s *Store) Enabled() bool {
	return s.record.C3Permission.Enabled
}

// PermissionDate returns when consent was last changed.
func (s *Store) PermissionDate() time.Time {
	return s.record.C3Permission.Date
}

// FirstUsage reports whether this process initialized the record.
func (s *Store) FirstUsage() bool {
	return s.firstUsage
}

// SetEnabled updates consent. Idempotent: setting the current state is
// a no-op and does not re-stamp the date.
func (s *Store) SetEnabled(enabled bool) error {
	if s.record.C3Permission.Enabled == enabled {
		return nil
	}
	s.record.C3Permission = &Permission{Enabled: enabled, Date: time.Now()}
	return s.save()
}

func (s *Store) save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(s.record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metrics config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write metrics config: %w", err)
	}
	return nil
}
