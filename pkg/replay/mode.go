package replay

import (
	"fmt"
	"strings"
)

// Environment variables read when a mode is not set programmatically.
const (
	EnvRecordMode   = "REPLAY_RECORD_MODE"
	EnvPlaybackMode = "REPLAY_PLAYBACK_MODE"
)

// RecordMode controls whether unmatched requests reach the network.
type RecordMode string

// Record modes.
const (
	// RecordNone never records; every request must be in the archive.
	RecordNone RecordMode = "none"
	// RecordOnce records only when the archive was absent or empty at load.
	RecordOnce RecordMode = "once"
	// RecordRewrite forwards every request and replaces the archive.
	RecordRewrite RecordMode = "rewrite"
)

// IsValid reports whether m is a known record mode.
func (m RecordMode) IsValid() bool {
	switch m {
	case RecordNone, RecordOnce, RecordRewrite:
		return true
	}
	return false
}

func (m RecordMode) String() string { return string(m) }

// ParseRecordMode parses a record mode, ignoring case and surrounding space.
func ParseRecordMode(s string) (RecordMode, error) {
	m := RecordMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q (want none, once or rewrite)", ErrInvalidRecordMode, s)
	}
	return m, nil
}

// PlaybackMode controls how partial matches are treated.
type PlaybackMode string

// Playback modes.
const (
	// PlaybackStrict requires every matcher to hold.
	PlaybackStrict PlaybackMode = "strict"
	// PlaybackLenient tolerates header and body mismatches with a warning.
	PlaybackLenient PlaybackMode = "lenient"
)

// IsValid reports whether m is a known playback mode.
func (m PlaybackMode) IsValid() bool {
	return m == PlaybackStrict || m == PlaybackLenient
}

func (m PlaybackMode) String() string { return string(m) }

// ParsePlaybackMode parses a playback mode, ignoring case and surrounding
// space.
func ParsePlaybackMode(s string) (PlaybackMode, error) {
	m := PlaybackMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q (want strict or lenient)", ErrInvalidPlaybackMode, s)
	}
	return m, nil
}
