package replay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/replay/internal/matching"
)

// Configuration errors. They are returned by New and Manager.Enter before any
// request is intercepted.
var (
	ErrNilSource           = errors.New("replay: no archive source configured")
	ErrInvalidRecordMode   = errors.New("replay: invalid record mode")
	ErrInvalidPlaybackMode = errors.New("replay: invalid playback mode")
	ErrEmptyMatcherSet     = matching.ErrEmptyMatcherSet
)

// ErrEngineClosed is returned for requests sent after Close.
var ErrEngineClosed = errors.New("replay: engine is closed")

// NoMatchingEntryError is returned for a live request that matches no
// unconsumed entry under a record mode that forbids recording it.
type NoMatchingEntryError struct {
	Method        string
	URL           string
	TriedMatchers []string

	// Location names the archive source.
	Location string
	// Closest describes the unconsumed entry that passed the most matchers.
	Closest string
	// Consumed is set when an already consumed entry would have matched.
	Consumed bool
	// Hint names the remediation.
	Hint string
}

func (e *NoMatchingEntryError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no archived entry matches %s %s (matchers: %s)", e.Method, e.URL, strings.Join(e.TriedMatchers, ","))
	if e.Location != "" {
		fmt.Fprintf(&b, " in %s", e.Location)
	}
	if e.Consumed {
		b.WriteString("; a matching entry was already used by an earlier request and entries are single-use")
	}
	if e.Closest != "" {
		fmt.Fprintf(&b, "; closest entry %s", e.Closest)
	}
	if e.Hint != "" {
		b.WriteString("; ")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// ScopeConflictError is returned when a scope cannot be entered alongside
// the scopes already active on a Manager.
type ScopeConflictError struct {
	// Active is the name of the scope in the way.
	Active string
	// Archive is the shared archive file, when that is the conflict.
	Archive string
}

func (e *ScopeConflictError) Error() string {
	if e.Archive != "" {
		return fmt.Sprintf("scope conflict: archive %s is already in use by scope %s (set SharedArchive to accept last-writer-wins)", e.Archive, e.Active)
	}
	return fmt.Sprintf("scope conflict: scope %s is already active (set Isolated to nest scopes)", e.Active)
}
