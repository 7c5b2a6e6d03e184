package replay

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getmockd/replay/internal/matching"
	"github.com/getmockd/replay/pkg/filter"
	"github.com/getmockd/replay/pkg/logging"
)

// Matcher names one request matching predicate.
type Matcher = matching.Tag

// Matchers.
const (
	MatchMethod  = matching.TagMethod
	MatchPath    = matching.TagPath
	MatchQuery   = matching.TagQuery
	MatchHeaders = matching.TagHeaders
	MatchBody    = matching.TagBody
)

// DefaultMatchers is used when Config.Matchers is nil.
var DefaultMatchers = []Matcher{MatchMethod, MatchPath}

// ParseMatchers parses a list such as "method,path,query".
func ParseMatchers(s string) ([]Matcher, error) {
	set, err := matching.ParseSet(s)
	if err != nil {
		return nil, err
	}
	return set.Tags(), nil
}

// Config configures an Engine.
type Config struct {
	// Source supplies the entries to replay. Required.
	Source Source

	// RecordMode defaults to $REPLAY_RECORD_MODE, then RecordOnce.
	RecordMode RecordMode

	// PlaybackMode defaults to $REPLAY_PLAYBACK_MODE, then PlaybackStrict.
	PlaybackMode PlaybackMode

	// Matchers selects the predicates a live request must satisfy. Nil means
	// DefaultMatchers; an empty non-nil slice is rejected.
	Matchers []Matcher

	// Filters redact exchanges before they are stored or compared.
	Filters []filter.Filter

	// Logger defaults to a no-op logger.
	Logger *slog.Logger

	// Transport performs real requests while recording. Defaults to the
	// http.DefaultTransport in place when the engine is created.
	Transport http.RoundTripper

	// Clock stamps recorded entries. Defaults to time.Now.
	Clock func() time.Time
}

// settings is a Config with every default resolved.
type settings struct {
	source   Source
	record   RecordMode
	playback PlaybackMode
	matchers matching.Set
	filters  []filter.Filter
	log      *slog.Logger
	real     http.RoundTripper
	now      func() time.Time
}

func (c Config) resolve(getenv func(string) string) (settings, error) {
	s := settings{
		source:  c.Source,
		filters: c.Filters,
		log:     logging.OrNop(c.Logger),
		real:    c.Transport,
		now:     c.Clock,
	}
	if s.source == nil {
		return settings{}, ErrNilSource
	}

	var err error
	s.record = c.RecordMode
	if s.record == "" {
		s.record = RecordOnce
		if env := getenv(EnvRecordMode); env != "" {
			if s.record, err = ParseRecordMode(env); err != nil {
				return settings{}, err
			}
		}
	} else if !s.record.IsValid() {
		return settings{}, fmt.Errorf("%w: %q", ErrInvalidRecordMode, s.record)
	}

	s.playback = c.PlaybackMode
	if s.playback == "" {
		s.playback = PlaybackStrict
		if env := getenv(EnvPlaybackMode); env != "" {
			if s.playback, err = ParsePlaybackMode(env); err != nil {
				return settings{}, err
			}
		}
	} else if !s.playback.IsValid() {
		return settings{}, fmt.Errorf("%w: %q", ErrInvalidPlaybackMode, s.playback)
	}

	tags := c.Matchers
	if tags == nil {
		tags = DefaultMatchers
	}
	if s.matchers, err = matching.NewSet(tags...); err != nil {
		return settings{}, err
	}

	if s.real == nil {
		s.real = http.DefaultTransport
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

func defaultGetenv(key string) string { return os.Getenv(key) }
