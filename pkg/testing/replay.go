package testing

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/getmockd/replay/pkg/config"
	"github.com/getmockd/replay/pkg/filter"
	"github.com/getmockd/replay/pkg/har"
	"github.com/getmockd/replay/pkg/logging"
	"github.com/getmockd/replay/pkg/replay"
)

// Recorder is the replay scope of one test.
type Recorder struct {
	t     testing.TB
	scope *replay.Scope
}

type options struct {
	archive  string
	source   replay.Source
	stubs    []*StubBuilder
	cfg      replay.Config
	scope    replay.ScopeOptions
	manager  *replay.Manager
	project  *config.Project
	logOut   io.Writer
	override struct {
		record, playback, matchers, filters bool
	}
}

// Option customizes Use.
type Option func(*options)

// WithArchive names the archive file. Relative names without a directory
// resolve against the project archive directory.
func WithArchive(name string) Option {
	return func(o *options) { o.archive = name }
}

// WithSource replays an explicit source.
func WithSource(src replay.Source) Option {
	return func(o *options) { o.source = src }
}

// WithEntries replays in-memory entries and records nothing to disk.
func WithEntries(entries ...har.Entry) Option {
	return func(o *options) { o.source = replay.FromEntries(entries...) }
}

// WithStubs serves the built stubs instead of an archive.
func WithStubs(stubs ...*StubBuilder) Option {
	return func(o *options) { o.stubs = append(o.stubs, stubs...) }
}

// WithRecordMode overrides the project and environment record mode.
func WithRecordMode(m replay.RecordMode) Option {
	return func(o *options) {
		o.cfg.RecordMode = m
		o.override.record = true
	}
}

// WithPlaybackMode overrides the project and environment playback mode.
func WithPlaybackMode(m replay.PlaybackMode) Option {
	return func(o *options) {
		o.cfg.PlaybackMode = m
		o.override.playback = true
	}
}

// WithMatchers overrides the matcher tags.
func WithMatchers(tags ...replay.Matcher) Option {
	return func(o *options) {
		if tags == nil {
			tags = []replay.Matcher{}
		}
		o.cfg.Matchers = tags
		o.override.matchers = true
	}
}

// WithFilters replaces the project filters.
func WithFilters(filters ...filter.Filter) Option {
	return func(o *options) {
		o.cfg.Filters = filters
		o.override.filters = true
	}
}

// WithLogger replaces the default logger, which writes to t.Log.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.cfg.Logger = l }
}

// WithProcessLog also writes engine logs to w, in the project log format.
// Without it they go to os.Stderr as well when the project sets log.format.
func WithProcessLog(w io.Writer) Option {
	return func(o *options) { o.logOut = w }
}

// WithTransport sets the real transport used while recording.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.cfg.Transport = rt }
}

// WithManager enters the scope on m instead of replay.DefaultManager.
func WithManager(m *replay.Manager) Option {
	return func(o *options) { o.manager = m }
}

// WithProject uses p instead of loading .replay.yaml and the environment.
func WithProject(p *config.Project) Option {
	return func(o *options) { o.project = p }
}

// Isolated nests the scope inside an active one.
func Isolated() Option {
	return func(o *options) { o.scope.Isolated = true }
}

// SharedArchive allows another active scope to use the same archive file.
func SharedArchive() Option {
	return func(o *options) { o.scope.SharedArchive = true }
}

// Use enters a replay scope for t and exits it in t.Cleanup. Configuration
// and archive errors fail the test immediately; persistence errors at exit
// fail it during cleanup.
func Use(t testing.TB, opts ...Option) *Recorder {
	t.Helper()

	o := &options{manager: replay.DefaultManager}
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := o.config(t)
	if err != nil {
		t.Fatalf("replay: %v", err)
		return nil
	}

	scope, err := o.manager.Enter(cfg, replay.ScopeOptions{
		Name:          t.Name(),
		Isolated:      o.scope.Isolated,
		SharedArchive: o.scope.SharedArchive,
	})
	if err != nil {
		t.Fatalf("replay: %v", err)
		return nil
	}

	r := &Recorder{t: t, scope: scope}
	t.Cleanup(func() {
		if err := scope.Exit(); err != nil {
			t.Errorf("replay: %v", err)
		}
	})
	return r
}

func (o *options) processLog(project *config.Project) io.Writer {
	if o.logOut != nil {
		return o.logOut
	}
	if project.Log.Format != "" {
		return os.Stderr
	}
	return nil
}

func (o *options) config(t testing.TB) (replay.Config, error) {
	project := o.project
	if project == nil {
		p, err := config.Load()
		if err != nil {
			return replay.Config{}, err
		}
		project = p
	}

	cfg, err := project.EngineConfig()
	if err != nil {
		return replay.Config{}, err
	}
	if o.override.record {
		cfg.RecordMode = o.cfg.RecordMode
	}
	if o.override.playback {
		cfg.PlaybackMode = o.cfg.PlaybackMode
	}
	if o.override.matchers {
		cfg.Matchers = o.cfg.Matchers
	}
	if o.override.filters {
		cfg.Filters = o.cfg.Filters
	}
	cfg.Transport = o.cfg.Transport
	cfg.Logger = o.cfg.Logger
	if cfg.Logger == nil {
		var h slog.Handler = logging.NewTestHandler(t, project.LogLevel())
		if w := o.processLog(project); w != nil {
			h = logging.NewMultiHandler(h, project.LoggerTo(w).Handler())
		}
		cfg.Logger = slog.New(h)
	}

	switch {
	case len(o.stubs) > 0:
		var stubs []replay.Stub
		for _, b := range o.stubs {
			built, err := b.Build()
			if err != nil {
				return replay.Config{}, err
			}
			stubs = append(stubs, built...)
		}
		cfg.Source = replay.FromStubs(stubs...)
	case o.source != nil:
		cfg.Source = o.source
	default:
		name := o.archive
		if name == "" {
			name = ArchiveName(t.Name())
		}
		cfg.Source = replay.FromFile(project.ArchivePath(name))
	}
	return cfg, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.\-/]+`)

// ArchiveName turns a test name into a relative archive path. Subtests
// become subdirectories.
func ArchiveName(testName string) string {
	name := unsafeChars.ReplaceAllString(testName, "_")
	name = strings.Trim(name, "/")
	parts := strings.Split(name, "/")
	for i, p := range parts {
		if p == "" || p == "." || p == ".." {
			parts[i] = "_"
		}
	}
	return filepath.Join(parts...) + ".har"
}

// Scope returns the underlying scope.
func (r *Recorder) Scope() *replay.Scope { return r.scope }

// Engine returns the scope's engine.
func (r *Recorder) Engine() *replay.Engine { return r.scope.Engine() }

// Client returns a Do/Execute client served by the scope.
func (r *Recorder) Client() *replay.Client { return r.scope.Client() }

// HTTPClient returns an *http.Client served by the scope.
func (r *Recorder) HTTPClient() *http.Client { return r.scope.Engine().HTTPClient() }

// Location names the scope's source.
func (r *Recorder) Location() string { return r.scope.Engine().Location() }
