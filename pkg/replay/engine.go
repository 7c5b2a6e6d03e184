package replay

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/getmockd/replay/internal/matching"
	"github.com/getmockd/replay/pkg/filter"
	"github.com/getmockd/replay/pkg/har"
)

// Engine resolves live requests against one archive source.
type Engine struct {
	cfg settings
	log *slog.Logger

	// existing holds the entries as loaded, for persistence.
	existing []har.Entry
	// existed is fixed at load and decides whether RecordOnce may record.
	existed bool

	mu         sync.Mutex
	candidates []*candidate
	consumed   []bool
	recorded   []har.Entry
	closed     bool
}

// candidate is one pool member with its filtered comparison view.
type candidate struct {
	index int
	view  har.Request
	entry *har.Entry
	stub  *stubItem
}

func (c *candidate) response() har.Response {
	if c.stub != nil {
		return c.stub.response()
	}
	return c.entry.Response
}

func (c *candidate) String() string {
	return fmt.Sprintf("#%d %s %s", c.index, c.view.Method, c.view.URL)
}

// New validates cfg and loads the source. Configuration and archive errors
// are returned here, before any request is served.
func New(cfg Config) (*Engine, error) {
	return newEngine(cfg, defaultGetenv)
}

func newEngine(cfg Config, getenv func(string) string) (*Engine, error) {
	s, err := cfg.resolve(getenv)
	if err != nil {
		return nil, err
	}

	p, err := s.source.load(s.record)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      s,
		existing: p.entries,
		existed:  p.existed,
		log: s.log.With(
			"source", s.source.Location(),
			"recordMode", string(s.record),
			"playbackMode", string(s.playback),
		),
	}
	for i := range p.entries {
		entry := &p.entries[i]
		e.candidates = append(e.candidates, &candidate{
			index: i,
			view:  filter.ApplyRequest(s.filters, entry.Request),
			entry: entry,
		})
	}
	for i, st := range p.stubs {
		e.candidates = append(e.candidates, &candidate{
			index: i,
			view:  filter.ApplyRequest(s.filters, st.request()),
			stub:  st,
		})
	}
	e.consumed = make([]bool, len(e.candidates))

	e.log.Debug("archive loaded", "entries", len(e.candidates), "matchers", s.matchers.String())
	return e, nil
}

// Location names the engine's source.
func (e *Engine) Location() string { return e.cfg.source.Location() }

// RecordMode returns the resolved record mode.
func (e *Engine) RecordMode() RecordMode { return e.cfg.record }

// PlaybackMode returns the resolved playback mode.
func (e *Engine) PlaybackMode() PlaybackMode { return e.cfg.playback }

// Matchers returns the resolved matcher tags.
func (e *Engine) Matchers() []Matcher { return e.cfg.matchers.Tags() }

// Transport returns an http.RoundTripper served by the engine.
func (e *Engine) Transport() *Transport { return &Transport{engine: e} }

// HTTPClient returns an *http.Client whose transport is the engine.
func (e *Engine) HTTPClient() *http.Client {
	return &http.Client{Transport: e.Transport()}
}

// Remaining returns the number of unconsumed entries.
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, used := range e.consumed {
		if !used {
			n++
		}
	}
	return n
}

// Unconsumed describes the entries no request has used yet, in pool order.
func (e *Engine) Unconsumed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []string
	for i, c := range e.candidates {
		if !e.consumed[i] {
			out = append(out, c.String())
		}
	}
	return out
}

// Recorded returns a copy of the entries recorded so far.
func (e *Engine) Recorded() []har.Entry {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]har.Entry, len(e.recorded))
	for i, r := range e.recorded {
		out[i] = r.Clone()
	}
	return out
}

// roundTrip resolves one live request.
func (e *Engine) roundTrip(req *http.Request) (*http.Response, error) {
	body, err := readRequestBody(req)
	if err != nil {
		return nil, err
	}
	live := har.RequestFromHTTP(req, body)
	view := filter.ApplyRequest(e.cfg.filters, live)

	if e.cfg.record == RecordRewrite {
		if err := e.checkOpen(); err != nil {
			return nil, err
		}
		return e.record(req, body, live)
	}

	c, relaxed, err := e.take(view)
	if err != nil {
		return nil, err
	}
	if c != nil {
		if relaxed != nil {
			e.log.Warn("lenient match",
				"method", live.Method,
				"url", view.URL,
				"entry", c.String(),
				"failed", tagNames(relaxed.Failed()),
				"reason", relaxed.Reason(),
			)
		} else {
			e.log.Debug("replayed", "method", live.Method, "url", view.URL, "entry", c.String())
		}
		return c.response().HTTP(req), nil
	}

	if e.cfg.record == RecordOnce && !e.existed {
		return e.record(req, body, live)
	}

	nerr := e.noMatch(view)
	if e.cfg.playback == PlaybackLenient {
		e.log.Warn("no matching entry", "method", live.Method, "url", view.URL, "error", nerr)
	}
	return nil, nerr
}

// take selects and consumes the first unconsumed candidate matching view.
// relaxed is non-nil when the candidate only matched with header and body
// checks dropped.
func (e *Engine) take(view har.Request) (*candidate, *matching.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, nil, ErrEngineClosed
	}

	if i := e.firstMatchLocked(view, e.cfg.matchers); i >= 0 {
		e.consumed[i] = true
		return e.candidates[i], nil, nil
	}

	if e.cfg.playback == PlaybackLenient {
		loose := e.cfg.matchers.Without(matching.TagHeaders, matching.TagBody)
		if loose != e.cfg.matchers {
			if i := e.firstMatchLocked(view, loose); i >= 0 {
				e.consumed[i] = true
				res := matching.Breakdown(e.candidates[i].view, view, e.cfg.matchers)
				return e.candidates[i], &res, nil
			}
		}
	}
	return nil, nil, nil
}

func (e *Engine) firstMatchLocked(view har.Request, set matching.Set) int {
	for i, c := range e.candidates {
		if !e.consumed[i] && matching.Matches(c.view, view, set) {
			return i
		}
	}
	return -1
}

func (e *Engine) checkOpen() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrEngineClosed
	}
	return nil
}

// noMatch builds the error for an unresolved request, naming the closest
// unconsumed candidate.
func (e *Engine) noMatch(view har.Request) *NoMatchingEntryError {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := &NoMatchingEntryError{
		Method:        view.Method,
		URL:           view.URL,
		TriedMatchers: e.cfg.matchers.Strings(),
		Location:      e.cfg.source.Location(),
		Hint:          e.hint(),
	}

	best := -1
	var bestResult matching.Result
	for i, c := range e.candidates {
		res := matching.Breakdown(c.view, view, e.cfg.matchers)
		if e.consumed[i] {
			if res.Matched() {
				err.Consumed = true
			}
			continue
		}
		if best < 0 || res.Passed() > bestResult.Passed() {
			best, bestResult = i, res
		}
	}
	if best >= 0 {
		err.Closest = e.candidates[best].String() + " (" + bestResult.Reason() + ")"
	}
	return err
}

func (e *Engine) hint() string {
	switch {
	case e.cfg.record == RecordNone && !e.existed:
		return "run the test once with " + EnvRecordMode + "=once to record it"
	case e.cfg.record == RecordNone || e.cfg.record == RecordOnce:
		return "re-record the archive with " + EnvRecordMode + "=rewrite, or relax the matchers"
	default:
		return ""
	}
}

// record forwards req through the real transport and buffers the filtered
// exchange. A request cancelled mid-flight records nothing.
func (e *Engine) record(req *http.Request, body []byte, live har.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if body != nil {
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
		out.ContentLength = int64(len(body))
	}

	start := e.cfg.now()
	resp, err := e.cfg.real.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	waited := e.cfg.now()

	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body for %s %s: %w", live.Method, live.URL, err)
	}
	if err := req.Context().Err(); err != nil {
		e.log.Debug("recording discarded", "method", live.Method, "url", live.URL, "error", err)
		return nil, err
	}
	done := e.cfg.now()

	entry := filter.Apply(e.cfg.filters, har.Entry{
		StartedAt:  start.UTC(),
		DurationMs: millis(done.Sub(start)),
		Request:    live,
		Response:   har.ResponseFromHTTP(resp, respBody),
		Timings: har.Timings{
			Wait:    millis(waited.Sub(start)),
			Receive: millis(done.Sub(waited)),
		},
	})

	e.mu.Lock()
	closed := e.closed
	if !closed {
		e.recorded = append(e.recorded, entry)
	}
	e.mu.Unlock()

	if closed {
		e.log.Warn("recording dropped after close", "method", live.Method, "url", entry.Request.URL)
	} else {
		e.log.Info("recorded", "method", live.Method, "url", entry.Request.URL, "status", resp.StatusCode)
	}

	resp.Body = io.NopCloser(bytes.NewReader(respBody))
	resp.ContentLength = int64(len(respBody))
	return resp, nil
}

// Close persists recorded entries, if any. Entries loaded from the source
// keep their positions and recorded ones follow; RecordRewrite keeps only
// the recorded ones. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	recorded := e.recorded
	e.mu.Unlock()

	if len(recorded) == 0 {
		return nil
	}

	a := har.New()
	if e.cfg.record != RecordRewrite {
		a.Log.Entries = append(a.Log.Entries, e.existing...)
	}
	a.Log.Entries = append(a.Log.Entries, recorded...)

	if err := e.cfg.source.persist(a); err != nil {
		return fmt.Errorf("failed to persist %s: %w", e.cfg.source.Location(), err)
	}
	e.log.Info("archive written", "entries", len(a.Log.Entries), "recorded", len(recorded))
	return nil
}

func readRequestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}

func millis(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

func tagNames(tags []matching.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	return strings.Join(names, ",")
}
