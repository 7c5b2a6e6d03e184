package testing

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/replay/pkg/config"
	"github.com/getmockd/replay/pkg/har"
	"github.com/getmockd/replay/pkg/replay"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// fakeTB records failures instead of stopping the test.
type fakeTB struct {
	testing.TB
	name     string
	errors   []string
	fatal    bool
	cleanups []func()
}

func (f *fakeTB) Helper()         {}
func (f *fakeTB) Name() string    { return f.name }
func (f *fakeTB) Log(args ...any) {}
func (f *fakeTB) Cleanup(fn func()) {
	f.cleanups = append(f.cleanups, fn)
}

func (f *fakeTB) Errorf(format string, args ...any) {
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
}

func (f *fakeTB) Fatalf(format string, args ...any) {
	f.fatal = true
	f.Errorf(format, args...)
}

func (f *fakeTB) runCleanups() {
	for i := len(f.cleanups) - 1; i >= 0; i-- {
		f.cleanups[i]()
	}
}

// isolated returns a manager over a private transport slot so tests never
// touch http.DefaultTransport.
func isolated(rt http.RoundTripper) *replay.Manager {
	target := rt
	return replay.NewManager(replay.NewGlobal(&target))
}

func offline(t *testing.T) http.RoundTripper {
	return roundTripFunc(func(r *http.Request) (*http.Response, error) {
		t.Errorf("unexpected network request %s %s", r.Method, r.URL)
		return nil, io.ErrUnexpectedEOF
	})
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestUseServesStubs(t *testing.T) {
	rec := Use(t,
		WithManager(isolated(offline(t))),
		WithProject(config.Default()),
		WithStubs(
			Stub("GET", "https://api.example.com/users/1").WithJSON(map[string]int{"id": 1}),
			Stub("DELETE", "https://api.example.com/users/1").RespondNoContent(),
		),
	)

	resp, err := rec.HTTPClient().Get("https://api.example.com/users/1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, `{"id":1}`, readBody(t, resp))

	req, err := http.NewRequest(http.MethodDelete, "https://api.example.com/users/1", nil)
	require.NoError(t, err)
	resp, err = rec.Client().Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	rec.AssertAllConsumed()
	rec.AssertNothingRecorded()
	assert.Equal(t, "in-memory stubs", rec.Location())
}

func TestUseRecordsAndReplaysArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.har")
	var calls int32
	live := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`[{"id":1}]`)),
			Request:    r,
		}, nil
	})

	t.Run("record", func(t *testing.T) {
		rec := Use(t,
			WithManager(isolated(live)),
			WithProject(config.Default()),
			WithArchive(path),
			WithRecordMode(replay.RecordOnce),
		)
		resp, err := rec.HTTPClient().Get("https://api.example.com/users")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":1}]`, readBody(t, resp))
		rec.AssertRecorded(1)
	})

	a, err := har.Load(path)
	require.NoError(t, err, "archive written when the scope exits")
	require.Len(t, a.Log.Entries, 1)

	t.Run("replay", func(t *testing.T) {
		rec := Use(t,
			WithManager(isolated(offline(t))),
			WithProject(config.Default()),
			WithArchive(path),
			WithRecordMode(replay.RecordNone),
		)
		resp, err := rec.HTTPClient().Get("https://api.example.com/users")
		require.NoError(t, err)
		assert.Equal(t, `[{"id":1}]`, readBody(t, resp))
		rec.AssertAllConsumed()
	})
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUseDefaultArchiveFollowsTestName(t *testing.T) {
	dir := t.TempDir()
	project := config.Default()
	project.ArchiveDir = dir

	rec := Use(t,
		WithManager(isolated(offline(t))),
		WithProject(project),
		WithRecordMode(replay.RecordOnce),
	)
	assert.Equal(t, filepath.Join(dir, "TestUseDefaultArchiveFollowsTestName.har"), rec.Location())
}

func TestUseProcessLogFansOut(t *testing.T) {
	var out bytes.Buffer
	project := config.Default()
	project.Log = config.LogConfig{Level: "debug", Format: "json"}

	rec := Use(t,
		WithManager(isolated(offline(t))),
		WithProject(project),
		WithProcessLog(&out),
		WithStubs(Stub("GET", "https://api.example.com/health").WithBody("ok")),
	)
	resp, err := rec.HTTPClient().Get("https://api.example.com/health")
	require.NoError(t, err)
	assert.Equal(t, "ok", readBody(t, resp))

	assert.Contains(t, out.String(), `"msg":"replayed"`)
	assert.Contains(t, out.String(), `"url":"https://api.example.com/health"`)
}

func TestUseEntries(t *testing.T) {
	e := har.Entry{
		Request: har.Request{Method: "GET", URL: "https://api.example.com/ping", HTTPVersion: "HTTP/1.1"},
		Response: har.Response{
			Status: 200, StatusText: "OK", HTTPVersion: "HTTP/1.1",
			Content: har.Content{MimeType: "text/plain", Text: "pong", Size: 4},
		},
	}
	rec := Use(t, WithManager(isolated(offline(t))), WithProject(config.Default()),
		WithEntries(e), WithRecordMode(replay.RecordNone))

	resp, err := rec.HTTPClient().Get("https://api.example.com/ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", readBody(t, resp))
	rec.AssertRemaining(0)
}

func TestUseFailsFastOnConfigError(t *testing.T) {
	ft := &fakeTB{name: "TestBroken"}
	rec := Use(ft, WithManager(isolated(offline(t))), WithProject(config.Default()),
		WithStubs(Stub("GET", "https://x.test/")), WithMatchers())

	assert.Nil(t, rec)
	assert.True(t, ft.fatal)
	require.Len(t, ft.errors, 1)
	assert.Contains(t, ft.errors[0], replay.ErrEmptyMatcherSet.Error())
	assert.Empty(t, ft.cleanups)
}

func TestUseFailsOnBadStub(t *testing.T) {
	ft := &fakeTB{name: "TestBadStub"}
	rec := Use(ft, WithManager(isolated(offline(t))), WithProject(config.Default()),
		WithStubs(Stub("GET", "https://x.test/").WithStatus(42)))

	assert.Nil(t, rec)
	assert.True(t, ft.fatal)
	assert.Contains(t, ft.errors[0], "out of range")
}

func TestUseNestedScopeConflict(t *testing.T) {
	m := isolated(offline(t))
	Use(t, WithManager(m), WithProject(config.Default()), WithStubs(Stub("GET", "https://x.test/a")))

	ft := &fakeTB{name: "TestInner"}
	assert.Nil(t, Use(ft, WithManager(m), WithProject(config.Default()), WithStubs(Stub("GET", "https://x.test/b"))))
	assert.Contains(t, ft.errors[0], "Isolated")

	ft = &fakeTB{name: "TestInnerIsolated"}
	inner := Use(ft, WithManager(m), WithProject(config.Default()), Isolated(),
		WithStubs(Stub("GET", "https://x.test/b")))
	require.NotNil(t, inner)
	assert.Same(t, inner.Scope(), m.Active())
	ft.runCleanups()
	assert.Empty(t, ft.errors)
}

func TestUseSiblingScopesCleanUpInEnterOrder(t *testing.T) {
	dir := t.TempDir()
	live := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"text/plain"}},
			Body:       io.NopCloser(strings.NewReader("first")),
			Request:    r,
		}, nil
	})
	m := isolated(live)

	a := &fakeTB{name: "TestA"}
	recA := Use(a, WithManager(m), WithProject(config.Default()), Isolated(),
		WithArchive(filepath.Join(dir, "TestA.har")), WithRecordMode(replay.RecordOnce))
	require.NotNil(t, recA)
	b := &fakeTB{name: "TestB"}
	recB := Use(b, WithManager(m), WithProject(config.Default()), Isolated(),
		WithStubs(Stub("GET", "https://x.test/b")))
	require.NotNil(t, recB)

	resp, err := recA.HTTPClient().Get("https://api.example.com/first")
	require.NoError(t, err)
	assert.Equal(t, "first", readBody(t, resp))

	// Parallel siblings finish in no particular order.
	a.runCleanups()
	b.runCleanups()
	assert.Empty(t, a.errors)
	assert.Empty(t, b.errors)
	assert.Nil(t, m.Active())

	archive, err := har.Load(filepath.Join(dir, "TestA.har"))
	require.NoError(t, err)
	assert.Len(t, archive.Log.Entries, 1)
}

func TestAssertAllConsumedReportsLeftovers(t *testing.T) {
	ft := &fakeTB{name: "TestLeftovers"}
	rec := Use(ft, WithManager(isolated(offline(t))), WithProject(config.Default()),
		WithStubs(
			Stub("GET", "https://api.example.com/a"),
			Stub("GET", "https://api.example.com/b").Twice(),
		))
	require.NotNil(t, rec)

	resp, err := rec.HTTPClient().Get("https://api.example.com/b")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.False(t, rec.AssertAllConsumed())
	require.Len(t, ft.errors, 1)
	assert.Contains(t, ft.errors[0], "2 entries")
	assert.Contains(t, ft.errors[0], "https://api.example.com/a")
	assert.False(t, rec.AssertRemaining(1))
	assert.True(t, rec.AssertRemaining(2))

	ft.runCleanups()
	assert.Len(t, ft.errors, 2)
}

func TestArchiveName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TestUsers", "TestUsers.har"},
		{"TestUsers/list all", filepath.Join("TestUsers", "list_all.har")},
		{"TestUsers/#01", filepath.Join("TestUsers", "_01.har")},
		{"TestUsers/../escape", filepath.Join("TestUsers", "_", "escape.har")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ArchiveName(tt.in))
		})
	}
}
