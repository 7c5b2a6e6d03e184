package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/replay/pkg/har"
)

func TestGlobalInstallNestsLIFO(t *testing.T) {
	base := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, errors.New("base") })
	target := http.RoundTripper(base)
	g := NewGlobal(&target)

	a := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, errors.New("a") })
	b := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, errors.New("b") })

	instA := g.Install(a)
	instB := g.Install(b)
	assert.Equal(t, 2, g.Depth())
	_, err := g.Current().RoundTrip(nil)
	assert.EqualError(t, err, "b")

	instB.Uninstall()
	_, err = target.RoundTrip(nil)
	assert.EqualError(t, err, "a")
	instB.Uninstall()
	assert.Equal(t, 1, g.Depth(), "second uninstall is a no-op")

	instA.Uninstall()
	_, err = target.RoundTrip(nil)
	assert.EqualError(t, err, "base")
	assert.Zero(t, g.Depth())
}

func TestGlobalUninstallOutOfOrder(t *testing.T) {
	base := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, errors.New("base") })
	target := http.RoundTripper(base)
	g := NewGlobal(&target)

	a := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, errors.New("a") })
	b := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, errors.New("b") })
	c := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, errors.New("c") })

	instA := g.Install(a)
	instB := g.Install(b)
	instC := g.Install(c)

	instA.Uninstall()
	_, err := target.RoundTrip(nil)
	assert.EqualError(t, err, "c", "removing a buried installation leaves the latest in effect")
	assert.Equal(t, 2, g.Depth())

	instC.Uninstall()
	_, err = target.RoundTrip(nil)
	assert.EqualError(t, err, "b")

	instB.Uninstall()
	_, err = target.RoundTrip(nil)
	assert.EqualError(t, err, "base", "b inherits the transport a replaced")
	assert.Zero(t, g.Depth())
}

func TestClientExecute(t *testing.T) {
	e := newTestEngine(t, Config{
		Source:     FromEntries(entry("GET", "https://api.example.com/v", 200, `"v1"`)),
		RecordMode: RecordNone,
		Transport:  offline(t),
	})
	c := NewClient(e)

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/v", nil)
	require.NoError(t, err)
	resp, err := c.Execute(req, time.Second)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `"v1"`, string(body), "body outlives the deadline context")
	require.NoError(t, resp.Body.Close())
}

func TestWrappedClientExecuteStreamsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "first ")
		w.(http.Flusher).Flush()
		time.Sleep(20 * time.Millisecond)
		fmt.Fprint(w, "second")
	}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := WrapClient(srv.Client()).Execute(req, 5*time.Second)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "the deadline context lives until the body is closed")
	assert.Equal(t, "first second", string(body))
}

func TestClientExecuteTimeoutRecordsNothing(t *testing.T) {
	slow := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	})
	e := newTestEngine(t, Config{Source: FromEntries(), RecordMode: RecordOnce, Transport: slow})

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/slow", nil)
	require.NoError(t, err)
	_, err = NewClient(e).Execute(req, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, e.Recorded())
}

func TestWithEngineKeepsClientSettings(t *testing.T) {
	e := newTestEngine(t, Config{
		Source:     FromEntries(entry("GET", "https://api.example.com/v", 200, `"v1"`)),
		RecordMode: RecordNone,
		Transport:  offline(t),
	})
	hc := &http.Client{Timeout: 3 * time.Second}

	wrapped := WithEngine(hc, e)
	assert.Equal(t, 3*time.Second, wrapped.Timeout)
	assert.Nil(t, hc.Transport, "original client untouched")

	resp, err := WrapClient(wrapped).Do(mustRequest(t, "https://api.example.com/v"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdaptersPreserveExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Add("X-Multi", "1")
		w.Header().Add("X-Multi", "2")
		w.Header().Set("X-Echo-Method", r.Method)
		w.Header().Set("X-Echo-Query", r.URL.RawQuery)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	var recorded []har.Entry
	src := FromEntries()
	src.Capture = func(a *har.Archive) error {
		recorded = a.Log.Entries
		return nil
	}
	rec := newTestEngine(t, Config{Source: src, RecordMode: RecordOnce, Transport: http.DefaultTransport})
	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/items/7?a=1&a=2", strings.NewReader("\x00binary\xff"))
	require.NoError(t, err)
	live, err := NewClient(rec).Do(req)
	require.NoError(t, err)
	liveBody, _ := io.ReadAll(live.Body)
	_ = live.Body.Close()
	require.NoError(t, rec.Close())
	require.Len(t, recorded, 1)

	play := newTestEngine(t, Config{
		Source:     FromEntries(recorded...),
		RecordMode: RecordNone,
		Matchers:   []Matcher{MatchMethod, MatchPath, MatchQuery, MatchBody},
		Transport:  offline(t),
	})
	req, err = http.NewRequest(http.MethodPatch, srv.URL+"/items/7?a=2&a=1", strings.NewReader("\x00binary\xff"))
	require.NoError(t, err)
	replayed, err := play.HTTPClient().Do(req)
	require.NoError(t, err)
	replayedBody, _ := io.ReadAll(replayed.Body)
	_ = replayed.Body.Close()

	assert.Equal(t, http.StatusAccepted, replayed.StatusCode)
	assert.Equal(t, liveBody, replayedBody)
	assert.Equal(t, []string{"1", "2"}, replayed.Header.Values("X-Multi"))
	assert.Equal(t, "PATCH", replayed.Header.Get("X-Echo-Method"))
	assert.Equal(t, "a=1&a=2", replayed.Header.Get("X-Echo-Query"))
	assert.Equal(t, har.EncodingBase64, recorded[0].Response.Content.Encoding)
}

func mustRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return req
}
