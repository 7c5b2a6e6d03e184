package har

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArchive() *Archive {
	a := New()
	a.Log.Entries = []Entry{
		{
			StartedAt:  time.Date(2026, 3, 1, 12, 0, 0, 250_000_000, time.UTC),
			DurationMs: 12.5,
			Request: Request{
				Method:      "GET",
				URL:         "https://api.example.com/users/42?expand=roles",
				HTTPVersion: "HTTP/1.1",
				Headers: Headers{
					{Name: "Accept", Value: "application/json"},
					{Name: "X-Trace", Value: "a"},
					{Name: "X-Trace", Value: "b"},
				},
			},
			Response: Response{
				Status:      200,
				StatusText:  "OK",
				HTTPVersion: "HTTP/1.1",
				Headers:     Headers{{Name: "Content-Type", Value: "application/json"}},
				Content:     Content{Size: 24, MimeType: "application/json", Text: `{"id":42,"name":"Alice"}`},
				BodySize:    24,
			},
			Timings: Timings{Send: 0.5, Wait: 10, Receive: 2},
		},
		{
			StartedAt:  time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC),
			DurationMs: 3,
			Request: Request{
				Method:      "POST",
				URL:         "https://api.example.com/users",
				HTTPVersion: "HTTP/1.1",
				PostData:    &PostData{MimeType: "application/json", Text: `{"name":"Bob"}`},
				BodySize:    14,
			},
			Response: Response{
				Status:      204,
				StatusText:  "No Content",
				HTTPVersion: "HTTP/1.1",
			},
		},
	}
	return a
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := sampleArchive()

	data, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode("memory", data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestEncodeIsDeterministic(t *testing.T) {
	first, err := Encode(sampleArchive())
	require.NoError(t, err)

	decoded, err := Decode("memory", first)
	require.NoError(t, err)

	second, err := Encode(decoded)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.True(t, strings.HasSuffix(string(first), "}\n"))
}

func TestEncodeEmptyArchive(t *testing.T) {
	data, err := Encode(New())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entries": []`)

	decoded, err := Decode("memory", data)
	require.NoError(t, err)
	assert.Nil(t, decoded.Log.Entries)
}

func TestEncodeDoesNotEscapeHTML(t *testing.T) {
	a := sampleArchive()
	a.Log.Entries[0].Response.Content.Text = "<b>&</b>"

	data, err := Encode(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<b>&</b>")
}

func TestDecodeErrors(t *testing.T) {
	valid, err := Encode(sampleArchive())
	require.NoError(t, err)

	tests := []struct {
		name       string
		data       string
		wantDetail string
	}{
		{
			name:       "malformed JSON",
			data:       `{"log": `,
			wantDetail: "malformed JSON",
		},
		{
			name:       "trailing data",
			data:       string(valid) + "{}",
			wantDetail: "trailing data",
		},
		{
			name:       "missing log",
			data:       `{}`,
			wantDetail: "log",
		},
		{
			name:       "missing creator",
			data:       `{"log": {"version": "1.2", "entries": []}}`,
			wantDetail: "creator",
		},
		{
			name:       "status out of range",
			data:       strings.Replace(string(valid), `"status": 200`, `"status": 600`, 1),
			wantDetail: "/log/entries/0/response/status",
		},
		{
			name:       "status below range",
			data:       strings.Replace(string(valid), `"status": 200`, `"status": 99`, 1),
			wantDetail: "/log/entries/0/response/status",
		},
		{
			name:       "negative body size",
			data:       strings.Replace(string(valid), `"bodySize": 25`, `"bodySize": -1`, 1),
			wantDetail: "/log/entries/0/response/bodySize",
		},
		{
			name:       "negative duration",
			data:       strings.Replace(string(valid), `"time": 12.5`, `"time": -1`, 1),
			wantDetail: "/log/entries/0/time",
		},
		{
			name:       "bad timestamp",
			data:       strings.Replace(string(valid), `"2026-03-01T12:00:00.25Z"`, `"yesterday"`, 1),
			wantDetail: "yesterday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("fixtures/users.har", []byte(tt.data))
			require.Error(t, err)

			var decodeErr *ArchiveDecodeError
			require.True(t, errors.As(err, &decodeErr), "got %T", err)
			assert.Equal(t, "fixtures/users.har", decodeErr.Location)
			assert.Contains(t, decodeErr.Detail, tt.wantDetail)
			assert.Contains(t, err.Error(), "REPLAY_RECORD_MODE=rewrite")
		})
	}
}

func TestDecodeIgnoresUnknownHARFields(t *testing.T) {
	data := `{
  "log": {
    "version": "1.2",
    "creator": {"name": "browser", "version": "1"},
    "pages": [],
    "entries": [{
      "startedDateTime": "2026-01-02T03:04:05Z",
      "time": 1,
      "cache": {},
      "request": {"method": "GET", "url": "http://x/a", "httpVersion": "HTTP/1.1",
        "headers": [], "queryString": [], "cookies": [], "headersSize": -1, "bodySize": 0},
      "response": {"status": 200, "statusText": "OK", "httpVersion": "HTTP/1.1",
        "headers": [], "cookies": [], "redirectURL": "",
        "content": {"size": 2, "mimeType": "text/plain", "text": "hi"}, "headersSize": -1, "bodySize": 2},
      "timings": {"send": 0, "wait": 1, "receive": 0, "dns": -1}
    }]
  }
}`
	a, err := Decode("browser.har", []byte(data))
	require.NoError(t, err)
	require.Len(t, a.Log.Entries, 1)
	assert.Equal(t, "hi", string(a.Log.Entries[0].Response.Body()))
}

func TestLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.har")

	_, err := Load(path)
	require.Error(t, err)

	var missing *ArchiveMissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, path, missing.Location)
	assert.Contains(t, err.Error(), "REPLAY_RECORD_MODE=once")
	assert.False(t, Exists(path))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "users.har")
	original := sampleArchive()

	require.NoError(t, Save(path, original))
	assert.True(t, Exists(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, Save(path, loaded))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestCloneIsDeep(t *testing.T) {
	original := sampleArchive()
	clone := original.Clone()

	clone.Log.Entries[0].Request.Headers[0].Value = "changed"
	clone.Log.Entries[1].Request.PostData.Text = "changed"

	assert.Equal(t, "application/json", original.Log.Entries[0].Request.Headers[0].Value)
	assert.Equal(t, `{"name":"Bob"}`, original.Log.Entries[1].Request.PostData.Text)
}

func TestHeadersGet(t *testing.T) {
	h := Headers{{Name: "Content-Type", Value: "text/plain"}, {Name: "X-A", Value: "1"}, {Name: "x-a", Value: "2"}}
	assert.Equal(t, "text/plain", h.Get("content-type"))
	assert.Equal(t, "1", h.Get("X-A"))
	assert.Equal(t, "", h.Get("Missing"))
}

func TestStat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.har")
	require.NoError(t, Save(path, sampleArchive()))

	info, err := Stat(path)
	require.NoError(t, err)
	assert.Equal(t, path, info.Path)
	assert.Equal(t, 2, info.Entries)
	assert.Positive(t, info.Size)
	assert.False(t, info.ModTime.IsZero())

	_, err = Stat(filepath.Join(t.TempDir(), "absent.har"))
	var missing *ArchiveMissingError
	assert.True(t, errors.As(err, &missing))
}
