package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/getmockd/replay/pkg/har"
	"github.com/getmockd/replay/pkg/replay"
)

// StubBuilder builds a replay.Stub using a fluent API.
type StubBuilder struct {
	stub  replay.Stub
	times int
	err   error // first error encountered while building
}

// Stub starts a stub answering method and url with an empty 200.
func Stub(method, url string) *StubBuilder {
	return &StubBuilder{
		stub:  replay.Stub{Method: method, URL: url, Status: http.StatusOK},
		times: 1,
	}
}

// setError records the first error encountered during building.
func (b *StubBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns the first error encountered while building.
func (b *StubBuilder) Err() error {
	return b.err
}

// WithStatus sets the response status code.
func (b *StubBuilder) WithStatus(status int) *StubBuilder {
	if status < 100 || status > 599 {
		b.setError(fmt.Errorf("WithStatus: status %d is out of range", status))
		return b
	}
	b.stub.Status = status
	return b
}

// WithBody sets the response body. Strings and byte slices are used as-is;
// anything else is JSON encoded.
func (b *StubBuilder) WithBody(body any) *StubBuilder {
	switch v := body.(type) {
	case string:
		b.stub.Body = replay.String(v)
	case []byte:
		b.stub.Body = replay.Bytes(v)
	default:
		return b.WithJSON(v)
	}
	return b
}

// WithJSON sets a JSON encoded body and the matching Content-Type.
func (b *StubBuilder) WithJSON(body any) *StubBuilder {
	data, err := json.Marshal(body)
	if err != nil {
		b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
		return b
	}
	b.stub.Body = replay.Bytes(data)
	return b.setResponseHeader("Content-Type", "application/json")
}

// WithBodyFunc sets a lazily produced body. fn runs at most once, the first
// time the stub is served.
func (b *StubBuilder) WithBodyFunc(fn func() []byte) *StubBuilder {
	b.stub.Body = fn
	return b
}

// WithHeader adds a response header.
func (b *StubBuilder) WithHeader(name, value string) *StubBuilder {
	b.stub.ResponseHeaders = append(b.stub.ResponseHeaders, har.Header{Name: name, Value: value})
	return b
}

func (b *StubBuilder) setResponseHeader(name, value string) *StubBuilder {
	for i, h := range b.stub.ResponseHeaders {
		if http.CanonicalHeaderKey(h.Name) == http.CanonicalHeaderKey(name) {
			b.stub.ResponseHeaders[i].Value = value
			return b
		}
	}
	return b.WithHeader(name, value)
}

// WithRequestHeader adds a request header compared by the headers matcher.
func (b *StubBuilder) WithRequestHeader(name, value string) *StubBuilder {
	b.stub.Headers = append(b.stub.Headers, har.Header{Name: name, Value: value})
	return b
}

// Times lets the stub answer n requests. Stubs are single-use like recorded
// entries, so this expands into n stubs sharing one body.
func (b *StubBuilder) Times(n int) *StubBuilder {
	if n < 1 {
		b.setError(fmt.Errorf("Times: n must be positive, got %d", n))
		return b
	}
	b.times = n
	return b
}

// Twice is shorthand for Times(2).
func (b *StubBuilder) Twice() *StubBuilder {
	return b.Times(2)
}

// RespondWith sets status and body together.
func (b *StubBuilder) RespondWith(status int, body any) *StubBuilder {
	return b.WithStatus(status).WithBody(body)
}

// RespondNoContent answers 204 with no body.
func (b *StubBuilder) RespondNoContent() *StubBuilder {
	b.stub.Body = nil
	return b.WithStatus(http.StatusNoContent)
}

// RespondNotFound answers 404 with a JSON error.
func (b *StubBuilder) RespondNotFound() *StubBuilder {
	return b.WithStatus(http.StatusNotFound).WithJSON(map[string]string{"error": "not found"})
}

// RespondServerError answers 500 with a JSON error carrying message.
func (b *StubBuilder) RespondServerError(message string) *StubBuilder {
	return b.WithStatus(http.StatusInternalServerError).WithJSON(map[string]string{"error": message})
}

// Build returns the stubs described by the builder.
func (b *StubBuilder) Build() ([]replay.Stub, error) {
	if b.err != nil {
		return nil, fmt.Errorf("stub %s %s: %w", b.stub.Method, b.stub.URL, b.err)
	}
	st := b.stub
	if st.Body != nil && b.times > 1 {
		st.Body = sync.OnceValue(st.Body)
	}
	out := make([]replay.Stub, b.times)
	for i := range out {
		out[i] = st
		out[i].Headers = st.Headers.Clone()
		out[i].ResponseHeaders = st.ResponseHeaders.Clone()
	}
	return out, nil
}
