package replay

import (
	"net/http"
	"strings"
	"sync"

	"github.com/getmockd/replay/pkg/har"
)

// Stub is a hand-written exchange used instead of a recorded one.
type Stub struct {
	// Method defaults to GET.
	Method string
	// URL is matched like a recorded request URL.
	URL string
	// Headers are request headers, compared by the headers matcher.
	Headers har.Headers

	// Status defaults to 200.
	Status int
	// ResponseHeaders are returned with the response.
	ResponseHeaders har.Headers
	// Body produces the response body. It runs at most once, the first time
	// the stub is served, and its result is reused afterwards.
	Body func() []byte
}

// Bytes returns a body producer for a fixed body.
func Bytes(b []byte) func() []byte {
	return func() []byte { return b }
}

// String returns a body producer for a fixed text body.
func String(s string) func() []byte {
	return func() []byte { return []byte(s) }
}

type stubItem struct {
	stub Stub
	once sync.Once
	resp har.Response
}

func (s *stubItem) request() har.Request {
	method := strings.ToUpper(s.stub.Method)
	if method == "" {
		method = http.MethodGet
	}
	return har.Request{
		Method:      method,
		URL:         s.stub.URL,
		HTTPVersion: "HTTP/1.1",
		Headers:     s.stub.Headers.Clone(),
	}
}

// response materializes the stub on first use.
func (s *stubItem) response() har.Response {
	s.once.Do(func() {
		status := s.stub.Status
		if status == 0 {
			status = http.StatusOK
		}
		var body []byte
		if s.stub.Body != nil {
			body = s.stub.Body()
		}
		s.resp = har.ResponseFromHTTP(&http.Response{
			StatusCode: status,
			Proto:      "HTTP/1.1",
			Header:     s.stub.ResponseHeaders.HTTP(),
		}, body)
	})
	return s.resp
}
