package har

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// HeadersFromHTTP flattens an http.Header into a list sorted by name, keeping
// the order of values for each name.
func HeadersFromHTTP(h http.Header) Headers {
	if len(h) == 0 {
		return nil
	}
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	var out Headers
	for _, name := range names {
		for _, value := range h[name] {
			out = append(out, Header{Name: name, Value: value})
		}
	}
	return out
}

// HTTP converts the list back into an http.Header. Names are canonicalized;
// duplicate names become multiple values in list order.
func (h Headers) HTTP() http.Header {
	out := make(http.Header, len(h))
	for _, hdr := range h {
		out.Add(hdr.Name, hdr.Value)
	}
	return out
}

// RequestFromHTTP records req. body is the request body already read by the
// caller; req.Body is not touched.
func RequestFromHTTP(req *http.Request, body []byte) Request {
	r := Request{
		Method:      strings.ToUpper(req.Method),
		URL:         req.URL.String(),
		HTTPVersion: protoOrDefault(req.Proto),
		Headers:     HeadersFromHTTP(req.Header),
		BodySize:    int64(len(body)),
	}
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	if len(body) > 0 {
		text, enc := encodeText(body)
		r.PostData = &PostData{
			MimeType: req.Header.Get("Content-Type"),
			Text:     text,
			Encoding: enc,
		}
	}
	return r
}

// ResponseFromHTTP records resp with its fully read body.
func ResponseFromHTTP(resp *http.Response, body []byte) Response {
	text, enc := encodeText(body)
	return Response{
		Status:      resp.StatusCode,
		StatusText:  statusText(resp),
		HTTPVersion: protoOrDefault(resp.Proto),
		Headers:     HeadersFromHTTP(resp.Header),
		Content: Content{
			Size:     int64(len(body)),
			MimeType: resp.Header.Get("Content-Type"),
			Text:     text,
			Encoding: enc,
		},
		BodySize: int64(len(body)),
	}
}

// HTTP synthesizes an *http.Response for req from the recorded response.
func (r Response) HTTP(req *http.Request) *http.Response {
	body := r.Body()
	major, minor, ok := http.ParseHTTPVersion(r.HTTPVersion)
	proto := r.HTTPVersion
	if !ok {
		major, minor, proto = 1, 1, "HTTP/1.1"
	}

	text := r.StatusText
	if text == "" {
		text = http.StatusText(r.Status)
	}

	header := r.Headers.HTTP()
	length := int64(len(body))
	switch {
	case hasBody(req, r.Status):
		// Filters may have changed the body since it was recorded.
		if header.Get("Content-Length") != "" {
			header.Set("Content-Length", strconv.Itoa(len(body)))
		}
	case req != nil && req.Method == http.MethodHead:
		if n, err := strconv.ParseInt(header.Get("Content-Length"), 10, 64); err == nil && n >= 0 {
			length = n
		}
	}

	resp := &http.Response{
		Status:        strings.TrimSpace(fmt.Sprintf("%d %s", r.Status, text)),
		StatusCode:    r.Status,
		Proto:         proto,
		ProtoMajor:    major,
		ProtoMinor:    minor,
		Header:        header,
		ContentLength: length,
		Request:       req,
	}
	if len(body) == 0 {
		resp.Body = http.NoBody
	} else {
		resp.Body = io.NopCloser(bytes.NewReader(body))
	}
	return resp
}

// hasBody reports whether a response to req with status carries a body.
// HEAD responses and 1xx, 204 and 304 keep the recorded Content-Length.
func hasBody(req *http.Request, status int) bool {
	if req != nil && req.Method == http.MethodHead {
		return false
	}
	return status >= 200 && status != http.StatusNoContent && status != http.StatusNotModified
}

func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, prefix)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func protoOrDefault(proto string) string {
	if proto == "" {
		return "HTTP/1.1"
	}
	return proto
}
