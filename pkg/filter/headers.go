package filter

import (
	"strings"

	"github.com/getmockd/replay/pkg/har"
)

type headerFilter struct {
	names []string
}

// RedactHeaders removes headers named in names, compared case-insensitively,
// from both the request and the response.
func RedactHeaders(names ...string) Filter {
	return headerFilter{names: append([]string(nil), names...)}
}

func (f headerFilter) Apply(e har.Entry) har.Entry {
	e.Request.Headers = f.strip(e.Request.Headers)
	e.Response.Headers = f.strip(e.Response.Headers)
	return e
}

func (f headerFilter) strip(headers har.Headers) har.Headers {
	var out har.Headers
	for _, h := range headers {
		if !f.redacts(h.Name) {
			out = append(out, h)
		}
	}
	return out
}

func (f headerFilter) redacts(name string) bool {
	for _, n := range f.names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}

func (f headerFilter) String() string {
	return string(KindHeaders) + ":" + strings.Join(f.names, ",")
}
