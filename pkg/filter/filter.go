// Package filter redacts sensitive fields from recorded exchanges.
//
// Filters are pure: they never mutate their input, never fail and are
// idempotent. They run before an exchange is persisted and on both sides of
// every comparison, so redacted fields can neither leak into an archive nor
// block a match.
package filter

import (
	"fmt"
	"strings"

	"github.com/getmockd/replay/pkg/har"
)

// RedactValue replaces redacted body fields.
const RedactValue = "[REDACTED]"

// DefaultHeaders are headers worth redacting in almost every suite.
var DefaultHeaders = []string{
	"Authorization",
	"Cookie",
	"Set-Cookie",
	"X-API-Key",
	"X-Auth-Token",
}

// Kind identifies a filter type in specs such as "headers:Authorization".
type Kind string

// Filter kinds.
const (
	KindHeaders Kind = "headers"
	KindQuery   Kind = "query"
	KindBody    Kind = "body"
)

// Filter transforms an entry.
type Filter interface {
	// Apply returns a redacted copy of e.
	Apply(e har.Entry) har.Entry
	// String returns the spec that Parse turns back into this filter.
	String() string
}

// Apply runs filters in order over e.
func Apply(filters []Filter, e har.Entry) har.Entry {
	for _, f := range filters {
		e = f.Apply(e)
	}
	return e
}

// ApplyRequest runs filters over a request on its own. Response-side
// redaction does not apply.
func ApplyRequest(filters []Filter, r har.Request) har.Request {
	if len(filters) == 0 {
		return r
	}
	return Apply(filters, har.Entry{Request: r}).Request
}

// Parse builds a filter from a spec of the form "<kind>:<name>[,<name>...]",
// for example "headers:Authorization,Cookie", "query:api_key" or
// "body:$.password".
func Parse(spec string) (Filter, error) {
	kind, list, ok := strings.Cut(spec, ":")
	if !ok {
		return nil, fmt.Errorf("invalid filter %q: expected <kind>:<names>", spec)
	}
	var names []string
	for _, n := range strings.Split(list, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("invalid filter %q: no names given", spec)
	}

	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case KindHeaders:
		return RedactHeaders(names...), nil
	case KindQuery:
		return RedactQueryParams(names...), nil
	case KindBody:
		return RedactBodyFields(names...)
	default:
		return nil, fmt.Errorf("invalid filter %q: unknown kind %q (want headers, query or body)", spec, kind)
	}
}

// ParseAll parses every spec, stopping at the first error.
func ParseAll(specs []string) ([]Filter, error) {
	out := make([]Filter, 0, len(specs))
	for _, s := range specs {
		f, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Strings returns the spec of each filter.
func Strings(filters []Filter) []string {
	out := make([]string, len(filters))
	for i, f := range filters {
		out[i] = f.String()
	}
	return out
}
