package matching

import (
	"fmt"
	"strings"

	"github.com/getmockd/replay/pkg/har"
)

// TagResult describes whether a single tag matched.
type TagResult struct {
	Tag      Tag    `json:"tag"`
	Matched  bool   `json:"matched"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// Result is the per-tag evaluation of one candidate.
type Result struct {
	Tags []TagResult `json:"tags"`
}

// Matched reports whether every evaluated tag matched.
func (r Result) Matched() bool {
	for _, t := range r.Tags {
		if !t.Matched {
			return false
		}
	}
	return len(r.Tags) > 0
}

// Passed counts the matching tags.
func (r Result) Passed() int {
	n := 0
	for _, t := range r.Tags {
		if t.Matched {
			n++
		}
	}
	return n
}

// Failed returns the tags that did not match, in canonical order.
func (r Result) Failed() []Tag {
	var out []Tag
	for _, t := range r.Tags {
		if !t.Matched {
			out = append(out, t.Tag)
		}
	}
	return out
}

// Reason summarizes the failing tags, e.g. `path: expected "/a", got "/b"`.
func (r Result) Reason() string {
	var parts []string
	for _, t := range r.Tags {
		if t.Matched {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: expected %q, got %q", t.Tag, t.Expected, t.Actual))
	}
	return strings.Join(parts, "; ")
}

// Breakdown evaluates every tag in set without short-circuiting.
func Breakdown(candidate, live har.Request, set Set) Result {
	var res Result
	for _, t := range set.Tags() {
		tr := TagResult{Tag: t, Matched: matchTag(t, candidate, live)}
		if !tr.Matched {
			tr.Expected, tr.Actual = describe(t, candidate, live)
		}
		res.Tags = append(res.Tags, tr)
	}
	return res
}

func describe(t Tag, candidate, live har.Request) (string, string) {
	switch t {
	case TagMethod:
		return candidate.Method, live.Method
	case TagPath:
		return PathOf(candidate.URL), PathOf(live.URL)
	case TagQuery:
		return parseQuery(candidate.URL).Encode(), parseQuery(live.URL).Encode()
	case TagHeaders:
		missing := MissingHeaders(candidate.Headers, live.Headers)
		var exp, act []string
		for _, h := range missing {
			exp = append(exp, h.Name+": "+h.Value)
			got := live.Headers.Get(h.Name)
			if got == "" {
				got = "(missing)"
			}
			act = append(act, h.Name+": "+got)
		}
		return strings.Join(exp, ", "), strings.Join(act, ", ")
	case TagBody:
		return truncate(string(candidate.Body()), 200), truncate(string(live.Body()), 200)
	default:
		return "", ""
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
