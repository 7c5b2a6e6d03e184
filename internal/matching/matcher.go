package matching

import (
	"errors"
	"fmt"
	"strings"

	"github.com/getmockd/replay/pkg/har"
)

// Errors returned when building a matcher set.
var (
	ErrEmptyMatcherSet = errors.New("matcher set must contain at least one tag")
	ErrUnknownTag      = errors.New("unknown matcher tag")
)

// Tag names one matching predicate.
type Tag string

// Matcher tags.
const (
	TagMethod  Tag = "method"
	TagPath    Tag = "path"
	TagQuery   Tag = "query"
	TagHeaders Tag = "headers"
	TagBody    Tag = "body"
)

// AllTags lists every tag in canonical order.
var AllTags = []Tag{TagMethod, TagPath, TagQuery, TagHeaders, TagBody}

// IsValid checks if the tag is part of the vocabulary.
func (t Tag) IsValid() bool {
	return t.bit() != 0
}

func (t Tag) bit() Set {
	switch t {
	case TagMethod:
		return 1 << 0
	case TagPath:
		return 1 << 1
	case TagQuery:
		return 1 << 2
	case TagHeaders:
		return 1 << 3
	case TagBody:
		return 1 << 4
	default:
		return 0
	}
}

// Set is an unordered set of tags.
type Set uint8

// DefaultSet is {method, path}.
const DefaultSet = Set(1<<0 | 1<<1)

// NewSet builds a set from tags. Duplicates collapse.
func NewSet(tags ...Tag) (Set, error) {
	var s Set
	for _, t := range tags {
		b := t.bit()
		if b == 0 {
			return 0, fmt.Errorf("%w: %q", ErrUnknownTag, t)
		}
		s |= b
	}
	if s == 0 {
		return 0, ErrEmptyMatcherSet
	}
	return s, nil
}

// MustSet is NewSet that panics on error. Intended for literals in tests
// and package-level variables.
func MustSet(tags ...Tag) Set {
	s, err := NewSet(tags...)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseSet parses a comma or space separated tag list such as "method,path".
func ParseSet(s string) (Set, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '+'
	})
	tags := make([]Tag, 0, len(fields))
	for _, f := range fields {
		tags = append(tags, Tag(strings.ToLower(strings.TrimSpace(f))))
	}
	return NewSet(tags...)
}

// Has reports whether t is in the set.
func (s Set) Has(t Tag) bool {
	b := t.bit()
	return b != 0 && s&b != 0
}

// Without returns the set minus tags. The result may be empty.
func (s Set) Without(tags ...Tag) Set {
	for _, t := range tags {
		s &^= t.bit()
	}
	return s
}

// IsEmpty reports whether no tag is selected.
func (s Set) IsEmpty() bool {
	return s == 0
}

// Tags returns the selected tags in canonical order.
func (s Set) Tags() []Tag {
	out := make([]Tag, 0, len(AllTags))
	for _, t := range AllTags {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Strings returns the selected tag names in canonical order.
func (s Set) Strings() []string {
	tags := s.Tags()
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

// String implements fmt.Stringer, e.g. "method,path".
func (s Set) String() string {
	return strings.Join(s.Strings(), ",")
}

// Matches reports whether candidate satisfies every tag in set against live.
// An empty set never matches.
func Matches(candidate, live har.Request, set Set) bool {
	if set.IsEmpty() {
		return false
	}
	for _, t := range set.Tags() {
		if !matchTag(t, candidate, live) {
			return false
		}
	}
	return true
}

func matchTag(t Tag, candidate, live har.Request) bool {
	switch t {
	case TagMethod:
		return MatchMethod(candidate.Method, live.Method)
	case TagPath:
		return MatchPath(candidate.URL, live.URL)
	case TagQuery:
		return MatchQuery(candidate.URL, live.URL)
	case TagHeaders:
		return MatchHeaders(candidate.Headers, live.Headers)
	case TagBody:
		return MatchBody(candidate.Body(), live.Body())
	default:
		return false
	}
}

// MatchMethod checks if the request method matches.
func MatchMethod(expected, actual string) bool {
	return strings.EqualFold(expected, actual)
}
