package filter

import (
	"net/url"
	"strings"

	"github.com/getmockd/replay/pkg/har"
)

type queryFilter struct {
	names []string
}

// RedactQueryParams removes query pairs whose key is in names from the
// request URL. The path, the fragment and the remaining pairs are kept
// byte for byte.
func RedactQueryParams(names ...string) Filter {
	return queryFilter{names: append([]string(nil), names...)}
}

func (f queryFilter) Apply(e har.Entry) har.Entry {
	e.Request.URL = f.redactURL(e.Request.URL)
	return e
}

func (f queryFilter) redactURL(raw string) string {
	base, rest, ok := strings.Cut(raw, "?")
	if !ok {
		return raw
	}
	query, fragment, hasFragment := strings.Cut(rest, "#")

	var kept []string
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if !f.redacts(key) {
			kept = append(kept, pair)
		}
	}

	out := base
	if len(kept) > 0 {
		out += "?" + strings.Join(kept, "&")
	}
	if hasFragment {
		out += "#" + fragment
	}
	return out
}

func (f queryFilter) redacts(key string) bool {
	for _, n := range f.names {
		if n == key {
			return true
		}
	}
	return false
}

func (f queryFilter) String() string {
	return string(KindQuery) + ":" + strings.Join(f.names, ",")
}
