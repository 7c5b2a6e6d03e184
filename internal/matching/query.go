package matching

import (
	"net/url"
	"strings"
)

// MatchQuery compares the query strings of two URLs as multisets of
// key/value pairs. Order is irrelevant; duplicate pairs count with
// multiplicity.
func MatchQuery(expectedURL, actualURL string) bool {
	expected := queryPairs(expectedURL)
	actual := queryPairs(actualURL)
	if len(expected) != len(actual) {
		return false
	}
	for pair, n := range expected {
		if actual[pair] != n {
			return false
		}
	}
	return true
}

// queryPairs counts each key/value pair of the URL's query.
func queryPairs(rawURL string) map[string]int {
	values := parseQuery(rawURL)
	pairs := make(map[string]int)
	for key, vals := range values {
		for _, v := range vals {
			pairs[key+"\x00"+v]++
		}
	}
	return pairs
}

// parseQuery tolerates malformed pairs; whatever parses is kept.
func parseQuery(rawURL string) url.Values {
	raw := ""
	if u, err := url.Parse(rawURL); err == nil {
		raw = u.RawQuery
	} else if _, q, ok := strings.Cut(rawURL, "?"); ok {
		raw = q
	}
	values, _ := url.ParseQuery(raw)
	return values
}
