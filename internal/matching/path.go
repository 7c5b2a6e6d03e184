package matching

import (
	"net/url"
	"strings"
)

// MatchPath compares the path components of two URLs by exact equality.
// An empty path and "/" are the same path.
func MatchPath(expectedURL, actualURL string) bool {
	return PathOf(expectedURL) == PathOf(actualURL)
}

// PathOf returns the path component of rawURL. Unparsable URLs fall back to
// everything before the query.
func PathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		p, _, _ := strings.Cut(rawURL, "?")
		return p
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
