// Package matching decides whether a recorded request answers a live one.
//
// Matching is driven by a Set of tags drawn from a closed vocabulary:
//
//   - method: case-insensitive method equality
//   - path: exact equality of the URL path (scheme, host and query ignored)
//   - query: the query strings parsed into key/value multisets are equal
//   - headers: every recorded header appears on the live request with the
//     same value; extra live headers are ignored
//   - body: byte-for-byte equality of the request bodies
//
// A request matches when every tag in the set holds. Sets are never empty;
// NewSet and ParseSet reject an empty tag list because it would match every
// request.
//
// Breakdown evaluates every tag without short-circuiting so callers can
// report which tags failed for the closest candidate.
package matching
