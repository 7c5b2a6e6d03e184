package matching

import "bytes"

// MatchBody compares request bodies byte for byte. A nil body equals an
// empty body and nothing else.
func MatchBody(expected, actual []byte) bool {
	return bytes.Equal(expected, actual)
}
