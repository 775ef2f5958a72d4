package httpserver

import "strings"

// SplitTarget separates path and query string from a request target
// (e.g. "/path?x=1&y=2"). No percent-decoding is performed.
func SplitTarget(t string) (path string, query string) {
	path = t
	if i := strings.IndexByte(t, '?'); i >= 0 {
		path = t[:i]
		query = t[i+1:]
	}
	return
}
