// Package httpserver implements just enough HTTP/1.0 to parse a request
// line and headers off a socket and frame a response back onto it. It
// carries no notion of admission, workers, or accounting — those live in
// internal/admission, internal/workerpool, and internal/accounting.
package httpserver

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Request models the minimum needed of an HTTP/1.0 request. Headers are
// normalized to lower-case; duplicate keys are not supported (last wins).
type Request struct {
	Method string
	Target string
	Proto  string
	Header map[string]string
}

var (
	// ErrBadRequest covers malformed input: lines without CRLF, a
	// malformed request line, headers without ":", or a missing blank
	// line closing the header block.
	ErrBadRequest = errors.New("malformed request (CRLF/fields)")
	// ErrBadProto is returned when the protocol version isn't HTTP/1.0.
	ErrBadProto = errors.New("unsupported protocol (HTTP/1.0 only)")
)

// ParseRequest reads a strict HTTP/1.0 request from r:
//
//	request-line: "METHOD SP target SP HTTP/1.0 CRLF"
//	0..N header-lines terminated by CRLF
//	a blank CRLF line closing the headers
func ParseRequest(r *bufio.Reader) (*Request, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(line, "\r\n") {
		return nil, ErrBadRequest
	}
	parts := strings.Split(strings.TrimRight(line, "\r\n"), " ")
	if len(parts) != 3 {
		return nil, ErrBadRequest
	}
	method, target, proto := parts[0], parts[1], parts[2]
	if proto != "HTTP/1.0" {
		return nil, ErrBadProto
	}

	h := map[string]string{}
	for {
		l, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil, ErrBadRequest
			}
			return nil, err
		}
		if l == "\r\n" {
			break
		}
		if !strings.HasSuffix(l, "\r\n") {
			return nil, ErrBadRequest
		}
		l = strings.TrimRight(l, "\r\n")
		kv := strings.SplitN(l, ":", 2)
		if len(kv) != 2 {
			return nil, ErrBadRequest
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])
		// Tolerate a stray leading "<colon><space>" inside the value
		// itself, the same quirk this server's own Stat-* headers are
		// allowed to carry on the wire (see accounting.ParseStatValue).
		val = strings.TrimPrefix(val, ": ")
		h[key] = val
	}

	return &Request{Method: method, Target: target, Proto: proto, Header: h}, nil
}
