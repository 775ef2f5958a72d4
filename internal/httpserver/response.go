package httpserver

import (
	"fmt"
	"io"
	"maps"
	"time"
)

// WriteResponse composes an HTTP/1.0 response including Content-Length
// and Connection: close. extra headers (accounting Stat-* headers, in
// this server's case) are merged in, overriding the standard set on key
// collision.
func WriteResponse(w io.Writer, status int, contentType string, body []byte, extra map[string]string) error {
	headers := map[string]string{
		"Date":           time.Now().UTC().Format(time.RFC1123),
		"Content-Type":   contentType,
		"Content-Length": fmt.Sprintf("%d", len(body)),
		"Connection":     "close",
		"Server":         "http10admit/1.0",
	}
	if extra != nil {
		maps.Copy(headers, extra)
	}

	if _, err := io.WriteString(w, fmt.Sprintf("HTTP/1.0 %d %s\r\n", status, statusText(status))); err != nil {
		return err
	}
	for k, v := range headers {
		if _, err := io.WriteString(w, fmt.Sprintf("%s: %s\r\n", k, v)); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

func statusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 400:
		return "Bad Request"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	case 503:
		return "Service Unavailable"
	default:
		return "OK"
	}
}
