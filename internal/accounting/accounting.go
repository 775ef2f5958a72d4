// Package accounting renders the six Stat-* response headers every
// request — success or error — carries, and the tolerant parser for
// reading them back (see spec's Open Question on a leading "<colon><space>"
// inside a header value).
package accounting

import (
	"strconv"
	"strings"
	"time"
)

const (
	HeaderArrival  = "Stat-Req-Arrival"
	HeaderDispatch = "Stat-Req-Dispatch"
	HeaderThreadID = "Stat-Thread-Id"
	HeaderCount    = "Stat-Thread-Count"
	HeaderStatic   = "Stat-Thread-Static"
	HeaderDynamic  = "Stat-Thread-Dynamic"
)

// Snapshot is the per-response accounting record: when the connection was
// accepted, how long it waited before a worker started handling it, which
// worker handled it, and that worker's counters after its contribution
// (the unchanged pre-request counters for error responses).
type Snapshot struct {
	Arrival      time.Time
	DispatchTime time.Duration
	ThreadID     int
	Total        uint64
	Static       uint64
	Dynamic      uint64
}

// Headers renders s as the six canonical Stat-* headers, decimal-only, as
// spec recommends on the write side.
func Headers(s Snapshot) map[string]string {
	return map[string]string{
		HeaderArrival:  formatMillis(s.Arrival),
		HeaderDispatch: strconv.FormatFloat(float64(s.DispatchTime.Microseconds())/1000, 'f', -1, 64),
		HeaderThreadID: strconv.Itoa(s.ThreadID),
		HeaderCount:    strconv.FormatUint(s.Total, 10),
		HeaderStatic:   strconv.FormatUint(s.Static, 10),
		HeaderDynamic:  strconv.FormatUint(s.Dynamic, 10),
	}
}

func formatMillis(t time.Time) string {
	ms := float64(t.UnixNano()) / 1e6
	return strconv.FormatFloat(ms, 'f', -1, 64)
}

// ParseStatValue parses a Stat-* header value that may carry the
// tolerated leading "<colon><space>" quirk the original source encodes
// (e.g. a raw wire value of ": 3" meaning "3").
func ParseStatValue(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, ": ")
	return strconv.ParseFloat(raw, 64)
}
