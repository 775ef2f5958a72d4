// Package config parses and validates the server's command-line
// arguments. It never calls os.Exit — callers decide how to report a
// parse failure.
package config

import (
	"fmt"
	"strconv"

	"http10admit/internal/admission"
)

// Config is the fully validated set of startup parameters.
type Config struct {
	Port      int
	Threads   int
	QueueSize int
	Policy    admission.Policy
}

// Usage is appended to every error ParseArgs returns.
const Usage = "usage: httpd <port> <threads> <queue_size> <policy>\n       policy one of: block, dt, dh, random"

// ParseArgs validates the strict four-positional-argument grammar
// (port, threads, queue_size, policy) and returns the resulting Config.
// It does not consult os.Args itself so it can be exercised directly.
func ParseArgs(args []string) (Config, error) {
	if len(args) != 4 {
		return Config{}, fmt.Errorf("expected 4 arguments, got %d\n%s", len(args), Usage)
	}

	port, err := parsePositiveInt("port", args[0], 1, 65535)
	if err != nil {
		return Config{}, err
	}
	threads, err := parsePositiveInt("threads", args[1], 1, 1<<20)
	if err != nil {
		return Config{}, err
	}
	queueSize, err := parsePositiveInt("queue_size", args[2], 1, 1<<20)
	if err != nil {
		return Config{}, err
	}
	policy, err := admission.ParsePolicy(args[3])
	if err != nil {
		return Config{}, fmt.Errorf("%w\n%s", err, Usage)
	}

	return Config{Port: port, Threads: threads, QueueSize: queueSize, Policy: policy}, nil
}

func parsePositiveInt(name, raw string, min, max int) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer\n%s", name, raw, Usage)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s: %d is out of range [%d, %d]\n%s", name, v, min, max, Usage)
	}
	return v, nil
}
