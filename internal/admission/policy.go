package admission

import "fmt"

// Policy is the overload policy consulted whenever an arrival finds
// occupancy == capacity. It is selected once at startup and never
// changes for the life of a Queue.
type Policy int

const (
	// Block suspends the producer until a slot frees; nothing is dropped.
	Block Policy = iota
	// DropTail rejects the newly arrived connection.
	DropTail
	// DropHead evicts the oldest pending connection to admit the new one.
	DropHead
	// DropRandom evicts a uniformly random subset of the pending set.
	DropRandom
)

func (p Policy) String() string {
	switch p {
	case Block:
		return "block"
	case DropTail:
		return "dt"
	case DropHead:
		return "dh"
	case DropRandom:
		return "random"
	default:
		return "unknown"
	}
}

// ParsePolicy maps the CLI spelling ("block", "dt", "dh", "random") onto
// a Policy value.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "block":
		return Block, nil
	case "dt":
		return DropTail, nil
	case "dh":
		return DropHead, nil
	case "random":
		return DropRandom, nil
	default:
		return 0, fmt.Errorf("unknown policy %q (want block|dt|dh|random)", s)
	}
}
