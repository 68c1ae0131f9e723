package model

import "fmt"

// Onset is a detected moment of sudden spectral energy increase.
// Timestamp is in seconds from the start of the track.
type Onset struct {
	Timestamp float64
}

// Channel selects which shield receives a note. The numeric values are the
// ones used by level descriptors.
type Channel int

const (
	Left  Channel = 0
	Right Channel = 1
)

func (c Channel) String() string {
	switch c {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Valid reports whether c is Left or Right.
func (c Channel) Valid() bool {
	return c == Left || c == Right
}

// Note is a single positioned gameplay event.
// X and Y are conceptually in [-1, 1] but may exceed it slightly.
type Note struct {
	Timestamp float64
	Channel   Channel
	X         float32
	Y         float32
}
