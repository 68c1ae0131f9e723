package level

import (
	"github.com/himanishpuri/Rifft/internal/model"
)

// Generator turns onsets into positioned notes, one onset at a time.
type Generator struct {
	motion *Motion
}

// NewGenerator returns a generator that draws every random value from src.
func NewGenerator(cfg Config, src Source) (*Generator, error) {
	m, err := NewMotion(cfg, src)
	if err != nil {
		return nil, err
	}
	return &Generator{motion: m}, nil
}

// Mode is the mode that produced the most recent notes.
func (g *Generator) Mode() Mode { return g.motion.Mode() }

// Next advances the motion model to o and returns the notes for it.
// Onsets must be fed in timestamp order.
func (g *Generator) Next(o model.Onset) ([]model.Note, error) {
	pos, err := g.motion.Step(o.Timestamp)
	if err != nil {
		return nil, err
	}

	var ch model.Channel
	switch g.motion.Mode() {
	case LeftOnly:
		ch = model.Left
	case RightOnly:
		ch = model.Right
	case FullSymmetry:
		ch = model.Left
		if g.motion.Parity() {
			ch = model.Right
		}
	}
	return []model.Note{NoteAt(ch, o.Timestamp, pos)}, nil
}

// NoteAt maps a motion position onto ch. The left channel keeps y and puts
// x in [-1, 0]; the right channel mirrors both axes.
func NoteAt(ch model.Channel, t float64, p Vec2) model.Note {
	sign := 1.0
	if ch == model.Right {
		sign = -1.0
	}
	return model.Note{
		Timestamp: t,
		Channel:   ch,
		X:         float32((p.X*0.5 - 0.5) * sign),
		Y:         float32(p.Y * sign),
	}
}

// Generate runs a fresh generator over onsets.
func Generate(cfg Config, src Source, onsets []model.Onset) ([]model.Note, error) {
	g, err := NewGenerator(cfg, src)
	if err != nil {
		return nil, err
	}
	notes := make([]model.Note, 0, len(onsets))
	for _, o := range onsets {
		n, err := g.Next(o)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n...)
	}
	return notes, nil
}
