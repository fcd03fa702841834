package valueobjects

import (
	"errors"
	"math"
)

// Position is a point on the builder canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPosition rejects NaN and infinite coordinates, which the canvas cannot place.
func NewPosition(x, y float64) (Position, error) {
	if !isFinite(x) || !isFinite(y) {
		return Position{}, errors.New("position coordinates must be finite")
	}
	return Position{X: x, Y: y}, nil
}

// Validate checks that the coordinates are finite.
func (p Position) Validate() error {
	_, err := NewPosition(p.X, p.Y)
	return err
}

// Dimensions is the measured size a renderer reports for a node. The graph
// stores it verbatim and never reads it.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
