package geometry

import "fmt"

// Position is one of the nine symbolic placement keywords.
type Position string

const (
	TopLeft     Position = "top-left"
	Top         Position = "top"
	TopRight    Position = "top-right"
	Left        Position = "left"
	Center      Position = "center"
	Right       Position = "right"
	BottomLeft  Position = "bottom-left"
	Bottom      Position = "bottom"
	BottomRight Position = "bottom-right"
)

// Positions lists the keywords in grid order, row by row.
var Positions = []Position{
	TopLeft, Top, TopRight,
	Left, Center, Right,
	BottomLeft, Bottom, BottomRight,
}

// ParsePosition validates a keyword.
func ParsePosition(s string) (Position, error) {
	p := Position(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	return p, nil
}

// Valid reports whether p is one of the nine keywords.
func (p Position) Valid() bool {
	for _, q := range Positions {
		if p == q {
			return true
		}
	}
	return false
}

// Cell returns the grid row and column of p, or -1, -1 if p is invalid.
func (p Position) Cell() (row, col int) {
	for i, q := range Positions {
		if p == q {
			return i / 3, i % 3
		}
	}
	return -1, -1
}

// PositionAt returns the keyword at a grid cell. Out of range cells clamp.
func PositionAt(row, col int) Position {
	row = max(0, min(2, row))
	col = max(0, min(2, col))
	return Positions[row*3+col]
}

// Offsets are the edge lengths a keyword sets. Unset edges are zero Lengths.
type Offsets struct {
	Top, Right, Bottom, Left Length
}

// Symbolic returns the padded edges for pos. A keyword that centers on an
// axis sets both edges of that axis; an unknown keyword sets nothing.
func Symbolic(pos Position, padding int) Offsets {
	var o Offsets
	pad := Px(padding)

	switch pos {
	case TopLeft, Top, TopRight:
		o.Top = pad
	case BottomLeft, Bottom, BottomRight:
		o.Bottom = pad
	case Left, Center, Right:
		o.Top = pad
		o.Bottom = pad
	}

	switch pos {
	case TopLeft, BottomLeft, Left:
		o.Left = pad
	case TopRight, BottomRight, Right:
		o.Right = pad
	case Top, Center, Bottom:
		o.Left = pad
		o.Right = pad
	}
	return o
}
