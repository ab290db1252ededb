// Package geometry turns symbolic placement into pixel geometry on the output canvas.
//
// All functions are pure. The three building blocks are:
//
//   - [Symbolic]: a [Position] keyword to padded edge offsets
//   - [ResolvePosition]: edge offsets (pixels or percentages) to absolute
//     pixels plus vertical and horizontal alignment
//   - [LogoBox]: logo scale percentage to an aspect-preserving box
//
// # Percentages
//
// Percentages resolve against the canvas height for top/bottom and the canvas
// width for left/right. Top and left round down, bottom and right round up so
// adjacent areas never leave a one pixel gap.
package geometry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Canvas and placement defaults.
const (
	// DefaultWidth is the output image width in pixels.
	DefaultWidth = 1200

	// DefaultHeight is the output image height in pixels.
	DefaultHeight = 630

	// Padding is the edge distance applied by symbolic positions.
	Padding = 40

	// MinLogoScale and MaxLogoScale bound the logo scale percentage.
	MinLogoScale = 10
	MaxLogoScale = 200
)

var (
	// ErrInvalidLength is returned by [ParseLength] for malformed input.
	ErrInvalidLength = errors.New("invalid length")

	// ErrInvalidPosition is returned by [ParsePosition] for unknown keywords.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrEmptySource is returned by [LogoBox] when the source has no area.
	ErrEmptySource = errors.New("source image has zero width or height")
)

// Canvas is the drawing surface size.
type Canvas struct {
	Width  int `json:"width" toml:"width"`
	Height int `json:"height" toml:"height"`
}

// DefaultCanvas returns the 1200x630 output canvas.
func DefaultCanvas() Canvas {
	return Canvas{Width: DefaultWidth, Height: DefaultHeight}
}

// =============================================================================
// Lengths
// =============================================================================

// Length is one edge offset. The zero value is unset.
type Length struct {
	Value   int
	Percent bool
	Set     bool
}

// Px returns a pixel length.
func Px(n int) Length { return Length{Value: n, Set: true} }

// Pct returns a percentage length.
func Pct(n int) Length { return Length{Value: n, Percent: true, Set: true} }

// String formats the length the way [ParseLength] reads it.
func (l Length) String() string {
	switch {
	case !l.Set:
		return "null"
	case l.Percent:
		return strconv.Itoa(l.Value) + "%"
	default:
		return strconv.Itoa(l.Value)
	}
}

// ParseLength reads "", "null", "NN" or "NN%". Empty, "null" and a literal 0
// are unset; "0%" is a set length of zero.
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" || s == "0" {
		return Length{}, nil
	}
	pct := strings.HasSuffix(s, "%")
	n, err := strconv.Atoi(strings.TrimSuffix(s, "%"))
	if err != nil || n < 0 {
		return Length{}, fmt.Errorf("%w: %q", ErrInvalidLength, s)
	}
	return Length{Value: n, Percent: pct, Set: true}, nil
}

// =============================================================================
// Alignment
// =============================================================================

// VAlign is the vertical anchor derived from which edges are set.
type VAlign string

// HAlign is the horizontal anchor derived from which edges are set.
type HAlign string

const (
	VAlignTop    VAlign = "top"
	VAlignCenter VAlign = "center"
	VAlignBottom VAlign = "bottom"

	HAlignLeft   HAlign = "left"
	HAlignCenter HAlign = "center"
	HAlignRight  HAlign = "right"
)

// Placement is a resolved area. Nil edges are unconstrained.
type Placement struct {
	Top    *int   `json:"top"`
	Right  *int   `json:"right"`
	Bottom *int   `json:"bottom"`
	Left   *int   `json:"left"`
	VAlign VAlign `json:"valign"`
	HAlign HAlign `json:"halign"`
}

// ResolvePosition converts four edge lengths to pixels on c and derives the
// alignment: center when both edges of an axis are set, otherwise the set
// edge, falling back to bottom and right when neither is set.
func ResolvePosition(top, right, bottom, left Length, c Canvas) Placement {
	p := Placement{
		Top:    resolve(top, c.Height, false),
		Right:  resolve(right, c.Width, true),
		Bottom: resolve(bottom, c.Height, true),
		Left:   resolve(left, c.Width, false),
	}

	switch {
	case p.Top != nil && p.Bottom != nil:
		p.VAlign = VAlignCenter
	case p.Top != nil:
		p.VAlign = VAlignTop
	default:
		p.VAlign = VAlignBottom
	}

	switch {
	case p.Left != nil && p.Right != nil:
		p.HAlign = HAlignCenter
	case p.Left != nil:
		p.HAlign = HAlignLeft
	default:
		p.HAlign = HAlignRight
	}
	return p
}

// Resolve places a symbolic position on c.
func Resolve(pos Position, padding int, c Canvas) Placement {
	o := Symbolic(pos, padding)
	return ResolvePosition(o.Top, o.Right, o.Bottom, o.Left, c)
}

func resolve(l Length, span int, ceil bool) *int {
	if !l.Set {
		return nil
	}
	v := l.Value
	if l.Percent {
		if ceil {
			v = (l.Value*span + 99) / 100
		} else {
			v = l.Value * span / 100
		}
	}
	v = max(v, 0)
	return &v
}
