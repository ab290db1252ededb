// Package color converts between hex color strings and four-channel RGBA values.
//
// Two alpha conventions are in play and every value carries the one it uses:
//
//   - [Web]: alpha 0-255, 255 is fully opaque (hex strings, CSS)
//   - [Raster]: alpha 0-127, 0 is fully opaque (palette-based raster drawing)
//
// Hex strings are always written in the web convention as #RRGGBBAA.
//
// # Usage
//
//	v, err := color.Decode("#66666666", color.Raster)
//	if err != nil {
//	    // malformed input
//	}
//	fmt.Println(v.A)             // 76
//	fmt.Println(color.Encode(v)) // #66666666
package color

import (
	"errors"
	"fmt"
	stdcolor "image/color"
	"math"
	"strconv"
	"strings"
)

// Convention selects how the alpha channel of a [Value] is interpreted.
type Convention int

const (
	// Web alpha: 0 transparent, 255 opaque.
	Web Convention = iota
	// Raster alpha: 0 opaque, 127 transparent.
	Raster
)

// Alpha bounds for each convention.
const (
	MaxWebAlpha    = 255
	MaxRasterAlpha = 127
)

// ErrInvalid is returned for hex strings that are not #RGB, #RGBA, #RRGGBB or #RRGGBBAA.
var ErrInvalid = errors.New("invalid hex color")

func (c Convention) String() string {
	switch c {
	case Web:
		return "web"
	case Raster:
		return "raster"
	default:
		return fmt.Sprintf("Convention(%d)", int(c))
	}
}

// Value is an RGBA tuple. A is interpreted according to Convention.
type Value struct {
	R, G, B, A uint8
	Convention Convention
}

// In returns v with its alpha channel converted to conv.
func (v Value) In(conv Convention) Value {
	if v.Convention == conv {
		return v
	}
	out := v
	out.Convention = conv
	switch conv {
	case Raster:
		out.A = ToRaster(v.A)
	default:
		out.A = ToWeb(v.A)
	}
	return out
}

// NRGBA returns the value as a non-premultiplied image/color value.
func (v Value) NRGBA() stdcolor.NRGBA {
	w := v.In(Web)
	return stdcolor.NRGBA{R: w.R, G: w.G, B: w.B, A: w.A}
}

// String returns the #RRGGBBAA encoding.
func (v Value) String() string {
	return Encode(v)
}

// Decode parses a hex color and returns it in the requested alpha convention.
// Three and four digit forms are expanded by digit duplication; a missing
// alpha channel means fully opaque. Seven digit input is rejected.
func Decode(hex string, conv Convention) (Value, error) {
	s := strings.ToLower(strings.TrimSpace(hex))
	if !strings.HasPrefix(s, "#") {
		return Value{}, fmt.Errorf("%w: %q: missing #", ErrInvalid, hex)
	}
	digits := s[1:]

	switch len(digits) {
	case 3, 4:
		var b strings.Builder
		for _, r := range digits {
			b.WriteRune(r)
			b.WriteRune(r)
		}
		digits = b.String()
	case 6, 8:
	default:
		return Value{}, fmt.Errorf("%w: %q: %d digits", ErrInvalid, hex, len(digits))
	}
	if len(digits) == 6 {
		digits += "ff"
	}

	raw, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalid, hex)
	}
	v := Value{
		R:          uint8(raw >> 24),
		G:          uint8(raw >> 16),
		B:          uint8(raw >> 8),
		A:          uint8(raw),
		Convention: Web,
	}
	return v.In(conv), nil
}

// Encode writes v as an upper-case #RRGGBBAA string in the web convention.
func Encode(v Value) string {
	w := v.In(Web)
	return fmt.Sprintf("#%02X%02X%02X%02X", w.R, w.G, w.B, w.A)
}

// Normalize decodes and re-encodes hex, expanding short forms.
func Normalize(hex string) (string, error) {
	v, err := Decode(hex, Web)
	if err != nil {
		return "", err
	}
	return Encode(v), nil
}

// ToRaster converts a web alpha (255 opaque) to a raster alpha (0 opaque).
// The result is rounded to the nearest step, not floored, so every raster
// alpha survives ToRaster(ToWeb(r)).
func ToRaster(web uint8) uint8 {
	r := math.Round(float64(MaxWebAlpha-int(web)) * MaxRasterAlpha / MaxWebAlpha)
	return uint8(clamp(int(r), 0, MaxRasterAlpha))
}

// ToWeb converts a raster alpha to a web alpha, rounded like [ToRaster].
// Raster input above 127 is treated as 127.
func ToWeb(raster uint8) uint8 {
	r := clamp(int(raster), 0, MaxRasterAlpha)
	w := MaxWebAlpha - int(math.Round(float64(r)*MaxWebAlpha/MaxRasterAlpha))
	return uint8(clamp(w, 0, MaxWebAlpha))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
