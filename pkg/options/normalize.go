package options

import (
	"regexp"
	"strconv"
	"strings"
)

// FontWeight bounds and default.
const (
	DefaultFontWeight = 400
	MinFontWeight     = 100
	MaxFontWeight     = 800
)

// Font styles.
const (
	FontStyleNormal = "normal"
	FontStyleItalic = "italic"
)

// ShadowType is how the shadow is drawn, derived from offset markers.
type ShadowType string

const (
	ShadowOpen     ShadowType = "open"
	ShadowSolid    ShadowType = "solid"
	ShadowGradient ShadowType = "gradient"
)

var fontWeightNames = map[string]int{
	"thin":       100,
	"hairline":   100,
	"extralight": 200,
	"ultralight": 200,
	"light":      300,
	"normal":     400,
	"regular":    400,
	"book":       400,
	"medium":     500,
	"semibold":   600,
	"demibold":   600,
	"bold":       700,
	"extrabold":  800,
	"ultrabold":  800,
	"black":      900,
	"heavy":      900,
}

// FontWeight normalizes a numeric or keyword weight to a multiple of 100 in
// [100, 800]. Zero, negative or unknown input yields 400.
func FontWeight(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	n, ok := leadingInt(s)
	if !ok || n == 0 {
		n = fontWeightNames[strings.NewReplacer("-", "", " ", "").Replace(s)]
	}
	n = n / 100 * 100
	if n <= 0 {
		return DefaultFontWeight
	}
	return min(n, MaxFontWeight)
}

// FontStyle returns "italic" for italic input and "normal" for anything else.
func FontStyle(s string) string {
	if strings.EqualFold(strings.TrimSpace(s), FontStyleItalic) {
		return FontStyleItalic
	}
	return FontStyleNormal
}

var (
	solidMarker    = regexp.MustCompile(`\d+S`)
	gradientMarker = regexp.MustCompile(`\d+G`)
)

// ShadowTypeOf inspects raw shadow offsets for a trailing S (solid) or
// G (gradient) marker. Later offsets take precedence; G beats S.
func ShadowTypeOf(offsets ...string) ShadowType {
	t := ShadowOpen
	for _, o := range offsets {
		if solidMarker.MatchString(o) {
			t = ShadowSolid
		}
		if gradientMarker.MatchString(o) {
			t = ShadowGradient
		}
	}
	return t
}

// Offset reads the signed pixel value at the start of a raw offset such as
// "-2" or "3S". Unparseable input is 0.
func Offset(s string) int {
	n, _ := leadingInt(strings.TrimSpace(s))
	return n
}

// Truthy reports whether a stored checkbox value means "on".
func Truthy(s string) bool {
	b, _ := parseBool(s)
	return b
}

// parseBool reads checkbox values. ok is false for unrecognized input.
func parseBool(s string) (value, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes", "1", "true":
		return true, true
	case "", "off", "no", "0", "false":
		return false, true
	}
	return false, false
}

// leadingInt parses an optionally signed run of digits at the start of s.
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
