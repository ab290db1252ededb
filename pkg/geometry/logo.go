package geometry

import "fmt"

// Box is the final logo size together with the scale that produced it.
type Box struct {
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Scale int     `json:"size"`
}

// ClampScale bounds a logo scale percentage to [MinLogoScale, MaxLogoScale].
func ClampScale(pct int) int {
	return max(MinLogoScale, min(MaxLogoScale, pct))
}

// LogoBox scales a sourceW x sourceH logo by scalePercent. The bounding box is
// scalePercent of the source on each axis; the result is the source rescaled
// uniformly to fit that box.
func LogoBox(sourceW, sourceH, scalePercent int) (Box, error) {
	if sourceW <= 0 || sourceH <= 0 {
		return Box{}, fmt.Errorf("%w: %dx%d", ErrEmptySource, sourceW, sourceH)
	}
	scale := ClampScale(scalePercent)

	sw, sh := float64(sourceW), float64(sourceH)
	boxW := float64(scale) / 100 * sw
	boxH := float64(scale) / 100 * sh

	f := min(boxW/sw, boxH/sh)
	return Box{W: sw * f, H: sh * f, Scale: scale}, nil
}
