package options

import (
	"fmt"
)

// ShadowMode selects how text shadows are configured.
type ShadowMode string

const (
	// ShadowOff removes all shadow options.
	ShadowOff ShadowMode = "off"
	// ShadowSimple exposes a single on/off switch with a fixed shadow.
	ShadowSimple ShadowMode = "simple"
	// ShadowOn exposes color and offsets.
	ShadowOn ShadowMode = "on"
)

// Simple shadow presets.
const (
	SimpleShadowColor    = "#555555DD"
	SimpleShadowDisabled = "#00000000"
	SimpleShadowLeft     = -2
	SimpleShadowTop      = 2
)

// Features are the flags that remove option keys from every context.
type Features struct {
	Stroke   bool       `toml:"stroke" json:"stroke"`
	Shadow   ShadowMode `toml:"shadow" json:"shadow"`
	MetaText bool       `toml:"meta_text" json:"meta_text"`
	MetaLogo bool       `toml:"meta_logo" json:"meta_logo"`
}

// DefaultFeatures returns stroke off, simple shadows and no per-entity text
// or logo styling.
func DefaultFeatures() Features {
	return Features{Shadow: ShadowSimple}
}

// SetDefaults fills unset fields.
func (f *Features) SetDefaults() {
	if f.Shadow == "" {
		f.Shadow = ShadowSimple
	}
}

// Validate checks the shadow mode.
func (f Features) Validate() error {
	switch f.Shadow {
	case "", ShadowOff, ShadowSimple, ShadowOn:
		return nil
	}
	return fmt.Errorf("invalid shadow mode %q (want off, simple or on)", f.Shadow)
}

// removed lists, per context, the keys disabled by f.
func (f Features) removed() map[Context]map[Key]bool {
	rm := map[Context]map[Key]bool{Admin: {}, Meta: {}}
	both := func(keys ...Key) {
		for _, k := range keys {
			rm[Admin][k] = true
			rm[Meta][k] = true
		}
	}

	if !f.Stroke {
		both(KeyStroke, KeyStrokeColor)
	}
	if !f.MetaLogo {
		rm[Meta][KeyLogoPosition] = true
		rm[Meta][KeyLogoEnabled] = true
	}
	if !f.MetaText {
		for _, k := range []Key{KeyColor, KeyTextPosition, KeyBackgroundColor, KeyShadowEnabled} {
			rm[Meta][k] = true
		}
	}
	if f.Shadow != ShadowOn {
		both(KeyShadowColor, KeyShadowTop, KeyShadowLeft)
	}
	if f.Shadow != ShadowSimple {
		both(KeyShadowEnabled)
	}
	return rm
}
