package options

import (
	"slices"
	"testing"

	"github.com/matzehuels/ogbrand/pkg/errors"
)

func TestSchemaFeatures(t *testing.T) {
	tests := []struct {
		name     string
		features Features
		ctx      Context
		key      Key
		want     bool
	}{
		{"stroke off admin", Features{}, Admin, KeyStroke, false},
		{"stroke off meta", Features{}, Meta, KeyStrokeColor, false},
		{"stroke on", Features{Stroke: true}, Admin, KeyStrokeColor, true},
		{"simple shadow has switch", Features{Shadow: ShadowSimple}, Admin, KeyShadowEnabled, true},
		{"simple shadow hides color", Features{Shadow: ShadowSimple}, Admin, KeyShadowColor, false},
		{"full shadow has offsets", Features{Shadow: ShadowOn}, Admin, KeyShadowTop, true},
		{"full shadow hides switch", Features{Shadow: ShadowOn}, Admin, KeyShadowEnabled, false},
		{"meta logo off", Features{}, Meta, KeyLogoEnabled, false},
		{"meta logo on", Features{MetaLogo: true}, Meta, KeyLogoPosition, true},
		{"meta text off", Features{}, Meta, KeyColor, false},
		{"meta text off keeps admin", Features{}, Admin, KeyColor, true},
		{"meta text on", Features{MetaText: true}, Meta, KeyBackgroundColor, true},
		{"always meta", Features{}, Meta, KeyText, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSchema(tt.features)
			if got := s.Allowed(tt.ctx, tt.key); got != tt.want {
				t.Errorf("Allowed(%s, %s) = %v, want %v", tt.ctx, tt.key, got, tt.want)
			}
		})
	}
}

func TestSchemaLiteral(t *testing.T) {
	s := NewSchema(DefaultFeatures())
	tests := map[Key]string{
		KeyColor:           "#FFFFFFFF",
		KeyBackgroundColor: "#66666666",
		KeyTextPosition:    "bottom-left",
		KeyLogoPosition:    "top-left",
		KeyTextEnabled:     "yes",
		KeyTitleFormat:     DefaultTitleFormat,
		KeyFont:            DefaultFont,
		KeyImage:           "",
	}
	for k, want := range tests {
		if got := s.Literal(k); got != want {
			t.Errorf("Literal(%s) = %q, want %q", k, got, want)
		}
	}
}

func TestSchemaValidKeys(t *testing.T) {
	s := NewSchema(DefaultFeatures())

	meta := s.ValidKeys(Meta)
	if len(meta[NamespaceSite]) != 0 {
		t.Errorf("Meta has site keys: %v", meta[NamespaceSite])
	}
	if !slices.Contains(meta[NamespaceEntity], KeyText) {
		t.Error("Meta keys miss text")
	}
	if slices.Contains(meta[NamespaceEntity], KeyStroke) {
		t.Error("Meta keys contain disabled stroke")
	}

	all := s.ValidKeys("")
	if !slices.Contains(all[NamespaceSite], KeyImageLogo) || !slices.Contains(all[NamespaceEntity], KeyTextEnabled) {
		t.Errorf("ValidKeys(\"\") = %v", all)
	}
}

func TestSchemaValidate(t *testing.T) {
	s := NewSchema(Features{Shadow: ShadowOn, Stroke: true})

	tests := []struct {
		ctx   Context
		key   Key
		value string
		code  errors.Code
	}{
		{Admin, KeyColor, "#fff", ""},
		{Admin, KeyColor, "#1234567", errors.ErrCodeInvalidColor},
		{Admin, KeyTextPosition, "top", ""},
		{Admin, KeyTextPosition, "middle", errors.ErrCodeInvalidPosition},
		{Admin, KeyDisabled, "on", ""},
		{Admin, KeyDisabled, "maybe", errors.ErrCodeInvalidOption},
		{Admin, KeyFontWeight, "700", ""},
		{Admin, KeyFontWeight, "heavy", errors.ErrCodeInvalidOption},
		{Admin, KeyFontSize, "64", ""},
		{Admin, KeyFontSize, "65", errors.ErrCodeInvalidOption},
		{Admin, KeyLogoSize, "abc", errors.ErrCodeInvalidOption},
		{Admin, KeyShadowTop, "3G", ""},
		{Admin, KeyShadowTop, "G3", errors.ErrCodeInvalidOption},
		{Admin, KeyColor, "", ""},
		{Meta, KeyTitleFormat, "{title}", errors.ErrCodeUnknownOption},
		{Admin, "nope", "1", errors.ErrCodeUnknownOption},
	}

	for _, tt := range tests {
		err := s.Validate(tt.ctx, tt.key, tt.value)
		if tt.code == "" {
			if err != nil {
				t.Errorf("Validate(%s, %s, %q) = %v, want nil", tt.ctx, tt.key, tt.value, err)
			}
			continue
		}
		if !errors.Is(err, tt.code) {
			t.Errorf("Validate(%s, %s, %q) = %v, want %s", tt.ctx, tt.key, tt.value, err, tt.code)
		}
	}
}

func TestFeaturesValidate(t *testing.T) {
	if err := (Features{Shadow: "loud"}).Validate(); err == nil {
		t.Error("Validate(loud) = nil")
	}
	f := Features{}
	f.SetDefaults()
	if f.Shadow != ShadowSimple {
		t.Errorf("default shadow = %q, want simple", f.Shadow)
	}
}

func TestFontWeight(t *testing.T) {
	tests := map[string]int{
		"700":    700,
		"650":    600,
		"950":    800,
		"bold":   700,
		"Black":  800,
		"light":  300,
		"0":      400,
		"":       400,
		"-100":   400,
		"wobbly": 400,
		"50":     400,
	}
	for in, want := range tests {
		if got := FontWeight(in); got != want {
			t.Errorf("FontWeight(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestFontStyle(t *testing.T) {
	tests := map[string]string{"italic": "italic", "ITALIC": "italic", "oblique": "normal", "": "normal"}
	for in, want := range tests {
		if got := FontStyle(in); got != want {
			t.Errorf("FontStyle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestShadowTypeOf(t *testing.T) {
	tests := []struct {
		offsets []string
		want    ShadowType
	}{
		{[]string{"-2", "2"}, ShadowOpen},
		{[]string{"2S", "2"}, ShadowSolid},
		{[]string{"2", "3G"}, ShadowGradient},
		{[]string{"3S", "2G"}, ShadowGradient},
		{[]string{"2G", "3S"}, ShadowSolid},
		{[]string{"2S3G"}, ShadowGradient},
		{[]string{"S", "G"}, ShadowOpen},
	}
	for _, tt := range tests {
		if got := ShadowTypeOf(tt.offsets...); got != tt.want {
			t.Errorf("ShadowTypeOf(%v) = %s, want %s", tt.offsets, got, tt.want)
		}
	}
}

func TestOffsetAndTruthy(t *testing.T) {
	if Offset("-3S") != -3 || Offset("4") != 4 || Offset("x") != 0 {
		t.Error("Offset parses incorrectly")
	}
	for _, v := range []string{"on", "yes", "1", "true", "YES"} {
		if !Truthy(v) {
			t.Errorf("Truthy(%q) = false", v)
		}
	}
	for _, v := range []string{"", "off", "no", "0", "false", "maybe"} {
		if Truthy(v) {
			t.Errorf("Truthy(%q) = true", v)
		}
	}
}
