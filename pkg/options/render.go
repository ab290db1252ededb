package options

import (
	"context"
	"strconv"

	"github.com/matzehuels/ogbrand/pkg/color"
	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/fonts"
	"github.com/matzehuels/ogbrand/pkg/geometry"
)

// LineHeightFactor is the line height as a multiple of the font size.
const LineHeightFactor = 1.25

// Render is the fully expanded rendering configuration for one entity.
type Render struct {
	Text TextOptions `json:"text_options"`
	Logo LogoOptions `json:"logo_options"`
}

// TextOptions place and style the overlay text.
type TextOptions struct {
	Enabled           bool              `json:"enabled"`
	Color             string            `json:"color"`
	BackgroundColor   string            `json:"background_color"`
	BackgroundEnabled bool              `json:"background_enabled"`
	Position          geometry.Position `json:"position"`
	geometry.Placement

	FontFile      string     `json:"font_file"`
	FontFamily    string     `json:"font_family"`
	FontWeight    int        `json:"font_weight"`
	FontStyle     string     `json:"font_style"`
	FontSize      int        `json:"font_size"`
	LineHeight    float64    `json:"line_height"`
	Font          fonts.Face `json:"font"`
	TextAreaWidth float64    `json:"text_area_width"`

	Stroke *Stroke `json:"stroke,omitempty"`
	Shadow *Shadow `json:"shadow,omitempty"`
}

// Stroke outlines the text. Present only with the stroke feature.
type Stroke struct {
	Width int    `json:"width"`
	Color string `json:"color"`
}

// Shadow is the text shadow. Absent when shadows are off.
type Shadow struct {
	Color string     `json:"color"`
	Top   int        `json:"top"`
	Left  int        `json:"left"`
	Type  ShadowType `json:"type"`
}

// LogoOptions place and size the logo.
type LogoOptions struct {
	Enabled  bool              `json:"enabled"`
	File     string            `json:"file,omitempty"`
	URL      string            `json:"url,omitempty"`
	Position geometry.Position `json:"position"`
	geometry.Placement

	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Size int     `json:"size"`

	SourceWidth       int     `json:"source_width"`
	SourceHeight      int     `json:"source_height"`
	SourceAspectRatio float64 `json:"source_aspect_ratio"`

	Error string `json:"error,omitempty"`
}

// Disabled reports whether social images are switched off for ref. An
// entity can only switch them off; otherwise the site setting applies.
func (c *Cascade) Disabled(ctx context.Context, ref entity.Ref, diag *errors.Diagnostics) bool {
	if c.Schema.Allowed(Meta, KeyDisabled) && c.Meta != nil && ref.HasMeta() {
		raw, ok, err := c.Meta.Override(ctx, ref, string(KeyDisabled))
		if err != nil {
			c.storeErr(diag)(err)
		} else if ok && Truthy(raw) {
			return true
		}
	}
	if c.Schema.Allowed(Admin, KeyDisabled) && c.Site != nil {
		raw, ok, err := c.Site.Get(ctx, string(KeyDisabled))
		if err != nil {
			c.storeErr(diag)(err)
			return false
		}
		return ok && Truthy(raw)
	}
	return false
}

// Resolve produces the expanded rendering configuration for ref. Invalid
// configuration is recorded in diag and replaced by defaults; the only error
// returned is a cancelled context.
func (c *Cascade) Resolve(ctx context.Context, ref entity.Ref, diag *errors.Diagnostics) (Render, error) {
	if diag == nil {
		diag = &errors.Diagnostics{}
	}
	r := &resolution{c: c, ctx: ctx, ref: ref, diag: diag}

	text := r.text()
	if err := ctx.Err(); err != nil {
		return Render{}, err
	}
	logo := r.logo()
	if err := ctx.Err(); err != nil {
		return Render{}, err
	}
	return Render{Text: text, Logo: logo}, nil
}

// resolution carries the per-call state of Resolve.
type resolution struct {
	c    *Cascade
	ctx  context.Context
	ref  entity.Ref
	diag *errors.Diagnostics
}

// raw returns the cascaded value of key and whether the key exists.
func (r *resolution) raw(key Key) (string, bool) {
	v, ok := r.c.lookup(r.ctx, r.ref, key, r.c.storeErr(r.diag))
	return v.Raw, ok
}

func (r *resolution) text() TextOptions {
	c := r.c
	t := TextOptions{
		Enabled:           true,
		Color:             r.color(KeyColor, errors.TagColor),
		BackgroundColor:   r.color(KeyBackgroundColor, errors.TagBackgroundColor),
		BackgroundEnabled: r.checkbox(KeyBackgroundEnabled),
		Position:          r.position(KeyTextPosition, errors.TagTextPosition),
	}
	if v, ok := r.raw(KeyTextEnabled); ok {
		t.Enabled = Truthy(v)
	}
	t.Placement = geometry.Resolve(t.Position, c.Padding, c.Canvas)

	t.FontSize = DefaultFontSize
	if v, _ := r.raw(KeyFontSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			t.FontSize = n
		}
	}
	t.FontSize = max(MinFontSize, min(MaxFontSize, t.FontSize))

	weightRaw, _ := r.raw(KeyFontWeight)
	styleRaw, _ := r.raw(KeyFontStyle)
	t.FontWeight = FontWeight(weightRaw)
	t.FontStyle = FontStyle(styleRaw)
	t.Font = r.font(t.FontWeight, t.FontStyle)
	t.FontFile = t.Font.File
	t.FontFamily = t.Font.Family
	t.LineHeight = float64(t.FontSize) * LineHeightFactor
	t.TextAreaWidth = t.Font.Tweaks.TextAreaFactor()

	if c.Schema.Features().Stroke {
		width, _ := r.raw(KeyStroke)
		t.Stroke = &Stroke{
			Width: max(0, Offset(width)),
			Color: r.color(KeyStrokeColor, errors.TagStrokeColor),
		}
	}

	switch c.Schema.Features().Shadow {
	case ShadowOn:
		top, _ := r.raw(KeyShadowTop)
		left, _ := r.raw(KeyShadowLeft)
		t.Shadow = &Shadow{
			Color: r.color(KeyShadowColor, errors.TagShadowColor),
			Top:   Offset(top),
			Left:  Offset(left),
			Type:  ShadowTypeOf(left, top),
		}
	case ShadowSimple:
		t.Shadow = &Shadow{
			Color: SimpleShadowDisabled,
			Top:   SimpleShadowTop,
			Left:  SimpleShadowLeft,
			Type:  ShadowOpen,
		}
		if r.checkbox(KeyShadowEnabled) {
			t.Shadow.Color = SimpleShadowColor
		}
	}
	return t
}

// font resolves the configured font, falling back to the embedded face.
// An uploaded font takes precedence over the selected one.
func (r *resolution) font(weight int, style string) fonts.Face {
	name, _ := r.raw(KeyFontUpload)
	if name == "" {
		name, _ = r.raw(KeyFont)
	}
	if r.c.Fonts == nil {
		return fonts.Face{Name: name, File: name, Family: name, Weight: weight, Style: style}
	}
	face, err := r.c.Fonts.Resolve(name, weight, style)
	if err != nil {
		r.diag.SetError(errors.TagFont, err)
		r.c.Logger.Warn("font unavailable, using fallback", "font", name, "err", err)
		face = fonts.Fallback()
		face.Weight, face.Style = weight, style
		return face
	}
	r.diag.Clear(errors.TagFont)
	return face
}

func (r *resolution) logo() LogoOptions {
	c := r.c
	l := LogoOptions{
		Enabled:  r.logoEnabled(),
		Position: r.position(KeyLogoPosition, errors.TagLogoPosition),
		Size:     DefaultLogoSize,
	}
	l.Placement = geometry.Resolve(l.Position, c.Padding, c.Canvas)
	if v, _ := r.raw(KeyLogoSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			l.Size = n
		}
	}
	l.Size = geometry.ClampScale(l.Size)

	ref, _ := r.raw(KeyImageLogo)
	if ref == "" {
		l.Enabled = false
		return l
	}
	if c.Logos == nil {
		l.File = ref
		return l
	}

	img, err := c.Logos.Probe(r.ctx, ref)
	if err == nil {
		var box geometry.Box
		box, err = geometry.LogoBox(img.Width, img.Height, l.Size)
		if err == nil {
			l.File, l.URL = img.Path, img.URL
			l.SourceWidth, l.SourceHeight = img.Width, img.Height
			l.SourceAspectRatio = img.AspectRatio()
			l.W, l.H = box.W, box.H
			r.diag.Clear(errors.TagLogo)
			return l
		}
		err = errors.Wrap(errors.ErrCodeUnreadableImage, err, "logo %s", ref)
	}
	l.Enabled = false
	l.Error = errors.UserMessage(err)
	r.diag.SetError(errors.TagLogo, err)
	r.c.Logger.Warn("logo disabled", "logo", ref, "err", err)
	return l
}

// logoEnabled is true unless the entity explicitly stored a falsy value for
// an allowed logo_enabled override.
func (r *resolution) logoEnabled() bool {
	c := r.c
	if !c.Schema.Allowed(Meta, KeyLogoEnabled) || c.Meta == nil || !r.ref.HasMeta() {
		return true
	}
	raw, stored, err := c.Meta.Override(r.ctx, r.ref, string(KeyLogoEnabled))
	if err != nil {
		c.storeErr(r.diag)(err)
		return true
	}
	return !stored || Truthy(raw)
}

// color returns the cascaded color of key normalized to #RRGGBBAA. Invalid
// values are recorded under tag and replaced by the literal default.
func (r *resolution) color(key Key, tag string) string {
	raw, _ := r.raw(key)
	if raw == "" {
		raw = r.c.Schema.Literal(key)
	}
	hex, err := color.Normalize(raw)
	if err == nil {
		r.diag.Clear(tag)
		return hex
	}
	r.diag.Set(tag, "invalid color "+strconv.Quote(raw)+", using the default")
	hex, err = color.Normalize(r.c.Schema.Literal(key))
	if err != nil {
		return ""
	}
	return hex
}

// position returns the cascaded position of key. Invalid values are recorded
// under tag and replaced by the literal default.
func (r *resolution) position(key Key, tag string) geometry.Position {
	raw, _ := r.raw(key)
	if raw == "" {
		raw = r.c.Schema.Literal(key)
	}
	pos, err := geometry.ParsePosition(raw)
	if err == nil {
		r.diag.Clear(tag)
		return pos
	}
	r.diag.Set(tag, "invalid position "+strconv.Quote(raw)+", using the default")
	pos, _ = geometry.ParsePosition(r.c.Schema.Literal(key))
	return pos
}

func (r *resolution) checkbox(key Key) bool {
	v, ok := r.raw(key)
	return ok && Truthy(v)
}
