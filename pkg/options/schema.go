// Package options defines the closed set of rendering options and resolves
// them for one entity through a three-tier cascade.
//
// # Schema
//
// Every option is a [Field] with a storage [Namespace], a [Type], a literal
// default and membership in one or both consuming contexts: [Admin]
// (site-wide settings) and [Meta] (per-entity overrides). [Features] remove
// fields from every context before anything is resolved, so a disabled
// feature's keys can never appear in a resolved configuration.
//
// # Cascade
//
// [Cascade] resolves each option by trying, in order:
//
//  1. the entity's stored override, if the key is in the Meta context
//  2. the site-wide stored value, if the key is in the Admin context
//  3. the field's literal default
//
// The first tier holding a non-empty value wins. A stored empty value counts
// as set only for checkbox fields.
package options

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/ogbrand/pkg/color"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/geometry"
)

// Key names one option.
type Key string

// Option keys.
const (
	KeyDisabled          Key = "disabled"
	KeyImage             Key = "image"
	KeyImageUseThumbnail Key = "image_use_thumbnail"
	KeyImageLogo         Key = "image_logo"
	KeyLogoPosition      Key = "logo_position"
	KeyLogoSize          Key = "image_logo_size"
	KeyLogoEnabled       Key = "logo_enabled"
	KeyText              Key = "text"
	KeyTextEnabled       Key = "text_enabled"
	KeyFont              Key = "text__font"
	KeyFontWeight        Key = "text__font_weight"
	KeyFontStyle         Key = "text__font_style"
	KeyFontUpload        Key = "text__ttf_upload"
	KeyFontSize          Key = "text__font_size"
	KeyTextPosition      Key = "text_position"
	KeyColor             Key = "color"
	KeyBackgroundColor   Key = "background_color"
	KeyBackgroundEnabled Key = "background_enabled"
	KeyStrokeColor       Key = "text_stroke_color"
	KeyStroke            Key = "text_stroke"
	KeyShadowColor       Key = "text_shadow_color"
	KeyShadowTop         Key = "text_shadow_top"
	KeyShadowLeft        Key = "text_shadow_left"
	KeyShadowEnabled     Key = "text_shadow_enabled"
	KeyTitleFormat       Key = "title_format"
	KeyUseBareTitle      Key = "use_bare_post_title"
)

// Type is the value type of a field.
type Type string

const (
	TypeCheckbox Type = "checkbox"
	TypeSelect   Type = "select"
	TypeColor    Type = "color"
	TypeText     Type = "text"
	TypeTextarea Type = "textarea"
	TypeSlider   Type = "slider"
	TypeRadio    Type = "radio"
	TypeImage    Type = "image"
	TypeFile     Type = "file"
)

// Namespace is the storage tier a field lives in.
type Namespace string

const (
	// NamespaceSite fields are stored once for the whole site.
	NamespaceSite Namespace = "site"
	// NamespaceEntity fields are stored per entity.
	NamespaceEntity Namespace = "entity"
)

// Context is a consumer of fields with its own allow-list.
type Context string

const (
	// Admin is the site-wide settings context.
	Admin Context = "admin"
	// Meta is the per-entity override context.
	Meta Context = "meta"
)

// Contexts lists every context.
var Contexts = []Context{Admin, Meta}

// Literal defaults.
const (
	DefaultText        = "Type here to change the text on the image\nChange logo and image below"
	DefaultTitleFormat = "{title} - {blogname}"
	DefaultFont        = "Roboto-Bold"
	DefaultFontSize    = 40
	MinFontSize        = 16
	MaxFontSize        = 64
	DefaultLogoSize    = 100
)

// Field describes one option in one context.
type Field struct {
	Key       Key       `json:"key"`
	Namespace Namespace `json:"namespace"`
	Type      Type      `json:"type"`
	Default   string    `json:"default,omitempty"`
	Choices   []string  `json:"choices,omitempty"`
	Min       int       `json:"min,omitempty"`
	Max       int       `json:"max,omitempty"`
	Label     string    `json:"label"`
}

// =============================================================================
// Field Catalogue
// =============================================================================

var positionChoices = func() []string {
	out := make([]string, len(geometry.Positions))
	for i, p := range geometry.Positions {
		out[i] = string(p)
	}
	return out
}()

var (
	fontWeightChoices = []string{"100", "200", "300", "400", "500", "600", "700", "800"}
	fontStyleChoices  = []string{"normal", "italic"}
)

func adminFields() []Field {
	return []Field{
		{Key: KeyDisabled, Namespace: NamespaceSite, Type: TypeCheckbox, Default: "off", Label: "Disable social images"},
		{Key: KeyImage, Namespace: NamespaceSite, Type: TypeImage, Label: "Fallback image"},
		{Key: KeyImageUseThumbnail, Namespace: NamespaceSite, Type: TypeCheckbox, Default: "on", Label: "Use the featured image"},
		{Key: KeyImageLogo, Namespace: NamespaceSite, Type: TypeImage, Label: "Logo"},
		{Key: KeyLogoPosition, Namespace: NamespaceSite, Type: TypeRadio, Default: string(geometry.TopLeft), Choices: positionChoices, Label: "Logo position"},
		{Key: KeyLogoSize, Namespace: NamespaceSite, Type: TypeSlider, Default: strconv.Itoa(DefaultLogoSize), Min: geometry.MinLogoScale, Max: geometry.MaxLogoScale, Label: "Logo size (%)"},
		{Key: KeyText, Namespace: NamespaceSite, Type: TypeTextarea, Default: DefaultText, Label: "Default text"},
		{Key: KeyFont, Namespace: NamespaceSite, Type: TypeSelect, Default: DefaultFont, Label: "Font"},
		{Key: KeyFontWeight, Namespace: NamespaceSite, Type: TypeSelect, Default: "700", Choices: fontWeightChoices, Label: "Font weight"},
		{Key: KeyFontStyle, Namespace: NamespaceSite, Type: TypeSelect, Default: "normal", Choices: fontStyleChoices, Label: "Font style"},
		{Key: KeyFontUpload, Namespace: NamespaceSite, Type: TypeFile, Label: "Upload a TTF or OTF font"},
		{Key: KeyTextPosition, Namespace: NamespaceSite, Type: TypeRadio, Default: string(geometry.BottomLeft), Choices: positionChoices, Label: "Text position"},
		{Key: KeyColor, Namespace: NamespaceSite, Type: TypeColor, Default: "#FFFFFFFF", Label: "Text color"},
		{Key: KeyFontSize, Namespace: NamespaceSite, Type: TypeSlider, Default: strconv.Itoa(DefaultFontSize), Min: MinFontSize, Max: MaxFontSize, Label: "Font size"},
		{Key: KeyBackgroundColor, Namespace: NamespaceSite, Type: TypeColor, Default: "#66666666", Label: "Text background color"},
		{Key: KeyBackgroundEnabled, Namespace: NamespaceSite, Type: TypeCheckbox, Default: "on", Label: "Use a text background"},
		{Key: KeyStrokeColor, Namespace: NamespaceSite, Type: TypeColor, Default: "#00000000", Label: "Stroke color"},
		{Key: KeyStroke, Namespace: NamespaceSite, Type: TypeText, Default: "0", Label: "Stroke width"},
		{Key: KeyShadowColor, Namespace: NamespaceSite, Type: TypeColor, Default: "#00000000", Label: "Shadow color"},
		{Key: KeyShadowTop, Namespace: NamespaceSite, Type: TypeText, Default: "-2", Label: "Shadow offset top"},
		{Key: KeyShadowLeft, Namespace: NamespaceSite, Type: TypeText, Default: "2", Label: "Shadow offset left"},
		{Key: KeyShadowEnabled, Namespace: NamespaceSite, Type: TypeCheckbox, Default: "off", Label: "Use a text shadow"},
		{Key: KeyTitleFormat, Namespace: NamespaceSite, Type: TypeText, Default: DefaultTitleFormat, Label: "Title format"},
		{Key: KeyUseBareTitle, Namespace: NamespaceSite, Type: TypeCheckbox, Default: "off", Label: "Use the bare title"},
	}
}

func metaFields() []Field {
	return []Field{
		{Key: KeyDisabled, Namespace: NamespaceEntity, Type: TypeCheckbox, Label: "Disable the social image"},
		{Key: KeyTextEnabled, Namespace: NamespaceEntity, Type: TypeCheckbox, Default: "yes", Label: "Show text"},
		{Key: KeyImage, Namespace: NamespaceEntity, Type: TypeImage, Label: "Image"},
		{Key: KeyText, Namespace: NamespaceEntity, Type: TypeTextarea, Label: "Text"},
		{Key: KeyColor, Namespace: NamespaceEntity, Type: TypeColor, Label: "Text color"},
		{Key: KeyTextPosition, Namespace: NamespaceEntity, Type: TypeRadio, Choices: positionChoices, Label: "Text position"},
		{Key: KeyBackgroundColor, Namespace: NamespaceEntity, Type: TypeColor, Label: "Text background color"},
		{Key: KeyStrokeColor, Namespace: NamespaceEntity, Type: TypeColor, Label: "Stroke color"},
		{Key: KeyStroke, Namespace: NamespaceEntity, Type: TypeText, Label: "Stroke width"},
		{Key: KeyShadowColor, Namespace: NamespaceEntity, Type: TypeColor, Label: "Shadow color"},
		{Key: KeyShadowTop, Namespace: NamespaceEntity, Type: TypeText, Label: "Shadow offset top"},
		{Key: KeyShadowLeft, Namespace: NamespaceEntity, Type: TypeText, Label: "Shadow offset left"},
		{Key: KeyShadowEnabled, Namespace: NamespaceEntity, Type: TypeCheckbox, Label: "Use a text shadow"},
		{Key: KeyLogoEnabled, Namespace: NamespaceEntity, Type: TypeCheckbox, Default: "yes", Label: "Show logo"},
		{Key: KeyLogoPosition, Namespace: NamespaceEntity, Type: TypeRadio, Choices: positionChoices, Label: "Logo position"},
	}
}

// =============================================================================
// Schema
// =============================================================================

// Schema is the field catalogue after feature flags were applied.
type Schema struct {
	features Features
	fields   map[Context][]Field
}

// NewSchema builds the catalogue for the given features.
func NewSchema(f Features) *Schema {
	f.SetDefaults()
	removed := f.removed()
	s := &Schema{
		features: f,
		fields:   make(map[Context][]Field, len(Contexts)),
	}
	for ctx, list := range map[Context][]Field{Admin: adminFields(), Meta: metaFields()} {
		s.fields[ctx] = slices.DeleteFunc(list, func(fd Field) bool {
			return removed[ctx][fd.Key]
		})
	}
	return s
}

// Features returns the flags the schema was built with.
func (s *Schema) Features() Features { return s.features }

// Fields returns the fields of ctx in catalogue order.
func (s *Schema) Fields(ctx Context) []Field {
	return slices.Clone(s.fields[ctx])
}

// Field looks up key in ctx.
func (s *Schema) Field(ctx Context, key Key) (Field, bool) {
	i := slices.IndexFunc(s.fields[ctx], func(fd Field) bool { return fd.Key == key })
	if i < 0 {
		return Field{}, false
	}
	return s.fields[ctx][i], true
}

// Allowed reports whether key is in the allow-list of ctx.
func (s *Schema) Allowed(ctx Context, key Key) bool {
	_, ok := s.Field(ctx, key)
	return ok
}

// Known reports whether key survives in any context.
func (s *Schema) Known(key Key) bool {
	for _, ctx := range Contexts {
		if s.Allowed(ctx, key) {
			return true
		}
	}
	return false
}

// Literal returns the hard-coded default of key, preferring the Admin field.
func (s *Schema) Literal(key Key) string {
	if fd, ok := s.Field(Admin, key); ok && fd.Default != "" {
		return fd.Default
	}
	if fd, ok := s.Field(Meta, key); ok {
		return fd.Default
	}
	return ""
}

// ValidKeys groups the keys of ctx by namespace. An empty ctx covers all.
func (s *Schema) ValidKeys(ctx Context) map[Namespace][]Key {
	out := make(map[Namespace][]Key)
	for _, c := range Contexts {
		if ctx != "" && c != ctx {
			continue
		}
		for _, fd := range s.fields[c] {
			if !slices.Contains(out[fd.Namespace], fd.Key) {
				out[fd.Namespace] = append(out[fd.Namespace], fd.Key)
			}
		}
	}
	return out
}

// Validate checks that value is acceptable for key in ctx. Empty values are
// always acceptable; they mean "not set" or, for checkboxes, "off".
func (s *Schema) Validate(ctx Context, key Key, value string) error {
	fd, ok := s.Field(ctx, key)
	if !ok {
		return errors.New(errors.ErrCodeUnknownOption, "unknown %s option %q", ctx, key)
	}
	if value == "" {
		return nil
	}

	invalid := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInvalidOption, "%s: %s", key, fmt.Sprintf(format, args...))
	}

	switch fd.Type {
	case TypeCheckbox:
		if _, ok := parseBool(value); !ok {
			return invalid("%q is not a checkbox value", value)
		}
	case TypeColor:
		if _, err := color.Decode(value, color.Web); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidColor, err, "%s", key)
		}
	case TypeRadio:
		if _, err := geometry.ParsePosition(value); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPosition, err, "%s", key)
		}
	case TypeSelect:
		if len(fd.Choices) > 0 && !slices.Contains(fd.Choices, value) {
			return invalid("%q is not one of %s", value, strings.Join(fd.Choices, ", "))
		}
	case TypeSlider:
		n, err := strconv.Atoi(value)
		if err != nil {
			return invalid("%q is not a number", value)
		}
		if n < fd.Min || n > fd.Max {
			return invalid("%d is outside [%d, %d]", n, fd.Min, fd.Max)
		}
	case TypeText:
		if isNumericKey(key) {
			if _, ok := leadingInt(value); !ok {
				return invalid("%q does not start with a number", value)
			}
		}
	}
	return nil
}

func isNumericKey(k Key) bool {
	return k == KeyStroke || k == KeyShadowTop || k == KeyShadowLeft
}
