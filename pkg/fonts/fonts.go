// Package fonts resolves font references to font files and carries the
// per-font rendering tweaks the drawing collaborator applies.
//
// A font reference is one of:
//
//   - a bare name such as "Roboto-Bold", looked up in the font directory
//     as-is, then with ".ttf", then with ".otf"
//   - "google:Family", mapped to "Family-w<weight>[-italic].ttf" in the
//     font directory
//   - an absolute path to a TTF or OTF file
//
// Every resolved file is parsed with golang.org/x/image/font/opentype once
// before it is handed out. When nothing usable is found, callers fall back
// to [Fallback], the embedded Go Regular face.
package fonts

import (
	"bytes"
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/ogbrand/pkg/errors"
)

// GooglePrefix marks a font reference as a Google Fonts family name.
const GooglePrefix = "google:"

// FallbackName is the name of the embedded fallback face.
const FallbackName = "GoRegular"

// Tweaks are rendering corrections for one font. Zero factors mean 1.
type Tweaks struct {
	Family        string  `json:"font_name"`
	Weight        int     `json:"font_weight,omitempty"`
	LetterSpacing string  `json:"letter_spacing,omitempty"`
	LineHeight    float64 `json:"line_height,omitempty"`
	TextAreaWidth float64 `json:"text_area_width,omitempty"`
}

// LineHeightFactor returns the line-height factor, 1 when unset.
func (t Tweaks) LineHeightFactor() float64 {
	if t.LineHeight <= 0 {
		return 1
	}
	return t.LineHeight
}

// TextAreaFactor returns the text-area width factor, 1 when unset.
func (t Tweaks) TextAreaFactor() float64 {
	if t.TextAreaWidth <= 0 {
		return 1
	}
	return t.TextAreaWidth
}

// packaged are the tweaks for the fonts shipped with the product.
var packaged = map[string]Tweaks{
	"Anton":             {Family: "Anton", Weight: 400, LetterSpacing: "-0.32px", LineHeight: 1},
	"Courgette":         {Family: "Courgette", Weight: 400, LetterSpacing: "-0.32px", LineHeight: .86},
	"JosefinSans-Bold":  {Family: "Josefin Sans", Weight: 700, LetterSpacing: "-0.4px", LineHeight: .96},
	"Merriweather-Bold": {Family: "Merriweather", Weight: 700, LetterSpacing: "0px", LineHeight: .86},
	"OpenSans-Bold":     {Family: "Open Sans", Weight: 700, LetterSpacing: "0px", LineHeight: .95, TextAreaWidth: .96},
	"Oswald-Bold":       {Family: "Oswald", Weight: 700, LetterSpacing: "0px", LineHeight: .92, TextAreaWidth: .96},
	"PTSans-Bold":       {Family: "PT Sans", Weight: 700, LetterSpacing: "0px", LineHeight: 1.03},
	"Roboto-Bold":       {Family: "Roboto", Weight: 700, LetterSpacing: "0px", LineHeight: .97},
	"WorkSans-Bold":     {Family: "Work Sans", Weight: 700, LetterSpacing: "0px", LineHeight: 1},
	"AkayaKanadaka":     {Family: "Akaya Kanadaka", Weight: 400, LetterSpacing: "0px", LineHeight: .98},
}

// Packaged returns the names of the packaged fonts in lexical order.
func Packaged() []string {
	return slices.Sorted(maps.Keys(packaged))
}

// Face is a resolved font.
type Face struct {
	Name     string `json:"name"`
	File     string `json:"file,omitempty"`
	Family   string `json:"family"`
	Weight   int    `json:"weight"`
	Style    string `json:"style"`
	Tweaks   Tweaks `json:"tweaks"`
	Embedded bool   `json:"embedded,omitempty"`
}

// Fallback returns the embedded Go Regular face.
func Fallback() Face {
	return Face{
		Name:     FallbackName,
		Family:   "Go",
		Weight:   400,
		Style:    "normal",
		Tweaks:   Tweaks{Family: "Go", Weight: 400, LineHeight: 1},
		Embedded: true,
	}
}

// Data returns the font bytes of f.
func (f Face) Data() ([]byte, error) {
	if f.Embedded {
		return goregular.TTF, nil
	}
	data, err := os.ReadFile(f.File)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontNotFound, err, "read font %s", f.File)
	}
	return data, nil
}

// Catalog resolves font references inside one font directory.
type Catalog struct {
	dir string

	mu     sync.Mutex
	parsed map[string]error
}

// NewCatalog creates a catalog over dir. An empty dir only serves absolute
// paths and the packaged tweaks.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir, parsed: make(map[string]error)}
}

// Dir returns the font directory.
func (c *Catalog) Dir() string { return c.dir }

// Resolve maps a font reference to a parsed font file.
func (c *Catalog) Resolve(name string, weight int, style string) (Face, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Face{}, errors.New(errors.ErrCodeFontNotFound, "no font configured")
	}

	file, err := c.locate(name, weight, style)
	if err != nil {
		return Face{}, err
	}
	if err := c.validate(file); err != nil {
		return Face{}, err
	}

	base := baseName(file)
	tw := c.Tweaks(base)
	family := tw.Family
	if family == "" {
		family = base
		if g, ok := strings.CutPrefix(name, GooglePrefix); ok {
			family = strings.TrimSpace(g)
		}
	}
	return Face{
		Name:   base,
		File:   file,
		Family: family,
		Weight: weight,
		Style:  style,
		Tweaks: tw,
	}, nil
}

func (c *Catalog) locate(name string, weight int, style string) (string, error) {
	if family, ok := strings.CutPrefix(name, GooglePrefix); ok {
		file := GoogleFilename(family, weight, style)
		if c.dir != "" && isFile(filepath.Join(c.dir, file)) {
			return filepath.Join(c.dir, file), nil
		}
		return "", errors.New(errors.ErrCodeFontNotFound,
			"font %s is not in the font directory, download %s and place it there", name, file)
	}

	if filepath.IsAbs(name) {
		if !isFile(name) {
			return "", errors.New(errors.ErrCodeFontNotFound, "font file %s does not exist", name)
		}
		if !hasFontExt(name) {
			return "", errors.New(errors.ErrCodeFontNotFound, "font file %s is not a TTF or OTF file", name)
		}
		return name, nil
	}

	if err := errors.ValidatePath(name); err != nil || filepath.Base(name) != name {
		return "", errors.New(errors.ErrCodeFontNotFound, "invalid font name %q", name)
	}
	if c.dir != "" {
		for _, candidate := range []string{name, name + ".ttf", name + ".otf"} {
			p := filepath.Join(c.dir, candidate)
			if hasFontExt(p) && isFile(p) {
				return p, nil
			}
		}
	}
	return "", errors.New(errors.ErrCodeFontNotFound, "don't know where to get font %q", name)
}

// validate parses a font file once and remembers the outcome.
func (c *Catalog) validate(file string) error {
	c.mu.Lock()
	err, seen := c.parsed[file]
	c.mu.Unlock()
	if seen {
		return err
	}

	data, err := os.ReadFile(file)
	if err == nil {
		_, err = opentype.Parse(data)
	}
	if err != nil {
		err = errors.Wrap(errors.ErrCodeFontNotFound, err, "unusable font %s", filepath.Base(file))
	}

	c.mu.Lock()
	c.parsed[file] = err
	c.mu.Unlock()
	return err
}

// =============================================================================
// Tweaks
// =============================================================================

// tweakFile is the on-disk JSON layout of <name>.json in the font directory.
type tweakFile struct {
	Family string `json:"font_name"`
	Weight int    `json:"font_weight"`
	Admin  struct {
		LetterSpacing string `json:"letter-spacing"`
	} `json:"admin"`
	GD struct {
		LineHeight    float64 `json:"line-height"`
		TextAreaWidth float64 `json:"text-area-width"`
	} `json:"gd"`
}

// Tweaks returns the rendering tweaks for a font name or file name. Values
// from <dir>/<name>.json override the packaged ones field by field.
func (c *Catalog) Tweaks(name string) Tweaks {
	name = baseName(name)
	tw := packaged[name]
	if c.dir == "" || name == "" {
		return tw
	}
	data, err := os.ReadFile(filepath.Join(c.dir, name+".json"))
	if err != nil {
		return tw
	}
	var f tweakFile
	if err := json.Unmarshal(data, &f); err != nil {
		return tw
	}
	if f.Family != "" {
		tw.Family = f.Family
	}
	if f.Weight != 0 {
		tw.Weight = f.Weight
	}
	if f.Admin.LetterSpacing != "" {
		tw.LetterSpacing = f.Admin.LetterSpacing
	}
	if f.GD.LineHeight != 0 {
		tw.LineHeight = f.GD.LineHeight
	}
	if f.GD.TextAreaWidth != 0 {
		tw.TextAreaWidth = f.GD.TextAreaWidth
	}
	return tw
}

// WriteTweaks writes the packaged tweaks as JSON files into the font
// directory so they can be edited.
func (c *Catalog) WriteTweaks() ([]string, error) {
	if c.dir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "no font directory configured")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create font directory")
	}
	var written []string
	for _, name := range Packaged() {
		tw := packaged[name]
		var f tweakFile
		f.Family, f.Weight = tw.Family, tw.Weight
		f.Admin.LetterSpacing = tw.LetterSpacing
		f.GD.LineHeight, f.GD.TextAreaWidth = tw.LineHeight, tw.TextAreaWidth

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "    ")
		if err := enc.Encode(f); err != nil {
			return written, errors.Wrap(errors.ErrCodeInternal, err, "encode tweaks for %s", name)
		}
		path := filepath.Join(c.dir, name+".json")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return written, errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
		}
		written = append(written, path)
	}
	return written, nil
}

// GoogleFilename returns the file name a Google Fonts family is stored under.
func GoogleFilename(family string, weight int, style string) string {
	name := strings.TrimSpace(family) + "-w" + strconv.Itoa(weight)
	if style == "italic" {
		name += "-italic"
	}
	return name + ".ttf"
}

func baseName(file string) string {
	b := filepath.Base(file)
	if ext := strings.ToLower(filepath.Ext(b)); ext == ".ttf" || ext == ".otf" {
		b = b[:len(b)-len(ext)]
	}
	if b == "." || b == string(filepath.Separator) {
		return ""
	}
	return b
}

func hasFontExt(p string) bool {
	ext := strings.ToLower(filepath.Ext(p))
	return ext == ".ttf" || ext == ".otf"
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}
