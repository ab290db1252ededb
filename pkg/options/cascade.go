package options

import (
	"context"
	"io"
	"maps"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/fonts"
	"github.com/matzehuels/ogbrand/pkg/geometry"
	"github.com/matzehuels/ogbrand/pkg/media"
)

// SiteValues supplies site-wide stored option values.
type SiteValues interface {
	// Get returns the stored value of key. ok is false when nothing is
	// stored, which is distinct from an empty stored value.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}

// Prober reads the dimensions of an image reference.
type Prober interface {
	Probe(ctx context.Context, ref string) (media.Image, error)
}

// FontResolver maps a font reference to a font file.
type FontResolver interface {
	Resolve(name string, weight int, style string) (fonts.Face, error)
}

// Source names the cascade tier a value came from.
type Source string

const (
	SourceEntity  Source = "entity"
	SourceSite    Source = "site"
	SourceDefault Source = "default"
)

// Value is one resolved option.
type Value struct {
	Key    Key    `json:"key"`
	Raw    string `json:"value"`
	Source Source `json:"source"`
}

// Cascade resolves options for one entity at a time. It holds no per-request
// state and is safe for concurrent use if its collaborators are.
type Cascade struct {
	Schema  *Schema
	Site    SiteValues
	Meta    entity.Meta
	Logos   Prober
	Fonts   FontResolver
	Canvas  geometry.Canvas
	Padding int
	Logger  *log.Logger
}

// NewCascade creates a cascade over the given tiers.
// Nil tiers are treated as empty.
func NewCascade(schema *Schema, site SiteValues, meta entity.Meta) *Cascade {
	if schema == nil {
		schema = NewSchema(DefaultFeatures())
	}
	return &Cascade{
		Schema:  schema,
		Site:    site,
		Meta:    meta,
		Canvas:  geometry.DefaultCanvas(),
		Padding: geometry.Padding,
		Logger:  log.New(io.Discard),
	}
}

// Value resolves a single key for ref. ok is false when the key is not part
// of the schema, for instance because a feature flag removed it. Store errors
// are returned after the remaining tiers were tried.
func (c *Cascade) Value(ctx context.Context, ref entity.Ref, key Key) (Value, bool, error) {
	var firstErr error
	v, ok := c.lookup(ctx, ref, key, func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	})
	return v, ok, firstErr
}

// Values resolves every known key. Store errors are recorded in diag.
func (c *Cascade) Values(ctx context.Context, ref entity.Ref, diag *errors.Diagnostics) map[Key]Value {
	out := make(map[Key]Value)
	for _, ctxName := range Contexts {
		for _, fd := range c.Schema.fields[ctxName] {
			if _, done := out[fd.Key]; done {
				continue
			}
			if v, ok := c.lookup(ctx, ref, fd.Key, c.storeErr(diag)); ok {
				out[fd.Key] = v
			}
		}
	}
	return out
}

// SortedKeys returns the keys of values in lexical order.
func SortedKeys(values map[Key]Value) []Key {
	return slices.Sorted(maps.Keys(values))
}

func (c *Cascade) lookup(ctx context.Context, ref entity.Ref, key Key, onErr func(error)) (Value, bool) {
	if !c.Schema.Known(key) {
		return Value{}, false
	}

	if fd, ok := c.Schema.Field(Meta, key); ok && c.Meta != nil && ref.HasMeta() {
		raw, stored, err := c.Meta.Override(ctx, ref, string(key))
		switch {
		case err != nil:
			onErr(errors.Wrap(errors.ErrCodeStore, err, "read %s override for %s", key, ref))
		case counts(fd, raw, stored):
			return Value{Key: key, Raw: raw, Source: SourceEntity}, true
		}
	}

	if fd, ok := c.Schema.Field(Admin, key); ok && c.Site != nil {
		raw, stored, err := c.Site.Get(ctx, string(key))
		switch {
		case err != nil:
			onErr(errors.Wrap(errors.ErrCodeStore, err, "read site %s", key))
		case counts(fd, raw, stored):
			return Value{Key: key, Raw: raw, Source: SourceSite}, true
		}
	}

	return Value{Key: key, Raw: c.Schema.Literal(key), Source: SourceDefault}, true
}

// counts reports whether a stored value ends the cascade.
func counts(fd Field, raw string, stored bool) bool {
	if !stored {
		return false
	}
	return raw != "" || fd.Type == TypeCheckbox
}

func (c *Cascade) storeErr(diag *errors.Diagnostics) func(error) {
	return func(err error) {
		c.Logger.Warn("settings store", "err", err)
		if diag != nil {
			diag.SetError(errors.TagStore, err)
		}
	}
}
