package settings

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/options"
)

// =============================================================================
// Schema Guard
// =============================================================================

// Guarded wraps a store and rejects writes the option schema does not
// allow: unknown keys, keys of the wrong context and invalid values. Site
// writes are checked against the Admin context, entity writes against the
// Meta context. Reserved keys pass through.
type Guarded struct {
	Store
	Schema *options.Schema
}

// Guard wraps s with schema validation.
func Guard(s Store, schema *options.Schema) *Guarded {
	return &Guarded{Store: s, Schema: schema}
}

// Check validates one write without performing it.
func (g *Guarded) Check(scope Scope, key, value string) error {
	if err := checkKey(scope, key); err != nil {
		return err
	}
	if Reserved(key) {
		return nil
	}
	ctx := options.Admin
	if !scope.IsSite() {
		if !scope.Entity.HasMeta() {
			return errors.New(errors.ErrCodeInvalidEntity, "%s cannot carry settings", scope)
		}
		ctx = options.Meta
	}
	return g.Schema.Validate(ctx, options.Key(key), value)
}

func (g *Guarded) Set(ctx context.Context, scope Scope, key, value string) error {
	if err := g.Check(scope, key, value); err != nil {
		return err
	}
	return g.Store.Set(ctx, scope, key, value)
}

// =============================================================================
// Providers
// =============================================================================

// SiteValues reads the site scope of a store for the option cascade.
type SiteValues struct {
	Store Store
}

func (v SiteValues) Get(ctx context.Context, key string) (string, bool, error) {
	return v.Store.Get(ctx, Site, key)
}

var _ options.SiteValues = SiteValues{}

// EntityProvider serves per-entity overrides and platform facts from a
// store. Facts live under the reserved keys of the entity scope; the site
// name lives in the site scope.
type EntityProvider struct {
	Store Store
	// DefaultSiteName is used when the store holds no site name.
	DefaultSiteName string
}

func (p EntityProvider) Override(ctx context.Context, r entity.Ref, key string) (string, bool, error) {
	if !r.HasMeta() {
		return "", false, nil
	}
	return p.Store.Get(ctx, For(r), key)
}

func (p EntityProvider) Title(ctx context.Context, r entity.Ref) (string, error) {
	return p.fact(ctx, r, KeyTitle)
}

func (p EntityProvider) Permalink(ctx context.Context, r entity.Ref) (string, error) {
	return p.fact(ctx, r, KeyPermalink)
}

func (p EntityProvider) SiteName(ctx context.Context) (string, error) {
	v, _, err := p.Store.Get(ctx, Site, KeySiteName)
	if err == nil && v == "" {
		v = p.DefaultSiteName
	}
	return v, err
}

// PlatformImage returns the attachment reference stored under one of the
// reserved image keys of r.
func (p EntityProvider) PlatformImage(ctx context.Context, r entity.Ref, key string) (string, error) {
	return p.fact(ctx, r, key)
}

func (p EntityProvider) fact(ctx context.Context, r entity.Ref, key string) (string, error) {
	if !r.HasMeta() {
		return "", nil
	}
	v, _, err := p.Store.Get(ctx, For(r), key)
	return v, err
}

var (
	_ entity.Meta   = EntityProvider{}
	_ entity.Source = EntityProvider{}
)

// =============================================================================
// Diagnostics
// =============================================================================

// SaveDiagnostics stores diag as JSON under [KeyDiagnostics] in scope. An
// empty set removes the key.
func SaveDiagnostics(ctx context.Context, s Store, scope Scope, diag *errors.Diagnostics) error {
	if diag == nil || diag.Len() == 0 {
		return s.Delete(ctx, scope, KeyDiagnostics)
	}
	data, err := json.Marshal(diag)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode diagnostics")
	}
	return s.Set(ctx, scope, KeyDiagnostics, string(data))
}

// LoadDiagnostics reads the diagnostics stored in scope. Nothing stored is
// an empty set.
func LoadDiagnostics(ctx context.Context, s Store, scope Scope) (*errors.Diagnostics, error) {
	diag := &errors.Diagnostics{}
	raw, ok, err := s.Get(ctx, scope, KeyDiagnostics)
	if err != nil || !ok || raw == "" {
		return diag, err
	}
	if err := json.Unmarshal([]byte(raw), diag); err != nil {
		return diag, errors.Wrap(errors.ErrCodeStore, err, "decode diagnostics")
	}
	return diag, nil
}
