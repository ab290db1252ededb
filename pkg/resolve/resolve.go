// Package resolve turns an entity into the parameters of its social image.
//
// A [Resolver] runs one [Pass] per request: the fallback chains pick the
// image and the text, the option cascade resolves every rendering option
// and expands it into pixel geometry, and the outcome is returned as a
// [Bundle] for the drawing side. Configuration problems found along the
// way are collected in the pass diagnostics and, when a store is attached,
// persisted for the administrative view.
//
// Passes are request scoped. Two passes never share memoized results, so
// concurrent requests cannot observe each other's state.
package resolve

import (
	"context"
	stderrors "errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/fallback"
	"github.com/matzehuels/ogbrand/pkg/media"
	"github.com/matzehuels/ogbrand/pkg/observability"
	"github.com/matzehuels/ogbrand/pkg/options"
	"github.com/matzehuels/ogbrand/pkg/rewrite"
	"github.com/matzehuels/ogbrand/pkg/settings"
)

// Bundle is the resolved rendering configuration of one entity.
type Bundle struct {
	Pass   string     `json:"pass"`
	Entity entity.Ref `json:"entity"`
	// Enabled is false when no image should be produced at all.
	Enabled bool `json:"enabled"`

	// ImageSource is the local file of the image, or its URL when the
	// image is remote. Empty when no image is available.
	ImageSource string `json:"image_source"`
	ImageURL    string `json:"image_url,omitempty"`
	ImageLayer  string `json:"image_layer,omitempty"`

	Text      string `json:"text"`
	TextLayer string `json:"text_layer,omitempty"`

	options.Render

	Diagnostics *errors.Diagnostics `json:"errors,omitempty"`
	Duration    time.Duration       `json:"duration"`
}

// HasImage reports whether an image source was found.
func (b *Bundle) HasImage() bool { return b.ImageSource != "" }

// Pass is the state of one resolution. It must not be shared between
// requests.
type Pass struct {
	ID          string
	Memo        *fallback.Memo
	Diagnostics *errors.Diagnostics
	Started     time.Time
}

// Resolver runs resolution passes.
type Resolver struct {
	Cascade  *options.Cascade
	Fallback *fallback.Resolver
	// Store receives the diagnostics of every pass. Nil disables
	// persistence.
	Store settings.Store
	// Routes is the rewrite table registry used by [Resolver.Route].
	Routes *rewrite.Registry
	// RouteInput supplies the untransformed rule table on rebuilds.
	RouteInput func() (rewrite.Input, error)
	// Vars are the custom query variables routes are mapped with.
	Vars   entity.Vars
	Logger *log.Logger

	closers []func() error
}

// New creates a resolver. A nil logger discards output.
func New(cascade *options.Cascade, fb *fallback.Resolver, store settings.Store, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Resolver{
		Cascade:  cascade,
		Fallback: fb,
		Store:    store,
		Routes:   rewrite.NewRegistry(nil, nil, logger),
		Logger:   logger,
	}
}

// NewPass starts a pass with a fresh memo and diagnostics.
func (r *Resolver) NewPass() *Pass {
	return &Pass{
		ID:          uuid.NewString(),
		Memo:        fallback.NewMemo(),
		Diagnostics: &errors.Diagnostics{},
		Started:     time.Now(),
	}
}

// Resolve runs a new pass for ref.
func (r *Resolver) Resolve(ctx context.Context, ref entity.Ref) (*Bundle, error) {
	return r.ResolvePass(ctx, r.NewPass(), ref)
}

// ResolvePass resolves ref within p. Configuration errors never fail the
// pass; they end up in the bundle diagnostics. The only errors are a
// cancelled context and an invalid entity reference.
func (r *Resolver) ResolvePass(ctx context.Context, p *Pass, ref entity.Ref) (b *Bundle, err error) {
	observability.Resolve().OnPassStart(ctx, p.ID, ref.String())
	defer func() {
		observability.Resolve().OnPassComplete(ctx, p.ID, p.Diagnostics.Len(), time.Since(p.Started), err)
	}()

	b = &Bundle{Pass: p.ID, Entity: ref, Diagnostics: p.Diagnostics}
	if !ref.Supported() {
		r.Logger.Debug("unsupported entity", "pass", p.ID, "entity", ref)
		return b, nil
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	if r.Cascade.Disabled(ctx, ref, p.Diagnostics) {
		r.Logger.Debug("social image disabled", "pass", p.ID, "entity", ref)
		b.Duration = time.Since(p.Started)
		return b, nil
	}
	b.Enabled = true

	img, err := r.Fallback.Image(ctx, ref, true, p.Memo)
	switch {
	case stderrors.Is(err, fallback.ErrNoImage):
	case err != nil:
		return nil, err
	default:
		b.ImageSource, b.ImageURL, b.ImageLayer = source(img.Value), img.Value.URL, img.Layer
	}
	observability.Resolve().OnLayer(ctx, p.ID, "image", img.Layer)

	text, err := r.Fallback.Text(ctx, ref, p.Memo)
	if err != nil {
		return nil, err
	}
	b.Text, b.TextLayer = text.Value, text.Layer
	observability.Resolve().OnLayer(ctx, p.ID, "text", text.Layer)

	b.Render, err = r.Cascade.Resolve(ctx, ref, p.Diagnostics)
	if err != nil {
		return nil, err
	}

	r.persist(ctx, ref, p.Diagnostics)
	b.Duration = time.Since(p.Started)
	r.Logger.Debug("resolved",
		"pass", p.ID,
		"entity", ref,
		"image_layer", b.ImageLayer,
		"text_layer", b.TextLayer,
		"errors", p.Diagnostics.Len(),
		"duration", b.Duration)
	return b, nil
}

// source prefers the local file of an attachment over its URL.
func source(a media.Attachment) string {
	if a.Path != "" {
		return a.Path
	}
	return a.URL
}

// DiagnosticsScope is the store scope the diagnostics of ref are kept in.
func DiagnosticsScope(ref entity.Ref) settings.Scope {
	if ref.HasMeta() {
		return settings.For(ref)
	}
	return settings.Site
}

func (r *Resolver) persist(ctx context.Context, ref entity.Ref, diag *errors.Diagnostics) {
	if r.Store == nil {
		return
	}
	if err := settings.SaveDiagnostics(ctx, r.Store, DiagnosticsScope(ref), diag); err != nil {
		r.Logger.Warn("could not store diagnostics", "entity", ref, "err", err)
	}
}

// =============================================================================
// Tracing
// =============================================================================

// Trace shows how every layer and option of an entity resolves.
type Trace struct {
	Entity entity.Ref                        `json:"entity"`
	Image  []fallback.Step[media.Attachment] `json:"image"`
	Text   []fallback.Step[string]           `json:"text"`
	Values map[options.Key]options.Value     `json:"values"`
	Errors *errors.Diagnostics               `json:"errors,omitempty"`
}

// Trace evaluates every layer of both chains and every option for ref,
// without persisting anything.
func (r *Resolver) Trace(ctx context.Context, ref entity.Ref) *Trace {
	p := r.NewPass()
	return &Trace{
		Entity: ref,
		Image:  r.Fallback.ImageChain(ref, true).Trace(ctx),
		Text:   r.Fallback.TextChain(ref, p.Memo).Trace(ctx),
		Values: r.Cascade.Values(ctx, ref, p.Diagnostics),
		Errors: p.Diagnostics,
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

// Close releases the stores and caches opened by [Open].
func (r *Resolver) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return stderrors.Join(errs...)
}
