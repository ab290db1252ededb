package fallback

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/media"
	"github.com/matzehuels/ogbrand/pkg/options"
	"github.com/matzehuels/ogbrand/pkg/settings"
)

// ErrNoImage is returned when every layer of the image chain is empty. The
// drawing side treats it as "render no image", not as a failure.
var ErrNoImage = errors.New("no image available")

// Layer names.
const (
	LayerSettings  = "settings"
	LayerThumbnail = "thumbnail"
	LayerYoast     = "yoast"
	LayerRankMath  = "rankmath"
	LayerMeta      = "meta"
	LayerPlatform  = "platform"
	LayerScraped   = "scraped"
	LayerByFormat  = "by-format"
	LayerDefault   = "default"
)

// DefaultScrapeTimeout bounds one title scrape.
const DefaultScrapeTimeout = 3 * time.Second

// PlatformImages reads the attachment references the host platform and
// SEO integrations store for an entity.
type PlatformImages interface {
	PlatformImage(ctx context.Context, ref entity.Ref, key string) (string, error)
}

// Integrations lists the active SEO integrations.
type Integrations struct {
	Yoast    bool `toml:"yoast" json:"yoast"`
	RankMath bool `toml:"rankmath" json:"rankmath"`
}

// Resolver builds the image and text chains for an entity. It holds no
// per-pass state; pass a [Memo] to every call of one pass.
type Resolver struct {
	Schema       *options.Schema
	Site         options.SiteValues
	Meta         entity.Meta
	Content      entity.Source
	Images       PlatformImages
	Media        media.Resolver
	Integrations Integrations
	Tokens       *Tokens

	// ScrapeTitles enables the scraped title layer.
	ScrapeTitles  bool
	Fetcher       Fetcher
	ScrapeTimeout time.Duration
	ScrapeHeaders map[string]string

	Logger *log.Logger
}

// NewResolver creates a resolver over the given stores with scraping
// enabled and no fetcher.
func NewResolver(schema *options.Schema, site options.SiteValues, meta entity.Meta, content entity.Source) *Resolver {
	if schema == nil {
		schema = options.NewSchema(options.DefaultFeatures())
	}
	return &Resolver{
		Schema:        schema,
		Site:          site,
		Meta:          meta,
		Content:       content,
		Tokens:        NewTokens(),
		ScrapeTitles:  true,
		ScrapeTimeout: DefaultScrapeTimeout,
		Logger:        discardLogger,
	}
}

// =============================================================================
// Image Chain
// =============================================================================

// ImageChain builds the image chain for ref. The entity's own image layer
// is included only when withMeta is set.
func (r *Resolver) ImageChain(ref entity.Ref, withMeta bool) Chain[media.Attachment] {
	if !ref.Supported() {
		return Chain[media.Attachment]{Name: "image", Logger: r.log()}
	}

	layers := []Layer[media.Attachment]{
		r.imageLayer(LayerSettings, func(ctx context.Context) (string, error) {
			return r.siteValue(ctx, options.KeyImage), nil
		}),
	}

	item := ref.Base == entity.Content && ref.HasMeta()
	if item {
		thumb := r.platformLayer(LayerThumbnail, ref, settings.KeyThumbnail)
		source := thumb.Source
		thumb.Source = func(ctx context.Context) (media.Attachment, error) {
			if !options.Truthy(r.siteValue(ctx, options.KeyImageUseThumbnail)) {
				return media.Attachment{}, nil
			}
			return source(ctx)
		}
		layers = append(layers, thumb)
	}
	if item && r.Integrations.Yoast {
		layers = append(layers, r.platformLayer(LayerYoast, ref, settings.KeyYoastImage))
	}
	if item && r.Integrations.RankMath {
		layers = append(layers, r.platformLayer(LayerRankMath, ref, settings.KeyRankMathImage))
	}
	if item && withMeta {
		layers = append(layers, r.imageLayer(LayerMeta, func(ctx context.Context) (string, error) {
			return r.override(ctx, ref, options.KeyImage)
		}))
	}

	c := Stack("image", layers...)
	c.Logger = r.log()
	return c
}

// Image resolves the image chain for ref.
func (r *Resolver) Image(ctx context.Context, ref entity.Ref, withMeta bool, memo *Memo) (Result[media.Attachment], error) {
	key := imageKey{ref: ref.String(), withMeta: withMeta}
	res, ok := memo.image(key)
	if !ok {
		var err error
		res, err = r.ImageChain(ref, withMeta).Resolve(ctx)
		if err != nil {
			return Result[media.Attachment]{}, err
		}
		memo.setImage(key, res)
	}
	if res.Empty() {
		return res, ErrNoImage
	}
	return res, nil
}

func (r *Resolver) platformLayer(name string, ref entity.Ref, key string) Layer[media.Attachment] {
	return r.imageLayer(name, func(ctx context.Context) (string, error) {
		if r.Images == nil {
			return "", nil
		}
		return r.Images.PlatformImage(ctx, ref, key)
	})
}

// imageLayer resolves the reference a source produces to an attachment at
// the og-image size. A reference that resolves to nothing is empty.
func (r *Resolver) imageLayer(name string, source func(context.Context) (string, error)) Layer[media.Attachment] {
	return Layer[media.Attachment]{
		Name: name,
		Source: func(ctx context.Context) (media.Attachment, error) {
			ref, err := source(ctx)
			if err != nil || ref == "" || ref == "0" {
				return media.Attachment{}, err
			}
			if r.Media == nil {
				return media.Attachment{Ref: ref, URL: ref, Size: media.SizeOGImage}, nil
			}
			att, ok, err := r.Media.Resolve(ctx, ref, media.SizeOGImage)
			if err != nil || !ok {
				return media.Attachment{}, err
			}
			return att, nil
		},
	}
}

// =============================================================================
// Text Chain
// =============================================================================

// TextChain builds the text chain for ref. Unsupported entities get an
// empty chain.
func (r *Resolver) TextChain(ref entity.Ref, memo *Memo) Chain[string] {
	c := Chain[string]{Name: "text", Logger: r.log()}
	if !ref.Supported() {
		return c
	}

	c.Layers = []Layer[string]{
		{Name: LayerMeta, Source: func(ctx context.Context) (string, error) {
			return r.override(ctx, ref, options.KeyText)
		}},
		{Name: LayerPlatform, Source: func(ctx context.Context) (string, error) {
			if ref.IsNew() || !options.Truthy(r.siteValue(ctx, options.KeyUseBareTitle)) {
				return "", nil
			}
			return r.title(ctx, ref)
		}},
		{Name: LayerScraped, Source: func(ctx context.Context) (string, error) {
			if !r.ScrapeTitles || r.Content == nil {
				return "", nil
			}
			link, err := r.Content.Permalink(ctx, ref)
			if err != nil || link == "" {
				return "", err
			}
			return r.Scrape(ctx, link, memo).Title, nil
		}},
		{Name: LayerByFormat, Source: func(ctx context.Context) (string, error) {
			return r.Format(ctx, ref, r.siteValue(ctx, options.KeyTitleFormat)), nil
		}},
		{Name: LayerDefault, Source: func(ctx context.Context) (string, error) {
			return r.siteValue(ctx, options.KeyText), nil
		}},
	}
	return c
}

// Text resolves the text chain for ref.
func (r *Resolver) Text(ctx context.Context, ref entity.Ref, memo *Memo) (Result[string], error) {
	if res, ok := memo.text(ref.String()); ok {
		return res, nil
	}
	res, err := r.TextChain(ref, memo).Resolve(ctx)
	if err != nil {
		return Result[string]{}, err
	}
	memo.setText(ref.String(), res)
	return res, nil
}

// =============================================================================
// Store Access
// =============================================================================

// siteValue returns the stored site value of key, or its literal default
// when nothing non-empty is stored. Stored empty checkboxes stay empty.
func (r *Resolver) siteValue(ctx context.Context, key options.Key) string {
	fd, ok := r.Schema.Field(options.Admin, key)
	if !ok {
		return ""
	}
	if r.Site != nil {
		v, stored, err := r.Site.Get(ctx, string(key))
		if err != nil {
			r.log().Warn("settings store", "key", key, "err", err)
		} else if stored && (v != "" || fd.Type == options.TypeCheckbox) {
			return v
		}
	}
	return fd.Default
}

func (r *Resolver) override(ctx context.Context, ref entity.Ref, key options.Key) (string, error) {
	if r.Meta == nil || !ref.HasMeta() || !r.Schema.Allowed(options.Meta, key) {
		return "", nil
	}
	v, _, err := r.Meta.Override(ctx, ref, string(key))
	return v, err
}

func (r *Resolver) title(ctx context.Context, ref entity.Ref) (string, error) {
	if r.Content == nil {
		return "", nil
	}
	return r.Content.Title(ctx, ref)
}

func (r *Resolver) log() *log.Logger {
	if r.Logger == nil {
		return discardLogger
	}
	return r.Logger
}
