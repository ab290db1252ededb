package resolve

import (
	"context"
	"io"
	"maps"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ogbrand/pkg/cache"
	"github.com/matzehuels/ogbrand/pkg/config"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/fallback"
	"github.com/matzehuels/ogbrand/pkg/fonts"
	"github.com/matzehuels/ogbrand/pkg/httputil"
	"github.com/matzehuels/ogbrand/pkg/media"
	"github.com/matzehuels/ogbrand/pkg/options"
	"github.com/matzehuels/ogbrand/pkg/rewrite"
	"github.com/matzehuels/ogbrand/pkg/settings"
)

// Open wires a resolver from a configuration: the settings store, the byte
// cache, the attachment library, the font catalogue, the title fetcher and
// the rewrite registry. Close the resolver to release them.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Resolver, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	store, err := settings.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	c, err := OpenCache(ctx, cfg.Cache)
	if err != nil {
		store.Close()
		return nil, err
	}
	keyer := cache.NewDefaultKeyer()
	if cfg.Site.URL != "" {
		keyer = cache.NewScopedKeyer(keyer, cfg.Site.URL+":")
	}

	var index map[string]media.Meta
	if cfg.Media.Index != "" {
		if index, err = media.LoadIndex(cfg.Media.Index); err != nil {
			c.Close()
			store.Close()
			return nil, err
		}
	}
	lib := media.NewLibrary(cfg.Media.Root, cfg.Media.BaseURL, index)
	lib.Cache, lib.Keyer, lib.CacheTTL = c, keyer, cfg.Cache.TTL
	lib.ProbeTimeout = cfg.Media.ProbeTimeout
	lib.Logger = logger

	fetcher := httputil.NewFetcher(cfg.Text.ScrapeTimeout)
	maps.Copy(fetcher.Headers, cfg.Text.Headers)

	schema := options.NewSchema(cfg.Features)
	site := settings.SiteValues{Store: store}
	provider := settings.EntityProvider{Store: store, DefaultSiteName: cfg.Site.Name}

	fb := fallback.NewResolver(schema, site, provider, provider)
	fb.Images = provider
	fb.Media = lib
	fb.Integrations = cfg.Integrations
	fb.ScrapeTitles = cfg.Text.ScrapeEnabled()
	fb.Fetcher = fetcher
	fb.ScrapeTimeout = cfg.Text.ScrapeTimeout
	fb.Logger = logger

	cascade := options.NewCascade(schema, site, provider)
	cascade.Logos = lib
	cascade.Fonts = fonts.NewCatalog(cfg.Fonts.Dir)
	cascade.Canvas = cfg.Canvas
	cascade.Logger = logger

	r := New(cascade, fb, store, logger)
	r.Routes = rewrite.NewRegistry(c, keyer, logger)
	r.Vars = cfg.QueryVars()
	if cfg.Site.Rules != "" {
		r.RouteInput = func() (rewrite.Input, error) { return RouteInput(cfg) }
	}
	r.closers = append(r.closers, store.Close, c.Close)
	return r, nil
}

// RouteInput reads the rule table named by the configuration.
func RouteInput(cfg *config.Config) (rewrite.Input, error) {
	if cfg.Site.Rules == "" {
		return rewrite.Input{}, errors.New(errors.ErrCodeInvalidConfig, "site.rules is not set")
	}
	rules, err := rewrite.ImportJSON(cfg.Site.Rules)
	if err != nil {
		return rewrite.Input{}, errors.Wrap(errors.ErrCodeInvalidRule, err, "read rewrite rules")
	}
	return rewrite.Input{
		Rules:      rules,
		Endpoint:   cfg.Endpoint.Rewrite(),
		Structure:  cfg.Site.PermalinkStructure,
		Taxonomies: cfg.Taxonomies,
	}, nil
}

// OpenCache builds the configured byte cache.
func OpenCache(ctx context.Context, cfg config.Cache) (cache.Cache, error) {
	switch cfg.Backend {
	case config.CacheFile:
		return cache.NewFileCache(cfg.Dir)
	case config.CacheRedis:
		return cache.NewRedisCache(ctx, cfg.URL, cfg.Prefix)
	}
	return cache.NewNullCache(), nil
}
