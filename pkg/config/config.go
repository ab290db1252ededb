// Package config loads the ogbrand configuration file.
//
// The file is TOML. Every section is optional; [Config.SetDefaults] fills
// what is missing and [Config.Validate] rejects inconsistent values. Keys
// that do not belong to any section are errors, so typos surface at load
// time instead of being ignored.
//
//	[site]
//	name = "My Blog"
//	url = "https://example.com"
//	permalink_structure = "/blog/%postname%/"
//
//	[endpoint]
//	format = "png"
//
//	[features]
//	shadow = "on"
//
//	[store]
//	backend = "sqlite"
//	path = "/var/lib/ogbrand/settings.db"
//
//	[[taxonomies]]
//	name = "genre"
//	slug = "genre"
//	with_front = true
//
//	[[post_types]]
//	name = "book"
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/fallback"
	"github.com/matzehuels/ogbrand/pkg/geometry"
	"github.com/matzehuels/ogbrand/pkg/httputil"
	"github.com/matzehuels/ogbrand/pkg/media"
	"github.com/matzehuels/ogbrand/pkg/options"
	"github.com/matzehuels/ogbrand/pkg/rewrite"
	"github.com/matzehuels/ogbrand/pkg/settings"
)

// FileName is the configuration file looked up when none is given.
const FileName = "ogbrand.toml"

// Cache backends.
const (
	CacheNone  = "none"
	CacheFile  = "file"
	CacheRedis = "redis"
)

// Defaults.
const (
	DefaultAddr     = "127.0.0.1:8080"
	DefaultCacheTTL = 24 * time.Hour
)

// Config is the whole configuration file.
type Config struct {
	Site         Site                  `toml:"site"`
	Canvas       geometry.Canvas       `toml:"canvas"`
	Endpoint     Endpoint              `toml:"endpoint"`
	Features     options.Features      `toml:"features"`
	Integrations fallback.Integrations `toml:"integrations"`
	Text         Text                  `toml:"text"`
	Store        settings.Config       `toml:"store"`
	Cache        Cache                 `toml:"cache"`
	Fonts        Fonts                 `toml:"fonts"`
	Media        Media                 `toml:"media"`
	Server       Server                `toml:"server"`
	Taxonomies   []rewrite.Taxonomy    `toml:"taxonomies"`
	PostTypes    []entity.PostType     `toml:"post_types"`

	// path is the file the configuration was read from, if any.
	path string
}

// Site describes the site images are produced for.
type Site struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
	// PermalinkStructure is the router's permalink structure. Empty means
	// plain query-string URLs.
	PermalinkStructure string `toml:"permalink_structure"`
	// Rules is a JSON file holding the router's rewrite table.
	Rules string `toml:"rules"`
}

// Endpoint configures the image URL suffix.
type Endpoint struct {
	Format   string `toml:"format"`
	Fallback string `toml:"fallback"`
	QueryVar string `toml:"query_var"`
}

// Rewrite returns the endpoint the rewrite table is built for.
func (e Endpoint) Rewrite() rewrite.Endpoint {
	return rewrite.Endpoint{Name: rewrite.EndpointName(e.Format, e.Fallback), QueryVar: e.QueryVar}
}

// Text configures the text fallback chain.
type Text struct {
	// Scrape enables the scraped page title layer. Defaults to true.
	Scrape        *bool             `toml:"scrape"`
	ScrapeTimeout time.Duration     `toml:"scrape_timeout"`
	Headers       map[string]string `toml:"headers"`
}

// ScrapeEnabled reports whether page titles are scraped.
func (t Text) ScrapeEnabled() bool {
	return t.Scrape == nil || *t.Scrape
}

// Cache configures the byte cache for rewrite tables and image probes.
type Cache struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	URL     string        `toml:"url"`
	Prefix  string        `toml:"prefix"`
	TTL     time.Duration `toml:"ttl"`
}

// Fonts configures the font directory.
type Fonts struct {
	Dir string `toml:"dir"`
}

// Media configures the attachment library.
type Media struct {
	Root         string        `toml:"root"`
	BaseURL      string        `toml:"base_url"`
	Index        string        `toml:"index"`
	ProbeTimeout time.Duration `toml:"probe_timeout"`
}

// Server configures the diagnostics API.
type Server struct {
	Addr         string        `toml:"addr"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// =============================================================================
// Loading
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// Load reads the configuration at path. An empty path looks for
// [FileName] in the working directory and then in the user config
// directory; when neither exists the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = find()
		if path == "" {
			return Default(), nil
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open config")
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.path = path
	return c, nil
}

// Read decodes, defaults and validates a configuration.
func Read(r io.Reader) (*Config, error) {
	var c Config
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Path returns the file c was loaded from, or "" for defaults.
func (c *Config) Path() string { return c.path }

func find() string {
	candidates := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "ogbrand", FileName))
	}
	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p
		}
	}
	return ""
}

// =============================================================================
// Defaults and Validation
// =============================================================================

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Canvas.Width == 0 && c.Canvas.Height == 0 {
		c.Canvas = geometry.DefaultCanvas()
	}
	if c.Endpoint.Format == "" {
		c.Endpoint.Format = rewrite.DefaultFormat
	}
	if c.Endpoint.Fallback == "" {
		c.Endpoint.Fallback = rewrite.DefaultFormat
	}
	if c.Endpoint.QueryVar == "" {
		c.Endpoint.QueryVar = rewrite.DefaultQueryVar
	}
	c.Features.SetDefaults()
	if c.Text.ScrapeTimeout == 0 {
		c.Text.ScrapeTimeout = httputil.DefaultTimeout
	}
	c.Store.SetDefaults()
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.Backend == CacheFile && c.Cache.Dir == "" {
		c.Cache.Dir = DefaultCacheDir()
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Media.ProbeTimeout == 0 {
		c.Media.ProbeTimeout = media.DefaultProbeTimeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInvalidConfig, format, args...)
	}

	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return invalid("canvas must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Site.URL != "" {
		if err := errors.ValidateURL(c.Site.URL); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "site.url")
		}
	}
	if err := c.Endpoint.Rewrite().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "endpoint")
	}
	if err := c.Features.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "features")
	}
	if c.Text.ScrapeTimeout < 0 || c.Media.ProbeTimeout < 0 {
		return invalid("timeouts cannot be negative")
	}
	if err := c.Store.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "store")
	}
	switch c.Cache.Backend {
	case CacheNone:
	case CacheFile:
		if c.Cache.Dir == "" {
			return invalid("cache.dir is required for the file cache")
		}
	case CacheRedis:
		if c.Cache.URL == "" {
			return invalid("cache.url is required for the redis cache")
		}
	default:
		return invalid("unknown cache backend %q (want none, file or redis)", c.Cache.Backend)
	}
	seen := make(map[string]bool, len(c.Taxonomies))
	for _, t := range c.Taxonomies {
		if err := t.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "taxonomies")
		}
		if seen[t.Name] {
			return invalid("taxonomy %s is configured twice", t.Name)
		}
		seen[t.Name] = true
	}
	vars := make(map[string]string, len(c.PostTypes))
	for _, p := range c.PostTypes {
		if err := p.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "post_types")
		}
		if prev, ok := vars[p.Var()]; ok {
			return invalid("post types %s and %s share the query variable %q", prev, p.Name, p.Var())
		}
		if seen[p.Var()] {
			return invalid("post type %s uses the query variable of a taxonomy", p.Name)
		}
		vars[p.Var()] = p.Name
	}
	return nil
}

// QueryVars returns the custom query variables of the configured
// taxonomies and post types.
func (c *Config) QueryVars() entity.Vars {
	v := entity.Vars{PostTypes: c.PostTypes}
	for _, t := range c.Taxonomies {
		v.Taxonomies = append(v.Taxonomies, t.Name)
	}
	return v
}

// DefaultCacheDir returns the cache directory under the user cache dir.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "ogbrand")
	}
	return filepath.Join(dir, "ogbrand")
}
