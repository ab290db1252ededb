// Package pkg provides the core libraries for ogbrand.
//
// # Overview
//
// ogbrand computes everything needed to draw a branded Open Graph image for
// one page of a site: the background image, the overlay text, colors, font,
// text and logo placement. It also rewrites the site's URL rule table so
// every page answers on an image endpoint. The pkg directory is organized
// into three areas:
//
//  1. Domain logic: [color], [geometry], [options], [fallback], [rewrite]
//  2. Infrastructure: [settings], [cache], [media], [fonts], [httputil],
//     [observability], [config]
//  3. Orchestration: [resolve] ties one resolution pass together
//
// # Architecture
//
// The typical data flow for one image request:
//
//	URL path
//	   ↓
//	rewrite.Router  (rule table match, entity and endpoint flag)
//	   ↓
//	resolve.Resolver
//	   ├── options.Cascade    (site value, entity override, schema default)
//	   └── fallback.Resolver  (image chain, text chain)
//	   ↓
//	resolve.Bundle  (what a renderer needs, plus per-tag diagnostics)
//
// Site and entity values live in a [settings.Store] backed by memory, a TOML
// file, SQLite, Redis or MongoDB. Rewrite tables and image probes are cached
// in a [cache.Cache].
//
// [color]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/color
// [geometry]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/geometry
// [options]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/options
// [fallback]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/fallback
// [rewrite]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/rewrite
// [settings]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/settings
// [settings.Store]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/settings#Store
// [cache]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/cache
// [cache.Cache]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/cache#Cache
// [media]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/media
// [fonts]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/fonts
// [httputil]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/observability
// [config]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/config
// [resolve]: https://pkg.go.dev/github.com/matzehuels/ogbrand/pkg/resolve
package pkg
