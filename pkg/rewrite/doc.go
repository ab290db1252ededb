// Package rewrite transforms a router's rewrite table so that social image
// URLs reach the image endpoint.
//
// # Overview
//
// A rewrite table is an ordered list of regular-expression patterns and
// query-string targets. The host router tries the patterns in order and
// uses the target of the first one that matches. The image endpoint is a
// fixed URL suffix such as social-image.jpg appended to any permalink.
//
// [Transform] applies four pure steps, in this order:
//
//  1. [InjectArchives] adds endpoint rules for content type listings.
//  2. [InjectTaxonomies] adds endpoint rules for public custom taxonomies.
//  3. [CollapseEndpoint] turns every endpoint rule into a presence flag:
//     the pattern ends right after the endpoint name and the target sets
//     the query variable to the constant 1.
//  4. [Prioritize] moves every endpoint rule ahead of all other rules,
//     keeping relative order on both sides.
//
// Each step returns a new [Table] and never modifies its input. A rule whose
// pattern is empty or does not compile is passed through untouched.
//
// # Tables
//
// Tables keep ordered-map semantics: when two rules share a pattern the
// first position is kept and the last target wins. [Merge] implements this.
//
// # Caching
//
// A [Registry] holds the current transformed table together with a compiled
// [Router]. Rebuilding publishes a new snapshot atomically, so readers never
// see a partially transformed table. Tables can be persisted through a
// [cache.Cache] keyed by the signature of their inputs.
//
// # Matching
//
// [Router.Match] finds the first rule matching a request path, substitutes
// the captured groups into the target and reports whether the endpoint flag
// is present. The target can be turned into an entity reference with
// [Route.Entity].
package rewrite
