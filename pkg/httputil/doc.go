// Package httputil provides the outgoing HTTP collaborator used by the
// title scraper.
//
// [Fetcher] performs bounded GET requests: every attempt runs under a
// timeout, bodies are truncated at a size limit, and transient failures
// (network errors, 5xx and 429 responses) are retried through [Retry] with
// exponential backoff, honoring Retry-After. Other statuses are returned to the caller as-is;
// deciding whether a 404 matters is the caller's business.
//
// Every request reports to the hooks registered with
// [github.com/matzehuels/ogbrand/pkg/observability.SetHTTPHooks].
package httputil
