package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/observability"
)

// Defaults for [NewFetcher].
const (
	DefaultTimeout  = 3 * time.Second
	DefaultMaxBody  = 2 << 20
	DefaultAttempts = 2
	DefaultDelay    = 250 * time.Millisecond
)

// UserAgent is sent unless a request overrides it.
const UserAgent = "ogbrand/1"

// Fetcher performs GET requests with a per-attempt timeout, a body limit and
// retries for transient failures.
type Fetcher struct {
	Client   *http.Client
	Timeout  time.Duration
	MaxBody  int64
	Attempts int
	Delay    time.Duration
	Headers  map[string]string
}

// NewFetcher creates a fetcher with the given per-attempt timeout.
// A zero timeout uses DefaultTimeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		Client:   &http.Client{},
		Timeout:  timeout,
		MaxBody:  DefaultMaxBody,
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
		Headers:  map[string]string{"User-Agent": UserAgent},
	}
}

// Get fetches rawURL and returns the status code and the (possibly
// truncated) body. Request headers override the fetcher's defaults. A
// response with any status is a success. 5xx and 429 responses are retried;
// a 5xx on the last attempt is returned without error, a 429 as
// ErrCodeRateLimited.
func (f *Fetcher) Get(ctx context.Context, rawURL string, headers map[string]string) (int, []byte, error) {
	if err := errors.ValidateURL(rawURL); err != nil {
		return 0, nil, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse URL")
	}

	var (
		status int
		body   []byte
	)
	err = Retry(ctx, f.Attempts, f.Delay, func() error {
		var err error
		status, body, err = f.once(ctx, u, headers)
		return err
	})
	if err != nil && status == http.StatusTooManyRequests {
		return status, body, errors.Wrap(errors.ErrCodeRateLimited, err, "fetch %s", u.Host)
	}
	if err != nil && status == 0 {
		if ctx.Err() != nil {
			return 0, nil, errors.Wrap(errors.ErrCodeTimeout, err, "fetch %s", u.Host)
		}
		return 0, nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", u.Host)
	}
	return status, body, nil
}

func (f *Fetcher) once(ctx context.Context, u *url.URL, headers map[string]string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, nil, err
	}
	for k, v := range f.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		return 0, nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	limit := f.MaxBody
	if limit <= 0 {
		limit = DefaultMaxBody
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))
	if err != nil {
		return 0, nil, &RetryableError{Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return resp.StatusCode, body, &RetryableError{
			Err:   fmt.Errorf("status %d", resp.StatusCode),
			After: retryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	case resp.StatusCode >= 500:
		return resp.StatusCode, body, &RetryableError{Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return resp.StatusCode, body, nil
}
