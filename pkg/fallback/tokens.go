package fallback

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/errors"
)

// Built-in title format tokens.
const (
	TokenTitle    = "{title}"
	TokenBlogname = "{blogname}"
)

// TokenFunc computes the replacement of a title format token for ref.
type TokenFunc func(ctx context.Context, ref entity.Ref) (string, error)

// Tokens is a registry of extra title format tokens.
type Tokens struct {
	mu sync.RWMutex
	m  map[string]TokenFunc
}

// NewTokens creates an empty registry.
func NewTokens() *Tokens {
	return &Tokens{m: make(map[string]TokenFunc)}
}

// Register adds or replaces a token. Tokens are written {name}; the
// built-in tokens can be replaced.
func (t *Tokens) Register(token string, fn TokenFunc) error {
	if len(token) < 3 || token[0] != '{' || token[len(token)-1] != '}' || strings.ContainsAny(token[1:len(token)-1], "{} ") {
		return errors.New(errors.ErrCodeInvalidInput, "invalid token %q (want {name})", token)
	}
	if fn == nil {
		return errors.New(errors.ErrCodeInvalidInput, "token %s has no function", token)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[token] = fn
	return nil
}

// Names returns the registered tokens in lexical order.
func (t *Tokens) Names() []string {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Sorted(maps.Keys(t.m))
}

func (t *Tokens) get(token string) (TokenFunc, bool) {
	if t == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn, ok := t.m[token]
	return fn, ok
}

// Format expands a title format for ref. {title} stays literal for an
// unsaved draft. Tokens that fail expand to the empty string.
func (r *Resolver) Format(ctx context.Context, ref entity.Ref, format string) string {
	builtin := map[string]TokenFunc{
		TokenTitle: func(ctx context.Context, ref entity.Ref) (string, error) {
			if ref.IsNew() {
				return TokenTitle, nil
			}
			return r.title(ctx, ref)
		},
		TokenBlogname: func(ctx context.Context, _ entity.Ref) (string, error) {
			if r.Content == nil {
				return "", nil
			}
			return r.Content.SiteName(ctx)
		},
	}

	var pairs []string
	seen := make(map[string]bool)
	names := append(slices.Sorted(maps.Keys(builtin)), r.Tokens.Names()...)
	for _, tok := range names {
		if seen[tok] || !strings.Contains(format, tok) {
			continue
		}
		seen[tok] = true
		fn, ok := r.Tokens.get(tok)
		if !ok {
			fn = builtin[tok]
		}
		v, err := fn(ctx, ref)
		if err != nil {
			r.log().Debug("title token failed", "token", tok, "err", err)
			v = ""
		}
		pairs = append(pairs, tok, v)
	}
	return strings.NewReplacer(pairs...).Replace(format)
}
