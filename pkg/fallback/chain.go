// Package fallback picks the image and the text of a social image from
// competing sources.
//
// A [Chain] is an ordered list of named [Layer]s. Layers are evaluated
// lazily from the highest priority down and the first non-empty value wins;
// the winning layer's name is kept in the [Result] for diagnostics. A layer
// that fails is logged and treated as empty, so a chain never fails because
// one source is unavailable.
//
// # Chains
//
// The image chain stacks, bottom first: the site fallback image, the
// featured image, the Yoast SEO image, the Rank Math image and the entity's
// own image. Higher layers override lower ones when they resolve to an
// existing attachment. An empty chain yields [ErrNoImage].
//
// The text chain tries, in order: the entity's own text, the bare platform
// title, the title scraped from the rendered page, the title format and the
// site default text.
//
// # Memoization
//
// Results are memoized in a [Memo] that lives for one resolution pass.
// Nothing is cached across passes; [Memo.Reset] forces recomputation.
package fallback

import (
	"context"
	"io"
	"slices"

	"github.com/charmbracelet/log"
)

// Layer is one candidate source.
type Layer[T comparable] struct {
	Name   string
	Source func(ctx context.Context) (T, error)
}

// Chain evaluates layers in priority order, highest first.
type Chain[T comparable] struct {
	Name   string
	Layers []Layer[T]
	Logger *log.Logger
}

// Stack builds a chain from layers listed lowest priority first.
func Stack[T comparable](name string, bottomFirst ...Layer[T]) Chain[T] {
	layers := slices.Clone(bottomFirst)
	slices.Reverse(layers)
	return Chain[T]{Name: name, Layers: layers}
}

// Result is the outcome of a chain. Layer is empty when no layer produced
// a value.
type Result[T comparable] struct {
	Value T      `json:"value"`
	Layer string `json:"layer"`
}

// Empty reports whether no layer produced a value.
func (r Result[T]) Empty() bool { return r.Layer == "" }

// Step is the evaluation of one layer in a trace.
type Step[T comparable] struct {
	Layer string `json:"layer"`
	Value T      `json:"value"`
	Err   string `json:"error,omitempty"`
}

// Resolve returns the first non-empty layer value. The only error is a
// cancelled context.
func (c Chain[T]) Resolve(ctx context.Context) (Result[T], error) {
	var zero T
	for _, l := range c.Layers {
		if err := ctx.Err(); err != nil {
			return Result[T]{}, err
		}
		v, err := l.Source(ctx)
		if err != nil {
			c.logger().Debug("layer failed", "chain", c.Name, "layer", l.Name, "err", err)
			continue
		}
		if v != zero {
			return Result[T]{Value: v, Layer: l.Name}, nil
		}
	}
	return Result[T]{}, ctx.Err()
}

// Trace evaluates every layer, in priority order, for diagnostics.
func (c Chain[T]) Trace(ctx context.Context) []Step[T] {
	steps := make([]Step[T], 0, len(c.Layers))
	for _, l := range c.Layers {
		v, err := l.Source(ctx)
		s := Step[T]{Layer: l.Name, Value: v}
		if err != nil {
			s.Err = err.Error()
		}
		steps = append(steps, s)
	}
	return steps
}

func (c Chain[T]) logger() *log.Logger {
	if c.Logger == nil {
		return discardLogger
	}
	return c.Logger
}

var discardLogger = log.New(io.Discard)
