package resolve

import (
	"context"

	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/rewrite"
)

// Routed is the outcome of routing a request path.
type Routed struct {
	Path   string        `json:"path"`
	Route  rewrite.Route `json:"route"`
	Entity entity.Ref    `json:"entity"`
	// Bundle is set when the path asked for the image endpoint.
	Bundle *Bundle `json:"bundle,omitempty"`
}

// Route matches path against the published rewrite table and resolves the
// entity when the endpoint flag is present.
func (r *Resolver) Route(ctx context.Context, path string) (*Routed, error) {
	if r.Routes.Current() == nil {
		if err := r.RebuildRoutes(ctx); err != nil {
			return nil, err
		}
	}
	route, ok := r.Routes.Match(path)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no rewrite rule matches %s", path)
	}

	out := &Routed{Path: path, Route: route, Entity: route.Entity(r.Vars)}
	if !route.Flag {
		return out, nil
	}
	b, err := r.Resolve(ctx, out.Entity)
	if err != nil {
		return nil, err
	}
	out.Bundle = b
	return out, nil
}

// RebuildRoutes transforms the rule table returned by RouteInput and
// publishes it.
func (r *Resolver) RebuildRoutes(ctx context.Context) error {
	if r.RouteInput == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "no rewrite rules configured")
	}
	in, err := r.RouteInput()
	if err != nil {
		return err
	}
	_, err = r.Routes.Rebuild(ctx, in)
	return err
}
