// Package entity identifies the resource a branded image is generated for.
//
// A [Ref] names either a content item or a taxonomy term. Its ID is opaque
// except for two sentinels: [Archive] for the listing page of a content type
// and [New] for a draft that has not been saved yet.
//
// The package also defines the two read-only collaborators the resolver
// consults per entity: [Meta] for stored per-entity overrides and [Source]
// for platform facts such as the rendered title and permalink.
package entity

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/matzehuels/ogbrand/pkg/errors"
)

// Base is the broad kind of an entity.
type Base string

const (
	// Content is a single content item (post, page, custom type).
	Content Base = "content"
	// Term is a taxonomy term (category, tag, custom taxonomy).
	Term Base = "term"
	// Unsupported is anything else; no image is produced for it.
	Unsupported Base = "unsupported"
)

// ID sentinels.
const (
	// Archive is the ID of a content type's listing page.
	Archive = "archive"
	// New is the ID of an unsaved draft.
	New = "new"
)

// ParseBase validates a base type name.
func ParseBase(s string) (Base, error) {
	switch b := Base(s); b {
	case Content, Term, Unsupported:
		return b, nil
	}
	return "", errors.New(errors.ErrCodeInvalidEntity, "unknown base type %q", s)
}

// Ref identifies one entity for the duration of a resolution pass.
type Ref struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Base Base   `json:"base"`
}

// IsZero reports whether r names nothing.
func (r Ref) IsZero() bool { return r.ID == "" }

// IsArchive reports whether r is a content type listing.
func (r Ref) IsArchive() bool { return r.ID == Archive }

// IsNew reports whether r is an unsaved draft.
func (r Ref) IsNew() bool { return r.ID == New }

// Supported reports whether images can be produced for r at all.
func (r Ref) Supported() bool {
	return !r.IsZero() && (r.Base == Content || r.Base == Term)
}

// HasMeta reports whether r can carry stored per-entity values.
func (r Ref) HasMeta() bool {
	return r.Supported() && !r.IsArchive()
}

// Validate checks the reference for use as a store key.
func (r Ref) Validate() error {
	if _, err := ParseBase(string(r.Base)); err != nil {
		return err
	}
	if err := errors.ValidateEntityID(r.ID); err != nil {
		return err
	}
	if r.Type != "" {
		if err := errors.ValidateSlug(r.Type); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidEntity, err, "invalid entity type")
		}
	}
	return nil
}

// String formats r as base/type/id.
func (r Ref) String() string {
	return fmt.Sprintf("%s/%s/%s", r.Base, r.Type, r.ID)
}

// Meta supplies stored per-entity override values.
type Meta interface {
	// Override returns the stored value of key for r. ok is false when
	// nothing is stored, which is distinct from an empty stored value.
	Override(ctx context.Context, r Ref, key string) (value string, ok bool, err error)
}

// Source supplies platform facts about an entity.
type Source interface {
	// Title returns the rendered title of r, or "" if it has none.
	Title(ctx context.Context, r Ref) (string, error)
	// Permalink returns the public URL of r, or "" if it has none.
	Permalink(ctx context.Context, r Ref) (string, error)
	// SiteName returns the site's display name.
	SiteName(ctx context.Context) (string, error)
}

// =============================================================================
// Query Mapping
// =============================================================================

// PostType is a custom content type whose single items are addressed by
// their own query variable, as in index.php?book=moby-dick.
type PostType struct {
	// Name is the content type, for example "book".
	Name string `toml:"name" json:"name"`
	// QueryVar is the query variable of single items. Empty means Name.
	QueryVar string `toml:"query_var,omitempty" json:"query_var,omitempty"`
}

// Var returns the query variable of single items of p.
func (p PostType) Var() string {
	return orDefault(p.QueryVar, p.Name)
}

// Validate checks the type name and query variable.
func (p PostType) Validate() error {
	if err := errors.ValidateSlug(p.Name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidEntity, err, "post type name")
	}
	if p.QueryVar != "" {
		if err := errors.ValidateSlug(p.QueryVar); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidEntity, err, "query variable of post type %s", p.Name)
		}
	}
	if slices.Contains(reservedVars, p.Var()) {
		return errors.New(errors.ErrCodeInvalidEntity, "post type %s uses the reserved query variable %q", p.Name, p.Var())
	}
	return nil
}

// reservedVars are the query variables FromQuery reads itself.
var reservedVars = []string{"p", "page_id", "name", "pagename", "post_type", "cat", "category_name", "tag"}

// Vars lists the custom query variables a site registers.
type Vars struct {
	// Taxonomies are the query variables of custom taxonomies.
	Taxonomies []string
	PostTypes  []PostType
}

// FromQuery derives the entity a matched rewrite target points at.
func FromQuery(target string, vars Vars) Ref {
	_, raw, _ := strings.Cut(target, "?")
	q, err := url.ParseQuery(raw)
	if err != nil {
		return Ref{Base: Unsupported}
	}

	postType := q.Get("post_type")
	switch {
	case q.Get("p") != "":
		return Ref{ID: q.Get("p"), Type: orDefault(postType, "post"), Base: Content}
	case q.Get("page_id") != "":
		return Ref{ID: q.Get("page_id"), Type: "page", Base: Content}
	case q.Get("name") != "":
		return Ref{ID: q.Get("name"), Type: orDefault(postType, "post"), Base: Content}
	case q.Get("pagename") != "":
		return Ref{ID: q.Get("pagename"), Type: "page", Base: Content}
	case q.Get("cat") != "":
		return Ref{ID: q.Get("cat"), Type: "category", Base: Term}
	case q.Get("category_name") != "":
		return Ref{ID: q.Get("category_name"), Type: "category", Base: Term}
	case q.Get("tag") != "":
		return Ref{ID: q.Get("tag"), Type: "post_tag", Base: Term}
	}

	for _, pt := range vars.PostTypes {
		if v := q.Get(pt.Var()); v != "" {
			return Ref{ID: v, Type: pt.Name, Base: Content}
		}
	}

	for _, tax := range vars.Taxonomies {
		if v := q.Get(tax); v != "" {
			return Ref{ID: v, Type: tax, Base: Term}
		}
	}

	if postType != "" {
		for k := range q {
			if slices.Contains(nonArchiveKeys, k) {
				return Ref{Base: Unsupported}
			}
		}
		return Ref{ID: Archive, Type: postType, Base: Content}
	}
	return Ref{Base: Unsupported}
}

// nonArchiveKeys turn a post_type target into a dated, author or search listing.
var nonArchiveKeys = []string{"attachment", "attachment_id", "year", "monthnum", "author_name", "s"}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
