// Package settings stores option values site-wide and per entity.
//
// A [Store] maps (scope, key) to a string value. Presence is reported
// separately from the value so that "stored empty" stays distinct from
// "never stored", which matters for checkbox options.
//
// # Backends
//
//   - [MemoryStore]: process memory, for tests and one-shot CLI runs
//   - [FileStore]: a TOML file, for local use and version-controlled setups
//   - [SQLiteStore]: an embedded SQLite database (modernc.org/sqlite)
//   - [RedisStore]: one Redis hash per scope, for shared deployments
//   - [MongoStore]: one MongoDB document per value
//
// Use [Open] to build a backend from a [Config] and [Guard] to reject
// writes of keys the option schema does not know.
package settings

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/matzehuels/ogbrand/pkg/entity"
	ogerrors "github.com/matzehuels/ogbrand/pkg/errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("settings store closed")

// Reserved keys hold platform facts and bookkeeping next to the options.
// They start with an underscore or carry a platform-defined name and are
// never subject to schema validation.
const (
	// KeyTitle is the rendered title of an entity.
	KeyTitle = "_title"
	// KeyPermalink is the public URL of an entity.
	KeyPermalink = "_permalink"
	// KeyThumbnail is the featured image attachment of an entity.
	KeyThumbnail = "_thumbnail_id"
	// KeyYoastImage is the Yoast SEO Open Graph image of an entity.
	KeyYoastImage = "_yoast_wpseo_opengraph-image-id"
	// KeyRankMathImage is the Rank Math Facebook image of an entity.
	KeyRankMathImage = "rank_math_facebook_image_id"
	// KeySiteName is the site display name.
	KeySiteName = "_blogname"
	// KeyDiagnostics holds the configuration diagnostics of the last pass.
	KeyDiagnostics = "image__errors"
)

var reserved = []string{KeyTitle, KeyPermalink, KeyThumbnail, KeyYoastImage, KeyRankMathImage, KeySiteName, KeyDiagnostics}

// Reserved reports whether key is a reserved key.
func Reserved(key string) bool {
	return slices.Contains(reserved, key)
}

// Store is the interface for settings backends.
type Store interface {
	// Get returns the stored value of key in scope. ok is false when nothing
	// is stored.
	Get(ctx context.Context, scope Scope, key string) (value string, ok bool, err error)

	// Set stores value under key in scope. An empty value is stored as such.
	Set(ctx context.Context, scope Scope, key, value string) error

	// Delete removes key from scope. Deleting a missing key is not an error.
	Delete(ctx context.Context, scope Scope, key string) error

	// List returns every stored key of scope.
	List(ctx context.Context, scope Scope) (map[string]string, error)

	// Close releases the backend.
	Close() error
}

// =============================================================================
// Scope
// =============================================================================

// Scope selects the site-wide tier or one entity.
type Scope struct {
	Entity entity.Ref
}

// Site is the site-wide scope.
var Site = Scope{}

// For returns the scope of one entity.
func For(r entity.Ref) Scope { return Scope{Entity: r} }

// IsSite reports whether s is the site-wide scope.
func (s Scope) IsSite() bool { return s.Entity.IsZero() }

// String returns the storage name of s: "site" or "<base>/<type>/<id>".
func (s Scope) String() string {
	if s.IsSite() {
		return "site"
	}
	return s.Entity.String()
}

// Validate checks that s can be used as a storage name.
func (s Scope) Validate() error {
	if s.IsSite() {
		return nil
	}
	return s.Entity.Validate()
}

// ParseScope reverses [Scope.String].
func ParseScope(s string) (Scope, error) {
	if s == "" || s == "site" {
		return Site, nil
	}
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Scope{}, ogerrors.New(ogerrors.ErrCodeInvalidEntity, "invalid scope %q (want site or base/type/id)", s)
	}
	base, err := entity.ParseBase(parts[0])
	if err != nil {
		return Scope{}, err
	}
	sc := For(entity.Ref{Base: base, Type: parts[1], ID: parts[2]})
	if err := sc.Validate(); err != nil {
		return Scope{}, err
	}
	return sc, nil
}

func checkKey(scope Scope, key string) error {
	if key == "" {
		return ogerrors.New(ogerrors.ErrCodeInvalidInput, "settings key cannot be empty")
	}
	return scope.Validate()
}

func storeErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrClosed) {
		return err
	}
	return ogerrors.Wrap(ogerrors.ErrCodeStore, err, format, args...)
}
