package rewrite

import (
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/ogbrand/pkg/errors"
)

// Endpoint defaults.
const (
	ImageName       = "social-image"
	DefaultQueryVar = "bsi_img"
	DefaultFormat   = "jpg"
)

// Output formats the endpoint can be named after. WebP is accepted as a
// setting but always served through its fallback.
const (
	FormatJPG  = "jpg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

var servable = []string{FormatJPG, FormatPNG}

// EndpointName returns the URL suffix for an output format, for example
// social-image.png. An unservable format uses fallback, and an unservable
// fallback uses jpg.
func EndpointName(format, fallback string) string {
	if !slices.Contains(servable, fallback) {
		fallback = DefaultFormat
	}
	if !slices.Contains(servable, format) {
		format = fallback
	}
	return ImageName + "." + format
}

// Endpoint names the URL suffix and the query variable it sets.
type Endpoint struct {
	Name     string `toml:"name" json:"name"`
	QueryVar string `toml:"query_var" json:"query_var"`
}

// NewEndpoint creates the endpoint for an output format.
func NewEndpoint(format string) Endpoint {
	return Endpoint{Name: EndpointName(format, DefaultFormat), QueryVar: DefaultQueryVar}
}

var queryVarRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Validate checks that the endpoint can be embedded in patterns and targets.
func (e Endpoint) Validate() error {
	if e.Name == "" || strings.ContainsAny(e.Name, "/?&=$()") {
		return errors.New(errors.ErrCodeInvalidRule, "invalid endpoint name %q", e.Name)
	}
	if !queryVarRe.MatchString(e.QueryVar) {
		return errors.New(errors.ErrCodeInvalidRule, "invalid query variable %q", e.QueryVar)
	}
	return nil
}

// flag is the presence assignment every collapsed target ends with.
func (e Endpoint) flag() string { return e.QueryVar + "=1" }

// suffix is the pattern tail of a value-bearing endpoint rule.
func (e Endpoint) suffix() string { return e.Name + "(/(.*))?/?$" }

// FrontPrefix returns the static front of a permalink structure, the part
// before the first tag, with a trailing slash and no leading slash.
// Taxonomies registered with a front use it as a pattern prefix.
//
//	FrontPrefix("/blog/%postname%/") == "blog/"
//	FrontPrefix("/%postname%/")      == ""
func FrontPrefix(structure string) string {
	front, _, _ := strings.Cut(structure, "/%")
	front = strings.TrimRight(front, "/") + "/"
	return strings.TrimLeft(front, "/")
}
