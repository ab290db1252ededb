package rewrite

import (
	"regexp"
	"strings"

	"github.com/matzehuels/ogbrand/pkg/errors"
)

// Taxonomy is a public custom taxonomy whose terms get endpoint rules.
type Taxonomy struct {
	// Name is the query variable of the taxonomy.
	Name string `toml:"name" json:"name"`
	// Slug is the URL base of its terms, for example "genre".
	Slug string `toml:"slug" json:"slug"`
	// WithFront prefixes the slug with the permalink structure's front.
	WithFront bool `toml:"with_front" json:"with_front"`
}

// Validate checks the taxonomy name and slug.
func (t Taxonomy) Validate() error {
	if err := errors.ValidateSlug(t.Name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRule, err, "taxonomy name")
	}
	if t.Slug == "" || strings.HasPrefix(t.Slug, "/") || strings.ContainsAny(t.Slug, "()$?") {
		return errors.New(errors.ErrCodeInvalidRule, "invalid slug %q for taxonomy %s", t.Slug, t.Name)
	}
	return nil
}

// Input is everything a transformation depends on.
type Input struct {
	Rules      Table      `json:"rules"`
	Endpoint   Endpoint   `json:"endpoint"`
	Structure  string     `json:"structure"`
	Taxonomies []Taxonomy `json:"taxonomies,omitempty"`
}

// Validate checks the endpoint and taxonomies. Rules are not validated;
// malformed rules pass through the transformation.
func (in Input) Validate() error {
	if err := in.Endpoint.Validate(); err != nil {
		return err
	}
	for _, t := range in.Taxonomies {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Transform runs every step in order.
func Transform(in Input) (Table, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	t := InjectArchives(in.Rules, in.Endpoint)
	t = InjectTaxonomies(t, in.Endpoint, FrontPrefix(in.Structure), in.Taxonomies)
	t = CollapseEndpoint(t, in.Endpoint)
	return Prioritize(t, in.Endpoint), nil
}

var archiveTargetRe = regexp.MustCompile(`^index\.php\?post_type=([^&%]+)$`)

// InjectArchives adds an endpoint rule ahead of the table for every content
// type listing, recognised by a target of the form index.php?post_type=T.
func InjectArchives(t Table, ep Endpoint) Table {
	var archives Table
	for _, r := range t {
		m := archiveTargetRe.FindStringSubmatch(r.Target)
		if m == nil {
			continue
		}
		archives = append(archives, Rule{
			Pattern: m[1] + "/" + ep.suffix(),
			Target:  r.Target + "&" + ep.QueryVar + "=$matches[2]",
		})
	}
	return Merge(archives, t)
}

// InjectTaxonomies adds an endpoint rule ahead of the table for every
// taxonomy. prefix is the result of [FrontPrefix].
func InjectTaxonomies(t Table, ep Endpoint, prefix string, taxonomies []Taxonomy) Table {
	var terms Table
	for _, tax := range taxonomies {
		front := ""
		if tax.WithFront {
			front = prefix
		}
		terms = append(terms, Rule{
			Pattern: front + tax.Slug + "/(.+?)/" + ep.suffix(),
			Target:  "index.php?" + tax.Name + "=$matches[1]&" + ep.QueryVar + "=$matches[3]",
		})
	}
	return Merge(terms, t)
}

// CollapseEndpoint rewrites every rule whose pattern contains the endpoint
// name: the pattern is cut right after the name and the target's query
// variable becomes the constant flag instead of a captured value.
func CollapseEndpoint(t Table, ep Endpoint) Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		i := strings.Index(r.Pattern, ep.Name)
		if i < 0 || !r.Valid() || ep.Name == "" {
			out = append(out, r)
			continue
		}
		out = append(out, Rule{
			Pattern: r.Pattern[:i] + ep.Name + "/?$",
			Target:  setFlag(r.Target, ep),
		})
	}
	return Merge(out)
}

// setFlag cuts target at the first assignment of the query variable and
// ends it with the flag. A target without the variable gets it appended.
func setFlag(target string, ep Endpoint) string {
	if before, _, ok := strings.Cut(target, ep.QueryVar+"="); ok {
		return before + ep.flag()
	}
	switch {
	case strings.HasSuffix(target, "?"), strings.HasSuffix(target, "&"):
		return target + ep.flag()
	case strings.Contains(target, "?"):
		return target + "&" + ep.flag()
	}
	return target + "?" + ep.flag()
}

// Prioritize moves endpoint rules ahead of all others. The partition is
// stable.
func Prioritize(t Table, ep Endpoint) Table {
	top := make(Table, 0, len(t))
	var bottom Table
	for _, r := range t {
		if strings.Contains(r.Pattern, ep.Name) {
			top = append(top, r)
		} else {
			bottom = append(bottom, r)
		}
	}
	return append(top, bottom...)
}
