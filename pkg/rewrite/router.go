package rewrite

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/ogbrand/pkg/entity"
)

// Route is the outcome of matching a request path.
type Route struct {
	// Index is the position of the matched rule, or -1 when the router
	// does not use pretty permalinks.
	Index int  `json:"index"`
	Rule  Rule `json:"rule"`
	// Target is the rule target with captured groups substituted.
	Target string `json:"target"`
	// Flag reports whether the endpoint query variable is present.
	Flag      bool `json:"flag"`
	FrontPage bool `json:"front_page,omitempty"`
}

// Entity derives the entity the route points at.
func (r Route) Entity(vars entity.Vars) entity.Ref {
	return entity.FromQuery(r.Target, vars)
}

// Router matches request paths against a table.
type Router struct {
	endpoint Endpoint
	pretty   bool
	rules    []compiledRule
}

type compiledRule struct {
	Rule
	index int
	re    *regexp.Regexp
}

// NewRouter compiles t. Rules that do not compile are skipped. Without
// pretty permalinks the table is not consulted and targets are the
// requested URLs themselves.
func NewRouter(t Table, ep Endpoint, pretty bool) *Router {
	rt := &Router{endpoint: ep, pretty: pretty}
	for i, r := range t {
		if r.Pattern == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)^/` + r.Pattern)
		if err != nil {
			continue
		}
		rt.rules = append(rt.rules, compiledRule{Rule: r, index: i, re: re})
	}
	return rt
}

// Len returns the number of usable rules.
func (rt *Router) Len() int { return len(rt.rules) }

// Match returns the route of the first rule matching path.
func (rt *Router) Match(path string) (Route, bool) {
	if !rt.pretty {
		return Route{Index: -1, Target: path, Flag: strings.Contains(path, rt.endpoint.QueryVar)}, true
	}

	trimmed := strings.Trim(path, "/")
	front := trimmed == "" || trimmed == rt.endpoint.Name
	p := "/" + strings.TrimLeft(path, "/")

	for _, c := range rt.rules {
		m := c.re.FindStringSubmatchIndex(p)
		if m == nil {
			continue
		}
		target := expand(c.Target, p, m)
		r := Route{
			Index:  c.index,
			Rule:   c.Rule,
			Target: target,
			Flag:   strings.Contains(target, rt.endpoint.QueryVar),
		}
		if front {
			r.Target = "index.php?"
			r.FrontPage = true
		}
		return r, true
	}
	return Route{}, false
}

var unfilledRe = regexp.MustCompile(`[^?&]+=\$matches\[\d+\]`)

// expand substitutes the groups of match m of s into target. Assignments
// whose group did not participate are removed.
func expand(target, s string, m []int) string {
	var pairs []string
	for j := 0; j < len(m)/2; j++ {
		if m[2*j] < 0 {
			continue
		}
		pairs = append(pairs, "$matches["+strconv.Itoa(j)+"]", s[m[2*j]:m[2*j+1]])
	}
	target = strings.NewReplacer(pairs...).Replace(target)
	target = unfilledRe.ReplaceAllString(target, "")
	for strings.Contains(target, "&&") {
		target = strings.ReplaceAll(target, "&&", "&")
	}
	target = strings.ReplaceAll(target, "?&", "?")
	return strings.Trim(strings.TrimSpace(target), "&?")
}
