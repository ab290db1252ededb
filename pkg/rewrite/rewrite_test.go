package rewrite

import (
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/ogbrand/pkg/entity"
)

var ep = NewEndpoint(FormatJPG)

// wpRules is a trimmed table as a router with the endpoint registered
// produces it.
var wpRules = Table{
	{"social-image.jpg(/(.*))?/?$", "index.php?&bsi_img=$matches[2]"},
	{"foo/bar/?$", "index.php?foo=bar"},
	{"foo/bar/social-image.jpg(/(.*))?/?$", "index.php?foo=bar&bsi_img=$matches[2]"},
	{"book/?$", "index.php?post_type=book"},
	{"category/(.+?)/?$", "index.php?category_name=$matches[1]"},
	{"(.?.+?)/social-image.jpg(/(.*))?/?$", "index.php?pagename=$matches[1]&bsi_img=$matches[3]"},
	{"(.?.+?)(?:/([0-9]+))?/?$", "index.php?pagename=$matches[1]&page=$matches[2]"},
}

var genre = Taxonomy{Name: "genre", Slug: "genre", WithFront: true}

func transformed(t *testing.T) Table {
	t.Helper()
	out, err := Transform(Input{Rules: wpRules, Endpoint: ep, Structure: "/blog/%postname%/", Taxonomies: []Taxonomy{genre}})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	return out
}

func TestMerge(t *testing.T) {
	got := Merge(
		Table{{"a", "1"}, {"b", "2"}},
		Table{{"b", "3"}, {"c", "4"}, {"a", "5"}},
	)
	want := Table{{"a", "5"}, {"b", "3"}, {"c", "4"}}
	if !slices.Equal(got, want) {
		t.Errorf("Merge = %v, want %v", got, want)
	}
}

func TestEndpointName(t *testing.T) {
	tests := []struct {
		format, fallback, want string
	}{
		{"jpg", "jpg", "social-image.jpg"},
		{"png", "jpg", "social-image.png"},
		{"webp", "png", "social-image.png"},
		{"webp", "webp", "social-image.jpg"},
		{"gif", "", "social-image.jpg"},
	}
	for _, tt := range tests {
		if got := EndpointName(tt.format, tt.fallback); got != tt.want {
			t.Errorf("EndpointName(%q, %q) = %q, want %q", tt.format, tt.fallback, got, tt.want)
		}
	}
}

func TestEndpointValidate(t *testing.T) {
	if err := ep.Validate(); err != nil {
		t.Errorf("default endpoint: %v", err)
	}
	for _, bad := range []Endpoint{
		{Name: "", QueryVar: "x"},
		{Name: "a/b.jpg", QueryVar: "x"},
		{Name: "img.jpg", QueryVar: ""},
		{Name: "img.jpg", QueryVar: "Bad-Var"},
	} {
		if bad.Validate() == nil {
			t.Errorf("Validate(%+v) succeeded", bad)
		}
	}
}

func TestFrontPrefix(t *testing.T) {
	tests := map[string]string{
		"":                               "",
		"/%postname%/":                   "",
		"/%year%/%monthnum%/%postname%/": "",
		"/blog/%postname%/":              "blog/",
		"/archives/%post_id%":            "archives/",
		"/news/blog/%postname%":          "news/blog/",
	}
	for in, want := range tests {
		if got := FrontPrefix(in); got != want {
			t.Errorf("FrontPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInjectArchives(t *testing.T) {
	got := InjectArchives(wpRules, ep)
	if len(got) != len(wpRules)+1 {
		t.Fatalf("len = %d, want %d", len(got), len(wpRules)+1)
	}
	want := Rule{"book/social-image.jpg(/(.*))?/?$", "index.php?post_type=book&bsi_img=$matches[2]"}
	if got[0] != want {
		t.Errorf("first rule = %v, want %v", got[0], want)
	}
	if !slices.Equal(got[1:], wpRules) {
		t.Error("original rules not kept in order behind the archive rule")
	}
}

func TestInjectTaxonomies(t *testing.T) {
	taxes := []Taxonomy{genre, {Name: "studio", Slug: "studios"}}
	got := InjectTaxonomies(Table{{"x/?$", "index.php?x=1"}}, ep, "blog/", taxes)
	want := Table{
		{"blog/genre/(.+?)/social-image.jpg(/(.*))?/?$", "index.php?genre=$matches[1]&bsi_img=$matches[3]"},
		{"studios/(.+?)/social-image.jpg(/(.*))?/?$", "index.php?studio=$matches[1]&bsi_img=$matches[3]"},
		{"x/?$", "index.php?x=1"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("InjectTaxonomies =\n%v\nwant\n%v", got, want)
	}
}

func TestCollapseEndpoint(t *testing.T) {
	tests := []struct {
		name string
		in   Rule
		want Rule
	}{
		{"positional value", Rule{"foo/social-image.jpg(/(.*))?/?$", "index.php?foo=1&bsi_img=$matches[2]"},
			Rule{"foo/social-image.jpg/?$", "index.php?foo=1&bsi_img=1"}},
		{"no variable", Rule{"foo/social-image.jpg/?$", "index.php?foo=1"},
			Rule{"foo/social-image.jpg/?$", "index.php?foo=1&bsi_img=1"}},
		{"bare target", Rule{"social-image.jpg$", "index.php"},
			Rule{"social-image.jpg/?$", "index.php?bsi_img=1"}},
		{"other rule", Rule{"foo/?$", "index.php?foo=$matches[1]"},
			Rule{"foo/?$", "index.php?foo=$matches[1]"}},
		{"lookahead", Rule{"(?!wp-json)(.+?)/social-image.jpg(/(.*))?/?$", "index.php?pagename=$matches[1]&bsi_img=$matches[3]"},
			Rule{"(?!wp-json)(.+?)/social-image.jpg/?$", "index.php?pagename=$matches[1]&bsi_img=1"}},
		{"unbalanced", Rule{"foo(/social-image.jpg", "index.php?bsi_img=$matches[1]"},
			Rule{"foo(/social-image.jpg/?$", "index.php?bsi_img=1"}},
		{"empty pattern", Rule{"", "index.php?bsi_img=$matches[1]"},
			Rule{"", "index.php?bsi_img=$matches[1]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CollapseEndpoint(Table{tt.in}, ep)
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("CollapseEndpoint = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollapseEndpointMergesCollisions(t *testing.T) {
	got := CollapseEndpoint(Table{
		{"x/social-image.jpg(/(.*))?/?$", "index.php?a=1&bsi_img=$matches[2]"},
		{"y/?$", "index.php?y=1"},
		{"x/social-image.jpg/?$", "index.php?b=2"},
	}, ep)
	want := Table{
		{"x/social-image.jpg/?$", "index.php?b=2&bsi_img=1"},
		{"y/?$", "index.php?y=1"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("CollapseEndpoint = %v, want %v", got, want)
	}
}

func TestPrioritize(t *testing.T) {
	in := Table{{"a", "1"}, {"a/social-image.jpg", "2"}, {"b", "3"}, {"b/social-image.jpg", "4"}}
	got := Prioritize(in, ep)
	want := Table{{"a/social-image.jpg", "2"}, {"b/social-image.jpg", "4"}, {"a", "1"}, {"b", "3"}}
	if !slices.Equal(got, want) {
		t.Errorf("Prioritize = %v, want %v", got, want)
	}
	if in[0].Pattern != "a" {
		t.Error("Prioritize modified its input")
	}
}

func TestTransform(t *testing.T) {
	before := wpRules.Clone()
	got := transformed(t)

	want := Table{
		{"blog/genre/(.+?)/social-image.jpg/?$", "index.php?genre=$matches[1]&bsi_img=1"},
		{"book/social-image.jpg/?$", "index.php?post_type=book&bsi_img=1"},
		{"social-image.jpg/?$", "index.php?&bsi_img=1"},
		{"foo/bar/social-image.jpg/?$", "index.php?foo=bar&bsi_img=1"},
		{"(.?.+?)/social-image.jpg/?$", "index.php?pagename=$matches[1]&bsi_img=1"},
		{"foo/bar/?$", "index.php?foo=bar"},
		{"book/?$", "index.php?post_type=book"},
		{"category/(.+?)/?$", "index.php?category_name=$matches[1]"},
		{"(.?.+?)(?:/([0-9]+))?/?$", "index.php?pagename=$matches[1]&page=$matches[2]"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("Transform =\n%v\nwant\n%v", got, want)
	}
	if !slices.Equal(wpRules, before) {
		t.Error("Transform modified its input")
	}
}

func TestTransformLookaheadPattern(t *testing.T) {
	out, err := Transform(Input{
		Rules: Table{
			{"(?!wp-json)(.+?)/?$", "index.php?pagename=$matches[1]"},
			{"(?!wp-json)(.+?)/social-image.jpg(/(.*))?/?$", "index.php?pagename=$matches[1]&bsi_img=$matches[3]"},
		},
		Endpoint: ep,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := Table{
		{"(?!wp-json)(.+?)/social-image.jpg/?$", "index.php?pagename=$matches[1]&bsi_img=1"},
		{"(?!wp-json)(.+?)/?$", "index.php?pagename=$matches[1]"},
	}
	if !slices.Equal(out, want) {
		t.Errorf("Transform = %v, want %v", out, want)
	}
	for _, r := range out {
		if strings.Contains(r.Pattern, ep.Name) && !strings.HasSuffix(r.Target, ep.flag()) {
			t.Errorf("endpoint rule %v does not end in %s", r, ep.flag())
		}
	}
}

func TestTransformFlagOnly(t *testing.T) {
	e := Endpoint{Name: "image.jpg", QueryVar: "bsi_img"}
	out, err := Transform(Input{
		Rules: Table{
			{"foo/bar/?$", "index.php?foo=bar"},
			{"foo/bar/image.jpg(/(.*))?/?$", "index.php?foo=bar&bsi_img=$matches[2]"},
			{"(.+?)/image.jpg(/(.*))?/?$", "index.php?pagename=$matches[1]&bsi_img=$matches[3]"},
		},
		Endpoint: e,
	})
	if err != nil {
		t.Fatal(err)
	}

	seenOther := false
	for _, r := range out {
		if !strings.Contains(r.Pattern, e.Name) {
			seenOther = true
			continue
		}
		if seenOther {
			t.Errorf("endpoint rule %q after a non-endpoint rule", r.Pattern)
		}
		if !strings.HasSuffix(r.Target, "bsi_img=1") || strings.Contains(r.Target, "bsi_img=$") {
			t.Errorf("target %q captures the endpoint value", r.Target)
		}
		if !strings.HasSuffix(r.Pattern, e.Name+"/?$") {
			t.Errorf("pattern %q continues past the endpoint", r.Pattern)
		}
	}
	if target, _ := out.Get("foo/bar/?$"); target != "index.php?foo=bar" {
		t.Errorf("unrelated rule target = %q", target)
	}
}

func TestTransformIdempotent(t *testing.T) {
	once := transformed(t)
	twice, err := Transform(Input{Rules: once, Endpoint: ep, Structure: "/blog/%postname%/", Taxonomies: []Taxonomy{genre}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(once, twice) {
		t.Errorf("second Transform changed the table:\n%v\n%v", once, twice)
	}
}

func TestTransformRejectsBadInput(t *testing.T) {
	if _, err := Transform(Input{Endpoint: Endpoint{Name: "x.jpg"}}); err == nil {
		t.Error("missing query variable accepted")
	}
	if _, err := Transform(Input{Endpoint: ep, Taxonomies: []Taxonomy{{Name: "Genre", Slug: "g"}}}); err == nil {
		t.Error("invalid taxonomy accepted")
	}
}

func TestRouterMatch(t *testing.T) {
	rt := NewRouter(transformed(t), ep, true)

	tests := []struct {
		path   string
		index  int
		target string
		flag   bool
		front  bool
		ref    entity.Ref
	}{
		{"/blog/genre/rock/social-image.jpg", 0, "index.php?genre=rock&bsi_img=1", true, false,
			entity.Ref{ID: "rock", Type: "genre", Base: entity.Term}},
		{"/book/social-image.jpg/", 1, "index.php?post_type=book&bsi_img=1", true, false,
			entity.Ref{ID: entity.Archive, Type: "book", Base: entity.Content}},
		{"/BOOK/Social-Image.JPG", 1, "index.php?post_type=book&bsi_img=1", true, false,
			entity.Ref{ID: entity.Archive, Type: "book", Base: entity.Content}},
		{"/about/social-image.jpg", 4, "index.php?pagename=about&bsi_img=1", true, false,
			entity.Ref{ID: "about", Type: "page", Base: entity.Content}},
		{"/about/", 8, "index.php?pagename=about", false, false,
			entity.Ref{ID: "about", Type: "page", Base: entity.Content}},
		{"/social-image.jpg", 2, "index.php?", true, true, entity.Ref{Base: entity.Unsupported}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, ok := rt.Match(tt.path)
			if !ok {
				t.Fatal("no match")
			}
			if r.Index != tt.index || r.Target != tt.target || r.Flag != tt.flag || r.FrontPage != tt.front {
				t.Errorf("Match = %+v, want index %d target %q flag %v front %v", r, tt.index, tt.target, tt.flag, tt.front)
			}
			if got := r.Entity(entity.Vars{Taxonomies: []string{"genre"}}); got != tt.ref {
				t.Errorf("Entity = %+v, want %+v", got, tt.ref)
			}
		})
	}
}

func TestRouterUnfilledGroups(t *testing.T) {
	rt := NewRouter(Table{
		{"bad(", "index.php?x=1"},
		{"", "index.php?y=1"},
		{"category/(.+?)(/(page))?/?$", "index.php?category_name=$matches[1]&paged=$matches[3]&extra=$matches[7]"},
	}, ep, true)

	if rt.Len() != 1 {
		t.Errorf("Len = %d, want 1", rt.Len())
	}
	tests := map[string]string{
		"/category/news":      "index.php?category_name=news",
		"/category/news/page": "index.php?category_name=news&paged=page",
	}
	for path, want := range tests {
		r, ok := rt.Match(path)
		if !ok || r.Target != want || r.Index != 2 {
			t.Errorf("Match(%q) = %+v, want %q at 2", path, r, want)
		}
	}
	if _, ok := rt.Match("/tag/x"); ok {
		t.Error("Match(/tag/x) matched")
	}
}

func TestRouterPlain(t *testing.T) {
	rt := NewRouter(wpRules, ep, false)
	r, ok := rt.Match("/?p=12&bsi_img=1")
	if !ok || r.Index != -1 || !r.Flag || r.Target != "/?p=12&bsi_img=1" {
		t.Errorf("Match = %+v", r)
	}
	if got := r.Entity(entity.Vars{}); got != (entity.Ref{ID: "12", Type: "post", Base: entity.Content}) {
		t.Errorf("Entity = %+v", got)
	}
}
