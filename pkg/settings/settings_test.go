package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/options"
)

var post = entity.Ref{ID: "42", Type: "post", Base: entity.Content}

// testStore runs the Store contract against s.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	entityScope := For(post)

	if _, ok, err := s.Get(ctx, Site, "color"); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}

	if err := s.Set(ctx, Site, "color", "#FFF"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, Site, "background_enabled", ""); err != nil {
		t.Fatalf("Set(empty): %v", err)
	}
	if err := s.Set(ctx, entityScope, "color", "#000"); err != nil {
		t.Fatalf("Set(entity): %v", err)
	}

	if v, ok, err := s.Get(ctx, Site, "color"); v != "#FFF" || !ok || err != nil {
		t.Errorf("Get(site color) = %q, %v, %v", v, ok, err)
	}
	if v, ok, err := s.Get(ctx, Site, "background_enabled"); v != "" || !ok || err != nil {
		t.Errorf("Get(stored empty) = %q, %v, %v, want present", v, ok, err)
	}
	if v, _, _ := s.Get(ctx, entityScope, "color"); v != "#000" {
		t.Errorf("Get(entity color) = %q, want #000", v)
	}

	if err := s.Set(ctx, Site, "color", "#ABC"); err != nil {
		t.Fatalf("Set(overwrite): %v", err)
	}
	all, err := s.List(ctx, Site)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all["color"] != "#ABC" {
		t.Errorf("List(site) = %v", all)
	}

	if err := s.Delete(ctx, Site, "color"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, Site, "color"); err != nil {
		t.Errorf("Delete(missing) = %v", err)
	}
	if _, ok, _ := s.Get(ctx, Site, "color"); ok {
		t.Error("deleted key still present")
	}
	if v, _, _ := s.Get(ctx, entityScope, "color"); v != "#000" {
		t.Error("site delete touched the entity scope")
	}

	if err := s.Set(ctx, Site, "", "x"); err == nil {
		t.Error("Set(empty key) succeeded")
	}
	if err := s.Set(ctx, For(entity.Ref{ID: "../x", Type: "post", Base: entity.Content}), "color", "x"); err == nil {
		t.Error("Set(bad scope) succeeded")
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	testStore(t, s)
	if _, _, err := s.Get(context.Background(), Site, "color"); err != ErrClosed {
		t.Errorf("Get after Close = %v, want ErrClosed", err)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	ctx := context.Background()
	if v, ok, _ := reopened.Get(ctx, Site, "background_enabled"); !ok || v != "" {
		t.Errorf("persisted stored-empty = %q, %v", v, ok)
	}
	if v, _, _ := reopened.Get(ctx, For(post), "color"); v != "#000" {
		t.Errorf("persisted entity color = %q", v)
	}
}

func TestFileStoreRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, []byte("[site\ncolor ="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path); err == nil {
		t.Error("NewFileStore accepted malformed TOML")
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")
	s, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)

	reopened, err := NewSQLiteStore(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if v, _, _ := reopened.Get(ctx, For(post), "color"); v != "#000" {
		t.Errorf("persisted entity color = %q", v)
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("OGBRAND_TEST_REDIS_URL")
	if url == "" {
		t.Skip("OGBRAND_TEST_REDIS_URL not set")
	}
	s, err := NewRedisStore(context.Background(), url, "ogbrand:test:"+t.Name()+":")
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("OGBRAND_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("OGBRAND_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := NewMongoStore(ctx, uri, "ogbrand_test", t.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		c, err := NewMongoStore(ctx, uri, "ogbrand_test", t.Name())
		if err == nil {
			c.coll.Drop(ctx)
			c.Close()
		}
	})
	testStore(t, s)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		cfg     Config
		wantErr bool
	}{
		{Config{Backend: BackendMemory}, false},
		{Config{Backend: BackendFile, Path: filepath.Join(dir, "s.toml")}, false},
		{Config{Backend: BackendSQLite, Path: filepath.Join(dir, "db", "s.db")}, false},
		{Config{Backend: BackendRedis}, true},
		{Config{Backend: BackendMongo}, true},
		{Config{Backend: "etcd"}, true},
	}
	for _, tt := range tests {
		s, err := Open(ctx, tt.cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("Open(%s) error = %v, wantErr %v", tt.cfg.Backend, err, tt.wantErr)
		}
		if s != nil {
			s.Close()
		}
	}
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"", Site, false},
		{"site", Site, false},
		{"content/post/42", For(post), false},
		{"term/category/news", For(entity.Ref{ID: "news", Type: "category", Base: entity.Term}), false},
		{"content/post", Scope{}, true},
		{"widget/post/42", Scope{}, true},
		{"content/Post/42", Scope{}, true},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseScope(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseScope(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && got.String() != tt.in && tt.in != "" {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}

func TestGuarded(t *testing.T) {
	ctx := context.Background()
	g := Guard(NewMemoryStore(), options.NewSchema(options.DefaultFeatures()))

	tests := []struct {
		name  string
		scope Scope
		key   string
		value string
		code  errors.Code
	}{
		{"site color", Site, "color", "#fff", ""},
		{"site bad color", Site, "color", "#12345", errors.ErrCodeInvalidColor},
		{"site unknown", Site, "favourite", "x", errors.ErrCodeUnknownOption},
		{"meta-only key on site", Site, "text_enabled", "on", errors.ErrCodeUnknownOption},
		{"entity text", For(post), "text", "Hello", ""},
		{"entity site-only key", For(post), "title_format", "{title}", errors.ErrCodeUnknownOption},
		{"entity feature-disabled key", For(post), "text_stroke", "2", errors.ErrCodeUnknownOption},
		{"archive scope", For(entity.Ref{ID: entity.Archive, Type: "book", Base: entity.Content}), "text", "x", errors.ErrCodeInvalidEntity},
		{"reserved", For(post), KeyTitle, "Hello", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Set(ctx, tt.scope, tt.key, tt.value)
			if tt.code == "" {
				if err != nil {
					t.Errorf("Set = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("Set = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestEntityProvider(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Set(ctx, Site, KeySiteName, "Site")
	s.Set(ctx, Site, "color", "#111")
	s.Set(ctx, For(post), KeyTitle, "Hello")
	s.Set(ctx, For(post), KeyPermalink, "https://example.com/hello/")
	s.Set(ctx, For(post), KeyThumbnail, "12")
	s.Set(ctx, For(post), "text", "")

	p := EntityProvider{Store: s}
	if v, _ := p.Title(ctx, post); v != "Hello" {
		t.Errorf("Title = %q", v)
	}
	if v, _ := p.Permalink(ctx, post); v != "https://example.com/hello/" {
		t.Errorf("Permalink = %q", v)
	}
	if v, _ := p.SiteName(ctx); v != "Site" {
		t.Errorf("SiteName = %q", v)
	}
	if v, _ := p.PlatformImage(ctx, post, KeyThumbnail); v != "12" {
		t.Errorf("PlatformImage = %q", v)
	}
	if v, ok, _ := p.Override(ctx, post, "text"); !ok || v != "" {
		t.Errorf("Override(stored empty) = %q, %v", v, ok)
	}
	archive := entity.Ref{ID: entity.Archive, Type: "post", Base: entity.Content}
	if _, ok, _ := p.Override(ctx, archive, "text"); ok {
		t.Error("archive has overrides")
	}

	if v, ok, _ := (SiteValues{Store: s}).Get(ctx, "color"); !ok || v != "#111" {
		t.Errorf("SiteValues.Get = %q, %v", v, ok)
	}
}

func TestDiagnosticsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	diag := &errors.Diagnostics{}
	diag.Set(errors.TagColor, "invalid color")
	if err := SaveDiagnostics(ctx, s, Site, diag); err != nil {
		t.Fatal(err)
	}
	got, err := LoadDiagnostics(ctx, s, Site)
	if err != nil {
		t.Fatal(err)
	}
	if msg, _ := got.Get(errors.TagColor); msg != "invalid color" {
		t.Errorf("loaded diagnostics = %v", got.Map())
	}

	if err := SaveDiagnostics(ctx, s, Site, &errors.Diagnostics{}); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, Site, KeyDiagnostics); ok {
		t.Error("empty diagnostics left a stored value")
	}
}
