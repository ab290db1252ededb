package cli

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/geometry"
	"github.com/matzehuels/ogbrand/pkg/rewrite"
)

// run executes the CLI with args and returns what the commands printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })

	err := New(io.Discard, LogInfo).Execute(context.Background(), args)
	return buf.String(), err
}

// writeConfig writes a configuration with a file store, a file cache and
// a two-rule table into a temporary directory and returns its path.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.json")
	table := rewrite.Table{
		{Pattern: "(.?.+?)/social-image.jpg(/(.*))?/?$", Target: "index.php?name=$matches[1]&bsi_img=$matches[3]"},
		{Pattern: "(.?.+?)(?:/([0-9]+))?/?$", Target: "index.php?name=$matches[1]&page=$matches[2]"},
	}
	if err := rewrite.ExportJSON(table, rules); err != nil {
		t.Fatal(err)
	}

	cfg := fmt.Sprintf(`[site]
name = "Site"
url = "https://example.com"
permalink_structure = "/%%postname%%/"
rules = %q

[text]
scrape = false

[store]
backend = "file"
path = %q

[cache]
backend = "file"
dir = %q

[fonts]
dir = %q
`, rules, filepath.Join(dir, "settings.toml"), filepath.Join(dir, "cache"), filepath.Join(dir, "fonts"))

	path := filepath.Join(dir, "ogbrand.toml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseRef(t *testing.T) {
	tests := []struct {
		in      string
		want    entity.Ref
		wantErr bool
	}{
		{in: "42", want: entity.Ref{Base: entity.Content, Type: "post", ID: "42"}},
		{in: "content/page/about", want: entity.Ref{Base: entity.Content, Type: "page", ID: "about"}},
		{in: "term/category/news", want: entity.Ref{Base: entity.Term, Type: "category", ID: "news"}},
		{in: "content/post", wantErr: true},
		{in: "widget/post/1", wantErr: true},
		{in: "content/post/a..b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRef(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseRef(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRef(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseRef(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestColorCommand(t *testing.T) {
	out, err := run(t, "color", "#f80", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Hex    string           `json:"hex"`
		Web    map[string]uint8 `json:"web"`
		Raster map[string]uint8 `json:"raster"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Web["r"] != 0xff || got.Web["g"] != 0x88 || got.Web["b"] != 0 {
		t.Errorf("web = %v, want ff/88/00", got.Web)
	}
	if got.Web["a"] != 255 {
		t.Errorf("web alpha = %d, want 255", got.Web["a"])
	}
	if got.Raster["a"] != 0 {
		t.Errorf("raster alpha = %d, want 0", got.Raster["a"])
	}

	if _, err := run(t, "color", "#1234567"); !errors.Is(err, errors.ErrCodeInvalidColor) {
		t.Errorf("seven digit color error = %v, want %s", err, errors.ErrCodeInvalidColor)
	}
}

func TestPositionCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "position", "top-left")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"top-left on 1200x630", "top=40", "left=40"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "--config", cfg, "position", "middle"); !stderrors.Is(err, geometry.ErrInvalidPosition) {
		t.Errorf("bad keyword error = %v, want %v", err, geometry.ErrInvalidPosition)
	}
	if _, err := run(t, "--config", cfg, "position", "center", "--set", "color"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("--set color error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}

	if _, err := run(t, "--config", cfg, "position", "bottom-left", "--set", "logo_position"); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "--config", cfg, "settings", "get", "logo_position")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "bottom-left" {
		t.Errorf("stored logo_position = %q, want %q", strings.TrimSpace(out), "bottom-left")
	}
}

func TestSettingsCommand(t *testing.T) {
	cfg := writeConfig(t)

	if _, err := run(t, "--config", cfg, "settings", "set", "color", "#ff0000"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "--config", cfg, "settings", "set", "background_color", "#00ff00"); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "--config", cfg, "settings", "list", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var values map[string]string
	if err := json.Unmarshal([]byte(out), &values); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if values["color"] != "#ff0000" || values["background_color"] != "#00ff00" {
		t.Errorf("list = %v", values)
	}

	if _, err := run(t, "--config", cfg, "settings", "unset", "color"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "--config", cfg, "settings", "get", "color"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("get after unset error = %v, want %s", err, errors.ErrCodeNotFound)
	}

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"unknown key", []string{"settings", "set", "nope", "1"}, errors.ErrCodeUnknownOption},
		{"bad color", []string{"settings", "set", "color", "red"}, errors.ErrCodeInvalidColor},
		{"bad scope", []string{"settings", "list", "--scope", "content/post"}, errors.ErrCodeInvalidEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append([]string{"--config", cfg}, tt.args...)...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSettingsKeys(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, "--config", cfg, "settings", "keys")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"color", "text__font", "logo_position"} {
		if !strings.Contains(out, want) {
			t.Errorf("keys output missing %q", want)
		}
	}
}

func TestRewriteCommand(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, "--config", cfg, "rewrite", "--json")
	if err != nil {
		t.Fatal(err)
	}
	table, err := rewrite.ReadJSON(strings.NewReader(out))
	if err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(table) != 2 {
		t.Fatalf("len(table) = %d, want 2", len(table))
	}
	if want := "index.php?name=$matches[1]&bsi_img=1"; table[0].Target != want {
		t.Errorf("table[0].Target = %q, want %q", table[0].Target, want)
	}

	dst := filepath.Join(t.TempDir(), "out.json")
	if _, err := run(t, "--config", cfg, "rewrite", "--flush", "-o", dst); err != nil {
		t.Fatal(err)
	}
	written, err := rewrite.ImportJSON(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != len(table) {
		t.Errorf("written %d rules, want %d", len(written), len(table))
	}
}

func TestRouteCommand(t *testing.T) {
	cfg := writeConfig(t)
	out, err := run(t, "--config", cfg, "route", "/hello/social-image.jpg", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Route struct {
			Flag bool `json:"flag"`
		} `json:"route"`
		Bundle *struct {
			Enabled bool `json:"enabled"`
		} `json:"bundle"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !got.Route.Flag {
		t.Error("route flag = false, want true")
	}
	if got.Bundle == nil || !got.Bundle.Enabled {
		t.Errorf("bundle = %+v, want an enabled bundle", got.Bundle)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ogbrand.toml")
	if _, err := run(t, "config", "init", path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, err := run(t, "config", "init", path); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("second init error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
	if _, err := run(t, "config", "init", path, "--force"); err != nil {
		t.Errorf("init --force error: %v", err)
	}

	out, err := run(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "[endpoint]") {
		t.Errorf("show output missing [endpoint]:\n%s", out)
	}
}

func TestCacheCommands(t *testing.T) {
	cfg := writeConfig(t)
	dir := filepath.Join(filepath.Dir(cfg), "cache")

	out, err := run(t, "--config", cfg, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), dir)
	}

	// Building the rule table fills the cache.
	if _, err := run(t, "--config", cfg, "rewrite", "--json"); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "--config", cfg, "cache", "clear")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Cleared 1 cached entries") {
		t.Errorf("clear output = %q", out)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, err := run(t, "completion", shell)
		if err != nil {
			t.Fatalf("completion %s: %v", shell, err)
		}
		if !strings.Contains(out, "ogbrand") {
			t.Errorf("completion %s output does not mention ogbrand", shell)
		}
	}
	if _, err := run(t, "completion", "tcsh"); err == nil {
		t.Error("completion tcsh succeeded, want error")
	}
}
