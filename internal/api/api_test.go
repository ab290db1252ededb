package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/ogbrand/pkg/entity"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/fallback"
	"github.com/matzehuels/ogbrand/pkg/options"
	"github.com/matzehuels/ogbrand/pkg/resolve"
	"github.com/matzehuels/ogbrand/pkg/rewrite"
	"github.com/matzehuels/ogbrand/pkg/settings"
)

var post = entity.Ref{ID: "hello", Type: "post", Base: entity.Content}

func newServer(t *testing.T) (*httptest.Server, settings.Store) {
	t.Helper()
	store := settings.NewMemoryStore()
	schema := options.NewSchema(options.DefaultFeatures())
	site := settings.SiteValues{Store: store}
	provider := settings.EntityProvider{Store: store, DefaultSiteName: "Site"}

	fb := fallback.NewResolver(schema, site, provider, provider)
	fb.ScrapeTitles = false
	r := resolve.New(options.NewCascade(schema, site, provider), fb, store, nil)
	r.RouteInput = func() (rewrite.Input, error) {
		return rewrite.Input{
			Rules: rewrite.Table{
				{Pattern: "(.?.+?)/social-image.jpg(/(.*))?/?$", Target: "index.php?name=$matches[1]&bsi_img=$matches[3]"},
				{Pattern: "(.?.+?)(?:/([0-9]+))?/?$", Target: "index.php?name=$matches[1]&page=$matches[2]"},
			},
			Endpoint:  rewrite.NewEndpoint(rewrite.FormatJPG),
			Structure: "/%postname%/",
		}, nil
	}

	ctx := context.Background()
	for key, value := range map[string]string{"image": "https://cdn.example.com/bg.png", "color": "#12345"} {
		if err := store.Set(ctx, settings.Site, key, value); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Set(ctx, settings.For(post), settings.KeyTitle, "Hello"); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(New(r, nil).Handler())
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var raw json.RawMessage
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			t.Fatalf("%s %s: decode: %v", method, url, err)
		}
	}
	return resp.StatusCode, raw
}

func TestHealthz(t *testing.T) {
	srv, _ := newServer(t)
	if status, _ := do(t, http.MethodGet, srv.URL+"/healthz", ""); status != http.StatusOK {
		t.Errorf("status = %d", status)
	}
}

func TestResolve(t *testing.T) {
	srv, _ := newServer(t)
	status, raw := do(t, http.MethodGet, srv.URL+"/v1/resolve/content/post/hello", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, raw)
	}
	var b struct {
		Enabled     bool              `json:"enabled"`
		ImageSource string            `json:"image_source"`
		Text        string            `json:"text"`
		Errors      map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		t.Fatal(err)
	}
	if !b.Enabled || b.ImageSource != "https://cdn.example.com/bg.png" || b.Text != "Hello - Site" {
		t.Errorf("bundle = %+v", b)
	}
	if _, ok := b.Errors[errors.TagColor]; !ok {
		t.Errorf("errors = %v, want a color entry", b.Errors)
	}
}

func TestErrors(t *testing.T) {
	srv, _ := newServer(t)
	tests := []struct {
		method, path, body string
		status             int
		code               errors.Code
	}{
		{http.MethodGet, "/v1/resolve/widget/post/1", "", http.StatusBadRequest, errors.ErrCodeInvalidEntity},
		{http.MethodGet, "/v1/resolve/content/post/a..b", "", http.StatusBadRequest, errors.ErrCodeInvalidEntity},
		{http.MethodGet, "/v1/route", "", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{http.MethodGet, "/v1/diagnostics?scope=content/post", "", http.StatusBadRequest, errors.ErrCodeInvalidEntity},
		{http.MethodPut, "/v1/settings/nope?scope=site", `{"value":"x"}`, http.StatusBadRequest, errors.ErrCodeUnknownOption},
		{http.MethodPut, "/v1/settings/color?scope=site", `{"value":"red"}`, http.StatusBadRequest, errors.ErrCodeInvalidColor},
		{http.MethodPut, "/v1/settings/color?scope=site", `{`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			status, raw := do(t, tt.method, srv.URL+tt.path, tt.body)
			if status != tt.status {
				t.Errorf("status = %d, want %d (%s)", status, tt.status, raw)
			}
			var e errorBody
			if err := json.Unmarshal(raw, &e); err != nil {
				t.Fatal(err)
			}
			if e.Code != tt.code || e.Message == "" {
				t.Errorf("error = %+v, want code %s", e, tt.code)
			}
		})
	}
}

func TestRoute(t *testing.T) {
	srv, _ := newServer(t)
	status, raw := do(t, http.MethodGet, srv.URL+"/v1/route?path=/hello/social-image.jpg", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, raw)
	}
	var out struct {
		Entity entity.Ref `json:"entity"`
		Bundle *struct {
			Text string `json:"text"`
		} `json:"bundle"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatal(err)
	}
	if out.Entity != post || out.Bundle == nil || out.Bundle.Text != "Hello - Site" {
		t.Errorf("route = %s", raw)
	}
}

func TestRewrite(t *testing.T) {
	srv, _ := newServer(t)
	status, raw := do(t, http.MethodGet, srv.URL+"/v1/rewrite", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, raw)
	}
	var snap rewrite.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Table) != 2 || snap.Table[0].Target != "index.php?name=$matches[1]&bsi_img=1" {
		t.Errorf("table = %+v", snap.Table)
	}

	if status, _ := do(t, http.MethodPost, srv.URL+"/v1/rewrite/invalidate", ""); status != http.StatusNoContent {
		t.Errorf("invalidate status = %d", status)
	}
}

func TestSettings(t *testing.T) {
	srv, store := newServer(t)
	ctx := context.Background()

	if status, raw := do(t, http.MethodPut, srv.URL+"/v1/settings/color?scope=site", `{"value":"#ff0000"}`); status != http.StatusNoContent {
		t.Fatalf("PUT status = %d: %s", status, raw)
	}
	if v, _, _ := store.Get(ctx, settings.Site, "color"); v != "#ff0000" {
		t.Errorf("stored color = %q", v)
	}

	status, raw := do(t, http.MethodGet, srv.URL+"/v1/settings?scope=site", "")
	if status != http.StatusOK {
		t.Fatalf("GET status = %d", status)
	}
	var values map[string]string
	if err := json.Unmarshal(raw, &values); err != nil {
		t.Fatal(err)
	}
	if values["color"] != "#ff0000" || values["image"] == "" {
		t.Errorf("values = %v", values)
	}

	if status, _ := do(t, http.MethodDelete, srv.URL+"/v1/settings/color?scope=site", ""); status != http.StatusNoContent {
		t.Errorf("DELETE status = %d", status)
	}
	if _, ok, _ := store.Get(ctx, settings.Site, "color"); ok {
		t.Error("color still stored")
	}
}

func TestDiagnostics(t *testing.T) {
	srv, _ := newServer(t)
	if status, _ := do(t, http.MethodGet, srv.URL+"/v1/resolve/content/post/hello", ""); status != http.StatusOK {
		t.Fatalf("resolve status = %d", status)
	}
	status, raw := do(t, http.MethodGet, srv.URL+"/v1/diagnostics?scope=content/post/hello", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d: %s", status, raw)
	}
	var diag map[string]string
	if err := json.Unmarshal(raw, &diag); err != nil {
		t.Fatal(err)
	}
	if _, ok := diag[errors.TagColor]; !ok {
		t.Errorf("diagnostics = %v", diag)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidColor, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeStore, "x"), http.StatusBadGateway},
		{errors.New(errors.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
