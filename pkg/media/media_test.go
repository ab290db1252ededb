package media

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/ogbrand/pkg/cache"
	"github.com/matzehuels/ogbrand/pkg/errors"
)

func writePNG(t *testing.T, file string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(file)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func testLibrary(t *testing.T) *Library {
	t.Helper()
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "2024/05/photo.png"), 400, 300)
	writePNG(t, filepath.Join(root, "2024/05/photo-1200x630.png"), 1200, 630)
	writePNG(t, filepath.Join(root, "logo.png"), 200, 100)
	writePNG(t, filepath.Join(root, "logo-og-image.png"), 20, 10)
	if err := os.WriteFile(filepath.Join(root, "notes.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	index := map[string]Meta{
		"12": {File: "2024/05/photo.png", Sizes: map[string]Rendition{
			SizeOGImage: {File: "photo-1200x630.png"},
		}},
		"13": {File: "2024/05/photo.png", Sizes: map[string]Rendition{
			SizeOGImage: {File: "photo-missing.png"},
		}},
		"14": {File: "2024/05/gone.png"},
	}
	return NewLibrary(root, "https://example.com/uploads", index)
}

func TestLibraryResolve(t *testing.T) {
	lib := testLibrary(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		ref     string
		size    string
		wantOK  bool
		wantURL string
		sized   bool
	}{
		{"indexed rendition", "12", SizeOGImage, true, "https://example.com/uploads/2024/05/photo-1200x630.png", true},
		{"missing rendition falls back to base", "13", SizeOGImage, true, "https://example.com/uploads/2024/05/photo.png", false},
		{"full size", "12", SizeFull, true, "https://example.com/uploads/2024/05/photo.png", false},
		{"missing base", "14", SizeOGImage, false, "", false},
		{"relative path rendition by name", "logo.png", SizeOGImage, true, "https://example.com/uploads/logo-og-image.png", true},
		{"relative path", "logo.png", SizeFull, true, "https://example.com/uploads/logo.png", false},
		{"local URL", "https://example.com/uploads/logo.png", SizeFull, true, "https://example.com/uploads/logo.png", false},
		{"remote URL", "https://cdn.example.org/x.jpg", SizeOGImage, true, "https://cdn.example.org/x.jpg", false},
		{"unknown", "99", SizeOGImage, false, "", false},
		{"empty", "", SizeOGImage, false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att, ok, err := lib.Resolve(ctx, tt.ref, tt.size)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if att.URL != tt.wantURL {
				t.Errorf("URL = %q, want %q", att.URL, tt.wantURL)
			}
			if att.Sized != tt.sized {
				t.Errorf("Sized = %v, want %v", att.Sized, tt.sized)
			}
		})
	}
}

func TestLibraryResolveRejectsTraversal(t *testing.T) {
	lib := testLibrary(t)
	if _, ok, err := lib.Resolve(context.Background(), "../etc/passwd", SizeFull); ok || err == nil {
		t.Errorf("Resolve(traversal) = %v, %v, want error", ok, err)
	}
}

func TestLibraryFileURLs(t *testing.T) {
	root := t.TempDir()
	writePNG(t, filepath.Join(root, "a.png"), 1, 1)
	lib := NewLibrary(root, "", nil)

	att, ok, err := lib.Resolve(context.Background(), "a.png", SizeFull)
	if err != nil || !ok {
		t.Fatalf("Resolve = %v, %v", ok, err)
	}
	want := "file://" + filepath.ToSlash(filepath.Join(root, "a.png"))
	if att.URL != want {
		t.Errorf("URL = %q, want %q", att.URL, want)
	}
}

func TestLibraryProbe(t *testing.T) {
	lib := testLibrary(t)
	ctx := context.Background()

	img, err := lib.Probe(ctx, "logo.png")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if img.Width != 200 || img.Height != 100 || img.Format != "png" {
		t.Errorf("Probe = %dx%d %s, want 200x100 png", img.Width, img.Height, img.Format)
	}
	if img.AspectRatio() != 2 {
		t.Errorf("AspectRatio = %v, want 2", img.AspectRatio())
	}

	errs := []struct {
		ref  string
		code errors.Code
	}{
		{"missing.png", errors.ErrCodeAttachmentNotFound},
		{"notes.png", errors.ErrCodeUnreadableImage},
		{"https://cdn.example.org/x.jpg", errors.ErrCodeUnreadableImage},
	}
	for _, tt := range errs {
		if _, err := lib.Probe(ctx, tt.ref); !errors.Is(err, tt.code) {
			t.Errorf("Probe(%q) = %v, want %s", tt.ref, err, tt.code)
		}
	}
}

func TestLibraryProbeCache(t *testing.T) {
	lib := testLibrary(t)
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	lib.Cache = fc
	ctx := context.Background()

	if _, err := lib.Probe(ctx, "logo.png"); err != nil {
		t.Fatalf("Probe: %v", err)
	}

	file := filepath.Join(lib.Root(), "logo.png")
	fi, _ := os.Stat(file)
	key := lib.Keyer.ProbeKey(file, fi.Size(), fi.ModTime())
	if _, hit, _ := fc.Get(ctx, key); !hit {
		t.Fatal("probe result not cached")
	}

	img, err := lib.Probe(ctx, "logo.png")
	if err != nil || img.Width != 200 {
		t.Errorf("cached Probe = %+v, %v", img, err)
	}
}

func TestProbeFileTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err := ProbeFile(ctx, "/does/not/matter.png", time.Second)
	if err == nil {
		t.Fatal("ProbeFile on cancelled context succeeded")
	}
}

func TestLoadIndex(t *testing.T) {
	file := filepath.Join(t.TempDir(), "index.json")
	data := `{"12": {"file": "a.png", "sizes": {"og-image": {"file": "a-og.png"}}}}`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	index, err := LoadIndex(file)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	if index["12"].Sizes[SizeOGImage].File != "a-og.png" {
		t.Errorf("index = %+v", index)
	}

	if _, err := LoadIndex(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadIndex(missing) = %v", err)
	}
}
