package media

import (
	"context"
	"encoding/json"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/observability"
)

// Image is a probed image file.
type Image struct {
	Ref    string `json:"ref"`
	URL    string `json:"url"`
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// AspectRatio returns width divided by height, or 0 for an empty image.
func (i Image) AspectRatio() float64 {
	if i.Height == 0 {
		return 0
	}
	return float64(i.Width) / float64(i.Height)
}

// Probe resolves ref at full size and reads its dimensions. Remote
// references, missing files and images without a positive width and height
// are errors.
func (l *Library) Probe(ctx context.Context, ref string) (Image, error) {
	att, ok, err := l.Resolve(ctx, ref, SizeFull)
	if err != nil {
		return Image{}, err
	}
	if !ok {
		return Image{}, errors.New(errors.ErrCodeAttachmentNotFound, "image %q not found", ref)
	}
	if att.Remote() {
		return Image{}, errors.New(errors.ErrCodeUnreadableImage, "image %q is not a local file", ref)
	}

	fi, err := os.Stat(att.Path)
	if err != nil {
		return Image{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "stat %s", att.Path)
	}
	key := l.Keyer.ProbeKey(att.Path, fi.Size(), fi.ModTime())
	if img, ok := l.cached(ctx, key); ok {
		img.Ref, img.URL, img.Path = ref, att.URL, att.Path
		return img, nil
	}

	timeout := l.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	w, h, format, err := ProbeFile(ctx, att.Path, timeout)
	if err != nil {
		return Image{}, err
	}
	img := Image{Ref: ref, URL: att.URL, Path: att.Path, Width: w, Height: h, Format: format}

	if data, err := json.Marshal(img); err == nil {
		if err := l.Cache.Set(ctx, key, data, l.CacheTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "probe", len(data))
		}
	}
	return img, nil
}

func (l *Library) cached(ctx context.Context, key string) (Image, bool) {
	data, ok, err := l.Cache.Get(ctx, key)
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "probe")
		return Image{}, false
	}
	var img Image
	if err := json.Unmarshal(data, &img); err != nil || img.Width <= 0 || img.Height <= 0 {
		observability.Cache().OnCacheMiss(ctx, "probe")
		return Image{}, false
	}
	observability.Cache().OnCacheHit(ctx, "probe")
	return img, true
}

type probeResult struct {
	cfg    image.Config
	format string
	err    error
}

// ProbeFile reads the image header of file within timeout and returns its
// dimensions and format name.
func ProbeFile(ctx context.Context, file string, timeout time.Duration) (width, height int, format string, err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan probeResult, 1)
	go func() {
		f, err := os.Open(file)
		if err != nil {
			done <- probeResult{err: err}
			return
		}
		defer f.Close()
		cfg, format, err := image.DecodeConfig(f)
		done <- probeResult{cfg: cfg, format: format, err: err}
	}()

	select {
	case <-ctx.Done():
		return 0, 0, "", errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "probe %s", file)
	case r := <-done:
		if r.err != nil {
			if os.IsNotExist(r.err) {
				return 0, 0, "", errors.Wrap(errors.ErrCodeFileNotFound, r.err, "probe %s", file)
			}
			return 0, 0, "", errors.Wrap(errors.ErrCodeUnreadableImage, r.err, "not an image: %s", file)
		}
		if r.cfg.Width <= 0 || r.cfg.Height <= 0 {
			return 0, 0, "", errors.New(errors.ErrCodeUnreadableImage, "image %s has no dimensions", file)
		}
		return r.cfg.Width, r.cfg.Height, r.format, nil
	}
}
