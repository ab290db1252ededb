// Package media resolves attachment references to files and URLs, and reads
// image dimensions.
//
// An attachment reference is an identifier listed in the library index, a
// path relative to the library root, or an absolute URL. Indexed attachments
// may list size-specific renditions; when the requested rendition is missing
// on disk the base file is used instead.
package media

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ogbrand/pkg/cache"
	"github.com/matzehuels/ogbrand/pkg/errors"
)

// Size names.
const (
	// SizeOGImage is the rendition cropped to the social image canvas.
	SizeOGImage = "og-image"
	// SizeFull is the original upload.
	SizeFull = "full"
)

// DefaultProbeTimeout bounds a single dimension probe.
const DefaultProbeTimeout = 2 * time.Second

// Meta describes one indexed attachment. Paths are relative to the library
// root.
type Meta struct {
	File  string               `json:"file"`
	Sizes map[string]Rendition `json:"sizes,omitempty"`
}

// Rendition is a size-specific file. Path is relative to the library root;
// File is a bare file name in the directory of the base file.
type Rendition struct {
	File   string `json:"file,omitempty"`
	Path   string `json:"path,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Attachment is a resolved reference.
type Attachment struct {
	Ref  string `json:"ref"`
	URL  string `json:"url"`
	Path string `json:"path,omitempty"`
	Size string `json:"size"`
	// Sized is true when the size-specific rendition was found.
	Sized bool `json:"sized"`
}

// Remote reports whether the attachment has no local file.
func (a Attachment) Remote() bool { return a.Path == "" }

// Resolver resolves attachment references at a named size.
type Resolver interface {
	// Resolve returns ok=false when ref names nothing that exists.
	Resolve(ctx context.Context, ref, size string) (Attachment, bool, error)
}

// Library is a directory of uploads with an optional index.
type Library struct {
	root    string
	baseURL string
	index   map[string]Meta

	Cache        cache.Cache
	Keyer        cache.Keyer
	CacheTTL     time.Duration
	ProbeTimeout time.Duration
	Logger       *log.Logger
}

// NewLibrary creates a library rooted at root. baseURL is the public URL of
// root; when empty, file URLs are produced.
func NewLibrary(root, baseURL string, index map[string]Meta) *Library {
	if index == nil {
		index = map[string]Meta{}
	}
	return &Library{
		root:         root,
		baseURL:      strings.TrimRight(baseURL, "/"),
		index:        index,
		Cache:        cache.NewNullCache(),
		Keyer:        cache.NewDefaultKeyer(),
		ProbeTimeout: DefaultProbeTimeout,
		Logger:       log.Default(),
	}
}

// LoadIndex reads a JSON index mapping attachment identifiers to [Meta].
func LoadIndex(file string) (map[string]Meta, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read attachment index")
	}
	var index map[string]Meta
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse attachment index %s", file)
	}
	return index, nil
}

// Root returns the library root.
func (l *Library) Root() string { return l.root }

// Resolve maps ref to a file at size, preferring the size-specific rendition
// and falling back to the base file.
func (l *Library) Resolve(ctx context.Context, ref, size string) (Attachment, bool, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Attachment{}, false, nil
	}
	if size == "" {
		size = SizeFull
	}

	var (
		base      string
		rendition *Rendition
	)
	switch meta, indexed := l.index[ref]; {
	case indexed:
		base = meta.File
		if r, ok := meta.Sizes[size]; ok {
			rendition = &r
		}
	case errors.IsURL(ref):
		rel, local := l.localPath(ref)
		if !local {
			return Attachment{Ref: ref, URL: ref, Size: size}, true, nil
		}
		base = rel
	default:
		if err := errors.ValidatePath(ref); err != nil {
			return Attachment{}, false, err
		}
		base = ref
	}
	if err := errors.ValidatePath(base); err != nil {
		return Attachment{}, false, err
	}

	candidates := l.renditions(base, size, rendition)
	candidates = append(candidates, base)
	for i, rel := range candidates {
		p := filepath.Join(l.root, filepath.FromSlash(rel))
		fi, err := os.Stat(p)
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		sized := i < len(candidates)-1
		if !sized && size != SizeFull {
			l.Logger.Debug("rendition missing, using base file", "ref", ref, "size", size)
		}
		return Attachment{Ref: ref, URL: l.url(rel, p), Path: p, Size: size, Sized: sized}, true, nil
	}
	return Attachment{}, false, nil
}

// renditions lists the relative paths that may hold the rendition of base at
// size, in preference order.
func (l *Library) renditions(base, size string, r *Rendition) []string {
	if size == SizeFull {
		return nil
	}
	var out []string
	if r != nil {
		if r.Path != "" && errors.ValidatePath(r.Path) == nil {
			out = append(out, r.Path)
		}
		if r.File != "" && !strings.ContainsAny(r.File, `/\`) {
			out = append(out, path.Join(path.Dir(base), r.File))
		}
		return out
	}
	ext := path.Ext(base)
	return []string{strings.TrimSuffix(base, ext) + "-" + size + ext}
}

// localPath maps a URL below the library's base URL to a relative path.
func (l *Library) localPath(rawURL string) (string, bool) {
	if l.baseURL == "" {
		return "", false
	}
	rest, ok := strings.CutPrefix(rawURL, l.baseURL+"/")
	if !ok || rest == "" {
		return "", false
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	unescaped, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return unescaped, true
}

func (l *Library) url(rel, abs string) string {
	if l.baseURL == "" {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
	}
	u, err := url.JoinPath(l.baseURL, strings.Split(rel, "/")...)
	if err != nil {
		return l.baseURL + "/" + rel
	}
	return u
}

var _ Resolver = (*Library)(nil)
