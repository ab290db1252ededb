package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ogbrand/pkg/cache"
	"github.com/matzehuels/ogbrand/pkg/errors"
	"github.com/matzehuels/ogbrand/pkg/observability"
)

// Snapshot is one published transformation.
type Snapshot struct {
	Signature string    `json:"signature"`
	Endpoint  Endpoint  `json:"endpoint"`
	Table     Table     `json:"table"`
	Built     time.Time `json:"built"`
	// Cached reports whether the table was loaded from the cache.
	Cached bool `json:"cached"`

	router *Router
}

// Router returns the compiled router of the snapshot.
func (s *Snapshot) Router() *Router { return s.router }

// Signature identifies a transformation input.
func Signature(in Input) string {
	data, _ := json.Marshal(in)
	return cache.Hash(data)
}

// Registry holds the current transformed table. Readers always observe a
// complete snapshot; rebuilds publish a new one.
type Registry struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger

	cur atomic.Pointer[Snapshot]
	mu  sync.Mutex
}

// NewRegistry creates a registry. A nil cache disables persistence and a
// nil keyer uses the default.
func NewRegistry(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Registry {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Registry{Cache: c, Keyer: keyer, Logger: logger}
}

// Current returns the published snapshot, or nil before the first build
// and after an invalidation.
func (g *Registry) Current() *Snapshot {
	return g.cur.Load()
}

// Rebuild publishes the transformation of in. When the current snapshot
// already has the same signature it is returned unchanged. Cached tables
// are reused across processes.
func (g *Registry) Rebuild(ctx context.Context, in Input) (*Snapshot, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	sig := Signature(in)
	if s := g.cur.Load(); s != nil && s.Signature == sig {
		return s, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if s := g.cur.Load(); s != nil && s.Signature == sig {
		return s, nil
	}

	start := time.Now()
	key := g.Keyer.RewriteKey(sig)
	snap := &Snapshot{Signature: sig, Endpoint: in.Endpoint}

	if t, ok := g.load(ctx, key); ok {
		snap.Table, snap.Cached = t, true
	} else {
		t, err := Transform(in)
		if err != nil {
			return nil, err
		}
		snap.Table = t
		g.store(ctx, key, t)
	}

	snap.Built = time.Now()
	snap.router = NewRouter(snap.Table, in.Endpoint, in.Structure != "")
	g.cur.Store(snap)

	elapsed := time.Since(start)
	observability.Rewrite().OnRebuild(ctx, sig, len(snap.Table), elapsed)
	g.Logger.Debug("rewrite table published",
		"signature", sig[:12],
		"rules", len(snap.Table),
		"endpoint_rules", snap.Table.Count(in.Endpoint.Name),
		"cached", snap.Cached,
		"duration", elapsed)
	return snap, nil
}

// Invalidate drops the published snapshot and its cached table. The next
// Rebuild transforms from scratch.
func (g *Registry) Invalidate(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.cur.Swap(nil)
	observability.Rewrite().OnInvalidate(ctx)
	if s == nil {
		return nil
	}
	if err := g.Cache.Delete(ctx, g.Keyer.RewriteKey(s.Signature)); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete cached rewrite table")
	}
	g.Logger.Debug("rewrite table invalidated", "signature", s.Signature[:12])
	return nil
}

// Match routes path through the current snapshot.
func (g *Registry) Match(path string) (Route, bool) {
	s := g.cur.Load()
	if s == nil {
		return Route{}, false
	}
	return s.router.Match(path)
}

func (g *Registry) load(ctx context.Context, key string) (Table, bool) {
	data, ok, err := g.Cache.Get(ctx, key)
	if err != nil {
		g.Logger.Warn("rewrite cache read failed", "err", err)
		return nil, false
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, "rewrite")
		return nil, false
	}
	t, err := ReadJSON(bytes.NewReader(data))
	if err != nil {
		g.Logger.Warn("discarding unreadable cached rewrite table", "err", err)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "rewrite")
	return t, true
}

func (g *Registry) store(ctx context.Context, key string, t Table) {
	var buf bytes.Buffer
	if err := WriteJSON(t, &buf); err != nil {
		return
	}
	if err := g.Cache.Set(ctx, key, buf.Bytes(), g.TTL); err != nil {
		g.Logger.Warn("rewrite cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "rewrite", buf.Len())
}
