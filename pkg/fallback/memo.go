package fallback

import (
	"sync"

	"github.com/matzehuels/ogbrand/pkg/media"
)

// Memo holds the results of one resolution pass. It is safe for concurrent
// use but must not be shared between passes. The zero value is an empty
// memo ready to use.
type Memo struct {
	mu      sync.Mutex
	images  map[imageKey]Result[media.Attachment]
	texts   map[string]Result[string]
	scraped map[string]Scraped
}

type imageKey struct {
	ref      string
	withMeta bool
}

// NewMemo creates an empty memo.
func NewMemo() *Memo {
	m := &Memo{}
	m.Reset()
	return m
}

// Reset drops every memoized result.
func (m *Memo) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
}

// clear allocates empty maps. The caller holds mu.
func (m *Memo) clear() {
	m.images = make(map[imageKey]Result[media.Attachment])
	m.texts = make(map[string]Result[string])
	m.scraped = make(map[string]Scraped)
}

// lazy allocates the maps of a zero Memo. The caller holds mu.
func (m *Memo) lazy() {
	if m.images == nil {
		m.clear()
	}
}

func (m *Memo) image(k imageKey) (Result[media.Attachment], bool) {
	if m == nil {
		return Result[media.Attachment]{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.images[k]
	return r, ok
}

func (m *Memo) setImage(k imageKey, r Result[media.Attachment]) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lazy()
	m.images[k] = r
}

func (m *Memo) text(ref string) (Result[string], bool) {
	if m == nil {
		return Result[string]{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.texts[ref]
	return r, ok
}

func (m *Memo) setText(ref string, r Result[string]) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lazy()
	m.texts[ref] = r
}

func (m *Memo) scrape(url string) (Scraped, bool) {
	if m == nil {
		return Scraped{}, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scraped[url]
	return s, ok
}

func (m *Memo) setScrape(url string, s Scraped) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lazy()
	m.scraped[url] = s
}
