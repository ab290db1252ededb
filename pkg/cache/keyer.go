package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "<kind>:<hash>" over the NUL-joined parts.
func hashKey(kind string, parts ...string) string {
	return kind + ":" + Hash([]byte(strings.Join(parts, "\x00")))
}

// Keyer builds cache keys.
type Keyer interface {
	// RewriteKey is the key of a transformed rewrite table.
	RewriteKey(signature string) string

	// ProbeKey is the key of the dimensions of one image file version.
	ProbeKey(path string, size int64, modTime time.Time) string
}

// DefaultKeyer hashes key inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// RewriteKey returns "rewrite:<hash>".
func (DefaultKeyer) RewriteKey(signature string) string {
	return hashKey("rewrite", signature)
}

// ProbeKey returns "probe:<hash>" over the path, size and modification time.
func (DefaultKeyer) ProbeKey(path string, size int64, modTime time.Time) string {
	return hashKey("probe", path, strconv.FormatInt(size, 10), modTime.UTC().Format(time.RFC3339Nano))
}

// ScopedKeyer wraps a Keyer with a prefix, so that several sites can share
// one cache backend.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "site:blog:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RewriteKey generates a prefixed rewrite table key.
func (k *ScopedKeyer) RewriteKey(signature string) string {
	return k.prefix + k.inner.RewriteKey(signature)
}

// ProbeKey generates a prefixed probe key.
func (k *ScopedKeyer) ProbeKey(path string, size int64, modTime time.Time) string {
	return k.prefix + k.inner.ProbeKey(path, size, modTime)
}
