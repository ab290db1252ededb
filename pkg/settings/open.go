package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Backend names a store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
	BackendMongo  Backend = "mongo"
)

// Config selects and configures a backend. It is the [store] section of
// the configuration file.
type Config struct {
	Backend    Backend `toml:"backend"`
	Path       string  `toml:"path"`
	URL        string  `toml:"url"`
	Prefix     string  `toml:"prefix"`
	Database   string  `toml:"database"`
	Collection string  `toml:"collection"`
}

// SetDefaults fills unset fields. File-based backends default to a path
// under the user config directory.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendFile:
			c.Path = defaultPath("settings.toml")
		case BackendSQLite:
			c.Path = defaultPath("settings.db")
		}
	}
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("store.path is required for the %s backend", c.Backend)
		}
	case BackendRedis, BackendMongo:
		if c.URL == "" {
			return fmt.Errorf("store.url is required for the %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend %q (want memory, file, sqlite, redis or mongo)", c.Backend)
	}
	return nil
}

// Open builds the configured backend.
func Open(ctx context.Context, c Config) (Store, error) {
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(c.Path)
	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create settings dir: %w", err)
		}
		return NewSQLiteStore(ctx, c.Path)
	case BackendRedis:
		return NewRedisStore(ctx, c.URL, c.Prefix)
	default:
		return NewMongoStore(ctx, c.URL, c.Database, c.Collection)
	}
}

func defaultPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "ogbrand", name)
}
