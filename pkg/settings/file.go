package settings

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// fileDoc is the on-disk layout of a [FileStore]:
//
//	[site]
//	color = "#FFFFFF"
//
//	[entities."content/post/42"]
//	text = "Hello"
type fileDoc struct {
	Site     map[string]string            `toml:"site"`
	Entities map[string]map[string]string `toml:"entities"`
}

// FileStore keeps settings in a TOML file. The file is read once on open
// and rewritten atomically on every change.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	doc    fileDoc
	closed bool
}

// NewFileStore opens the TOML file at path, creating its directory. A
// missing file is an empty store.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("settings file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	s := &FileStore{path: path}
	if _, err := toml.DecodeFile(path, &s.doc); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	if s.doc.Site == nil {
		s.doc.Site = make(map[string]string)
	}
	if s.doc.Entities == nil {
		s.doc.Entities = make(map[string]map[string]string)
	}
	return s, nil
}

// Path returns the settings file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) table(scope Scope, create bool) map[string]string {
	if scope.IsSite() {
		return s.doc.Site
	}
	m := s.doc.Entities[scope.String()]
	if m == nil && create {
		m = make(map[string]string)
		s.doc.Entities[scope.String()] = m
	}
	return m
}

func (s *FileStore) Get(_ context.Context, scope Scope, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.table(scope, false)[key]
	return v, ok, nil
}

func (s *FileStore) Set(_ context.Context, scope Scope, key, value string) error {
	if err := checkKey(scope, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	t := s.table(scope, true)
	old, had := t[key]
	t[key] = value
	if err := s.flush(); err != nil {
		if had {
			t[key] = old
		} else {
			delete(t, key)
		}
		return storeErr(err, "write %s", s.path)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, scope Scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	t := s.table(scope, false)
	old, had := t[key]
	if !had {
		return nil
	}
	delete(t, key)
	if !scope.IsSite() && len(t) == 0 {
		delete(s.doc.Entities, scope.String())
	}
	if err := s.flush(); err != nil {
		s.table(scope, true)[key] = old
		return storeErr(err, "write %s", s.path)
	}
	return nil
}

func (s *FileStore) List(_ context.Context, scope Scope) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := maps.Clone(s.table(scope, false))
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// flush writes the document to a temp file and renames it over the target.
func (s *FileStore) flush() error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s.doc); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.toml")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

var _ Store = (*FileStore)(nil)
