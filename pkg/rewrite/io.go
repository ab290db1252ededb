package rewrite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ReadJSON decodes a rule table from r. Two shapes are accepted:
//
//	[{"pattern": "tag/([^/]+)/?$", "target": "index.php?tag=$matches[1]"}]
//	{"tag/([^/]+)/?$": "index.php?tag=$matches[1]"}
//
// The object form is the one routers usually export; its key order is kept.
// Duplicate patterns are merged as by [Merge].
func ReadJSON(r io.Reader) (Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		return readObject(data)
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return Merge(t), nil
}

func readObject(data []byte) (Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	var t Table
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		pattern, _ := tok.(string)
		var target string
		if err := dec.Decode(&target); err != nil {
			return nil, fmt.Errorf("rule %q: %w", pattern, err)
		}
		t = append(t, Rule{Pattern: pattern, Target: target})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return Merge(t), nil
}

// ImportJSON reads a rule table file.
func ImportJSON(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}

// WriteJSON encodes t as an indented array of rules.
func WriteJSON(t Table, w io.Writer) error {
	if t == nil {
		t = Table{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes t to a file at path.
func ExportJSON(t Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(t, f)
}
