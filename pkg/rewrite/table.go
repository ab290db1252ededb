package rewrite

import (
	"strings"
)

// Rule maps a path pattern to a query-string target. Patterns are relative
// to the site root and carry no leading slash.
type Rule struct {
	Pattern string `json:"pattern"`
	Target  string `json:"target"`
}

// Valid reports whether the rule has a pattern. Patterns are written for
// the host router's regex dialect, so validity is not judged by compiling.
func (r Rule) Valid() bool {
	return r.Pattern != ""
}

// Table is an ordered rewrite table. Functions in this package treat tables
// as immutable values.
type Table []Rule

// Merge concatenates tables with ordered-map semantics: a pattern keeps the
// position of its first occurrence and the target of its last.
func Merge(tables ...Table) Table {
	n := 0
	for _, t := range tables {
		n += len(t)
	}
	out := make(Table, 0, n)
	index := make(map[string]int, n)
	for _, t := range tables {
		for _, r := range t {
			if i, ok := index[r.Pattern]; ok {
				out[i].Target = r.Target
				continue
			}
			index[r.Pattern] = len(out)
			out = append(out, r)
		}
	}
	return out
}

// Get returns the target of pattern.
func (t Table) Get(pattern string) (string, bool) {
	for _, r := range t {
		if r.Pattern == pattern {
			return r.Target, true
		}
	}
	return "", false
}

// Patterns returns the patterns in order.
func (t Table) Patterns() []string {
	out := make([]string, len(t))
	for i, r := range t {
		out[i] = r.Pattern
	}
	return out
}

// Clone returns a copy of t.
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	return append(Table(nil), t...)
}

// Count returns the number of rules whose pattern contains name.
func (t Table) Count(name string) int {
	n := 0
	for _, r := range t {
		if strings.Contains(r.Pattern, name) {
			n++
		}
	}
	return n
}
