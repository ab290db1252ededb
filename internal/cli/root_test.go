package cli

import (
	"io"
	"testing"

	"github.com/matzehuels/ogbrand/pkg/buildinfo"
)

func TestSetVersion(t *testing.T) {
	v, c, d := buildinfo.Version, buildinfo.Commit, buildinfo.Date
	t.Cleanup(func() { buildinfo.Version, buildinfo.Commit, buildinfo.Date = v, c, d })

	SetVersion("1.0.0", "abc123", "2026-01-01")
	if buildinfo.Version != "1.0.0" {
		t.Errorf("Version = %q, want %q", buildinfo.Version, "1.0.0")
	}
	if buildinfo.Commit != "abc123" {
		t.Errorf("Commit = %q, want %q", buildinfo.Commit, "abc123")
	}
	if buildinfo.Date != "2026-01-01" {
		t.Errorf("Date = %q, want %q", buildinfo.Date, "2026-01-01")
	}

	// Empty values keep what is set.
	SetVersion("", "", "")
	if buildinfo.Version != "1.0.0" {
		t.Errorf("Version = %q after empty SetVersion, want %q", buildinfo.Version, "1.0.0")
	}
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	want := []string{"resolve", "trace", "rewrite", "route", "color", "position", "settings", "fonts", "serve", "config", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered", name)
		}
	}
	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("--config flag missing")
	}
}
