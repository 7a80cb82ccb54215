package tabulon

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if s.FontSize != DefaultSettings().FontSize {
		t.Errorf("FontSize = %d, want default %d", s.FontSize, DefaultSettings().FontSize)
	}
}

func TestSettingsSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := DefaultSettings()
	s = s.WithRecentProject("/data/a.txpl")
	s = s.WithRecentProject("/data/b.txpl")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	back, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	want := []string{"/data/b.txpl", "/data/a.txpl"}
	if len(back.RecentProjects) != 2 || back.RecentProjects[0] != want[0] || back.RecentProjects[1] != want[1] {
		t.Errorf("RecentProjects = %v, want %v", back.RecentProjects, want)
	}
}

func TestRecentProjectPromoteAndPrune(t *testing.T) {
	s := DefaultSettings()
	for _, p := range []string{"a", "b", "c", "d", "e", "f"} {
		s = s.WithRecentProject(p)
	}
	if len(s.RecentProjects) != 5 {
		t.Fatalf("recent list length = %d, want 5", len(s.RecentProjects))
	}
	if s.RecentProjects[0] != "f" {
		t.Errorf("front = %q, want f", s.RecentProjects[0])
	}

	s = s.WithRecentProject("d")
	if s.RecentProjects[0] != "d" {
		t.Errorf("promote: front = %q, want d", s.RecentProjects[0])
	}

	s = s.WithoutRecentProject("d")
	for _, p := range s.RecentProjects {
		if p == "d" {
			t.Errorf("prune left %q in %v", p, s.RecentProjects)
		}
	}
}

func TestOpErrorWrapsKind(t *testing.T) {
	err := Errorf("frame.filter", ErrUserInput, "bad clause %q", "x >")
	if !errors.Is(err, ErrUserInput) {
		t.Fatalf("errors.Is(ErrUserInput) = false for %v", err)
	}
	var oe *OpError
	if !errors.As(err, &oe) || oe.Op != "frame.filter" {
		t.Fatalf("OpError op = %v", err)
	}
}
