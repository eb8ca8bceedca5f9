package tui

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestLoadSkinDefault(t *testing.T) {
	skin, err := LoadSkin("default", t.TempDir())
	if err != nil {
		t.Fatalf("LoadSkin: %v", err)
	}
	if skin.Accent != DefaultSkin().Accent {
		t.Errorf("Accent = %q, want default palette", skin.Accent)
	}
}

func TestLoadSkinMissingFileFallsBack(t *testing.T) {
	skin, err := LoadSkin("nope", t.TempDir())
	if err == nil {
		t.Fatal("LoadSkin should report the missing file")
	}
	if skin.Accent != DefaultSkin().Accent {
		t.Errorf("Accent = %q, want default palette on failure", skin.Accent)
	}
}

func TestLoadSkinOverridesPalette(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "skins"), 0o755); err != nil {
		t.Fatal(err)
	}
	yml := "accent: \"#FF00FF\"\nsuccess: \"#00FF00\"\n"
	if err := os.WriteFile(filepath.Join(dir, "skins", "neon.yml"), []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	skin, err := LoadSkin("neon", dir)
	if err != nil {
		t.Fatalf("LoadSkin: %v", err)
	}
	if skin.Accent != "#FF00FF" {
		t.Errorf("Accent = %q, want the file override", skin.Accent)
	}
	if skin.Foreground != DefaultSkin().Foreground {
		t.Errorf("Foreground = %q, want default for fields the file omits", skin.Foreground)
	}
	if skin.Name != "neon" {
		t.Errorf("Name = %q, want neon", skin.Name)
	}
}

func TestAppCyclesPages(t *testing.T) {
	feedPage, _ := newTestFeedModel(t, nil)
	app := NewApp(feedPage, &stubPage{id: "stats"})

	if got := app.nextPage(); got != "stats" {
		t.Errorf("nextPage = %q, want stats", got)
	}
	app.active = "stats"
	if got := app.nextPage(); got != feedPageID {
		t.Errorf("nextPage = %q, want %q", got, feedPageID)
	}
}

type stubPage struct {
	id string
}

func (p *stubPage) ID() string                             { return p.id }
func (p *stubPage) Init() tea.Cmd                          { return nil }
func (p *stubPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) { return nil, nil }
func (p *stubPage) View(width, height int) string          { return "" }
