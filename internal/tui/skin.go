package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Skin holds the color palette for the client. Missing fields fall back to
// the default palette.
type Skin struct {
	Name       string `yaml:"name"`
	Background string `yaml:"background"`
	Foreground string `yaml:"foreground"`
	Muted      string `yaml:"muted"`
	Accent     string `yaml:"accent"`
	Success    string `yaml:"success"`
	Error      string `yaml:"error"`
	Highlight  string `yaml:"highlight"`
}

// DefaultSkin returns the built-in palette.
func DefaultSkin() Skin {
	return Skin{
		Name:       "default",
		Background: "#16213E",
		Foreground: "#E8E8E8",
		Muted:      "#6C7A9C",
		Accent:     "#00CAC7",
		Success:    "#49E209",
		Error:      "#FF5C57",
		Highlight:  "#F3C623",
	}
}

// LoadSkin reads configDir/skins/<name>.yml over the default palette.
// The name "default" (or "") skips the file entirely.
func LoadSkin(name, configDir string) (Skin, error) {
	skin := DefaultSkin()
	if name == "" || name == "default" {
		return skin, nil
	}

	path := filepath.Join(configDir, "skins", name+".yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return skin, fmt.Errorf("skin %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, &skin); err != nil {
		return skin, fmt.Errorf("skin %s: %w", name, err)
	}
	skin.Name = name
	return skin, nil
}

// Package-level styles, rebuilt by InitializeSkin. The zero values render
// with the default palette so tests need no setup.
var (
	styleHeader    lipgloss.Style
	styleStatusBar lipgloss.Style
	styleMuted     lipgloss.Style
	styleSelected  lipgloss.Style
	styleSuccess   lipgloss.Style
	styleError     lipgloss.Style
	stylePullHint  lipgloss.Style
	styleKind      lipgloss.Style
)

func init() {
	applySkin(DefaultSkin())
}

// InitializeSkin loads the named skin and rebuilds the shared styles.
// A load failure keeps the default palette and returns the error so the
// caller can warn without aborting.
func InitializeSkin(name, configDir string) error {
	skin, err := LoadSkin(name, configDir)
	applySkin(skin)
	return err
}

func applySkin(s Skin) {
	styleHeader = lipgloss.NewStyle().
		Background(lipgloss.Color(s.Background)).
		Foreground(lipgloss.Color(s.Accent)).
		Bold(true)
	styleStatusBar = lipgloss.NewStyle().
		Background(lipgloss.Color(s.Background)).
		Foreground(lipgloss.Color(s.Foreground))
	styleMuted = lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.Muted))
	styleSelected = lipgloss.NewStyle().
		Background(lipgloss.Color(s.Highlight)).
		Foreground(lipgloss.Color(s.Background)).
		Bold(true)
	styleSuccess = lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.Success))
	styleError = lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.Error))
	stylePullHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.Accent)).
		Bold(true)
	styleKind = lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.Accent))
}
