package lyrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"
)

type Preset struct {
	Label  string `yaml:"label" csv:"label"`
	Theme  string `yaml:"theme" csv:"theme"`
	Mood   string `yaml:"mood" csv:"mood"`
	Length Length `yaml:"length" csv:"length"`
}

// Request returns the generation request of the preset.
func (p Preset) Request() Request {
	return Request{Theme: p.Theme, Mood: p.Mood, Length: p.Length}
}

// DefaultPresets returns the built-in quick presets.
func DefaultPresets() []Preset {
	return []Preset{
		{Label: "Street Life", Theme: "Street Life", Mood: "Raw energy", Length: Medium},
		{Label: "Ocean Vibes", Theme: "Ocean Waves", Mood: "Chill", Length: Medium},
		{Label: "Success Story", Theme: "Success", Mood: "Motivational", Length: Medium},
	}
}

// FindPreset looks up a preset by label, case insensitive.
func FindPreset(presets []Preset, label string) (Preset, bool) {
	for _, p := range presets {
		if strings.EqualFold(p.Label, strings.TrimSpace(label)) {
			return p, true
		}
	}
	return Preset{}, false
}

// LoadPresets reads presets from a yaml or csv file. Presets that don't
// produce a valid request are rejected.
func LoadPresets(path string) ([]Preset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lyrics: couldn't read presets %s: %w", path, err)
	}
	var presets []Preset
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &presets); err != nil {
			return nil, fmt.Errorf("lyrics: couldn't parse yaml presets: %w", err)
		}
	case ".csv":
		if err := gocsv.UnmarshalBytes(b, &presets); err != nil {
			return nil, fmt.Errorf("lyrics: couldn't parse csv presets: %w", err)
		}
	default:
		return nil, fmt.Errorf("lyrics: unsupported presets extension %q", ext)
	}
	for i, p := range presets {
		if p.Label == "" {
			p.Label = p.Theme
		}
		if p.Length == "" {
			p.Length = Medium
		}
		if err := p.Request().Validate(); err != nil {
			return nil, fmt.Errorf("lyrics: invalid preset %d (%s): %w", i+1, p.Label, err)
		}
		presets[i] = p
	}
	return presets, nil
}
