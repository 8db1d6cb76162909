package game

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"lifesim/internal/models"
)

//go:embed presets.yaml
var presetsYAML []byte

// ErrUnknownPreset is returned for an out-of-range preset index.
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a ready-made setup offered on the start screen.
type Preset struct {
	Name          string                `yaml:"name" json:"name"`
	TargetLife    string                `yaml:"targetLife" json:"targetLife"`
	Difficulty    models.Difficulty     `yaml:"difficulty" json:"difficulty"`
	Mode          models.GameMode       `yaml:"mode" json:"mode"`
	QuestionTypes []models.QuestionType `yaml:"questionTypes" json:"questionTypes"`
	SkillPacks    []string              `yaml:"skillPacks" json:"skillPacks"`
	Character     presetCharacter       `yaml:"character" json:"character"`
}

type presetCharacter struct {
	Type   models.CharacterType   `yaml:"type" json:"type"`
	Gender models.CharacterGender `yaml:"gender" json:"gender"`
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// Config turns the preset into a setup in the given language.
func (p Preset) Config(lang models.Language) models.SimulationConfig {
	return models.SimulationConfig{
		TargetLife:    p.TargetLife,
		Difficulty:    p.Difficulty,
		Mode:          p.Mode,
		QuestionTypes: slices.Clone(p.QuestionTypes),
		SkillPacks:    slices.Clone(p.SkillPacks),
		Language:      lang,
		Character:     models.Character{Type: p.Character.Type, Gender: p.Character.Gender},
	}
}

// LoadPresets decodes a preset catalogue and validates every entry.
func LoadPresets(r io.Reader) ([]Preset, error) {
	var f presetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	for i, p := range f.Presets {
		cfg := p.Config(models.LanguageEnglish).Normalize()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("preset %d (%s): %w", i, p.Name, err)
		}
	}
	return f.Presets, nil
}

var builtin = sync.OnceValue(func() []Preset {
	presets, err := LoadPresets(bytes.NewReader(presetsYAML))
	if err != nil {
		panic(err)
	}
	return presets
})

// Presets returns the built-in catalogue.
func Presets() []Preset {
	return slices.Clone(builtin())
}

// PresetAt returns the n-th built-in preset.
func PresetAt(n int) (Preset, error) {
	all := builtin()
	if n < 0 || n >= len(all) {
		return Preset{}, fmt.Errorf("%w: %d", ErrUnknownPreset, n)
	}
	return all[n], nil
}
