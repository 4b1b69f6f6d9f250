package lexicon

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultManifest []byte

// Manifest is the YAML schema of a lexicon: every static table the encoders
// consult, in the order they are consulted.
type Manifest struct {
	ID               string              `yaml:"id" json:"id"`
	Version          string              `yaml:"version" json:"version"`
	Transliterations []Substitution      `yaml:"transliterations" json:"transliterations"`
	SurnameParticles []string            `yaml:"surname_particles" json:"surname_particles"`
	NamePrefixes     []string            `yaml:"name_prefixes" json:"name_prefixes"`
	Titles           []string            `yaml:"titles" json:"titles"`
	NameSuffixes     []string            `yaml:"name_suffixes" json:"name_suffixes"`
	IndustrySuffixes []string            `yaml:"industry_suffixes" json:"industry_suffixes"`
	LegalSuffixes    []string            `yaml:"legal_suffixes" json:"legal_suffixes"`
	Nicknames        map[string][]string `yaml:"nicknames" json:"nicknames"`
}

// Substitution maps one character to its fixed ASCII spelling.
type Substitution struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// LoadManifest reads and parses a lexicon YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	m, err := parseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return m, nil
}

func parseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("missing id")
	}
	for i, s := range m.Transliterations {
		if s.From == "" {
			return nil, fmt.Errorf("transliteration %d: empty source", i)
		}
	}
	return &m, nil
}
