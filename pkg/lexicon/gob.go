package lexicon

import (
	"encoding/gob"
	"fmt"
	"os"
)

// LoadGob deserializes a manifest from a gob-encoded file.
func LoadGob(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()

	var m Manifest
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode gob: %w", err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("gob lexicon %s: missing id", path)
	}
	return &m, nil
}

// SaveGob serializes a manifest to a gob-encoded file at path.
func SaveGob(m *Manifest, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(m); err != nil {
		return fmt.Errorf("encode gob: %w", err)
	}
	return nil
}
