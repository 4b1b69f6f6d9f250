package vocab

import (
	"encoding/gob"
	"fmt"
	"os"
)

// LoadGob reads a vocabulary saved by SaveGob.
func LoadGob(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gob file: %w", err)
	}
	defer f.Close()

	var tokens []string
	if err := gob.NewDecoder(f).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("decode gob: %w", err)
	}
	return FromTokens(tokens)
}

// SaveGob writes the tokens of v, in id order, to a gob-encoded file.
func SaveGob(v *Vocabulary, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gob file: %w", err)
	}
	defer f.Close()

	if err := gob.NewEncoder(f).Encode(v.tokens); err != nil {
		return fmt.Errorf("encode gob: %w", err)
	}
	return nil
}
