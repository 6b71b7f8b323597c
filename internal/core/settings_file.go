package core

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DecodeSettings reads a TOML parameter set. Keys absent from the document
// keep their default values.
func DecodeSettings(r io.Reader) (Settings, error) {
	s := DefaultSettings()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to decode settings: %w", err)
	}
	return s, nil
}

// EncodeSettings writes s as TOML.
func EncodeSettings(w io.Writer, s Settings) error {
	enc := toml.NewEncoder(w)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return nil
}

// LoadSettings reads a TOML parameter set from path.
func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultSettings(), fmt.Errorf("failed to read settings: %w", err)
	}
	return DecodeSettings(bytes.NewReader(data))
}

// SaveSettings writes s to path as TOML.
func SaveSettings(path string, s Settings) error {
	var buf bytes.Buffer
	if err := EncodeSettings(&buf, s); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
