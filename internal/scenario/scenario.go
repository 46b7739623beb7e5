// Package scenario reads scenario files and unit programmes from disk.
package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/LucienMarcon/APP-BP/internal/proforma"
	"gopkg.in/yaml.v2"
)

// Scenario is a full engine input.
type Scenario struct {
	Name       string                     `json:"name,omitempty" yaml:"name,omitempty"`
	Parameters proforma.ProjectParameters `json:"parameters" yaml:"parameters"`
	Units      []proforma.UnitRecord      `json:"units" yaml:"units"`
}

// Format is the encoding of a scenario file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFile is returned for files whose extension is not recognized.
var ErrUnsupportedFile = errors.New("unsupported scenario file")

// FormatFromPath picks the decoder from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
}

// Load reads a YAML or JSON scenario file.
func Load(path string) (*Scenario, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario: %w", err)
	}
	defer f.Close()

	s, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Decode reads a scenario. Unknown keys are rejected so that a typo in a
// parameter name does not silently fall back to zero.
func Decode(r io.Reader, format Format) (*Scenario, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var s Scenario
	switch format {
	case FormatYAML:
		if err := yaml.UnmarshalStrict(data, &s); err != nil {
			return nil, fmt.Errorf("invalid yaml scenario: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("invalid json scenario: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: format %q", ErrUnsupportedFile, format)
	}
	return &s, nil
}

// Encode writes a scenario in the given format.
func Encode(w io.Writer, s *Scenario, format Format) error {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(s)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	default:
		return fmt.Errorf("%w: format %q", ErrUnsupportedFile, format)
	}
}
