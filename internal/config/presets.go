package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/conneroisu/sizekit/internal/errors"
	"github.com/conneroisu/sizekit/internal/preset"
)

// presetsDocument is the standalone presets file layout:
//
//	presets:
//	  - name: kiosk
//	    base_size: 24
//	    overrides:
//	      spacing: 1.5
//
// A bare top-level list is accepted as well.
type presetsDocument struct {
	Presets []preset.Preset `yaml:"presets"`
}

// LoadPresetsFile reads and validates a presets file.
func LoadPresetsFile(path string) ([]preset.Preset, error) {
	if err := validatePath(path); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, err.Error())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO(err, "failed to read presets file "+path)
	}

	presets, err := ParsePresets(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return presets, nil
}

// ParsePresets decodes a presets document and validates every entry.
// Unknown fields are rejected.
func ParsePresets(r io.Reader) ([]preset.Preset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO(err, "failed to read presets")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "malformed presets yaml: "+err.Error())
	}

	var presets []preset.Preset
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		err = decodeStrict(data, &presets)
	} else {
		var doc presetsDocument
		err = decodeStrict(data, &doc)
		presets = doc.Presets
	}
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "invalid presets: "+err.Error())
	}

	for i := range presets {
		if presets[i].Label == "" {
			presets[i].Label = preset.LabelFor(presets[i].Name)
		}
		if err := presets[i].Validate(); err != nil {
			return nil, fmt.Errorf("presets[%d]: %w", i, err)
		}
	}

	return presets, nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	return dec.Decode(out)
}

// EncodePresets renders presets in the presets file layout.
func EncodePresets(w io.Writer, presets []preset.Preset) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(presetsDocument{Presets: presets}); err != nil {
		return err
	}

	return enc.Close()
}
