package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// FuzzLoadFrom checks that arbitrary config documents either load into a
// valid configuration or fail with an error.
func FuzzLoadFrom(f *testing.F) {
	f.Add(`tokens:
  default_preset: compact
server:
  port: 8080
  host: localhost`)
	f.Add(`server:
  port: "invalid_port"`)
	f.Add(`server:
  port: 65536`)
	f.Add(`tokens:
  cache_limit: -1`)
	f.Add(`presets:
  - name: kiosk
    base_size: 24
    overrides:
      font: 1.5`)
	f.Add(`breakpoints:
  - name: phone
    max_width: 599`)
	f.Add(`malformed: yaml: content`)
	f.Add(``)

	f.Fuzz(func(t *testing.T, doc string) {
		if len(doc) > 50000 {
			t.Skip("config content too large")
		}
		if strings.Contains(doc, "presets_file") {
			t.Skip("presets files are read from disk")
		}

		v := viper.New()
		v.SetConfigType("yaml")
		if err := v.ReadConfig(strings.NewReader(doc)); err != nil {
			return
		}

		cfg, err := LoadFrom(v)
		if err != nil {
			return
		}
		if cfg == nil {
			t.Fatal("nil config without error")
		}
		if err := Validate(cfg); err != nil {
			t.Fatalf("loaded config fails validation: %v", err)
		}
		if cfg.Tokens.DefaultPreset == "" {
			t.Fatal("default preset not applied")
		}
	})
}

// FuzzParsePresets checks that every accepted preset is valid and survives
// an encode and parse cycle.
func FuzzParsePresets(f *testing.F) {
	f.Add("presets:\n  - name: kiosk\n    base_size: 24\n")
	f.Add("- name: tv\n  base_size: 32\n  label: TV\n")
	f.Add("- name: Bad Name\n  base_size: 16\n")
	f.Add("- name: tiny\n  base_size: 0\n")
	f.Add("presets:\n  - name: x\n    base_size: 16\n    unknown: 1\n")
	f.Add("")

	f.Fuzz(func(t *testing.T, doc string) {
		if len(doc) > 50000 {
			t.Skip("presets content too large")
		}

		presets, err := ParsePresets(strings.NewReader(doc))
		if err != nil {
			return
		}

		for _, p := range presets {
			if err := p.Validate(); err != nil {
				t.Fatalf("accepted invalid preset %q: %v", p.Name, err)
			}
		}

		var buf bytes.Buffer
		if err := EncodePresets(&buf, presets); err != nil {
			t.Fatalf("encode: %v", err)
		}
		again, err := ParsePresets(&buf)
		if err != nil {
			t.Fatalf("re-parse encoded presets: %v\n%s", err, buf.String())
		}
		if len(again) != len(presets) {
			t.Fatalf("round trip changed preset count: %d != %d", len(again), len(presets))
		}
	})
}
