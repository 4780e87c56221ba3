//go:build property

package tokens

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestStylesheetProperties validates generation and minification invariants.
func TestStylesheetProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("generate is deterministic across generators", prop.ForAll(
		func(base float64) bool {
			a := NewGenerator(GeneratorOptions{}).Generate(base)
			b := NewGenerator(GeneratorOptions{DisableCSSCache: true}).Generate(base)
			return a == b
		},
		gen.Float64Range(1, 100),
	))

	properties.Property("minify is idempotent on generated css", prop.ForAll(
		func(base float64, font float64) bool {
			css := NewGenerator(GeneratorOptions{}).GenerateConfig(Config{BaseSize: base, FontScale: font})
			once := Minify(css)
			return Minify(once) == once
		},
		gen.Float64Range(1, 100),
		gen.Float64Range(0.5, 2),
	))

	properties.Property("minify is idempotent on arbitrary declarations", prop.ForAll(
		func(names []string, spaces int) bool {
			pad := strings.Repeat(" ", spaces%4)
			var sb strings.Builder
			sb.WriteString("a" + pad + "{")
			for _, n := range names {
				sb.WriteString(pad + "--x-" + n + pad + ":" + pad + "1px" + pad + "2px;" + pad)
			}
			sb.WriteString("}")
			once := Minify(sb.String())
			return Minify(once) == once
		},
		gen.SliceOf(gen.Identifier()),
		gen.IntRange(0, 10),
	))

	properties.Property("generated css always declares base", prop.ForAll(
		func(base int) bool {
			css := NewGenerator(GeneratorOptions{}).Generate(float64(base))
			return strings.Contains(css, "--size-base: ")
		},
		gen.IntRange(1, 100),
	))

	properties.TestingRun(t)
}
