package tokens

import (
	"fmt"
	"strings"

	"github.com/conneroisu/sizekit/internal/errors"
)

// Template is a precompiled text template with positional {slot}
// placeholders. "{{" and "}}" produce literal braces.
type Template struct {
	source   string
	literals []string // len(literals) == len(slots)+1
	slots    []string
	size     int
}

// Compile parses text once so later executions are plain concatenation.
func Compile(text string) (*Template, error) {
	t := &Template{source: text}

	var lit strings.Builder
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, errors.NewValidationError(errors.ErrCodeTemplate,
					fmt.Sprintf("unclosed placeholder at offset %d", i))
			}
			name := text[i+1 : i+1+end]
			if name == "" || strings.ContainsAny(name, "{ \t\n") {
				return nil, errors.NewValidationError(errors.ErrCodeTemplate,
					fmt.Sprintf("invalid placeholder %q at offset %d", name, i))
			}
			t.literals = append(t.literals, lit.String())
			t.slots = append(t.slots, name)
			lit.Reset()
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, errors.NewValidationError(errors.ErrCodeTemplate,
				fmt.Sprintf("unmatched '}' at offset %d", i))
		default:
			lit.WriteByte(c)
		}
	}
	t.literals = append(t.literals, lit.String())

	for _, l := range t.literals {
		t.size += len(l)
	}

	return t, nil
}

// MustCompile is like Compile but panics on error. Intended for package-level
// templates.
func MustCompile(text string) *Template {
	t, err := Compile(text)
	if err != nil {
		panic(err)
	}

	return t
}

// Slots returns the placeholder names in order.
func (t *Template) Slots() []string {
	out := make([]string, len(t.slots))
	copy(out, t.slots)

	return out
}

// Execute appends the template to sb, filling slots positionally. Missing
// values render empty; extra values are ignored.
func (t *Template) Execute(sb *strings.Builder, values ...string) {
	for i := range t.slots {
		sb.WriteString(t.literals[i])
		if i < len(values) {
			sb.WriteString(values[i])
		}
	}
	sb.WriteString(t.literals[len(t.literals)-1])
}

// Render returns the filled template as a string.
func (t *Template) Render(values ...string) string {
	var sb strings.Builder
	n := t.size
	for _, v := range values {
		n += len(v)
	}
	sb.Grow(n)
	t.Execute(&sb, values...)

	return sb.String()
}

// String returns the original template text.
func (t *Template) String() string {
	return t.source
}
