package style

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElement(t *testing.T) {
	ctx := context.Background()
	el := NewElement("")

	assert.Equal(t, DefaultID, el.ID())
	assert.False(t, el.Attached())

	require.NoError(t, el.SetText(ctx, ":root{--size-base:16px}"))
	require.NoError(t, el.SetText(ctx, ":root{--size-base:14px}"))
	assert.True(t, el.Attached())
	assert.Equal(t, ":root{--size-base:14px}", el.Text())
	assert.Equal(t, 2, el.Writes())

	require.NoError(t, el.Remove(ctx))
	assert.False(t, el.Attached())
	assert.Empty(t, el.Text())
}

func TestCSSFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dist", "tokens.css")
	f := NewCSSFile(path)

	require.NoError(t, f.SetText(ctx, "a"))
	require.NoError(t, f.SetText(ctx, "b"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))

	require.NoError(t, f.Remove(ctx))
	require.NoError(t, f.Remove(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestHTMLDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("injects into existing document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.html")
		page := `<!DOCTYPE html><html><head><title>Demo</title></head><body><p class="x">hi</p></body></html>`
		require.NoError(t, os.WriteFile(path, []byte(page), 0o644))

		doc := NewHTMLDocument(path, "vars")
		require.NoError(t, doc.SetText(ctx, ":root { --size-base: 16px; }"))
		require.NoError(t, doc.SetText(ctx, ":root { --size-base: 14px; }"))

		text, ok, err := doc.Text()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, ":root { --size-base: 14px; }", text)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		out := string(data)
		assert.Equal(t, 1, strings.Count(out, `<style id="vars">`))
		assert.Contains(t, out, "<title>Demo</title>")
		assert.Contains(t, out, `<p class="x">hi</p>`)
		assert.Less(t, strings.Index(out, "<style"), strings.Index(out, "</head>"))
	})

	t.Run("creates missing document", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "new.html")
		doc := NewHTMLDocument(path, "")
		require.NoError(t, doc.SetText(ctx, "a > b {}"))

		text, ok, err := doc.Text()
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "a > b {}", text, "style content is raw text")
	})

	t.Run("remove detaches element", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "index.html")
		doc := NewHTMLDocument(path, "vars")
		require.NoError(t, doc.Remove(ctx), "missing file is fine")

		require.NoError(t, doc.SetText(ctx, "x"))
		require.NoError(t, doc.Remove(ctx))
		_, ok, err := doc.Text()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

type failingSink struct{ err error }

func (f failingSink) SetText(context.Context, string) error { return f.err }
func (f failingSink) Remove(context.Context) error          { return f.err }

func TestMulti(t *testing.T) {
	ctx := context.Background()
	a := NewElement("a")
	b := NewElement("b")
	boom := errors.New("boom")

	m := Multi{a, failingSink{boom}, b}
	err := m.SetText(ctx, "css")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "css", a.Text())
	assert.Equal(t, "css", b.Text(), "later sinks still receive the write")

	assert.NoError(t, Multi{a, b}.Remove(ctx))
	assert.False(t, a.Attached())
}
