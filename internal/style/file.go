package style

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/conneroisu/sizekit/internal/errors"
)

// CSSFile writes the stylesheet to a standalone .css file.
type CSSFile struct {
	mu   sync.Mutex
	path string
}

// NewCSSFile creates a sink writing to path.
func NewCSSFile(path string) *CSSFile {
	return &CSSFile{path: path}
}

// SetText implements Sink.
func (f *CSSFile) SetText(ctx context.Context, css string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := writeAtomic(f.path, []byte(css)); err != nil {
		return errors.WrapIO(err, "failed to write stylesheet "+f.path)
	}

	return nil
}

// Remove implements Sink.
func (f *CSSFile) Remove(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.WrapIO(err, "failed to remove stylesheet "+f.path)
	}

	return nil
}

const emptyDocument = "<!DOCTYPE html>\n<html><head></head><body></body></html>\n"

// HTMLDocument injects the stylesheet into an HTML file as a <style>
// element with a stable id inside <head>. The rest of the document is
// preserved through a parse/render round trip.
type HTMLDocument struct {
	mu   sync.Mutex
	path string
	id   string
}

// NewHTMLDocument creates a sink for the document at path. A missing file
// is created on the first write.
func NewHTMLDocument(path, id string) *HTMLDocument {
	if id == "" {
		id = DefaultID
	}

	return &HTMLDocument{path: path, id: id}
}

// SetText implements Sink.
func (d *HTMLDocument) SetText(ctx context.Context, css string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	doc, err := d.load()
	if err != nil {
		return err
	}

	el := findStyle(doc, d.id)
	if el == nil {
		head := findAtom(doc, atom.Head)
		if head == nil {
			return errors.NewIOError(errors.ErrCodeStyleWrite, "document has no <head>", nil)
		}
		el = &html.Node{
			Type:     html.ElementNode,
			Data:     "style",
			DataAtom: atom.Style,
			Attr:     []html.Attribute{{Key: "id", Val: d.id}},
		}
		head.AppendChild(el)
	}

	for c := el.FirstChild; c != nil; {
		next := c.NextSibling
		el.RemoveChild(c)
		c = next
	}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: css})

	return d.save(doc)
}

// Remove implements Sink.
func (d *HTMLDocument) Remove(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := os.Stat(d.path); os.IsNotExist(err) {
		return nil
	}

	doc, err := d.load()
	if err != nil {
		return err
	}

	el := findStyle(doc, d.id)
	if el == nil {
		return nil
	}
	el.Parent.RemoveChild(el)

	return d.save(doc)
}

// Text returns the current content of the injected element.
func (d *HTMLDocument) Text() (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, err := d.load()
	if err != nil {
		return "", false, err
	}

	el := findStyle(doc, d.id)
	if el == nil {
		return "", false, nil
	}

	var sb strings.Builder
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}

	return sb.String(), true, nil
}

func (d *HTMLDocument) load() (*html.Node, error) {
	data, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		data = []byte(emptyDocument)
	} else if err != nil {
		return nil, errors.WrapIO(err, "failed to read "+d.path)
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WrapIO(err, "failed to parse "+d.path)
	}

	return doc, nil
}

func (d *HTMLDocument) save(doc *html.Node) error {
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return errors.WrapIO(err, "failed to render "+d.path)
	}
	if err := writeAtomic(d.path, buf.Bytes()); err != nil {
		return errors.WrapIO(err, "failed to write "+d.path)
	}

	return nil
}

func findAtom(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findAtom(c, a); found != nil {
			return found
		}
	}

	return nil
}

func findStyle(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Style {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findStyle(c, id); found != nil {
			return found
		}
	}

	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sizekit-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
