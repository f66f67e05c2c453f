package kcdoc

import (
	"fmt"
	"io"
)

// Convert parses src and renders it, returning the HTML fragment together
// with the document's frontmatter.
func Convert(src string, opts ...Option) (string, *Frontmatter, error) {
	cfg := newConfig(opts)
	doc, err := parseDocument(src, &cfg)
	if err != nil {
		return "", nil, err
	}
	out, err := renderHTML(doc, &cfg)
	if err != nil {
		return "", nil, fmt.Errorf("render html: %w", err)
	}
	return out, doc.Frontmatter, nil
}

// RenderRequest configures Render.
type RenderRequest struct {
	Reader  io.Reader
	Writer  io.Writer
	Options []Option
}

// Render reads one whole document from req.Reader, rejects input that is not
// UTF-8 text, and writes the HTML fragment to req.Writer.
func Render(req RenderRequest) (*Frontmatter, error) {
	if req.Reader == nil {
		return nil, fmt.Errorf("render: Reader is nil")
	}
	if req.Writer == nil {
		return nil, fmt.Errorf("render: Writer is nil")
	}
	src, err := io.ReadAll(req.Reader)
	if err != nil {
		return nil, fmt.Errorf("render: read: %w", err)
	}
	if err := ValidateInput(src); err != nil {
		return nil, err
	}
	out, fm, err := Convert(string(src), req.Options...)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(req.Writer, out); err != nil {
		return nil, fmt.Errorf("render: write: %w", err)
	}
	return fm, nil
}
