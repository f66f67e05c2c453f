package kcdoc

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultHighlightStyle is the chroma style used when none is configured.
const DefaultHighlightStyle = "monokai"

// Highlighter turns the body of a fenced code block into an HTML fragment.
// Implementations report unregistered languages with an error wrapping
// ErrUnknownLanguage.
type Highlighter interface {
	Highlight(language, code string) (string, error)
}

// HighlighterFunc adapts a function to the Highlighter interface.
type HighlighterFunc func(language, code string) (string, error)

// Highlight calls f.
func (f HighlighterFunc) Highlight(language, code string) (string, error) {
	return f(language, code)
}

// ChromaHighlighter highlights code with chroma, emitting CSS classes
// rather than inline styles.
type ChromaHighlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewChromaHighlighter returns a highlighter for the named chroma style.
// Unknown style names fall back to chroma's default style.
func NewChromaHighlighter(style string) *ChromaHighlighter {
	if strings.TrimSpace(style) == "" {
		style = DefaultHighlightStyle
	}
	return &ChromaHighlighter{
		style:     styles.Get(style),
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
	}
}

// Highlight implements Highlighter.
func (h *ChromaHighlighter) Highlight(language, code string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		return "", fmt.Errorf("%w %q", ErrUnknownLanguage, language)
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise %s: %w", language, err)
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, it); err != nil {
		return "", fmt.Errorf("format %s: %w", language, err)
	}
	return b.String(), nil
}

// WriteCSS writes the stylesheet matching the classes Highlight emits.
func (h *ChromaHighlighter) WriteCSS(w io.Writer) error {
	return h.formatter.WriteCSS(w, h.style)
}

// HighlightStyles returns the names of the available chroma styles.
func HighlightStyles() []string {
	return styles.Names()
}
