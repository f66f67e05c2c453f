package kcdoc

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// stubHighlighter wraps code in a recognisable element, rejects "nope" and
// returns nothing for "blank".
var stubHighlighter = HighlighterFunc(func(language, code string) (string, error) {
	switch language {
	case "nope":
		return "", errors.Join(ErrUnknownLanguage, errors.New(language))
	case "blank":
		return "", nil
	}
	return `<div class="hl" data-lang="` + language + `">` + code + `</div>`, nil
})

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(src, WithHighlighter(stubHighlighter))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func mustConvert(t *testing.T, src string) (string, *Frontmatter) {
	t.Helper()
	out, fm, err := Convert(src, WithHighlighter(stubHighlighter))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	return out, fm
}

func mustQuery(t *testing.T, fragment string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func parseErr(t *testing.T, src string) *ParseError {
	t.Helper()
	_, err := Parse(src, WithHighlighter(stubHighlighter))
	if err == nil {
		t.Fatalf("expected error for %q", src)
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	return perr
}
