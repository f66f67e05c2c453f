package kcdoc

import (
	"fmt"
)

// ErrorKind classifies a ParseError. Every kind is itself an error so callers
// can match with errors.Is(err, kcdoc.ErrUnterminatedItalics).
type ErrorKind uint8

const (
	// ErrMissingColon reports a frontmatter line without a ':' separator.
	ErrMissingColon ErrorKind = iota + 1
	// ErrUnterminatedFrontmatter reports a frontmatter block without a closing
	// delimiter. It is the kind a missing colon at end of input would
	// otherwise be reported as; it names the opening line instead.
	ErrUnterminatedFrontmatter
	// ErrUnrecognizedHeaderChar reports a character other than '#' or ' ' in a heading marker.
	ErrUnrecognizedHeaderChar
	// ErrInvalidHeaderDepth reports a heading deeper than MaxHeadingLevel.
	ErrInvalidHeaderDepth
	// ErrUnterminatedCodeBlock reports a fenced code block without a closing fence.
	ErrUnterminatedCodeBlock
	// ErrUnterminatedItalics reports a '*' without a matching '*'.
	ErrUnterminatedItalics
	// ErrUnterminatedCodeSpan reports a '`' without a matching '`'.
	ErrUnterminatedCodeSpan
	// ErrUnterminatedLinkText reports link text that is not closed by "](".
	ErrUnterminatedLinkText
	// ErrUnterminatedLinkHref reports a link target without a closing ')'.
	ErrUnterminatedLinkHref
	// ErrUnknownLanguage reports a fenced code language the highlighter has no lexer for.
	ErrUnknownLanguage
	// ErrHighlight reports any other highlighter failure.
	ErrHighlight
)

var errorKindText = [...]string{
	ErrMissingColon:            "missing colon",
	ErrUnterminatedFrontmatter: "unterminated frontmatter",
	ErrUnrecognizedHeaderChar:  "unrecognized header character",
	ErrInvalidHeaderDepth:      "invalid header depth",
	ErrUnterminatedCodeBlock:   "unterminated code block",
	ErrUnterminatedItalics:     "unterminated italics",
	ErrUnterminatedCodeSpan:    "unterminated code span",
	ErrUnterminatedLinkText:    "unterminated link text",
	ErrUnterminatedLinkHref:    "unterminated link href",
	ErrUnknownLanguage:         "unknown language",
	ErrHighlight:               "highlight failed",
}

func (k ErrorKind) Error() string {
	if int(k) < len(errorKindText) && errorKindText[k] != "" {
		return errorKindText[k]
	}
	return fmt.Sprintf("kcdoc error %d", uint8(k))
}

// ParseError describes why a document could not be parsed.
//
// Line is 1-based. Offset is the 0-based character offset inside the text
// handed to the inline formatter (or inside the heading line), and -1 when
// only the line is known.
type ParseError struct {
	Kind   ErrorKind
	Line   int
	Offset int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("kcdoc: line %d, ch %d: %s", e.Line, e.Offset, msg)
	}
	return fmt.Sprintf("kcdoc: line %d: %s", e.Line, msg)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func lineError(kind ErrorKind, line int, format string, args ...any) *ParseError {
	return &ParseError{
		Kind:   kind,
		Line:   line,
		Offset: -1,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// inlineError is raised by the inline formatter before the line is known;
// the block parser fills in Line.
func inlineError(kind ErrorKind, offset int, format string, args ...any) *ParseError {
	return &ParseError{
		Kind:   kind,
		Offset: offset,
		Msg:    fmt.Sprintf(format, args...),
	}
}
