package kcdoc

import "strings"

// MaxHeadingLevel is the deepest heading the parser accepts.
const MaxHeadingLevel = 5

// Document is the parsed form of one kcdoc source.
type Document struct {
	Frontmatter *Frontmatter
	Blocks      []Block
}

// Block is one of *Heading, *BulletList, *OrderedList, *Paragraph or *CodeBlock.
type Block interface {
	// SourceLine returns the 1-based line the block starts on.
	SourceLine() int
	block()
}

// Heading is a "#"-prefixed line. Text is kept verbatim.
type Heading struct {
	Line  int
	Level int
	ID    string
	Text  string
}

// BulletList is a run of "-"-prefixed lines.
type BulletList struct {
	Line  int
	Items []InlineRun
}

// OrderedList is a run of "1.", "2.", ... prefixed lines.
type OrderedList struct {
	Line  int
	Items []InlineRun
}

// Paragraph is a run of non-blank lines joined with single spaces.
type Paragraph struct {
	Line int
	Body InlineRun
}

// CodeBlock is a fenced block. Highlighted holds the highlighter's HTML
// when Language is set; otherwise Code is rendered as plain text.
type CodeBlock struct {
	Line        int
	Language    string
	Code        string
	Highlighted string
}

func (b *Heading) SourceLine() int     { return b.Line }
func (b *BulletList) SourceLine() int  { return b.Line }
func (b *OrderedList) SourceLine() int { return b.Line }
func (b *Paragraph) SourceLine() int   { return b.Line }
func (b *CodeBlock) SourceLine() int   { return b.Line }

func (*Heading) block()     {}
func (*BulletList) block()  {}
func (*OrderedList) block() {}
func (*Paragraph) block()   {}
func (*CodeBlock) block()   {}

// ElementKind identifies an inline element.
type ElementKind uint8

const (
	// ElementItalic is text between '*' characters.
	ElementItalic ElementKind = iota + 1
	// ElementCode is text between '`' characters.
	ElementCode
	// ElementLink is a [text](href) span.
	ElementLink
)

func (k ElementKind) String() string {
	switch k {
	case ElementItalic:
		return "italic"
	case ElementCode:
		return "code"
	case ElementLink:
		return "link"
	default:
		return "unknown"
	}
}

// Element is an inline span. Elements never contain other elements.
type Element struct {
	Kind ElementKind
	Text string
	Href string
}

// Segment is text before an optional element and the text following it.
// Only the first segment of a run carries Leading text.
type Segment struct {
	Leading  string
	Element  *Element
	Trailing string
}

// InlineRun is the flat span sequence of one paragraph or list item.
type InlineRun []Segment

// PlainText returns the run's text with all markup removed.
func (r InlineRun) PlainText() string {
	var b strings.Builder
	for _, seg := range r {
		b.WriteString(seg.Leading)
		if seg.Element != nil {
			b.WriteString(seg.Element.Text)
		}
		b.WriteString(seg.Trailing)
	}
	return b.String()
}

// Elements returns the run's elements in order.
func (r InlineRun) Elements() []*Element {
	var out []*Element
	for _, seg := range r {
		if seg.Element != nil {
			out = append(out, seg.Element)
		}
	}
	return out
}
