package kcdoc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const codeFence = "```"

// Parse parses src into a Document. The returned Document always carries a
// non-nil Frontmatter.
func Parse(src string, opts ...Option) (*Document, error) {
	cfg := newConfig(opts)
	return parseDocument(src, &cfg)
}

func parseDocument(src string, cfg *config) (*Document, error) {
	lines := splitLines(src)
	fm, start, err := extractFrontmatter(lines)
	if err != nil {
		return nil, err
	}
	p := &blockParser{
		lines: lines,
		pos:   start,
		cfg:   cfg,
		ids:   headingIDs{},
	}
	doc := &Document{Frontmatter: fm}
	for {
		p.pos = skipBlank(p.lines, p.pos)
		if p.atEnd() {
			return doc, nil
		}
		b, err := p.block()
		if err != nil {
			return nil, err
		}
		doc.Blocks = append(doc.Blocks, b)
	}
}

// blockParser is owned by a single Parse call.
type blockParser struct {
	lines []string
	pos   int
	cfg   *config
	ids   headingIDs
}

func (p *blockParser) atEnd() bool {
	return p.pos >= len(p.lines)
}

// line returns the current line with surrounding whitespace removed.
func (p *blockParser) line() string {
	if p.atEnd() {
		return ""
	}
	return strings.TrimSpace(p.lines[p.pos])
}

func (p *blockParser) lineNo() int {
	return p.pos + 1
}

// block dispatches on the line prefix. The order matters: "---" is a bullet
// list and "1.5 litres" opens an ordered list.
func (p *blockParser) block() (Block, error) {
	line := p.line()
	switch {
	case strings.HasPrefix(line, "#"):
		return p.heading()
	case strings.HasPrefix(line, "-"):
		return p.bulletList()
	case strings.HasPrefix(line, "1."):
		return p.orderedList()
	case strings.HasPrefix(line, codeFence):
		return p.codeBlock()
	default:
		return p.paragraph()
	}
}

func (p *blockParser) heading() (Block, error) {
	line, lineNo := p.line(), p.lineNo()
	depth := 0
scan:
	for i, c := range line {
		switch c {
		case ' ':
			break scan
		case '#':
			depth++
		default:
			return nil, &ParseError{
				Kind:   ErrUnrecognizedHeaderChar,
				Line:   lineNo,
				Offset: i,
				Msg:    fmt.Sprintf("unrecognized character %q", c),
			}
		}
	}
	if depth > MaxHeadingLevel {
		return nil, lineError(ErrInvalidHeaderDepth, lineNo, "header depth %d exceeds %d", depth, MaxHeadingLevel)
	}
	text := strings.TrimSpace(line[depth:])
	p.pos++
	return &Heading{
		Line:  lineNo,
		Level: depth,
		ID:    p.ids.assign(text),
		Text:  text,
	}, nil
}

func (p *blockParser) bulletList() (Block, error) {
	list := &BulletList{Line: p.lineNo()}
	for !p.atEnd() && strings.HasPrefix(p.line(), "-") {
		item, err := p.inline(strings.TrimSpace(p.line()[1:]))
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
		p.pos++
	}
	return list, nil
}

// orderedList accepts "1.", "2.", ... as literal prefixes and stops at the
// first line that does not carry the next one.
func (p *blockParser) orderedList() (Block, error) {
	list := &OrderedList{Line: p.lineNo()}
	for i := 1; !p.atEnd(); i++ {
		prefix := strconv.Itoa(i) + "."
		line := p.line()
		if !strings.HasPrefix(line, prefix) {
			break
		}
		item, err := p.inline(strings.TrimSpace(line[len(prefix):]))
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, item)
		p.pos++
	}
	return list, nil
}

func (p *blockParser) codeBlock() (Block, error) {
	open := p.lineNo()
	lang := strings.TrimSpace(p.line()[len(codeFence):])
	p.pos++

	var code strings.Builder
	for !p.atEnd() && !strings.HasPrefix(p.line(), codeFence) {
		code.WriteString(p.line())
		code.WriteByte('\n')
		p.pos++
	}
	if p.atEnd() {
		return nil, lineError(ErrUnterminatedCodeBlock, open, "code block is never closed")
	}
	p.pos++

	block := &CodeBlock{Line: open, Language: lang, Code: code.String()}
	if lang == "" {
		return block, nil
	}
	out, err := p.cfg.highlighterOrDefault().Highlight(lang, block.Code)
	if err != nil {
		kind := ErrHighlight
		if errors.Is(err, ErrUnknownLanguage) {
			kind = ErrUnknownLanguage
		}
		return nil, &ParseError{
			Kind:   kind,
			Line:   open,
			Offset: -1,
			Msg:    fmt.Sprintf("cannot highlight %q code block", lang),
			Err:    err,
		}
	}
	p.cfg.logger.Debug("highlighted code block", "line", open, "language", lang, "bytes", len(out))
	block.Highlighted = out
	return block, nil
}

// paragraph joins lines until a blank line. Lines that look like other
// blocks are taken as text once a paragraph has started.
func (p *blockParser) paragraph() (Block, error) {
	start := p.lineNo()
	var parts []string
	for !p.atEnd() && p.line() != "" {
		parts = append(parts, p.line())
		p.pos++
	}
	body, err := p.inlineAt(strings.Join(parts, " "), start)
	if err != nil {
		return nil, err
	}
	return &Paragraph{Line: start, Body: body}, nil
}

func (p *blockParser) inline(text string) (InlineRun, error) {
	return p.inlineAt(text, p.lineNo())
}

func (p *blockParser) inlineAt(text string, lineNo int) (InlineRun, error) {
	run, err := FormatInline(text)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Line = lineNo
		}
		return nil, err
	}
	return run, nil
}
