package kcdoc

// FormatInline splits one line of text into a flat run of text, italic,
// code and link spans. Spans do not nest: "*a* *b*" is two sibling italics.
func FormatInline(text string) (InlineRun, error) {
	f := inlineFormatter{src: []rune(text)}
	return f.format()
}

type inlineFormatter struct {
	src       []rune
	pos       int
	textStart int
	run       InlineRun
}

func (f *inlineFormatter) format() (InlineRun, error) {
	for f.pos < len(f.src) {
		var err error
		switch c := f.src[f.pos]; {
		case c == '*':
			err = f.consumeDelimited('*', ElementItalic, ErrUnterminatedItalics)
		case c == '`':
			err = f.consumeDelimited('`', ElementCode, ErrUnterminatedCodeSpan)
		case c == '[' && f.linkAhead():
			err = f.consumeLink()
		default:
			f.pos++
		}
		if err != nil {
			return nil, err
		}
	}
	f.flushText(len(f.src))
	return f.run, nil
}

func (f *inlineFormatter) consumeDelimited(delim rune, kind ElementKind, errKind ErrorKind) error {
	open := f.pos
	end := f.indexFrom(open+1, delim)
	if end < 0 {
		return inlineError(errKind, open, "unmatched %q", delim)
	}
	f.flushText(open)
	f.push(&Element{Kind: kind, Text: string(f.src[open+1 : end])})
	f.pos = end + 1
	f.textStart = f.pos
	return nil
}

func (f *inlineFormatter) consumeLink() error {
	open := f.pos
	closeText := f.indexFrom(open+1, ']')
	if closeText < 0 {
		return inlineError(ErrUnterminatedLinkText, open, `unmatched "["`)
	}
	// The two characters after the text are taken as the "](" delimiter
	// without being checked.
	closeHref := f.indexFrom(closeText+2, ')')
	if closeHref < 0 {
		return inlineError(ErrUnterminatedLinkHref, open, `unmatched "("`)
	}
	f.flushText(open)
	f.push(&Element{
		Kind: ElementLink,
		Text: string(f.src[open+1 : closeText]),
		Href: string(f.src[closeText+2 : closeHref]),
	})
	f.pos = closeHref + 1
	f.textStart = f.pos
	return nil
}

// linkAhead reports whether "](" occurs after the cursor.
func (f *inlineFormatter) linkAhead() bool {
	for i := f.pos + 1; i+1 < len(f.src); i++ {
		if f.src[i] == ']' && f.src[i+1] == '(' {
			return true
		}
	}
	return false
}

func (f *inlineFormatter) indexFrom(start int, r rune) int {
	for i := start; i < len(f.src); i++ {
		if f.src[i] == r {
			return i
		}
	}
	return -1
}

// flushText attaches src[textStart:end] to the trailing text of the last
// element, or to the run's leading text before any element.
func (f *inlineFormatter) flushText(end int) {
	if end <= f.textStart {
		return
	}
	text := string(f.src[f.textStart:end])
	f.textStart = end
	if len(f.run) == 0 {
		f.run = append(f.run, Segment{})
	}
	last := &f.run[len(f.run)-1]
	if last.Element == nil {
		last.Leading += text
		return
	}
	last.Trailing += text
}

func (f *inlineFormatter) push(el *Element) {
	if n := len(f.run); n > 0 && f.run[n-1].Element == nil {
		f.run[n-1].Element = el
		return
	}
	f.run = append(f.run, Segment{Element: el})
}
