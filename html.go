package kcdoc

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTML renders the document body as a fragment rooted at one
// <div class="body"> element.
func (d *Document) HTML(opts ...Option) (string, error) {
	cfg := newConfig(opts)
	return renderHTML(d, &cfg)
}

func renderHTML(d *Document, cfg *config) (string, error) {
	root := element(atom.Div, html.Attribute{Key: "class", Val: cfg.bodyClass})
	for _, b := range d.Blocks {
		root.AppendChild(blockNode(b))
	}
	var out strings.Builder
	if err := html.Render(&out, root); err != nil {
		return "", err
	}
	return out.String(), nil
}

func blockNode(b Block) *html.Node {
	switch b := b.(type) {
	case *Heading:
		n := element(atom.Lookup([]byte("h"+strconv.Itoa(b.Level))), html.Attribute{Key: "id", Val: b.ID})
		appendText(n, b.Text)
		return n
	case *BulletList:
		return listNode(atom.Ul, b.Items)
	case *OrderedList:
		return listNode(atom.Ol, b.Items)
	case *Paragraph:
		n := element(atom.P)
		appendRun(n, b.Body)
		return n
	case *CodeBlock:
		if b.Language != "" {
			return &html.Node{Type: html.RawNode, Data: b.Highlighted}
		}
		pre := element(atom.Pre)
		code := element(atom.Code)
		appendText(code, b.Code)
		pre.AppendChild(code)
		return pre
	}
	return &html.Node{Type: html.CommentNode, Data: "unknown block"}
}

func listNode(a atom.Atom, items []InlineRun) *html.Node {
	list := element(a)
	for _, item := range items {
		li := element(atom.Li)
		appendRun(li, item)
		list.AppendChild(li)
	}
	return list
}

func appendRun(parent *html.Node, run InlineRun) {
	for _, seg := range run {
		appendText(parent, seg.Leading)
		if seg.Element != nil {
			parent.AppendChild(inlineNode(seg.Element))
		}
		appendText(parent, seg.Trailing)
	}
}

func inlineNode(el *Element) *html.Node {
	var n *html.Node
	switch el.Kind {
	case ElementItalic:
		n = element(atom.I)
	case ElementCode:
		n = element(atom.Code)
	default:
		n = element(atom.A, html.Attribute{Key: "href", Val: el.Href})
	}
	appendText(n, el.Text)
	return n
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func appendText(parent *html.Node, text string) {
	if text == "" {
		return
	}
	parent.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}
