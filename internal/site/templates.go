package site

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"pkt.systems/kcdoc"
)

// highlighterVar is the template-set global the highlight tag reads its
// Highlighter from.
const highlighterVar = "kcdoc_highlighter"

var registerTags sync.Once

// newTemplateSet returns a template set rooted at root. Template names are
// slash-separated paths relative to root.
func newTemplateSet(root string, h kcdoc.Highlighter) (*pongo2.TemplateSet, error) {
	var regErr error
	registerTags.Do(func() {
		regErr = pongo2.RegisterTag("highlight", parseHighlightTag)
	})
	if regErr != nil {
		return nil, fmt.Errorf("site: register highlight tag: %w", regErr)
	}
	loader, err := pongo2.NewLocalFileSystemLoader(root)
	if err != nil {
		return nil, fmt.Errorf("site: template loader: %w", err)
	}
	set := pongo2.NewSet("kcdoc-site", loader)
	set.Globals[highlighterVar] = h
	return set, nil
}

// highlightNode renders {% highlight "lang" %}code{% endhighlight %}.
type highlightNode struct {
	token   *pongo2.Token
	lang    pongo2.IEvaluator
	wrapper *pongo2.NodeWrapper
}

func parseHighlightTag(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	node := &highlightNode{token: start}
	lang, perr := arguments.ParseExpression()
	if perr != nil {
		return nil, perr
	}
	node.lang = lang
	if arguments.Remaining() > 0 {
		return nil, arguments.Error("highlight takes exactly one argument, the language.", nil)
	}
	wrapper, endArgs, perr := doc.WrapUntilTag("endhighlight")
	if perr != nil {
		return nil, perr
	}
	if endArgs.Count() > 0 {
		return nil, endArgs.Error("endhighlight takes no arguments.", nil)
	}
	node.wrapper = wrapper
	return node, nil
}

func (node *highlightNode) Execute(ctx *pongo2.ExecutionContext, writer pongo2.TemplateWriter) *pongo2.Error {
	lang, perr := node.lang.Evaluate(ctx)
	if perr != nil {
		return perr
	}
	var body bytes.Buffer
	if perr := node.wrapper.Execute(ctx, &body); perr != nil {
		return perr
	}
	h, ok := ctx.Public[highlighterVar].(kcdoc.Highlighter)
	if !ok || h == nil {
		h = kcdoc.NewChromaHighlighter(kcdoc.DefaultHighlightStyle)
	}
	code := html.UnescapeString(strings.TrimSpace(body.String()))
	out, err := h.Highlight(lang.String(), code)
	if err != nil {
		return ctx.Error(err.Error(), node.token)
	}
	if _, err := writer.WriteString(out); err != nil {
		return ctx.Error(err.Error(), node.token)
	}
	return nil
}
