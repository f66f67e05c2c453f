// Package kcdoc converts kcdoc documents to HTML fragments.
//
// kcdoc is a small line-oriented markup: an optional "---" frontmatter block
// of key:value pairs, "#" headings (up to five levels), "-" bullet lists,
// strictly numbered "1." "2." ... lists, fenced code blocks and paragraphs.
// Paragraphs and list items may contain *italic*, `code` and [link](href)
// spans, which never nest.
//
// Parsing is a single synchronous pass. The first error aborts the document;
// there is no partial output. Fenced blocks that name a language are handed
// to a Highlighter (chroma by default) and its HTML is spliced unchanged.
//
// Example:
//
//	body, fm, err := kcdoc.Convert("---\ntitle: Hello\n---\n# Hello\n\nBody text.\n")
//	if err != nil {
//		log.Fatal(err)
//	}
//	title, _ := fm.Get("title")
//	fmt.Println(title, body)
//
// Errors are *ParseError values; match them by kind:
//
//	if errors.Is(err, kcdoc.ErrUnterminatedItalics) {
//		// ...
//	}
package kcdoc
