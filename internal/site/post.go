package site

import (
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
	"github.com/flosch/pongo2/v6"

	"pkt.systems/kcdoc"
)

// DateLayout is the layout post dates are normalised to.
const DateLayout = "2006-01-02"

var (
	// ErrMisformedFrontmatter reports a post missing a required key.
	ErrMisformedFrontmatter = errors.New("misformed frontmatter")
	// ErrMisformedDate reports a post date that cannot be parsed.
	ErrMisformedDate = errors.New("misformed date in frontmatter")
)

// Post is one source document with its normalised metadata.
type Post struct {
	Source string
	Output string
	Slug   string
	Date   time.Time
	Draft  bool
	// Meta holds the frontmatter with the date normalised to DateLayout.
	Meta map[string]string
	// Content is empty when the post was not re-rendered.
	Content string
}

func newPost(fm *kcdoc.Frontmatter, required []string) (Post, error) {
	for _, key := range required {
		if !fm.Has(key) {
			return Post{}, fmt.Errorf("%w: missing %q", ErrMisformedFrontmatter, key)
		}
	}
	post := Post{
		Meta:  fm.Map(),
		Draft: fm.Has("draft"),
	}
	if raw, ok := fm.Get("date"); ok {
		date, err := dateparse.ParseAny(raw)
		if err != nil {
			return Post{}, fmt.Errorf("%w: %q", ErrMisformedDate, raw)
		}
		post.Date = date
		post.Meta["date"] = date.Format(DateLayout)
	}
	return post, nil
}

// templateValue is the mapping a template sees for this post: every
// frontmatter key plus slug and draft, and content when withContent is set.
// Content is marked safe so templates print the fragment unescaped.
func (p Post) templateValue(withContent bool) pongo2.Context {
	v := make(pongo2.Context, len(p.Meta)+3)
	for k, val := range p.Meta {
		v[k] = val
	}
	v["slug"] = p.Slug
	v["draft"] = p.Draft
	if withContent {
		v["content"] = pongo2.AsSafeValue(p.Content)
	}
	return v
}
