// Package site builds a static site from a tree of kcdoc posts and pongo2
// templates.
package site

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/flosch/pongo2/v6"

	"pkt.systems/kcdoc"
	"pkt.systems/kcdoc/internal/config"
	"pkt.systems/kcdoc/internal/logging"
)

// Builder renders posts and pages under a site root.
type Builder struct {
	cfg         config.Config
	all         bool
	highlighter kcdoc.Highlighter
	now         func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithAll re-renders every post regardless of modification times.
func WithAll(all bool) BuilderOption {
	return func(b *Builder) {
		b.all = all
	}
}

// WithHighlighter overrides the highlighter used by posts and the highlight
// template tag.
func WithHighlighter(h kcdoc.Highlighter) BuilderOption {
	return func(b *Builder) {
		b.highlighter = h
	}
}

// NewBuilder validates cfg and returns a Builder.
func NewBuilder(cfg config.Config, opts ...BuilderOption) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Builder{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if b.highlighter == nil {
		b.highlighter = kcdoc.NewChromaHighlighter(cfg.HighlightStyle)
	}
	return b, nil
}

var _ slog.LogValuer = Report{}

// Report summarises a build.
type Report struct {
	Rendered int
	Skipped  int
	Pages    int
	Bytes    int64
	Elapsed  time.Duration
	// Posts are sorted newest first.
	Posts []Post
}

// LogValue implements slog.LogValuer.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("rendered", r.Rendered),
		slog.Int("skipped", r.Skipped),
		slog.Int("pages", r.Pages),
		slog.String("written", humanize.Bytes(uint64(r.Bytes))),
		slog.Duration("elapsed", r.Elapsed),
	)
}

// Build renders out-of-date posts, then every page template. The first
// failing document aborts the build.
func (b *Builder) Build(ctx context.Context) (Report, error) {
	start := b.now()
	logger := logging.FromContext(ctx).With("root", b.cfg.Root)
	set, err := newTemplateSet(b.cfg.Root, b.highlighter)
	if err != nil {
		return Report{}, err
	}
	var report Report
	sources, err := b.findPosts()
	if err != nil {
		return Report{}, err
	}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		post, rendered, n, err := b.buildPost(set, src)
		if err != nil {
			logger.Error("post failed", "source", src, "error", err)
			return report, fmt.Errorf("%s: %w", src, err)
		}
		if rendered {
			report.Rendered++
			report.Bytes += n
			logger.Debug("post rendered", "source", src, "output", post.Output, "size", humanize.Bytes(uint64(n)))
		} else {
			report.Skipped++
			logger.Debug("post skipped", "source", src)
		}
		report.Posts = append(report.Posts, post)
	}
	sortPosts(report.Posts)

	pages, err := b.findPages()
	if err != nil {
		return report, err
	}
	postValues := make([]pongo2.Context, 0, len(report.Posts))
	for _, p := range report.Posts {
		postValues = append(postValues, p.templateValue(false))
	}
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		dest := filepath.Join(b.cfg.Root, strings.TrimSuffix(page, b.cfg.TemplateExt)+".html")
		n, err := b.renderTemplate(set, page, dest, pongo2.Context{"posts": postValues})
		if err != nil {
			logger.Error("page failed", "template", page, "error", err)
			return report, fmt.Errorf("%s: %w", page, err)
		}
		report.Pages++
		report.Bytes += n
		logger.Debug("page rendered", "template", page)
	}
	report.Elapsed = b.now().Sub(start)
	logger.Info("build complete", "report", report)
	return report, nil
}

func (b *Builder) buildPost(set *pongo2.TemplateSet, src string) (Post, bool, int64, error) {
	dir := strings.TrimSuffix(src, b.cfg.SourceExt)
	dest := filepath.Join(dir, "index.html")
	update, err := b.shouldUpdate(src, dest)
	if err != nil {
		return Post{}, false, 0, err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return Post{}, false, 0, err
	}
	if err := kcdoc.ValidateInput(data); err != nil {
		return Post{}, false, 0, err
	}
	var (
		fm      *kcdoc.Frontmatter
		content string
	)
	if update {
		content, fm, err = kcdoc.Convert(string(data),
			kcdoc.WithHighlighter(b.highlighter),
			kcdoc.WithBodyClass(b.cfg.BodyClass),
		)
	} else {
		fm, err = kcdoc.ParseFrontmatter(string(data))
	}
	if err != nil {
		return Post{}, false, 0, err
	}
	post, err := newPost(fm, b.cfg.RequiredKeys)
	if err != nil {
		return Post{}, false, 0, err
	}
	post.Source = src
	post.Output = dest
	post.Slug = filepath.Base(dir)
	post.Content = content
	if !update {
		return post, false, 0, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Post{}, false, 0, err
	}
	n, err := b.renderTemplate(set, b.cfg.PostTemplate, dest, pongo2.Context{"post": post.templateValue(true)})
	if err != nil {
		return Post{}, false, 0, err
	}
	return post, true, n, nil
}

// shouldUpdate reports whether dest is missing or older than src.
func (b *Builder) shouldUpdate(src, dest string) (bool, error) {
	if b.all {
		return true, nil
	}
	destInfo, err := os.Stat(dest)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return false, err
	}
	return srcInfo.ModTime().After(destInfo.ModTime()), nil
}

func (b *Builder) renderTemplate(set *pongo2.TemplateSet, name, dest string, data pongo2.Context) (int64, error) {
	tpl, err := set.FromFile(b.templateName(name))
	if err != nil {
		return 0, err
	}
	out, err := tpl.Execute(data)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(dest, []byte(out), 0o644); err != nil {
		return 0, err
	}
	return int64(len(out)), nil
}

func (b *Builder) findPosts() ([]string, error) {
	var sources []string
	if _, err := os.Stat(b.cfg.PostsPath()); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	err := filepath.WalkDir(b.cfg.PostsPath(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == b.cfg.SourceExt {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("site: find posts: %w", err)
	}
	slices.Sort(sources)
	return sources, nil
}

// findPages returns page templates relative to the root, skipping the
// shared templates directory.
func (b *Builder) findPages() ([]string, error) {
	tmplDir := filepath.Clean(b.cfg.TemplatesPath())
	var pages []string
	err := filepath.WalkDir(b.cfg.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if filepath.Clean(path) == tmplDir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != b.cfg.TemplateExt {
			return nil
		}
		rel, err := filepath.Rel(b.cfg.Root, path)
		if err != nil {
			return err
		}
		pages = append(pages, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("site: find pages: %w", err)
	}
	slices.Sort(pages)
	return pages, nil
}

// templateName turns a path relative to the root, or an absolute path under
// it, into a loader name.
func (b *Builder) templateName(p string) string {
	if filepath.IsAbs(p) {
		if rel, err := filepath.Rel(b.cfg.Root, p); err == nil && !strings.HasPrefix(rel, "..") {
			p = rel
		}
	}
	return filepath.ToSlash(p)
}

func sortPosts(posts []Post) {
	slices.SortStableFunc(posts, func(a, b Post) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Slug, b.Slug)
	})
}
