package site

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pkt.systems/kcdoc"
	"pkt.systems/kcdoc/internal/config"
)

var stubHighlighter = kcdoc.HighlighterFunc(func(lang, code string) (string, error) {
	if lang == "nope" {
		return "", fmt.Errorf("%w: %s", kcdoc.ErrUnknownLanguage, lang)
	}
	return fmt.Sprintf(`<pre data-lang="%s">%s</pre>`, lang, code), nil
})

func writeFile(t *testing.T, root, rel, body string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func newSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "tmpls/post.j2", "<h1>{{ post.title }}</h1><time>{{ post.date }}</time>{{ post.content|safe }}")
	writeFile(t, root, "tmpls/base.j2", "never rendered")
	writeFile(t, root, "index.j2", "{% for p in posts %}<li>{{ p.slug }} {{ p.date }}{% if p.draft %} draft{% endif %}</li>{% endfor %}")
	writeFile(t, root, "posts/older.kcdoc", "---\ntitle: Older\ndesc: first post\ndate: 2024-03-03T08:00:00Z\n---\n# Hello\n\nSome *words*.\n")
	writeFile(t, root, "posts/2024/newer.kcdoc", "---\ntitle: Newer\ndesc: second post\ndate: May 1, 2024\ndraft:\n---\n```go\nx := 1\n```\n")
	return root
}

func newTestBuilder(t *testing.T, root string, opts ...BuilderOption) *Builder {
	t.Helper()
	cfg := config.Default()
	cfg.Root = root
	b, err := NewBuilder(cfg, append([]BuilderOption{WithHighlighter(stubHighlighter)}, opts...)...)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func TestBuildRendersPostsAndPages(t *testing.T) {
	root := newSite(t)
	report, err := newTestBuilder(t, root).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.Rendered != 2 || report.Skipped != 0 || report.Pages != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Bytes == 0 {
		t.Fatalf("expected bytes written")
	}

	older := readFile(t, root, "posts/older/index.html")
	want := `<h1>Older</h1><time>2024-03-03</time><div class="body"><h1 id="hello">Hello</h1><p>Some <i>words</i>.</p></div>`
	if older != want {
		t.Fatalf("older post\n got: %s\nwant: %s", older, want)
	}
	newer := readFile(t, root, "posts/2024/newer/index.html")
	if !strings.Contains(newer, `<pre data-lang="go">x := 1`) {
		t.Fatalf("expected highlighted code, got %s", newer)
	}

	index := readFile(t, root, "index.html")
	if want := "<li>newer 2024-05-01 draft</li><li>older 2024-03-03</li>"; index != want {
		t.Fatalf("index\n got: %s\nwant: %s", index, want)
	}
	if _, err := os.Stat(filepath.Join(root, "tmpls", "base.html")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("templates directory must not be rendered as pages")
	}
	if report.Posts[0].Slug != "newer" || !report.Posts[0].Draft {
		t.Fatalf("unexpected first post: %+v", report.Posts[0])
	}
}

func TestBuildIsIncremental(t *testing.T) {
	root := newSite(t)
	if _, err := newTestBuilder(t, root).Build(context.Background()); err != nil {
		t.Fatalf("first build: %v", err)
	}
	past := time.Now().Add(-time.Hour)
	for _, rel := range []string{"posts/older.kcdoc", "posts/2024/newer.kcdoc"} {
		if err := os.Chtimes(filepath.Join(root, rel), past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	report, err := newTestBuilder(t, root).Build(context.Background())
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if report.Rendered != 0 || report.Skipped != 2 {
		t.Fatalf("expected everything skipped, got %+v", report)
	}
	if index := readFile(t, root, "index.html"); !strings.Contains(index, "older 2024-03-03") {
		t.Fatalf("skipped posts must still be listed: %s", index)
	}

	future := time.Now().Add(time.Hour)
	src := writeFile(t, root, "posts/older.kcdoc", "---\ntitle: Edited\ndesc: first post\ndate: 2024-03-03\n---\nChanged.\n")
	if err := os.Chtimes(src, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	report, err = newTestBuilder(t, root).Build(context.Background())
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if report.Rendered != 1 || report.Skipped != 1 {
		t.Fatalf("expected one re-render, got %+v", report)
	}
	if got := readFile(t, root, "posts/older/index.html"); !strings.Contains(got, "<h1>Edited</h1>") {
		t.Fatalf("post not re-rendered: %s", got)
	}

	report, err = newTestBuilder(t, root, WithAll(true)).Build(context.Background())
	if err != nil {
		t.Fatalf("forced build: %v", err)
	}
	if report.Rendered != 2 {
		t.Fatalf("WithAll should re-render everything, got %+v", report)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		post string
		want error
	}{
		{
			name: "missing key",
			post: "---\ntitle: T\ndate: 2024-01-01\n---\nbody\n",
			want: ErrMisformedFrontmatter,
		},
		{
			name: "bad date",
			post: "---\ntitle: T\ndesc: D\ndate: not a date\n---\nbody\n",
			want: ErrMisformedDate,
		},
		{
			name: "parse error",
			post: "---\ntitle: T\ndesc: D\ndate: 2024-01-01\n---\n*open\n",
			want: kcdoc.ErrUnterminatedItalics,
		},
		{
			name: "unknown language",
			post: "---\ntitle: T\ndesc: D\ndate: 2024-01-01\n---\n```nope\nx\n```\n",
			want: kcdoc.ErrUnknownLanguage,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			root := newSite(t)
			src := writeFile(t, root, "posts/broken.kcdoc", tc.post)
			_, err := newTestBuilder(t, root).Build(context.Background())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !strings.HasPrefix(err.Error(), src+": ") {
				t.Fatalf("error should name the source: %v", err)
			}
		})
	}
}

func TestHighlightTag(t *testing.T) {
	root := newSite(t)
	writeFile(t, root, "code.j2", "<main>{% highlight \"python\" %}\n  a &lt; b\n{% endhighlight %}</main>")
	if _, err := newTestBuilder(t, root).Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := readFile(t, root, "code.html")
	if want := `<main><pre data-lang="python">a < b</pre></main>`; got != want {
		t.Fatalf("code page\n got: %s\nwant: %s", got, want)
	}
}

func TestPostContentIsNotEscaped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tmpls/post.j2", "{{ post.content }}")
	writeFile(t, root, "posts/a.kcdoc", "---\ntitle: A\ndesc: d\ndate: 2024-01-01\n---\nhello *x*\n")
	if _, err := newTestBuilder(t, root).Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	got := readFile(t, root, "posts/a/index.html")
	if want := `<div class="body"><p>hello <i>x</i></p></div>`; got != want {
		t.Fatalf("post\n got: %s\nwant: %s", got, want)
	}
}

func TestBuildWithoutPostsDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tmpls/post.j2", "{{ post.content|safe }}")
	writeFile(t, root, "about.j2", "{{ posts|length }} posts")
	report, err := newTestBuilder(t, root).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if report.Pages != 1 || len(report.Posts) != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if got := readFile(t, root, "about.html"); got != "0 posts" {
		t.Fatalf("about=%q", got)
	}
}

func TestBuildHonoursCancellation(t *testing.T) {
	root := newSite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newTestBuilder(t, root).Build(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
