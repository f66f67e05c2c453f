package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestOpenInputFileAndURL(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "input.kcdoc", "hello")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# Remote"))
	}))
	defer srv.Close()

	tests := []struct {
		input string
		want  string
	}{
		{input: path, want: `<div class="body"><p>hello</p></div>`},
		{input: "file://" + path, want: `<div class="body"><p>hello</p></div>`},
		{input: srv.URL, want: `<div class="body"><h1 id="remote">Remote</h1></div>`},
	}
	for _, tc := range tests {
		sources, err := openInputs([]string{tc.input}, nil)
		if err != nil {
			t.Fatalf("openInputs(%q): %v", tc.input, err)
		}
		var out bytes.Buffer
		if _, err := sources[0].render(context.Background(), &out, nil); err != nil {
			t.Fatalf("render %q: %v", tc.input, err)
		}
		if out.String() != tc.want {
			t.Fatalf("render %q\n got: %s\nwant: %s", tc.input, out.String(), tc.want)
		}
	}
	if _, err := openInputs([]string{"  "}, nil); err == nil {
		t.Fatalf("expected error for empty input argument")
	}
}

func TestRunConvertsEachInput(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	first := writeTemp(t, dir, "a.kcdoc", "---\ntitle: A\n---\none")
	second := writeTemp(t, dir, "b.kcdoc", "- two")
	code, stdout, stderr := runCLI(t, "", first, second)
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	want := `<div class="body"><p>one</p></div>` + "\n" + `<div class="body"><ul><li>two</li></ul></div>`
	if stdout != want {
		t.Fatalf("stdout\n got: %s\nwant: %s", stdout, want)
	}
}

func TestRunStdinAndOutputFile(t *testing.T) {
	t.Chdir(t.TempDir())
	out := filepath.Join(t.TempDir(), "nested", "out.html")
	code, stdout, stderr := runCLI(t, "Read *this*.", "--body-class", "post", "-o", out)
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if stdout != "" {
		t.Fatalf("expected nothing on stdout, got %q", stdout)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if want := `<div class="post"><p>Read <i>this</i>.</p></div>`; string(data) != want {
		t.Fatalf("output\n got: %s\nwant: %s", data, want)
	}
}

func TestRunFrontmatterYAML(t *testing.T) {
	t.Chdir(t.TempDir())
	code, stdout, stderr := runCLI(t, "---\ntitle: Hello\ndesc: a short post\n---\nbody", "--frontmatter")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if want := "title: Hello\ndesc: a short post\n"; stdout != want {
		t.Fatalf("yaml\n got: %q\nwant: %q", stdout, want)
	}
}

func TestRunCSS(t *testing.T) {
	t.Chdir(t.TempDir())
	code, stdout, stderr := runCLI(t, "", "--css", "--style", "github")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, ".chroma") {
		t.Fatalf("expected chroma stylesheet, got %q", stdout)
	}
}

func TestRunParseErrorExitsWithError(t *testing.T) {
	t.Chdir(t.TempDir())
	code, stdout, stderr := runCLI(t, "ok\n\n*open")
	if code != exitError {
		t.Fatalf("exit %d, want %d", code, exitError)
	}
	if stdout != "" {
		t.Fatalf("no partial output expected, got %q", stdout)
	}
	if !strings.HasPrefix(stderr, "kcdoc: stdin: ") || !strings.Contains(stderr, "line 3, ch 0") {
		t.Fatalf("unexpected stderr: %q", stderr)
	}
}

func TestRunUsageErrors(t *testing.T) {
	t.Chdir(t.TempDir())
	tests := [][]string{
		{"--no-such-flag"},
		{"--style", "not-a-style"},
		{"--log-format", "xml"},
		{"--build", "extra.kcdoc"},
	}
	for _, args := range tests {
		if code, _, _ := runCLI(t, "", args...); code != exitUsage {
			t.Fatalf("args %v: exit %d, want %d", args, code, exitUsage)
		}
	}
}

func TestRunBuild(t *testing.T) {
	t.Chdir(t.TempDir())
	root := t.TempDir()
	writeTemp(t, root, "tmpls/post.j2", "<article>{{ post.content|safe }}</article>")
	writeTemp(t, root, "posts/first.kcdoc", "---\ntitle: First\ndesc: d\ndate: 2024-02-01\n---\nHi.\n")
	writeTemp(t, root, "index.j2", "{% for p in posts %}{{ p.title }}{% endfor %}")

	code, stdout, stderr := runCLI(t, "", "--build", "-r", root, "--log-format", "text")
	if code != exitOK {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "1 rendered, 0 skipped, 1 pages") {
		t.Fatalf("unexpected summary: %q", stdout)
	}
	post, err := os.ReadFile(filepath.Join(root, "posts", "first", "index.html"))
	if err != nil {
		t.Fatalf("read post: %v", err)
	}
	if want := `<article><div class="body"><p>Hi.</p></div></article>`; string(post) != want {
		t.Fatalf("post\n got: %s\nwant: %s", post, want)
	}

	code, stdout, _ = runCLI(t, "", "--build", "-r", root, "--log-format", "text")
	if code != exitOK || !strings.HasPrefix(stdout, "0 rendered, 1 skipped") {
		t.Fatalf("second build exit %d: %q", code, stdout)
	}
	code, stdout, _ = runCLI(t, "", "--build", "-a", "-r", root, "--log-format", "text")
	if code != exitOK || !strings.HasPrefix(stdout, "1 rendered") {
		t.Fatalf("forced build exit %d: %q", code, stdout)
	}
}

func TestFailWrapsLongMessages(t *testing.T) {
	var stderr bytes.Buffer
	c := &cli{stderr: &stderr, width: 20}
	c.fail("input", errString("one two three four five six seven"))
	lines := strings.Split(strings.TrimRight(stderr.String(), "\n"), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapped output, got %q", stderr.String())
	}
	for _, line := range lines[1:] {
		if !strings.HasPrefix(line, "  ") {
			t.Fatalf("continuation line not indented: %q", line)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }
