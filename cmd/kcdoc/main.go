package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/pflag"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
	"pkt.systems/kcdoc"
	"pkt.systems/kcdoc/internal/config"
	"pkt.systems/kcdoc/internal/logging"
	"pkt.systems/kcdoc/internal/site"
	"pkt.systems/version"
)

const defaultWidth = 80

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func init() {
	version.SetDefaultModule("pkt.systems/kcdoc")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	width  int
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var (
		outPath     string
		configPath  string
		root        string
		style       string
		bodyClass   string
		logLevel    string
		logFormat   string
		frontmatter bool
		css         bool
		build       bool
		all         bool
		listStyles  bool
		showVersion bool
	)
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr, width: terminalWidth(stderr, defaultWidth)}

	flags := pflag.NewFlagSet("kcdoc", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&outPath, "output", "o", "", "Output file instead of stdout")
	flags.StringVarP(&configPath, "config", "c", "", "Config file (default "+config.DefaultFile+" when present)")
	flags.StringVarP(&root, "root", "r", "", "Site root for --build")
	flags.StringVarP(&style, "style", "s", "", "Highlight style for code blocks and --css")
	flags.StringVar(&bodyClass, "body-class", "", "Class of the container element")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error")
	flags.StringVar(&logFormat, "log-format", "", "Log format: auto|text|json")
	flags.BoolVar(&frontmatter, "frontmatter", false, "Write the frontmatter as YAML instead of HTML")
	flags.BoolVar(&css, "css", false, "Write the stylesheet for the highlight style")
	flags.BoolVar(&build, "build", false, "Build the site under the root")
	flags.BoolVarP(&all, "all", "a", false, "With --build, render everything regardless of modification time")
	flags.BoolVar(&listStyles, "list-styles", false, "List available highlight styles")
	flags.BoolVar(&showVersion, "version", false, "Print version and exit")
	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(stderr, version.Module(), version.Current())
		fmt.Fprintf(stderr, "Usage: kcdoc [flags] [inputs...]\n")
		fmt.Fprintln(stderr, "\nInputs are paths, file:// or http(s):// URLs. If none is given, a")
		fmt.Fprintln(stderr, "document is read from stdin. Each input is converted on its own.")
		fmt.Fprintln(stderr, "\nFlags:")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if showVersion {
		fmt.Fprintln(stdout, version.Module(), version.Current())
		return exitOK
	}
	if listStyles {
		names := kcdoc.HighlightStyles()
		slices.Sort(names)
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
		return exitOK
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		c.fail("config", err)
		return exitError
	}
	if flags.Changed("root") {
		cfg.Root = normalizePath(root)
	}
	if flags.Changed("style") {
		cfg.HighlightStyle = style
	}
	if flags.Changed("body-class") {
		cfg.BodyClass = bodyClass
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if !slices.Contains(kcdoc.HighlightStyles(), cfg.HighlightStyle) {
		fmt.Fprintf(stderr, "unknown style %q; see --list-styles\n", cfg.HighlightStyle)
		return exitUsage
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Writer: stderr})
	if err != nil {
		c.fail("logging", err)
		return exitUsage
	}
	ctx = logging.WithLogger(ctx, logger)

	if build {
		if flags.NArg() > 0 {
			fmt.Fprintln(stderr, "--build takes no inputs")
			return exitUsage
		}
		return c.build(ctx, cfg, all)
	}

	writer, closeOut, err := resolveOutput(outPath, stdout)
	if err != nil {
		c.fail("open output", err)
		return exitError
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}

	highlighter := kcdoc.NewChromaHighlighter(cfg.HighlightStyle)
	if css {
		if err := highlighter.WriteCSS(writer); err != nil {
			c.fail("css", err)
			return exitError
		}
		return exitOK
	}

	sources, err := openInputs(flags.Args(), stdin)
	if err != nil {
		c.fail("open input", err)
		return exitUsage
	}
	opts := []kcdoc.Option{
		kcdoc.WithHighlighter(highlighter),
		kcdoc.WithBodyClass(cfg.BodyClass),
		kcdoc.WithLogger(logger),
	}
	if frontmatter {
		return c.writeFrontmatter(ctx, sources, writer, opts)
	}
	for i, src := range sources {
		if i > 0 {
			if _, err := io.WriteString(writer, "\n"); err != nil {
				c.fail("write", err)
				return exitError
			}
		}
		if _, err := src.render(ctx, writer, opts); err != nil {
			c.fail(src.name, err)
			return exitError
		}
		logger.Debug("converted", "input", src.name)
	}
	return exitOK
}

func (c *cli) build(ctx context.Context, cfg config.Config, all bool) int {
	builder, err := site.NewBuilder(cfg, site.WithAll(all))
	if err != nil {
		c.fail("build", err)
		return exitUsage
	}
	report, err := builder.Build(ctx)
	if err != nil {
		c.fail("build", err)
		return exitError
	}
	fmt.Fprintf(c.stdout, "%d rendered, %d skipped, %d pages, %s written in %s\n",
		report.Rendered, report.Skipped, report.Pages,
		humanize.Bytes(uint64(report.Bytes)), report.Elapsed.Round(time.Millisecond))
	return exitOK
}

// writeFrontmatter emits one YAML document per input.
func (c *cli) writeFrontmatter(ctx context.Context, sources []inputSource, w io.Writer, opts []kcdoc.Option) int {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, src := range sources {
		fm, err := src.render(ctx, io.Discard, opts)
		if err != nil {
			c.fail(src.name, err)
			return exitError
		}
		if err := enc.Encode(fm); err != nil {
			c.fail("encode frontmatter", err)
			return exitError
		}
	}
	if err := enc.Close(); err != nil {
		c.fail("encode frontmatter", err)
		return exitError
	}
	return exitOK
}

// fail prints err wrapped to the terminal width, continuation lines indented.
func (c *cli) fail(prefix string, err error) {
	msg := wordwrap.String(fmt.Sprintf("kcdoc: %s: %v", prefix, err), c.width)
	head, rest, more := strings.Cut(msg, "\n")
	fmt.Fprintln(c.stderr, head)
	if more {
		fmt.Fprintln(c.stderr, indent.String(rest, 2))
	}
}

func terminalWidth(w io.Writer, fallback int) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if width, err := strconv.Atoi(value); err == nil && width > 0 {
			return width
		}
	}
	return fallback
}

// inputSource is one document: a local file, stdin or an HTTP(S) URL.
type inputSource struct {
	name string
	url  string
	open func() (io.Reader, io.Closer, error)
}

func (s inputSource) render(ctx context.Context, w io.Writer, opts []kcdoc.Option) (*kcdoc.Frontmatter, error) {
	if s.url != "" {
		return kcdoc.HTTPRender(ctx, kcdoc.HTTPRenderRequest{URL: s.url, Writer: w, Options: opts})
	}
	r, closer, err := s.open()
	if err != nil {
		return nil, err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}
	return kcdoc.Render(kcdoc.RenderRequest{Reader: r, Writer: w, Options: opts})
}

func openInputs(args []string, stdin io.Reader) ([]inputSource, error) {
	if len(args) == 0 {
		return []inputSource{{
			name: "stdin",
			open: func() (io.Reader, io.Closer, error) { return stdin, nil, nil },
		}}, nil
	}
	sources := make([]inputSource, 0, len(args))
	for _, raw := range args {
		src, err := makeInputSource(raw)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

func makeInputSource(raw string) (inputSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, fmt.Errorf("empty input argument")
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{name: raw, url: raw}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return inputSource{name: path, open: func() (io.Reader, io.Closer, error) {
				return openFile(path)
			}}, nil
		}
	}
	return inputSource{name: raw, open: func() (io.Reader, io.Closer, error) {
		return openFile(raw)
	}}, nil
}

func openFile(path string) (io.Reader, io.Closer, error) {
	f, err := os.Open(normalizePath(path))
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func resolveOutput(path string, stdout io.Writer) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}
