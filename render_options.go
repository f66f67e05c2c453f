package kcdoc

import "log/slog"

// DefaultBodyClass is the class of the container element wrapping a fragment.
const DefaultBodyClass = "body"

// Option configures parsing and rendering.
type Option func(*config)

type config struct {
	highlighter Highlighter
	logger      *slog.Logger
	bodyClass   string
}

// WithHighlighter sets the highlighter used for fenced code blocks that name
// a language. The default is a ChromaHighlighter with DefaultHighlightStyle.
func WithHighlighter(h Highlighter) Option {
	return func(cfg *config) {
		cfg.highlighter = h
	}
}

// WithLogger sets the logger for debug events. Nothing is logged by default.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithBodyClass sets the class attribute of the container element.
func WithBodyClass(class string) Option {
	return func(cfg *config) {
		cfg.bodyClass = class
	}
}

func newConfig(opts []Option) config {
	cfg := config{bodyClass: DefaultBodyClass}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

func (cfg *config) highlighterOrDefault() Highlighter {
	if cfg.highlighter == nil {
		cfg.highlighter = NewChromaHighlighter(DefaultHighlightStyle)
	}
	return cfg.highlighter
}
