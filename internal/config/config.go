// Package config loads kcdoc settings from defaults, an optional YAML file,
// .env files and KCDOC_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when Load is given no explicit path and it exists.
const DefaultFile = "kcdoc.yaml"

// Config holds the site builder and logging settings.
type Config struct {
	Root           string   `yaml:"root"`
	PostsDir       string   `yaml:"posts_dir"`
	TemplatesDir   string   `yaml:"templates_dir"`
	PostTemplate   string   `yaml:"post_template"`
	SourceExt      string   `yaml:"source_ext"`
	TemplateExt    string   `yaml:"template_ext"`
	RequiredKeys   []string `yaml:"required_keys"`
	HighlightStyle string   `yaml:"highlight_style"`
	BodyClass      string   `yaml:"body_class"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"`
}

// Default returns the built-in settings. Paths other than Root are relative
// to Root.
func Default() Config {
	return Config{
		Root:           ".",
		PostsDir:       "posts",
		TemplatesDir:   "tmpls",
		PostTemplate:   "tmpls/post.j2",
		SourceExt:      ".kcdoc",
		TemplateExt:    ".j2",
		RequiredKeys:   []string{"title", "desc", "date"},
		HighlightStyle: "monokai",
		BodyClass:      "body",
		LogLevel:       "info",
		LogFormat:      "auto",
	}
}

// Load builds a Config. An explicit path must exist; without one DefaultFile
// is used when present. envFiles default to ".env" when it exists. Values in
// the process environment win over values from env files.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return Config{}, err
	}
	fileVars, err := readEnvFiles(envFiles)
	if err != nil {
		return Config{}, err
	}
	cfg.applyEnv(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	})
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return map[string]string{}, nil
		}
		files = []string{".env"}
	}
	vars, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("config: read env files: %w", err)
	}
	return vars, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("KCDOC_ROOT", &c.Root)
	str("KCDOC_POSTS_DIR", &c.PostsDir)
	str("KCDOC_TEMPLATES_DIR", &c.TemplatesDir)
	str("KCDOC_POST_TEMPLATE", &c.PostTemplate)
	str("KCDOC_SOURCE_EXT", &c.SourceExt)
	str("KCDOC_TEMPLATE_EXT", &c.TemplateExt)
	str("KCDOC_STYLE", &c.HighlightStyle)
	str("KCDOC_BODY_CLASS", &c.BodyClass)
	str("KCDOC_LOG_LEVEL", &c.LogLevel)
	str("KCDOC_LOG_FORMAT", &c.LogFormat)
	if v, ok := lookup("KCDOC_REQUIRED_KEYS"); ok {
		c.RequiredKeys = splitList(v)
	}
}

// Validate reports settings the site builder cannot work with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Root) == "" {
		errs = append(errs, errors.New("root is required"))
	}
	if strings.TrimSpace(c.PostsDir) == "" {
		errs = append(errs, errors.New("posts_dir is required"))
	}
	if strings.TrimSpace(c.PostTemplate) == "" {
		errs = append(errs, errors.New("post_template is required"))
	}
	if !strings.HasPrefix(c.SourceExt, ".") {
		errs = append(errs, fmt.Errorf("source_ext %q must start with '.'", c.SourceExt))
	}
	if !strings.HasPrefix(c.TemplateExt, ".") {
		errs = append(errs, fmt.Errorf("template_ext %q must start with '.'", c.TemplateExt))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// PostsPath returns the absolute-or-relative path of the posts directory.
func (c Config) PostsPath() string {
	return c.resolve(c.PostsDir)
}

// TemplatesPath returns the path of the directory holding shared templates.
func (c Config) TemplatesPath() string {
	return c.resolve(c.TemplatesDir)
}

func (c Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
