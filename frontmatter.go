package kcdoc

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelimiter = "---"

// Frontmatter is the ordered key/value metadata from the top of a document.
// Values are kept as written; no key is required and nothing is coerced.
type Frontmatter struct {
	keys   []string
	values map[string]string
}

// Get returns the value stored for key.
func (f *Frontmatter) Get(key string) (string, bool) {
	if f == nil || f.values == nil {
		return "", false
	}
	v, ok := f.values[key]
	return v, ok
}

// Has reports whether key is present.
func (f *Frontmatter) Has(key string) bool {
	_, ok := f.Get(key)
	return ok
}

// Keys returns the keys in the order they first appeared.
func (f *Frontmatter) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.keys...)
}

// Len returns the number of keys.
func (f *Frontmatter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Map returns a copy of the pairs as a plain map.
func (f *Frontmatter) Map() map[string]string {
	out := make(map[string]string, f.Len())
	if f == nil {
		return out
	}
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// MarshalYAML encodes the pairs as a mapping in source order.
func (f *Frontmatter) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if f == nil {
		return node, nil
	}
	for _, k := range f.keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.values[k]},
		)
	}
	return node, nil
}

// set keeps the first position of a repeated key and the last value.
func (f *Frontmatter) set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// ParseFrontmatter reads only the leading metadata block of src. A document
// without one yields an empty Frontmatter.
func ParseFrontmatter(src string) (*Frontmatter, error) {
	fm, _, err := extractFrontmatter(splitLines(src))
	return fm, err
}

// extractFrontmatter returns the metadata and the index of the first body
// line. The block is only recognised when the first non-blank line is
// exactly "---"; it ends at the next line starting with "---".
func extractFrontmatter(lines []string) (*Frontmatter, int, error) {
	fm := &Frontmatter{}
	open := skipBlank(lines, 0)
	if open >= len(lines) || strings.TrimSpace(lines[open]) != frontmatterDelimiter {
		return fm, 0, nil
	}
	for i := open + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, frontmatterDelimiter) {
			return fm, i + 1, nil
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, 0, lineError(ErrMissingColon, i+1, `no ":" found in frontmatter pair %q`, line)
		}
		fm.set(key, strings.TrimSpace(value))
	}
	return nil, 0, lineError(ErrUnterminatedFrontmatter, open+1, "no closing %q", frontmatterDelimiter)
}

func skipBlank(lines []string, i int) int {
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return i
}

// splitLines breaks src on "\n", "\r\n" and "\r" after dropping a UTF-8 BOM.
func splitLines(src string) []string {
	src = trimBOM(src)
	if src == "" {
		return nil
	}
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	lines := strings.Split(src, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func trimBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
