package resolver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CompilerOptions is the subset of tsconfig compilerOptions the
// resolver honors: base-URL remapping and path aliases.
type CompilerOptions struct {
	BaseURL string              `json:"baseUrl"`
	Paths   map[string][]string `json:"paths"`
	Target  string              `json:"target"`
	Module  string              `json:"module"`
}

// TSConfig is a loaded compiler configuration. Dir is the directory the
// config file lives in; baseUrl is resolved against it.
type TSConfig struct {
	CompilerOptions CompilerOptions `json:"compilerOptions"`
	Dir             string          `json:"-"`
}

// LoadTSConfig reads a tsconfig.json. The format permits comments and
// trailing commas, which encoding/json rejects, so both are stripped
// first. The stripping is line-oriented and heuristic; it is enough for
// the configurations seen in practice.
func LoadTSConfig(path string) (*TSConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tsconfig: %w", err)
	}

	cleaned := stripJSONComments(string(data))

	var cfg TSConfig
	if err := json.Unmarshal([]byte(cleaned), &cfg); err != nil {
		return nil, fmt.Errorf("parse tsconfig: %w", err)
	}
	cfg.Dir = filepath.Dir(path)
	return &cfg, nil
}

// BaseDir returns the absolute directory path aliases resolve against.
func (c *TSConfig) BaseDir() string {
	if c == nil {
		return ""
	}
	base := c.CompilerOptions.BaseURL
	if base == "" {
		base = "."
	}
	if filepath.IsAbs(base) {
		return base
	}
	return filepath.Join(c.Dir, base)
}

// MatchPath expands a specifier through the paths aliases. Alias
// patterns contain at most one "*" capturing the variable suffix.
// Returns candidate paths relative to BaseDir, in declaration order.
func (c *TSConfig) MatchPath(specifier string) []string {
	if c == nil || len(c.CompilerOptions.Paths) == 0 {
		return nil
	}

	var out []string
	for pattern, targets := range c.CompilerOptions.Paths {
		captured, ok := matchStar(pattern, specifier)
		if !ok {
			continue
		}
		for _, target := range targets {
			out = append(out, strings.Replace(target, "*", captured, 1))
		}
	}
	return out
}

// matchStar matches specifier against a pattern with an optional single
// "*" wildcard and returns the captured segment.
func matchStar(pattern, specifier string) (string, bool) {
	star := strings.Index(pattern, "*")
	if star < 0 {
		return "", pattern == specifier
	}
	prefix, suffix := pattern[:star], pattern[star+1:]
	if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) {
		return "", false
	}
	if len(specifier) < len(prefix)+len(suffix) {
		return "", false
	}
	return specifier[len(prefix) : len(specifier)-len(suffix)], true
}

// stripJSONComments removes // and /* */ comments plus trailing commas.
func stripJSONComments(s string) string {
	var b strings.Builder
	inString := false
	inLine := false
	inBlock := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case inLine:
			if ch == '\n' {
				inLine = false
				b.WriteByte(ch)
			}
		case inBlock:
			if ch == '*' && i+1 < len(s) && s[i+1] == '/' {
				inBlock = false
				i++
			}
		case inString:
			b.WriteByte(ch)
			if ch == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			} else if ch == '"' {
				inString = false
			}
		case ch == '"':
			inString = true
			b.WriteByte(ch)
		case ch == '/' && i+1 < len(s) && s[i+1] == '/':
			inLine = true
			i++
		case ch == '/' && i+1 < len(s) && s[i+1] == '*':
			inBlock = true
			i++
		default:
			b.WriteByte(ch)
		}
	}

	return stripTrailingCommas(b.String())
}

func stripTrailingCommas(s string) string {
	var b strings.Builder
	inString := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			b.WriteByte(ch)
			if ch == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			b.WriteByte(ch)
			continue
		}
		if ch == ',' {
			// Look ahead past whitespace for a closing bracket.
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(ch)
	}
	return b.String()
}
