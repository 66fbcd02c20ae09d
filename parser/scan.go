package parser

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/halcyon-dev/angraph/frontend"
)

// defaultIncludes selects every TypeScript source file when the config
// names no patterns.
var defaultIncludes = []string{"**/*.ts", "**/*.tsx"}

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	"node_modules": true,
	"dist":         true,
	"coverage":     true,
	".angular":     true,
}

// ScanOptions controls project file discovery. Patterns are doublestar
// globs matched against the root-relative slash path.
type ScanOptions struct {
	Includes []string
	Excludes []string

	// IncludeSpecs keeps *.spec.ts files, excluded by default.
	IncludeSpecs bool
}

// Scan walks the project tree and returns the absolute paths of the
// source files to parse, sorted for deterministic traversal order.
func Scan(root string, opts ScanOptions) ([]string, error) {
	includes := opts.Includes
	if len(includes) == 0 {
		includes = defaultIncludes
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (skippedDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !frontend.IsSourceFile(path) {
			return nil
		}
		if !opts.IncludeSpecs && strings.HasSuffix(name, ".spec.ts") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !matchAny(includes, rel) || matchAny(opts.Excludes, rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
