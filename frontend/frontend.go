// Package frontend wraps tree-sitter parsing of TypeScript source files.
// It produces the traversable node tree the extraction pipeline walks and
// provides the node helpers extractors share.
package frontend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// SourceFile is one parsed source file. Root stays valid until Close.
type SourceFile struct {
	// Path is the absolute path on disk.
	Path string

	// Rel is the path relative to the project root, forward slashes.
	Rel string

	Source []byte
	Tree   *sitter.Tree
	Root   *sitter.Node
}

// Close releases the underlying tree-sitter tree.
func (f *SourceFile) Close() {
	if f.Tree != nil {
		f.Tree.Close()
	}
}

// Parser turns TypeScript source text into traversable syntax trees.
// Each ParseFile call creates its own tree-sitter parser instance, so a
// Parser is safe for concurrent use.
type Parser struct {
	root string
}

// NewParser creates a parser rooted at the project directory. Relative
// paths in SourceFile.Rel are computed against root.
func NewParser(root string) *Parser {
	return &Parser{root: root}
}

// ParseFile reads and parses one file. Trees containing syntax errors
// are still returned; extraction is error-tolerant.
func (p *Parser) ParseFile(ctx context.Context, path string) (*SourceFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return p.Parse(ctx, path, content)
}

// Parse parses source content already in memory.
func (p *Parser) Parse(ctx context.Context, path string, content []byte) (*SourceFile, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	parser := sitter.NewParser()
	parser.SetLanguage(languageFor(path))

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		rel = path
	}

	return &SourceFile{
		Path:   path,
		Rel:    filepath.ToSlash(rel),
		Source: content,
		Tree:   tree,
		Root:   tree.RootNode(),
	}, nil
}

// languageFor picks the grammar by extension. TSX needs its own grammar.
func languageFor(path string) *sitter.Language {
	if strings.ToLower(filepath.Ext(path)) == ".tsx" {
		return tsx.GetLanguage()
	}
	return typescript.GetLanguage()
}

// IsSourceFile reports whether path is a TypeScript file the pipeline
// should consider.
func IsSourceFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return true
	}
	return false
}
