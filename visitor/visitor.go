// Package visitor implements the priority-ordered visitor registry and
// the traversal engine that drives extraction over one file's syntax
// tree. Built-in extractors and user-supplied analyzers register through
// the same interface and contribute named results.
package visitor

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/resolver"
)

// Visitor is a pluggable analysis unit invoked on every syntax node.
// State is visitor-owned; Reset clears it for reuse across projects.
type Visitor interface {
	// Name identifies the visitor; Unregister matches on it exactly.
	Name() string

	// Priority orders invocation: higher runs first. Equal priorities
	// keep registration order.
	Priority() int

	// VisitNode is called for every node of every traversed file.
	VisitNode(node *sitter.Node, ctx *Context) error

	// BeforeParse and AfterParse fire once per file, in priority order.
	BeforeParse(file *frontend.SourceFile, ctx *Context) error
	AfterParse(file *frontend.SourceFile, ctx *Context) error

	// Results returns the visitor's accumulated result object.
	Results() any

	// Reset clears visitor state.
	Reset()
}

// Severity distinguishes warnings from errors in the issue log.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue records a non-fatal problem encountered during extraction.
type Issue struct {
	Severity Severity `json:"severity"`
	Visitor  string   `json:"visitor,omitempty"`
	File     string   `json:"file,omitempty"`
	Message  string   `json:"message"`
}

// IssueLog accumulates issues across concurrent file traversals.
type IssueLog struct {
	mu     sync.Mutex
	issues []Issue
}

// Add appends an issue.
func (l *IssueLog) Add(issue Issue) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issues = append(l.issues, issue)
}

// Issues returns a copy of the accumulated issues.
func (l *IssueLog) Issues() []Issue {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Issue, len(l.issues))
	copy(out, l.issues)
	return out
}

// Context is the call-scoped handle passed to every visitor invocation.
// It owns the accumulating graph for exactly one parse and is discarded
// after.
type Context struct {
	Graph    *graph.KnowledgeGraph
	File     *frontend.SourceFile
	Resolver *resolver.Resolver
	Logger   *slog.Logger

	// Root is the absolute project root; RelPath slices against it.
	Root string

	issues  *IssueLog
	imports map[string]string
}

// NewContext creates a context for one parse. The issue log is shared
// across the per-file contexts of a project parse.
func NewContext(g *graph.KnowledgeGraph, r *resolver.Resolver, log *IssueLog, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	if log == nil {
		log = &IssueLog{}
	}
	return &Context{Graph: g, Resolver: r, Logger: logger, issues: log}
}

// ForFile derives a context bound to one source file. The import index
// starts empty; a high-priority visitor populates it in BeforeParse.
func (c *Context) ForFile(file *frontend.SourceFile) *Context {
	clone := *c
	clone.File = file
	clone.imports = nil
	return &clone
}

// SetImports installs the file's import index: local binding name to
// import specifier.
func (c *Context) SetImports(imports map[string]string) {
	c.imports = imports
}

// ImportOf looks up the specifier a local name was imported from.
func (c *Context) ImportOf(name string) (string, bool) {
	spec, ok := c.imports[name]
	return spec, ok
}

// RelPath converts an absolute path to a slash-separated path relative
// to the project root. Paths outside the root pass through unchanged.
func (c *Context) RelPath(abs string) string {
	if c.Root == "" {
		return filepath.ToSlash(abs)
	}
	rel, err := filepath.Rel(c.Root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// Warnf records a warning without interrupting traversal.
func (c *Context) Warnf(format string, args ...any) {
	issue := Issue{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
	if c.File != nil {
		issue.File = c.File.Rel
	}
	c.issues.Add(issue)
}

// Errorf records a non-fatal error without interrupting traversal.
func (c *Context) Errorf(format string, args ...any) {
	issue := Issue{Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
	if c.File != nil {
		issue.File = c.File.Rel
	}
	c.issues.Add(issue)
}

// Issues exposes the shared issue log.
func (c *Context) Issues() *IssueLog {
	return c.issues
}
