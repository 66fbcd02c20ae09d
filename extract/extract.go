// Package extract implements the built-in entity extractors: one
// visitor per recognized Angular construct. Extractors match
// declarations by annotation name, a deliberate precision/speed
// tradeoff over type-checked symbol resolution.
package extract

import (
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/resolver"
	"github.com/halcyon-dev/angraph/visitor"
)

// Extractor priorities. Modules first so their membership edges land
// before the member entities' own edges; ties keep registration order.
const (
	PriorityImports   = 1000
	PriorityModule    = 100
	PriorityComponent = 90
	PriorityDirective = 80
	PriorityService   = 70
	PriorityPipe      = 60
	PriorityConstant  = 50
)

// Register installs the import indexer and the built-in extractors on a
// registry in their standard order.
func Register(reg *visitor.Registry) {
	reg.Register(NewImportIndexer())
	reg.Register(NewModuleExtractor())
	reg.Register(NewComponentExtractor())
	reg.Register(NewDirectiveExtractor())
	reg.Register(NewServiceExtractor())
	reg.Register(NewPipeExtractor())
	reg.Register(NewConstantExtractor())
}

// Stats is the per-extractor result object returned by Results.
type Stats struct {
	Entities      int `json:"entities"`
	Relationships int `json:"relationships"`
}

// base carries the state every extractor shares. Counter access is
// locked because file workers traverse concurrently through the same
// extractor instances.
type base struct {
	name     string
	priority int

	mu    sync.Mutex
	stats Stats
}

func (b *base) Name() string  { return b.name }
func (b *base) Priority() int { return b.priority }

func (b *base) Results() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

func (b *base) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = Stats{}
}

func (b *base) BeforeParse(*frontend.SourceFile, *visitor.Context) error { return nil }
func (b *base) AfterParse(*frontend.SourceFile, *visitor.Context) error  { return nil }

// isClassNode reports whether a node declares a class.
func isClassNode(node *sitter.Node) bool {
	t := node.Type()
	return t == "class_declaration" || t == "abstract_class_declaration"
}

// findDecorator returns the class's decorator node whose annotation name
// matches, or nil. Matching is textual.
func findDecorator(classNode *sitter.Node, source []byte, name string) *sitter.Node {
	for _, dec := range frontend.Decorators(classNode, source) {
		if frontend.DecoratorName(dec, source) == name {
			return dec
		}
	}
	return nil
}

// nodeLocation converts a tree-sitter node span into a graph location.
func nodeLocation(node *sitter.Node, file *frontend.SourceFile) graph.Location {
	return graph.Location{
		FilePath: file.Rel,
		Start:    int(node.StartByte()),
		End:      int(node.EndByte()),
		Line:     int(node.StartPoint().Row) + 1,
		Column:   int(node.StartPoint().Column),
	}
}

// classifyName maps an identifier used in a decorator or constructor to
// a relationship target, using the file's import index and the import
// resolver. Names with no import entry are assumed to live in the
// current file.
func classifyName(name string, ctx *visitor.Context) graph.TargetRef {
	if name == "" {
		return graph.UnresolvedRef(name)
	}

	specifier, imported := ctx.ImportOf(name)
	if !imported {
		return graph.InternalFileRef(ctx.File.Rel, name)
	}
	if ctx.Resolver == nil {
		return graph.UnresolvedRef(name)
	}

	res := ctx.Resolver.Resolve(specifier, ctx.File.Path)
	switch res.Classification {
	case resolver.ClassExternal, resolver.ClassExternalUnverified:
		return graph.ExternalRef(res.PackageName, name)
	case resolver.ClassInternal:
		return graph.InternalFileRef(ctx.RelPath(res.ResolvedPath), name)
	default:
		return graph.UnresolvedRef(name)
	}
}

// addEntity inserts an entity, downgrading a duplicate ID to a warning.
func (b *base) addEntity(e *graph.Entity, ctx *visitor.Context) bool {
	if err := ctx.Graph.AddEntity(e); err != nil {
		ctx.Warnf("%s: %v", b.name, err)
		return false
	}
	b.mu.Lock()
	b.stats.Entities++
	b.mu.Unlock()
	return true
}

func (b *base) addRelationship(r *graph.Relationship, ctx *visitor.Context) {
	ctx.Graph.AddRelationship(r)
	b.mu.Lock()
	b.stats.Relationships++
	b.mu.Unlock()
}
