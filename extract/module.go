package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/visitor"
)

// ModuleExtractor recognizes @NgModule classes and records the
// membership edges their metadata arrays declare.
type ModuleExtractor struct {
	base
}

func NewModuleExtractor() *ModuleExtractor {
	return &ModuleExtractor{base: base{name: "module", priority: PriorityModule}}
}

func (v *ModuleExtractor) VisitNode(node *sitter.Node, ctx *visitor.Context) error {
	if !isClassNode(node) {
		return nil
	}
	source := ctx.File.Source
	dec := findDecorator(node, source, "NgModule")
	if dec == nil {
		return nil
	}

	name := frontend.ClassName(node, source)
	if name == "" {
		ctx.Warnf("module: anonymous class at %s:%d skipped", ctx.File.Rel, node.StartPoint().Row+1)
		return nil
	}

	entity := graph.NewEntity(graph.TypeModule, name, nodeLocation(node, ctx.File))
	entity.Documentation = frontend.DocComment(node, source)
	entity.Modifiers = frontend.Modifiers(node, source)
	for _, d := range frontend.Decorators(node, source) {
		entity.Decorators = append(entity.Decorators, frontend.DecoratorName(d, source))
	}

	arg := frontend.DecoratorObjectArg(dec)
	if arg != nil {
		entity.Declarations = identifierList(frontend.ObjectProperty(arg, source, "declarations"), source)
		entity.Imports = identifierList(frontend.ObjectProperty(arg, source, "imports"), source)
		entity.Exports = identifierList(frontend.ObjectProperty(arg, source, "exports"), source)
	}

	if !v.addEntity(entity, ctx) {
		return nil
	}

	if arg == nil {
		return nil
	}
	v.emitMembership(entity.ID, graph.RelDeclares, frontend.ObjectProperty(arg, source, "declarations"), source, ctx)
	v.emitMembership(entity.ID, graph.RelImports, frontend.ObjectProperty(arg, source, "imports"), source, ctx)
	v.emitMembership(entity.ID, graph.RelExports, frontend.ObjectProperty(arg, source, "exports"), source, ctx)
	v.emitMembership(entity.ID, graph.RelBootstraps, frontend.ObjectProperty(arg, source, "bootstrap"), source, ctx)
	entity.Providers = v.emitProviders(entity.ID, frontend.ObjectProperty(arg, source, "providers"), source, ctx)
	return nil
}

// emitMembership records one edge per named element of a metadata
// array. Call expressions like RouterModule.forRoot(...) contribute the
// callee's base name; anonymous elements are skipped.
func (v *ModuleExtractor) emitMembership(sourceID string, t graph.RelationshipType, array *sitter.Node, source []byte, ctx *visitor.Context) {
	for _, el := range frontend.ArrayElements(array) {
		name := membershipName(el, source)
		if name == "" {
			continue
		}
		v.addRelationship(graph.NewRelationship(t, sourceID, classifyName(name, ctx)), ctx)
	}
}

func membershipName(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case "identifier":
		return frontend.Text(node, source)
	case "call_expression":
		// RouterModule.forRoot(routes) -> RouterModule
		if fn := node.ChildByFieldName("function"); fn != nil {
			if fn.Type() == "member_expression" {
				if obj := fn.ChildByFieldName("object"); obj != nil && obj.Type() == "identifier" {
					return frontend.Text(obj, source)
				}
			}
			if fn.Type() == "identifier" {
				return frontend.Text(fn, source)
			}
		}
	case "spread_element":
		for i := 0; i < int(node.ChildCount()); i++ {
			if id := node.Child(i); id.Type() == "identifier" {
				return frontend.Text(id, source)
			}
		}
	}
	return ""
}

// identifierList renders the displayable names of a metadata array for
// the entity record.
func identifierList(array *sitter.Node, source []byte) []string {
	var out []string
	for _, el := range frontend.ArrayElements(array) {
		if name := membershipName(el, source); name != "" {
			out = append(out, name)
		}
	}
	return out
}
