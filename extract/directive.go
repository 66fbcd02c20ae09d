package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/visitor"
)

// DirectiveExtractor recognizes @Directive classes.
type DirectiveExtractor struct {
	base
}

func NewDirectiveExtractor() *DirectiveExtractor {
	return &DirectiveExtractor{base: base{name: "directive", priority: PriorityDirective}}
}

func (v *DirectiveExtractor) VisitNode(node *sitter.Node, ctx *visitor.Context) error {
	if !isClassNode(node) {
		return nil
	}
	source := ctx.File.Source
	dec := findDecorator(node, source, "Directive")
	if dec == nil {
		return nil
	}

	name := frontend.ClassName(node, source)
	if name == "" {
		return nil
	}

	entity := graph.NewEntity(graph.TypeDirective, name, nodeLocation(node, ctx.File))
	entity.Documentation = frontend.DocComment(node, source)
	entity.Modifiers = frontend.Modifiers(node, source)
	for _, d := range frontend.Decorators(node, source) {
		entity.Decorators = append(entity.Decorators, frontend.DecoratorName(d, source))
	}
	entity.Lifecycle = lifecycleHooks(node, source)

	if arg := frontend.DecoratorObjectArg(dec); arg != nil {
		if sel := frontend.ObjectProperty(arg, source, "selector"); sel != nil {
			entity.Selector = frontend.StringContent(sel, source)
		}
		if sa := frontend.ObjectProperty(arg, source, "standalone"); sa != nil {
			entity.Standalone = frontend.Text(sa, source) == "true"
		}
		entity.Inputs = stringList(frontend.ObjectProperty(arg, source, "inputs"), source)
		entity.Outputs = stringList(frontend.ObjectProperty(arg, source, "outputs"), source)
	}
	inputs, outputs := memberBindings(node, source)
	entity.Inputs = append(entity.Inputs, inputs...)
	entity.Outputs = append(entity.Outputs, outputs...)

	if !v.addEntity(entity, ctx) {
		return nil
	}
	entity.Dependencies = v.emitInjects(entity.ID, constructorDeps(node, source), ctx)
	return nil
}
