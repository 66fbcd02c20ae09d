package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/visitor"
)

// ServiceExtractor recognizes @Injectable classes.
type ServiceExtractor struct {
	base
}

func NewServiceExtractor() *ServiceExtractor {
	return &ServiceExtractor{base: base{name: "service", priority: PriorityService}}
}

func (v *ServiceExtractor) VisitNode(node *sitter.Node, ctx *visitor.Context) error {
	if !isClassNode(node) {
		return nil
	}
	source := ctx.File.Source
	dec := findDecorator(node, source, "Injectable")
	if dec == nil {
		return nil
	}
	// A class carrying both @Component and @Injectable is a component;
	// the component extractor already claimed it.
	if findDecorator(node, source, "Component") != nil || findDecorator(node, source, "Directive") != nil {
		return nil
	}

	name := frontend.ClassName(node, source)
	if name == "" {
		return nil
	}

	entity := graph.NewEntity(graph.TypeService, name, nodeLocation(node, ctx.File))
	entity.Documentation = frontend.DocComment(node, source)
	entity.Modifiers = frontend.Modifiers(node, source)
	for _, d := range frontend.Decorators(node, source) {
		entity.Decorators = append(entity.Decorators, frontend.DecoratorName(d, source))
	}
	entity.Lifecycle = lifecycleHooks(node, source)

	if arg := frontend.DecoratorObjectArg(dec); arg != nil {
		if pi := frontend.ObjectProperty(arg, source, "providedIn"); pi != nil {
			entity.ProvidedIn = providedInValue(pi, source)
		}
	}

	if !v.addEntity(entity, ctx) {
		return nil
	}
	entity.Dependencies = v.emitInjects(entity.ID, constructorDeps(node, source), ctx)
	return nil
}

// providedInValue renders providedIn: 'root' | 'platform' | SomeModule.
func providedInValue(node *sitter.Node, source []byte) string {
	if node.Type() == "string" {
		return frontend.StringContent(node, source)
	}
	return frontend.Text(node, source)
}
