package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/visitor"
)

// PipeExtractor recognizes @Pipe classes.
type PipeExtractor struct {
	base
}

func NewPipeExtractor() *PipeExtractor {
	return &PipeExtractor{base: base{name: "pipe", priority: PriorityPipe}}
}

func (v *PipeExtractor) VisitNode(node *sitter.Node, ctx *visitor.Context) error {
	if !isClassNode(node) {
		return nil
	}
	source := ctx.File.Source
	dec := findDecorator(node, source, "Pipe")
	if dec == nil {
		return nil
	}

	name := frontend.ClassName(node, source)
	if name == "" {
		return nil
	}

	entity := graph.NewEntity(graph.TypePipe, name, nodeLocation(node, ctx.File))
	entity.Documentation = frontend.DocComment(node, source)
	entity.Modifiers = frontend.Modifiers(node, source)
	for _, d := range frontend.Decorators(node, source) {
		entity.Decorators = append(entity.Decorators, frontend.DecoratorName(d, source))
	}

	if arg := frontend.DecoratorObjectArg(dec); arg != nil {
		if pn := frontend.ObjectProperty(arg, source, "name"); pn != nil {
			entity.PipeName = frontend.StringContent(pn, source)
		}
		if pure := frontend.ObjectProperty(arg, source, "pure"); pure != nil {
			val := frontend.Text(pure, source) == "true"
			entity.Pure = &val
		}
		if sa := frontend.ObjectProperty(arg, source, "standalone"); sa != nil {
			entity.Standalone = frontend.Text(sa, source) == "true"
		}
	}

	if !v.addEntity(entity, ctx) {
		return nil
	}
	entity.Dependencies = v.emitInjects(entity.ID, constructorDeps(node, source), ctx)
	return nil
}
