package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/visitor"
)

// ConstantExtractor recognizes exported injection-token constants:
//
//	export const APP_CONFIG = new InjectionToken<AppConfig>('app.config');
//
// Plain value constants carry no injection structure and are ignored.
type ConstantExtractor struct {
	base
}

func NewConstantExtractor() *ConstantExtractor {
	return &ConstantExtractor{base: base{name: "constant", priority: PriorityConstant}}
}

func (v *ConstantExtractor) VisitNode(node *sitter.Node, ctx *visitor.Context) error {
	if node.Type() != "lexical_declaration" {
		return nil
	}
	source := ctx.File.Source

	for i := 0; i < int(node.ChildCount()); i++ {
		decl := node.Child(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		value := decl.ChildByFieldName("value")
		if value == nil || !isTokenConstructor(value, source) {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := frontend.Text(nameNode, source)

		entity := graph.NewEntity(graph.TypeConstant, name, nodeLocation(decl, ctx.File))
		entity.Documentation = frontend.DocComment(node, source)
		if parent := node.Parent(); parent != nil && parent.Type() == "export_statement" {
			entity.Modifiers = []string{"export"}
		}
		v.addEntity(entity, ctx)
	}
	return nil
}

func isTokenConstructor(value *sitter.Node, source []byte) bool {
	if value.Type() != "new_expression" {
		return false
	}
	ctor := value.ChildByFieldName("constructor")
	return ctor != nil && frontend.Text(ctor, source) == "InjectionToken"
}
