package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/visitor"
)

// injectedDep is one constructor parameter read as an injection site.
type injectedDep struct {
	name     string // target type or token name
	optional bool
	self     bool
	skipSelf bool
	host     bool
}

// constructorDeps reads a class's constructor parameters as injection
// sites. Parameters without a type annotation or an explicit token are
// skipped; they cannot be injected.
func constructorDeps(classNode *sitter.Node, source []byte) []injectedDep {
	ctor := frontend.ConstructorNode(classNode, source)
	if ctor == nil {
		return nil
	}
	params := ctor.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var out []injectedDep
	for i := 0; i < int(params.ChildCount()); i++ {
		param := params.Child(i)
		switch param.Type() {
		case "required_parameter", "optional_parameter":
		default:
			continue
		}

		dep := injectedDep{name: paramTypeName(param, source)}
		for j := 0; j < int(param.ChildCount()); j++ {
			dec := param.Child(j)
			if dec.Type() != "decorator" {
				continue
			}
			switch decoratorNameOf(dec, source) {
			case "Optional":
				dep.optional = true
			case "Self":
				dep.self = true
			case "SkipSelf":
				dep.skipSelf = true
			case "Host":
				dep.host = true
			case "Inject":
				// @Inject(TOKEN) overrides the annotated type.
				if tok := injectToken(dec, source); tok != "" {
					dep.name = tok
				}
			}
		}

		if dep.name != "" {
			out = append(out, dep)
		}
	}
	return out
}

// emitInjects records one Injects relationship per constructor
// dependency and returns the dependency names for the entity record.
func (b *base) emitInjects(sourceID string, deps []injectedDep, ctx *visitor.Context) []string {
	var names []string
	for _, dep := range deps {
		names = append(names, dep.name)
		rel := graph.NewRelationship(graph.RelInjects, sourceID, classifyName(dep.name, ctx))
		rel.Meta.Optional = dep.optional
		rel.Meta.Self = dep.self
		rel.Meta.SkipSelf = dep.skipSelf
		rel.Meta.Host = dep.host
		b.addRelationship(rel, ctx)
	}
	return names
}

func paramTypeName(param *sitter.Node, source []byte) string {
	ann := param.ChildByFieldName("type")
	if ann == nil {
		return ""
	}
	for i := 0; i < int(ann.ChildCount()); i++ {
		t := ann.Child(i)
		switch t.Type() {
		case "type_identifier", "identifier":
			return frontend.Text(t, source)
		case "generic_type":
			if base := t.ChildByFieldName("name"); base != nil {
				return frontend.Text(base, source)
			}
		}
	}
	return ""
}

// decoratorNameOf is like frontend.DecoratorName but works on parameter
// decorators, which share the same node shape.
func decoratorNameOf(dec *sitter.Node, source []byte) string {
	for i := 0; i < int(dec.ChildCount()); i++ {
		child := dec.Child(i)
		switch child.Type() {
		case "identifier":
			return frontend.Text(child, source)
		case "call_expression":
			if fn := child.ChildByFieldName("function"); fn != nil {
				return frontend.Text(fn, source)
			}
		}
	}
	return ""
}

// injectToken extracts the token name from an @Inject(...) decorator.
func injectToken(dec *sitter.Node, source []byte) string {
	for i := 0; i < int(dec.ChildCount()); i++ {
		call := dec.Child(i)
		if call.Type() != "call_expression" {
			continue
		}
		args := call.ChildByFieldName("arguments")
		if args == nil {
			continue
		}
		for j := 0; j < int(args.ChildCount()); j++ {
			arg := args.Child(j)
			switch arg.Type() {
			case "(", ")", ",", "comment":
				continue
			}
			return TokenName(arg, source)
		}
	}
	return ""
}
