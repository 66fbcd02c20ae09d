package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/visitor"
)

// ComponentExtractor recognizes @Component classes.
type ComponentExtractor struct {
	base
}

func NewComponentExtractor() *ComponentExtractor {
	return &ComponentExtractor{base: base{name: "component", priority: PriorityComponent}}
}

func (v *ComponentExtractor) VisitNode(node *sitter.Node, ctx *visitor.Context) error {
	if !isClassNode(node) {
		return nil
	}
	source := ctx.File.Source
	dec := findDecorator(node, source, "Component")
	if dec == nil {
		return nil
	}

	name := frontend.ClassName(node, source)
	if name == "" {
		ctx.Warnf("component: anonymous class at %s:%d skipped", ctx.File.Rel, node.StartPoint().Row+1)
		return nil
	}

	entity := graph.NewEntity(graph.TypeComponent, name, nodeLocation(node, ctx.File))
	entity.Documentation = frontend.DocComment(node, source)
	entity.Modifiers = frontend.Modifiers(node, source)
	for _, d := range frontend.Decorators(node, source) {
		entity.Decorators = append(entity.Decorators, frontend.DecoratorName(d, source))
	}
	entity.Lifecycle = lifecycleHooks(node, source)

	arg := frontend.DecoratorObjectArg(dec)
	if arg != nil {
		if sel := frontend.ObjectProperty(arg, source, "selector"); sel != nil {
			entity.Selector = frontend.StringContent(sel, source)
		}
		if sa := frontend.ObjectProperty(arg, source, "standalone"); sa != nil {
			entity.Standalone = frontend.Text(sa, source) == "true"
		}
		if cd := frontend.ObjectProperty(arg, source, "changeDetection"); cd != nil {
			entity.ChangeDetection = memberProperty(cd, source)
		}
		entity.Inputs = append(entity.Inputs, stringList(frontend.ObjectProperty(arg, source, "inputs"), source)...)
		entity.Outputs = append(entity.Outputs, stringList(frontend.ObjectProperty(arg, source, "outputs"), source)...)
	}
	inputs, outputs := memberBindings(node, source)
	entity.Inputs = append(entity.Inputs, inputs...)
	entity.Outputs = append(entity.Outputs, outputs...)

	if !v.addEntity(entity, ctx) {
		return nil
	}

	deps := constructorDeps(node, source)
	entity.Dependencies = v.emitInjects(entity.ID, deps, ctx)

	// Standalone components import their own template dependencies.
	if arg != nil && entity.Standalone {
		for _, el := range frontend.ArrayElements(frontend.ObjectProperty(arg, source, "imports")) {
			if el.Type() != "identifier" {
				continue
			}
			target := classifyName(frontend.Text(el, source), ctx)
			v.addRelationship(graph.NewRelationship(graph.RelImports, entity.ID, target), ctx)
		}
	}
	if arg != nil {
		v.emitProviders(entity.ID, frontend.ObjectProperty(arg, source, "providers"), source, ctx)
	}
	return nil
}

// emitProviders parses a providers array value and records Provides
// edges for each normalized entry.
func (b *base) emitProviders(sourceID string, providers *sitter.Node, source []byte, ctx *visitor.Context) []string {
	var tokens []string
	for _, info := range ParseProviders(frontend.ArrayElements(providers), source) {
		tokens = append(tokens, info.Token)
		targetName := info.Implementation
		if targetName == "" {
			targetName = info.Token
		}
		rel := graph.NewRelationship(graph.RelProvides, sourceID, classifyName(targetName, ctx))
		rel.Meta.Multi = info.Multi
		if info.Implementation != "" && info.Token != info.Implementation {
			// The token stays visible on aliased providers.
			rel.Meta.OriginalName = info.Token
		}
		b.addRelationship(rel, ctx)
	}
	return tokens
}

// lifecycleHooks intersects a class's implements clause with the known
// lifecycle interfaces.
func lifecycleHooks(classNode *sitter.Node, source []byte) []string {
	known := map[string]bool{
		"OnInit": true, "OnDestroy": true, "OnChanges": true, "DoCheck": true,
		"AfterViewInit": true, "AfterViewChecked": true,
		"AfterContentInit": true, "AfterContentChecked": true,
	}
	var hooks []string
	for _, iface := range frontend.ImplementedInterfaces(classNode, source) {
		if known[iface] {
			hooks = append(hooks, iface)
		}
	}
	return hooks
}

// memberBindings collects class members decorated @Input or @Output.
func memberBindings(classNode *sitter.Node, source []byte) (inputs, outputs []string) {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return nil, nil
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		switch member.Type() {
		case "public_field_definition", "field_definition", "method_definition":
		default:
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := frontend.Text(nameNode, source)
		for j := 0; j < int(member.ChildCount()); j++ {
			dec := member.Child(j)
			if dec.Type() != "decorator" {
				continue
			}
			switch decoratorNameOf(dec, source) {
			case "Input":
				inputs = append(inputs, name)
			case "Output":
				outputs = append(outputs, name)
			}
		}
	}
	return inputs, outputs
}

// memberProperty renders the property of a member access, e.g.
// ChangeDetectionStrategy.OnPush yields OnPush.
func memberProperty(node *sitter.Node, source []byte) string {
	if node.Type() == "member_expression" {
		if prop := node.ChildByFieldName("property"); prop != nil {
			return frontend.Text(prop, source)
		}
	}
	return frontend.Text(node, source)
}

// stringList extracts string-literal elements from an array value.
func stringList(array *sitter.Node, source []byte) []string {
	var out []string
	for _, el := range frontend.ArrayElements(array) {
		if el.Type() == "string" {
			out = append(out, frontend.StringContent(el, source))
		}
	}
	return out
}
