package frontend

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Text returns the source text of a node.
func Text(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(source)
}

// StringContent extracts the literal content of a string node, without
// quotes. Falls back to trimming quotes from the raw text.
func StringContent(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "string_fragment" {
			return Text(child, source)
		}
	}
	return strings.Trim(Text(node, source), `"'`+"`")
}

// ClassName returns the declared name of a class_declaration node.
func ClassName(classNode *sitter.Node, source []byte) string {
	if name := classNode.ChildByFieldName("name"); name != nil {
		return Text(name, source)
	}
	// The TS grammar exposes the name as a type_identifier child.
	for i := 0; i < int(classNode.ChildCount()); i++ {
		child := classNode.Child(i)
		if child.Type() == "type_identifier" || child.Type() == "identifier" {
			return Text(child, source)
		}
	}
	return ""
}

// Decorators returns the decorator nodes attached to a class declaration.
// Decorators of exported classes hang off the export_statement, so the
// parent is checked as well.
func Decorators(classNode *sitter.Node, source []byte) []*sitter.Node {
	var out []*sitter.Node

	collect := func(n *sitter.Node) {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child.Type() == "decorator" {
				out = append(out, child)
			}
		}
	}

	collect(classNode)
	if parent := classNode.Parent(); parent != nil && parent.Type() == "export_statement" {
		collect(parent)
	}
	return out
}

// DecoratorName extracts the annotation name from a decorator node:
// "@Component({...})" yields "Component", "@Injectable" yields "Injectable".
func DecoratorName(decorator *sitter.Node, source []byte) string {
	for i := 0; i < int(decorator.ChildCount()); i++ {
		child := decorator.Child(i)
		switch child.Type() {
		case "identifier":
			return Text(child, source)
		case "call_expression":
			if fn := child.ChildByFieldName("function"); fn != nil {
				return Text(fn, source)
			}
		}
	}
	return ""
}

// DecoratorObjectArg returns the first object-literal argument of a call
// decorator, or nil for bare decorators like @Injectable.
func DecoratorObjectArg(decorator *sitter.Node) *sitter.Node {
	for i := 0; i < int(decorator.ChildCount()); i++ {
		child := decorator.Child(i)
		if child.Type() != "call_expression" {
			continue
		}
		args := child.ChildByFieldName("arguments")
		if args == nil {
			continue
		}
		for j := 0; j < int(args.ChildCount()); j++ {
			arg := args.Child(j)
			if arg.Type() == "object" {
				return arg
			}
		}
	}
	return nil
}

// ObjectProperty finds the value node for a named key in an object
// literal. Keys may be property_identifier or string nodes.
func ObjectProperty(object *sitter.Node, source []byte, key string) *sitter.Node {
	if object == nil {
		return nil
	}
	for i := 0; i < int(object.ChildCount()); i++ {
		pair := object.Child(i)
		if pair.Type() != "pair" {
			continue
		}
		keyNode := pair.ChildByFieldName("key")
		if keyNode == nil {
			continue
		}
		name := Text(keyNode, source)
		if keyNode.Type() == "string" {
			name = StringContent(keyNode, source)
		}
		if name == key {
			return pair.ChildByFieldName("value")
		}
	}
	return nil
}

// ArrayElements returns the element nodes of an array literal, skipping
// punctuation.
func ArrayElements(array *sitter.Node) []*sitter.Node {
	if array == nil || array.Type() != "array" {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(array.ChildCount()); i++ {
		child := array.Child(i)
		switch child.Type() {
		case "[", "]", ",", "comment":
			continue
		}
		out = append(out, child)
	}
	return out
}

// DocComment returns the JSDoc block immediately preceding a node, or
// the one preceding its export_statement wrapper.
func DocComment(node *sitter.Node, source []byte) string {
	if c := precedingJSDoc(node, source); c != "" {
		return c
	}
	if parent := node.Parent(); parent != nil && parent.Type() == "export_statement" {
		return precedingJSDoc(parent, source)
	}
	return ""
}

func precedingJSDoc(node *sitter.Node, source []byte) string {
	prev := node.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	comment := Text(prev, source)
	if !strings.HasPrefix(comment, "/**") {
		return ""
	}
	return cleanJSDoc(comment)
}

// cleanJSDoc strips the comment fence and leading asterisks.
func cleanJSDoc(comment string) string {
	comment = strings.TrimPrefix(comment, "/**")
	comment = strings.TrimSuffix(comment, "*/")
	lines := strings.Split(comment, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "*")
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Modifiers collects declaration-level modifier keywords (abstract,
// export via parent, etc.) for a class node.
func Modifiers(classNode *sitter.Node, source []byte) []string {
	var mods []string
	if parent := classNode.Parent(); parent != nil && parent.Type() == "export_statement" {
		mods = append(mods, "export")
	}
	if classNode.Type() == "abstract_class_declaration" {
		mods = append(mods, "abstract")
	}
	return mods
}

// ImplementedInterfaces lists the type names in a class's implements
// clause.
func ImplementedInterfaces(classNode *sitter.Node, source []byte) []string {
	var names []string
	for i := 0; i < int(classNode.ChildCount()); i++ {
		child := classNode.Child(i)
		if child.Type() != "class_heritage" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			clause := child.Child(j)
			if clause.Type() != "implements_clause" {
				continue
			}
			for k := 0; k < int(clause.ChildCount()); k++ {
				tn := clause.Child(k)
				switch tn.Type() {
				case "type_identifier", "identifier":
					names = append(names, Text(tn, source))
				case "generic_type":
					if base := firstChildOfType(tn, "type_identifier"); base != nil {
						names = append(names, Text(base, source))
					}
				}
			}
		}
	}
	return names
}

func firstChildOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

// ConstructorNode finds the constructor method_definition in a class
// body, if any.
func ConstructorNode(classNode *sitter.Node, source []byte) *sitter.Node {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		if member.Type() != "method_definition" {
			continue
		}
		if name := member.ChildByFieldName("name"); name != nil && Text(name, source) == "constructor" {
			return member
		}
	}
	return nil
}
