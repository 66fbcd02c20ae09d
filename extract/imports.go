package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/visitor"
)

// ImportIndexer runs before every extractor and publishes the file's
// import bindings on the context, so target classification can map a
// local name back to the specifier that introduced it.
type ImportIndexer struct {
	base
}

// NewImportIndexer creates the indexer. Register it alongside the
// extractors; its priority puts it first.
func NewImportIndexer() *ImportIndexer {
	return &ImportIndexer{base: base{name: "imports", priority: PriorityImports}}
}

func (v *ImportIndexer) BeforeParse(file *frontend.SourceFile, ctx *visitor.Context) error {
	ctx.SetImports(indexImports(file.Root, file.Source))
	return nil
}

// VisitNode is a no-op; indexing happens up front in BeforeParse.
func (v *ImportIndexer) VisitNode(*sitter.Node, *visitor.Context) error { return nil }

// indexImports maps local binding names to import specifiers for every
// top-level import statement. Handles default, namespace, named, and
// aliased named imports.
func indexImports(root *sitter.Node, source []byte) map[string]string {
	out := make(map[string]string)
	for i := 0; i < int(root.ChildCount()); i++ {
		stmt := root.Child(i)
		if stmt.Type() != "import_statement" {
			continue
		}

		specNode := stmt.ChildByFieldName("source")
		if specNode == nil {
			continue
		}
		specifier := frontend.StringContent(specNode, source)

		for j := 0; j < int(stmt.ChildCount()); j++ {
			clause := stmt.Child(j)
			if clause.Type() != "import_clause" {
				continue
			}
			collectBindings(clause, source, specifier, out)
		}
	}
	return out
}

func collectBindings(clause *sitter.Node, source []byte, specifier string, out map[string]string) {
	for i := 0; i < int(clause.ChildCount()); i++ {
		child := clause.Child(i)
		switch child.Type() {
		case "identifier":
			// Default import.
			out[frontend.Text(child, source)] = specifier
		case "namespace_import":
			for j := 0; j < int(child.ChildCount()); j++ {
				if id := child.Child(j); id.Type() == "identifier" {
					out[frontend.Text(id, source)] = specifier
				}
			}
		case "named_imports":
			for j := 0; j < int(child.ChildCount()); j++ {
				spec := child.Child(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				// The alias wins when present: import { A as B }.
				name := spec.ChildByFieldName("alias")
				if name == nil {
					name = spec.ChildByFieldName("name")
				}
				if name != nil {
					out[frontend.Text(name, source)] = specifier
				}
			}
		}
	}
}
