package chunk

import (
	"fmt"
	"strings"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/halcyon-dev/angraph/graph"
)

// renderer turns one feature's entities into markdown at a detail
// level. Rendering is additive across levels: each level emits its own
// sections on top of everything below it.
type renderer struct {
	level DetailLevel
	conv  *htmlmd.Converter
}

func newRenderer(level DetailLevel) *renderer {
	return &renderer{level: level, conv: htmlmd.NewConverter("", true, nil)}
}

func (r *renderer) at(level DetailLevel) bool {
	return r.level.Rank() >= level.Rank()
}

// feature renders the full chunk body for one feature.
func (r *renderer) feature(name string, entities []*graph.Entity, rels []*graph.Relationship) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Feature: %s\n\n", name)

	byType := map[graph.EntityType][]*graph.Entity{}
	for _, e := range entities {
		byType[e.Type] = append(byType[e.Type], e)
	}

	order := []graph.EntityType{
		graph.TypeModule, graph.TypeComponent, graph.TypeDirective,
		graph.TypeService, graph.TypePipe, graph.TypeConstant,
	}
	for _, t := range order {
		group := byType[t]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", sectionTitle(t))
		for _, e := range group {
			r.entity(&b, e, rels)
		}
	}
	return b.String()
}

func (r *renderer) entity(b *strings.Builder, e *graph.Entity, rels []*graph.Relationship) {
	fmt.Fprintf(b, "### %s\n\n", e.Name)

	if r.at(DetailFeatures) {
		r.summaryLine(b, e)
		if doc := r.doc(e.Documentation); doc != "" {
			fmt.Fprintf(b, "%s\n\n", doc)
		}
	}

	if r.at(DetailDetailed) {
		r.details(b, e)
		r.edges(b, e, rels)
	}

	if r.at(DetailComplete) {
		fmt.Fprintf(b, "Declared in `%s` (line %d)", e.Location.FilePath, e.Location.Line)
		if e.Location.SourceURL != "" {
			fmt.Fprintf(b, ", [source](%s)", e.Location.SourceURL)
		}
		b.WriteString("\n\n")
		if len(e.Decorators) > 0 {
			fmt.Fprintf(b, "Decorators: %s\n\n", codeList(e.Decorators))
		}
		if len(e.Modifiers) > 0 {
			fmt.Fprintf(b, "Modifiers: %s\n\n", strings.Join(e.Modifiers, ", "))
		}
	}
}

// summaryLine emits the one-line identity of an entity.
func (r *renderer) summaryLine(b *strings.Builder, e *graph.Entity) {
	switch e.Type {
	case graph.TypeComponent, graph.TypeDirective:
		if e.Selector != "" {
			fmt.Fprintf(b, "Selector: `%s`", e.Selector)
			if e.Standalone {
				b.WriteString(" (standalone)")
			}
			b.WriteString("\n\n")
		}
	case graph.TypeService:
		if e.ProvidedIn != "" {
			fmt.Fprintf(b, "Provided in: `%s`\n\n", e.ProvidedIn)
		}
	case graph.TypePipe:
		if e.PipeName != "" {
			pure := "pure"
			if e.Pure != nil && !*e.Pure {
				pure = "impure"
			}
			fmt.Fprintf(b, "Pipe: `%s` (%s)\n\n", e.PipeName, pure)
		}
	}
}

func (r *renderer) details(b *strings.Builder, e *graph.Entity) {
	if e.ChangeDetection != "" {
		fmt.Fprintf(b, "Change detection: %s\n\n", e.ChangeDetection)
	}
	if len(e.Inputs) > 0 {
		fmt.Fprintf(b, "Inputs: %s\n\n", codeList(e.Inputs))
	}
	if len(e.Outputs) > 0 {
		fmt.Fprintf(b, "Outputs: %s\n\n", codeList(e.Outputs))
	}
	if len(e.Lifecycle) > 0 {
		fmt.Fprintf(b, "Lifecycle: %s\n\n", strings.Join(e.Lifecycle, ", "))
	}
	if len(e.Dependencies) > 0 {
		fmt.Fprintf(b, "Dependencies: %s\n\n", codeList(e.Dependencies))
	}
	if len(e.Declarations) > 0 {
		fmt.Fprintf(b, "Declarations: %s\n\n", codeList(e.Declarations))
	}
	if len(e.Imports) > 0 {
		fmt.Fprintf(b, "Imports: %s\n\n", codeList(e.Imports))
	}
	if len(e.Exports) > 0 {
		fmt.Fprintf(b, "Exports: %s\n\n", codeList(e.Exports))
	}
	if len(e.Providers) > 0 {
		fmt.Fprintf(b, "Providers: %s\n\n", codeList(e.Providers))
	}
}

// edges lists the entity's outgoing relationships.
func (r *renderer) edges(b *strings.Builder, e *graph.Entity, rels []*graph.Relationship) {
	var lines []string
	for _, rel := range rels {
		if rel.Source != e.ID {
			continue
		}
		line := fmt.Sprintf("- %s `%s` (%s)", strings.ToLower(string(rel.Type)), rel.Target.Name, rel.Meta.Classification)
		if rel.Meta.PackageName != "" {
			line += fmt.Sprintf(" from %s", rel.Meta.PackageName)
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		b.WriteString("Relationships:\n\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n\n")
	}
}

// doc normalizes a documentation comment for markdown output. HTML-rich
// comments are converted; plain text passes through.
func (r *renderer) doc(doc string) string {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return ""
	}
	if strings.Contains(doc, "<") && strings.Contains(doc, ">") {
		if converted, err := r.conv.ConvertString(doc); err == nil {
			return strings.TrimSpace(converted)
		}
	}
	return doc
}

func sectionTitle(t graph.EntityType) string {
	switch t {
	case graph.TypeModule:
		return "Modules"
	case graph.TypeComponent:
		return "Components"
	case graph.TypeDirective:
		return "Directives"
	case graph.TypeService:
		return "Services"
	case graph.TypePipe:
		return "Pipes"
	case graph.TypeConstant:
		return "Constants"
	}
	return string(t)
}

func codeList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = "`" + item + "`"
	}
	return strings.Join(quoted, ", ")
}
