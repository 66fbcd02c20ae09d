package visitor

import (
	"fmt"
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/halcyon-dev/angraph/frontend"
)

// Registry maintains the ordered visitor list and drives traversal.
// Registration is safe for concurrent use; traversal of a single file
// runs visitors strictly sequentially, because later visitors may
// depend on state a higher-priority visitor just wrote.
type Registry struct {
	mu       sync.RWMutex
	visitors []registered
	seq      int
}

type registered struct {
	visitor Visitor
	order   int // registration sequence, tie-break for equal priority
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a visitor and re-sorts the list by descending
// priority. Equal priorities keep registration order.
func (r *Registry) Register(v Visitor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.visitors = append(r.visitors, registered{visitor: v, order: r.seq})
	r.seq++
	sort.SliceStable(r.visitors, func(i, j int) bool {
		if r.visitors[i].visitor.Priority() != r.visitors[j].visitor.Priority() {
			return r.visitors[i].visitor.Priority() > r.visitors[j].visitor.Priority()
		}
		return r.visitors[i].order < r.visitors[j].order
	})
}

// Unregister removes all visitors whose name matches exactly.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.visitors[:0]
	for _, reg := range r.visitors {
		if reg.visitor.Name() != name {
			kept = append(kept, reg)
		}
	}
	r.visitors = kept
}

// Visitors returns the current invocation order.
func (r *Registry) Visitors() []Visitor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Visitor, len(r.visitors))
	for i, reg := range r.visitors {
		out[i] = reg.visitor
	}
	return out
}

// TraverseFile runs the per-file lifecycle around a full tree walk:
// BeforeParse hooks, pre-order traversal, AfterParse hooks. A visitor
// fault in any phase is recorded and isolated; it never halts the other
// visitors or the walk itself.
func (r *Registry) TraverseFile(file *frontend.SourceFile, ctx *Context) {
	visitors := r.Visitors()
	fileCtx := ctx.ForFile(file)

	for _, v := range visitors {
		r.safely(v, fileCtx, func() error { return v.BeforeParse(file, fileCtx) })
	}

	r.traverse(file.Root, visitors, fileCtx)

	for _, v := range visitors {
		r.safely(v, fileCtx, func() error { return v.AfterParse(file, fileCtx) })
	}
}

// Traverse walks the subtree rooted at node, invoking every visitor on
// every node in priority order before recursing into children in source
// order. No early termination: a visitor handling a node never hides it
// from lower-priority visitors.
func (r *Registry) Traverse(node *sitter.Node, ctx *Context) {
	r.traverse(node, r.Visitors(), ctx)
}

func (r *Registry) traverse(node *sitter.Node, visitors []Visitor, ctx *Context) {
	if node == nil {
		return
	}

	for _, v := range visitors {
		r.safely(v, ctx, func() error { return v.VisitNode(node, ctx) })
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		r.traverse(node.Child(i), visitors, ctx)
	}
}

// safely runs one visitor callback, converting errors and panics into
// recorded issues attributed to the visitor.
func (r *Registry) safely(v Visitor, ctx *Context, fn func() error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.recordFault(v, ctx, fmt.Sprintf("panic: %v", rec))
		}
	}()
	if err := fn(); err != nil {
		r.recordFault(v, ctx, err.Error())
	}
}

func (r *Registry) recordFault(v Visitor, ctx *Context, msg string) {
	issue := Issue{Severity: SeverityError, Visitor: v.Name(), Message: msg}
	if ctx.File != nil {
		issue.File = ctx.File.Rel
	}
	ctx.issues.Add(issue)
	ctx.Logger.Warn("visitor fault", "visitor", v.Name(), "file", issue.File, "error", msg)
}

// Results collects each visitor's result object keyed by name.
func (r *Registry) Results() map[string]any {
	out := make(map[string]any)
	for _, v := range r.Visitors() {
		out[v.Name()] = v.Results()
	}
	return out
}

// Reset clears all visitor state for reuse across projects.
func (r *Registry) Reset() {
	for _, v := range r.Visitors() {
		v.Reset()
	}
}
