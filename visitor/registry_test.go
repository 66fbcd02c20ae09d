package visitor

import (
	"context"
	"errors"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/graph"
)

// fakeVisitor records the order and count of its invocations.
type fakeVisitor struct {
	name     string
	priority int
	log      *[]string

	nodes   int
	befores int
	afters  int

	visitErr  error
	panicking bool
}

func (f *fakeVisitor) Name() string  { return f.name }
func (f *fakeVisitor) Priority() int { return f.priority }
func (f *fakeVisitor) Results() any  { return f.nodes }
func (f *fakeVisitor) Reset()        { f.nodes = 0 }

func (f *fakeVisitor) VisitNode(node *sitter.Node, ctx *Context) error {
	if f.log != nil {
		*f.log = append(*f.log, f.name)
	}
	f.nodes++
	if f.panicking {
		panic("boom")
	}
	return f.visitErr
}

func (f *fakeVisitor) BeforeParse(*frontend.SourceFile, *Context) error {
	f.befores++
	return nil
}

func (f *fakeVisitor) AfterParse(*frontend.SourceFile, *Context) error {
	f.afters++
	return nil
}

func parseFixture(t *testing.T) *frontend.SourceFile {
	t.Helper()
	p := frontend.NewParser("/proj")
	file, err := p.Parse(context.Background(), "/proj/src/a.ts", []byte("const x = 1;\n"))
	require.NoError(t, err)
	t.Cleanup(file.Close)
	return file
}

func newTestContext() *Context {
	return NewContext(graph.New(), nil, nil, nil)
}

func TestRegister_PriorityOrder(t *testing.T) {
	reg := NewRegistry()
	low := &fakeVisitor{name: "low", priority: 10}
	high := &fakeVisitor{name: "high", priority: 100}
	mid := &fakeVisitor{name: "mid", priority: 50}

	reg.Register(low)
	reg.Register(high)
	reg.Register(mid)

	var names []string
	for _, v := range reg.Visitors() {
		names = append(names, v.Name())
	}
	assert.Equal(t, []string{"high", "mid", "low"}, names)
}

func TestRegister_TieKeepsRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	first := &fakeVisitor{name: "first", priority: 50}
	second := &fakeVisitor{name: "second", priority: 50}
	third := &fakeVisitor{name: "third", priority: 50}

	reg.Register(first)
	reg.Register(second)
	reg.Register(third)

	var names []string
	for _, v := range reg.Visitors() {
		names = append(names, v.Name())
	}
	assert.Equal(t, []string{"first", "second", "third"}, names)
}

func TestUnregister_ExactName(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeVisitor{name: "keep", priority: 1})
	reg.Register(&fakeVisitor{name: "drop", priority: 2})

	reg.Unregister("drop")
	require.Len(t, reg.Visitors(), 1)
	assert.Equal(t, "keep", reg.Visitors()[0].Name())

	// Unknown names are a no-op.
	reg.Unregister("absent")
	assert.Len(t, reg.Visitors(), 1)
}

// Every visitor sees every node in priority order; a visitor matching a
// node never hides it from the others.
func TestTraverse_NoEarlyTermination(t *testing.T) {
	var log []string
	reg := NewRegistry()
	a := &fakeVisitor{name: "a", priority: 2, log: &log}
	b := &fakeVisitor{name: "b", priority: 1, log: &log}
	reg.Register(a)
	reg.Register(b)

	file := parseFixture(t)
	reg.TraverseFile(file, newTestContext())

	assert.Equal(t, a.nodes, b.nodes, "both visitors must see the same node count")
	assert.Greater(t, a.nodes, 1)

	// Per node: a before b, strictly interleaved.
	require.Equal(t, 2*a.nodes, len(log))
	for i := 0; i < len(log); i += 2 {
		assert.Equal(t, "a", log[i])
		assert.Equal(t, "b", log[i+1])
	}
}

// Traverse walks a subtree directly, without the per-file hooks.
func TestTraverse_SubtreeOnly(t *testing.T) {
	reg := NewRegistry()
	v := &fakeVisitor{name: "v", priority: 1}
	reg.Register(v)

	file := parseFixture(t)
	reg.Traverse(file.Root, newTestContext().ForFile(file))

	assert.Greater(t, v.nodes, 1)
	assert.Zero(t, v.befores, "hooks only fire through TraverseFile")
}

func TestTraverseFile_Hooks(t *testing.T) {
	reg := NewRegistry()
	v := &fakeVisitor{name: "v", priority: 1}
	reg.Register(v)

	reg.TraverseFile(parseFixture(t), newTestContext())

	assert.Equal(t, 1, v.befores)
	assert.Equal(t, 1, v.afters)
}

// A failing or panicking visitor is isolated: its fault is recorded and
// the remaining visitors still run over the whole tree.
func TestTraverse_FaultIsolation(t *testing.T) {
	reg := NewRegistry()
	bad := &fakeVisitor{name: "bad", priority: 3, visitErr: errors.New("extract failed")}
	worse := &fakeVisitor{name: "worse", priority: 2, panicking: true}
	good := &fakeVisitor{name: "good", priority: 1}
	reg.Register(bad)
	reg.Register(worse)
	reg.Register(good)

	ctx := newTestContext()
	reg.TraverseFile(parseFixture(t), ctx)

	assert.Greater(t, good.nodes, 1, "healthy visitor must keep running")
	assert.Equal(t, good.nodes, bad.nodes, "failing visitor still sees every node")

	issues := ctx.Issues().Issues()
	require.NotEmpty(t, issues)

	byVisitor := map[string]int{}
	for _, issue := range issues {
		assert.Equal(t, SeverityError, issue.Severity)
		assert.Equal(t, "src/a.ts", issue.File)
		byVisitor[issue.Visitor]++
	}
	assert.Equal(t, bad.nodes, byVisitor["bad"], "one issue per failed invocation")
	assert.Equal(t, worse.nodes, byVisitor["worse"])
	assert.Zero(t, byVisitor["good"])
}

func TestResults_KeyedByName(t *testing.T) {
	reg := NewRegistry()
	v := &fakeVisitor{name: "counter", priority: 1}
	reg.Register(v)

	reg.TraverseFile(parseFixture(t), newTestContext())

	results := reg.Results()
	require.Contains(t, results, "counter")
	assert.Equal(t, v.nodes, results["counter"])

	reg.Reset()
	assert.Equal(t, 0, reg.Results()["counter"])
}
