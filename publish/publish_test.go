package publish

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/vocabulary/angraph"
)

func TestPublishGraph_NilClientSkips(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddEntity(graph.NewEntity(graph.TypeService, "S",
		graph.Location{FilePath: "src/app/s/s.service.ts"})))

	p := New(nil, nil)
	assert.NoError(t, p.PublishGraph(context.Background(), "/srv/app", g))

	var nilPublisher *Publisher
	assert.NoError(t, nilPublisher.PublishGraph(context.Background(), "/srv/app", g))
	nilPublisher.Close()
}

func TestRunTriples(t *testing.T) {
	meta := graph.Metadata{
		RunID:              "run-7",
		AngularVersion:     "17.1.0",
		TotalEntities:      12,
		TotalRelationships: 30,
	}

	triples := runTriples("/srv/app", meta, time.Now())

	byPredicate := map[string]any{}
	for _, tr := range triples {
		assert.Equal(t, "run:run-7", tr.Subject)
		byPredicate[tr.Predicate] = tr.Object
	}
	assert.Equal(t, "/srv/app", byPredicate[angraph.RunProject])
	assert.Equal(t, 12, byPredicate[angraph.RunEntityCount])
	assert.Equal(t, 30, byPredicate[angraph.RunRelationshipCount])
	assert.Equal(t, "17.1.0", byPredicate[angraph.RunAngularVersion])
}

func TestEntityTriples(t *testing.T) {
	e := graph.NewEntity(graph.TypeComponent, "UsersComponent",
		graph.Location{FilePath: "src/app/users/users.component.ts"})
	e.Selector = "app-users"
	e.Standalone = true
	e.Documentation = "Lists users."

	rel := graph.NewRelationship(graph.RelInjects, e.ID,
		graph.ExternalRef("@angular/core", "ElementRef"))

	now := time.Now()
	triples := entityTriples(e, []*graph.Relationship{rel}, now)

	byPredicate := map[string]any{}
	for _, tr := range triples {
		assert.Equal(t, e.ID, tr.Subject)
		assert.Equal(t, tripleSource, tr.Source)
		assert.Equal(t, now, tr.Timestamp)
		assert.InDelta(t, 1.0, tr.Confidence, 0)
		byPredicate[tr.Predicate] = tr.Object
	}

	assert.Equal(t, "component", byPredicate[angraph.EntityType])
	assert.Equal(t, "UsersComponent", byPredicate[angraph.EntityName])
	assert.Equal(t, "src/app/users/users.component.ts", byPredicate[angraph.EntityFile])
	assert.Equal(t, "users", byPredicate[angraph.EntityFeature])
	assert.Equal(t, "app-users", byPredicate[angraph.EntitySelector])
	assert.Equal(t, true, byPredicate[angraph.EntityStandalone])
	assert.Equal(t, "Lists users.", byPredicate[angraph.EntityDoc])
	assert.Equal(t, "external:@angular/core:ElementRef", byPredicate[angraph.RelInjects])
}

func TestRelPredicate_CoversAllTypes(t *testing.T) {
	types := []graph.RelationshipType{
		graph.RelInjects, graph.RelDeclares, graph.RelImports,
		graph.RelExports, graph.RelProvides, graph.RelBootstraps,
	}
	seen := map[string]bool{}
	for _, typ := range types {
		p := relPredicate(typ)
		assert.Contains(t, p, "angraph.rel.")
		assert.False(t, seen[p], "predicate %s duplicated", p)
		seen[p] = true
	}
}
