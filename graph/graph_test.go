package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityID_Deterministic(t *testing.T) {
	a := EntityID("src/app/auth/auth.service.ts", "AuthService", TypeService)
	b := EntityID("src/app/auth/auth.service.ts", "AuthService", TypeService)
	assert.Equal(t, a, b)
	assert.Equal(t, "service:src/app/auth/auth.service.ts:AuthService", a)

	// Different type, same file and name, must differ.
	c := EntityID("src/app/auth/auth.service.ts", "AuthService", TypeComponent)
	assert.NotEqual(t, a, c)
}

func TestAddEntity_DuplicateRejected(t *testing.T) {
	g := New()
	loc := Location{FilePath: "src/app/app.component.ts", Line: 4}

	require.NoError(t, g.AddEntity(NewEntity(TypeComponent, "AppComponent", loc)))
	err := g.AddEntity(NewEntity(TypeComponent, "AppComponent", loc))
	assert.Error(t, err)

	entities, _ := g.Len()
	assert.Equal(t, 1, entities)
}

func TestUniqueIDs(t *testing.T) {
	g := New()
	files := []string{"src/app/a.ts", "src/app/b.ts", "src/app/c.ts"}
	for _, f := range files {
		require.NoError(t, g.AddEntity(NewEntity(TypeService, "Svc", Location{FilePath: f})))
	}

	seen := make(map[string]bool)
	for _, e := range g.Entities() {
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
}

func TestTargetRef_SyntheticIDs(t *testing.T) {
	tests := []struct {
		ref TargetRef
		id  string
		cls Classification
	}{
		{EntityRef("service:src/app/a.ts:A"), "service:src/app/a.ts:A", ClassInternal},
		{ExternalRef("@angular/core", "Injectable"), "external:@angular/core:Injectable", ClassExternal},
		{UnresolvedRef("MysteryToken"), "unresolved:MysteryToken", ClassUnresolved},
		{InternalFileRef("src/app/tokens.ts", "API_URL"), "internal-file:src/app/tokens.ts:API_URL", ClassInternalFile},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.id, tt.ref.ID())
		assert.Equal(t, tt.cls, tt.ref.Classification())
	}
}

func TestNewRelationship_MetaDefaults(t *testing.T) {
	rel := NewRelationship(RelInjects, "component:src/app/a.ts:A", ExternalRef("@angular/router", "Router"))
	assert.Equal(t, ClassExternal, rel.Meta.Classification)
	assert.Equal(t, "@angular/router", rel.Meta.PackageName)
	assert.False(t, rel.Meta.Optional)
}

func TestValidate_SourceMustExist(t *testing.T) {
	g := New()
	require.NoError(t, g.AddEntity(NewEntity(TypeComponent, "A", Location{FilePath: "src/app/a.ts"})))

	g.AddRelationship(NewRelationship(RelInjects, EntityID("src/app/a.ts", "A", TypeComponent), UnresolvedRef("B")))
	assert.NoError(t, g.Validate())

	g.AddRelationship(NewRelationship(RelInjects, "component:src/app/ghost.ts:Ghost", UnresolvedRef("B")))
	assert.Error(t, g.Validate())
}

func TestRelationshipsSorted_OrderIndependent(t *testing.T) {
	build := func(ids []string) []*Relationship {
		g := New()
		require.NoError(t, g.AddEntity(NewEntity(TypeComponent, "A", Location{FilePath: "src/app/a.ts"})))
		source := EntityID("src/app/a.ts", "A", TypeComponent)
		for _, name := range ids {
			g.AddRelationship(NewRelationship(RelInjects, source, UnresolvedRef(name)))
		}
		return g.RelationshipsSorted()
	}

	forward := build([]string{"Alpha", "Beta", "Gamma"})
	reversed := build([]string{"Gamma", "Beta", "Alpha"})

	require.Len(t, forward, 3)
	for i := range forward {
		assert.Equal(t, forward[i].ID, reversed[i].ID)
	}
}

func TestFinalize_Counts(t *testing.T) {
	g := New()
	require.NoError(t, g.AddEntity(NewEntity(TypeService, "S", Location{FilePath: "src/app/s.ts"})))
	g.AddRelationship(NewRelationship(RelProvides, EntityID("src/app/s.ts", "S", TypeService), UnresolvedRef("X")))
	g.Finalize()

	meta := g.Meta()
	assert.Equal(t, 1, meta.TotalEntities)
	assert.Equal(t, 1, meta.TotalRelationships)
	assert.False(t, meta.Timestamp.IsZero())
}
