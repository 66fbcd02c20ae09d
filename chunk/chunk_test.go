package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-dev/angraph/graph"
)

func addEntity(t *testing.T, g *graph.KnowledgeGraph, typ graph.EntityType, file, name string) *graph.Entity {
	t.Helper()
	e := graph.NewEntity(typ, name, graph.Location{FilePath: file, Line: 1})
	require.NoError(t, g.AddEntity(e))
	return e
}

func twoFeatureGraph(t *testing.T) *graph.KnowledgeGraph {
	g := graph.New()
	users := addEntity(t, g, graph.TypeComponent, "src/app/users/users.component.ts", "UsersComponent")
	users.Selector = "app-users"
	users.Dependencies = []string{"AuthService"}
	addEntity(t, g, graph.TypeService, "src/app/users/user.service.ts", "UserService")
	auth := addEntity(t, g, graph.TypeService, "src/app/auth/auth.service.ts", "AuthService")

	rel := graph.NewRelationship(graph.RelInjects, users.ID,
		graph.InternalFileRef("src/app/auth/auth.service.ts", "AuthService"))
	g.AddRelationship(rel)
	_ = auth
	g.Finalize()
	return g
}

func TestBuild_GroupsByFeature(t *testing.T) {
	chunks, manifest, err := Build(twoFeatureGraph(t), Options{})
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// Features sort alphabetically, so IDs are stable.
	assert.Equal(t, "chunk-001", chunks[0].ID)
	assert.Equal(t, "auth", chunks[0].Feature)
	assert.Equal(t, "chunk-002", chunks[1].ID)
	assert.Equal(t, "users", chunks[1].Feature)

	assert.Len(t, chunks[1].Entities, 2)
	assert.Equal(t, 2, manifest.TotalChunks)
}

func TestBuild_CrossFeatureLinks(t *testing.T) {
	chunks, _, err := Build(twoFeatureGraph(t), Options{})
	require.NoError(t, err)

	users := chunks[1]
	auth := chunks[0]
	assert.Equal(t, []string{auth.ID}, users.RelatedChunks, "users injects auth")
	assert.Empty(t, auth.RelatedChunks, "links are directional")
	assert.NotContains(t, users.RelatedChunks, users.ID, "no self links")
}

// The graph accumulates entities in worker completion order, so the
// same entity set must chunk identically no matter how it was inserted.
func TestBuild_InsertionOrderIndependent(t *testing.T) {
	forward := graph.New()
	addEntity(t, forward, graph.TypeService, "src/app/auth/auth.service.ts", "AuthService")
	addEntity(t, forward, graph.TypeService, "src/app/auth/token.service.ts", "TokenService")
	forward.Finalize()

	reversed := graph.New()
	addEntity(t, reversed, graph.TypeService, "src/app/auth/token.service.ts", "TokenService")
	addEntity(t, reversed, graph.TypeService, "src/app/auth/auth.service.ts", "AuthService")
	reversed.Finalize()

	a, am, err := Build(forward, Options{Detail: DetailComplete})
	require.NoError(t, err)
	b, bm, err := Build(reversed, Options{Detail: DetailComplete})
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Content, b[0].Content)
	assert.Equal(t, a[0].Entities, b[0].Entities)
	assert.Equal(t, a[0].Tokens, b[0].Tokens)
	assert.Equal(t, am.TotalTokens, bm.TotalTokens)
}

func TestBuild_EmptyGraph(t *testing.T) {
	g := graph.New()
	g.Finalize()

	chunks, manifest, err := Build(g, Options{})
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Equal(t, 0, manifest.TotalChunks)
	assert.Equal(t, 0, manifest.TotalTokens)
}

func TestBuild_DetailMonotonic(t *testing.T) {
	levels := []DetailLevel{DetailOverview, DetailFeatures, DetailDetailed, DetailComplete}

	prev := -1
	for _, level := range levels {
		chunks, _, err := Build(twoFeatureGraph(t), Options{Detail: level})
		require.NoError(t, err)

		total := 0
		for _, c := range chunks {
			total += len(c.Content)
		}
		assert.Greater(t, total, prev, "level %s must render at least as much as the previous", level)
		prev = total
	}
}

func TestBuild_UnknownDetailLevel(t *testing.T) {
	_, _, err := Build(graph.New(), Options{Detail: "verbose"})
	assert.Error(t, err)
}

func TestBuild_ManifestMirrorsChunks(t *testing.T) {
	chunks, manifest, err := Build(twoFeatureGraph(t), Options{Project: "shop-app", Detail: DetailComplete})
	require.NoError(t, err)

	assert.Equal(t, "shop-app", manifest.ProjectName)
	assert.Equal(t, 3, manifest.TotalEntities)
	require.Len(t, manifest.Chunks, len(chunks))
	total := 0
	for i, entry := range manifest.Chunks {
		assert.Equal(t, chunks[i].ID, entry.ID)
		assert.Equal(t, chunks[i].Feature, entry.Feature)
		assert.Equal(t, chunks[i].Tokens, entry.Tokens)
		assert.Equal(t, chunks[i].Entities, entry.Entities)
		assert.Equal(t, chunks[i].RelatedChunks, entry.RelatedChunks)
		total += entry.Tokens
	}
	assert.Equal(t, total, manifest.TotalTokens)
}

func TestFeatureKey(t *testing.T) {
	cases := map[string]string{
		"src/app/users/users.component.ts":    "users",
		"src/app/auth/login/login.page.ts":    "auth",
		"src/app/app.module.ts":               "core",
		"src/main.ts":                         "core",
		"tools/gen.ts":                        "core",
		"projects/admin/src/app/billing/b.ts": "billing",
	}
	for path, want := range cases {
		assert.Equal(t, want, FeatureKey(path), "path %s", path)
	}
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 3, EstimateTokens("0123456789"), "10 chars rounds to 3 tokens")
}

func TestRenderer_HTMLDocConverted(t *testing.T) {
	g := graph.New()
	e := addEntity(t, g, graph.TypeService, "src/app/api/api.service.ts", "ApiService")
	e.Documentation = "Fetches <b>records</b> from the <code>v2</code> API."
	g.Finalize()

	chunks, _, err := Build(g, Options{Detail: DetailFeatures})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Contains(t, chunks[0].Content, "**records**")
	assert.Contains(t, chunks[0].Content, "`v2`")
	assert.NotContains(t, chunks[0].Content, "<b>")
}

func TestBuild_OversizedFeatureKeptWhole(t *testing.T) {
	g := graph.New()
	doc := make([]byte, 4096)
	for i := range doc {
		doc[i] = 'x'
	}
	e := addEntity(t, g, graph.TypeService, "src/app/big/big.service.ts", "BigService")
	e.Documentation = string(doc)
	g.Finalize()

	chunks, _, err := Build(g, Options{MaxTokens: 100, Detail: DetailDetailed})
	require.NoError(t, err)
	require.Len(t, chunks, 1, "oversized features are reported, not split")
	assert.Greater(t, chunks[0].Tokens, 100)
}
