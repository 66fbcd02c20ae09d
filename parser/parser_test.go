package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-dev/angraph/graph"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

const userService = `
import { Injectable } from '@angular/core';

@Injectable({ providedIn: 'root' })
export class UserService {}
`

const usersComponent = `
import { Component } from '@angular/core';
import { UserService } from './user.service';

@Component({ selector: 'app-users' })
export class UsersComponent {
  constructor(private userService: UserService) {}
}
`

func TestParseProject_SmallTree(t *testing.T) {
	root := writeProject(t, map[string]string{
		"package.json":                           `{"dependencies": {"@angular/core": "^17.1.0"}}`,
		"src/app/users/user.service.ts":          userService,
		"src/app/users/users.component.ts":       usersComponent,
		"src/app/users/users.component.spec.ts": `describe('skip me', () => {});`,
	})

	res, err := ParseProject(context.Background(), Options{Root: root, Workers: 4})
	require.NoError(t, err)

	entities, relationships := res.Graph.Len()
	assert.Equal(t, 2, entities)
	assert.Equal(t, 1, relationships)
	assert.Equal(t, 2, res.Stats.FilesScanned, "spec files are excluded")
	assert.Equal(t, 0, res.Stats.FilesFailed)

	meta := res.Graph.Meta()
	assert.NotEmpty(t, meta.RunID)
	assert.Equal(t, "17.1.0", meta.AngularVersion)

	require.NoError(t, res.Graph.Validate())

	// The component's injection edge resolves to the service entity
	// once the graph is complete.
	rel := res.Graph.Relationships()[0]
	assert.Equal(t, graph.RelInjects, rel.Type)
	target, ok := res.Graph.ResolveTarget(rel.Target)
	require.True(t, ok)
	assert.Equal(t, "UserService", target.Name)
	assert.Equal(t, graph.TypeService, target.Type)
}

// Decorate sees the populated graph before Finalize freezes it, so
// stamped fields land on the same entities the metadata counts.
func TestParseProject_DecorateBeforeFinalize(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/app/users/user.service.ts": userService,
	})

	decorated := 0
	res, err := ParseProject(context.Background(), Options{
		Root: root,
		Decorate: func(g *graph.KnowledgeGraph) {
			for _, e := range g.Entities() {
				e.Location.SourceURL = "https://example.com/" + e.Location.FilePath
				decorated++
			}
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, decorated)
	assert.Equal(t, 1, res.Graph.Meta().TotalEntities)
	e := res.Graph.Entities()[0]
	assert.Equal(t, "https://example.com/src/app/users/user.service.ts", e.Location.SourceURL)
}

func TestParseProject_MissingRoot(t *testing.T) {
	_, err := ParseProject(context.Background(), Options{Root: filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestParseProject_EmptyProject(t *testing.T) {
	root := writeProject(t, map[string]string{"README.md": "nothing to parse"})

	res, err := ParseProject(context.Background(), Options{Root: root})
	require.NoError(t, err)

	entities, relationships := res.Graph.Len()
	assert.Zero(t, entities)
	assert.Zero(t, relationships)
	assert.Zero(t, res.Stats.FilesScanned)
}

func TestParseProject_Cancelled(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/a.ts": "export class A {}",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseProject(ctx, Options{Root: root})
	assert.Error(t, err)
}

func TestScan_Filters(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/app/a.ts":                 "",
		"src/app/a.spec.ts":            "",
		"src/app/view.html":            "",
		"node_modules/dep/index.ts":    "",
		"dist/out.ts":                  "",
		".angular/cache/x.ts":          "",
		"src/generated/api.ts":         "",
	})

	files, err := Scan(root, ScanOptions{Excludes: []string{"src/generated/**"}})
	require.NoError(t, err)

	require.Len(t, files, 1)
	assert.Equal(t, filepath.Join(root, "src", "app", "a.ts"), files[0])
}

func TestScan_IncludeSpecs(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/a.ts":      "",
		"src/a.spec.ts": "",
	})

	files, err := Scan(root, ScanOptions{IncludeSpecs: true})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestParseProject_BadTSConfigFatal(t *testing.T) {
	root := writeProject(t, map[string]string{
		"tsconfig.json": `{not json at all`,
		"src/a.ts":      "export class A {}",
	})

	_, err := ParseProject(context.Background(), Options{Root: root})
	assert.Error(t, err, "an unreadable config present on disk is fatal")
}
