package gitmeta

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyon-dev/angraph/graph"
)

func fakeRepo(t *testing.T, remoteURL, head string) string {
	t.Helper()
	root := t.TempDir()
	gitDir := filepath.Join(root, ".git")
	require.NoError(t, os.MkdirAll(gitDir, 0o755))

	config := "[core]\n\trepositoryformatversion = 0\n[remote \"origin\"]\n\turl = " + remoteURL + "\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n"
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "config"), []byte(config), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte(head+"\n"), 0o644))
	return root
}

func TestDetect_SSHRemote(t *testing.T) {
	root := fakeRepo(t, "git@github.com:acme/storefront.git", "ref: refs/heads/develop")

	repo, err := Detect(root)
	require.NoError(t, err)
	require.NotNil(t, repo)

	assert.Equal(t, "git@github.com:acme/storefront.git", repo.RemoteURL)
	assert.Equal(t, "https://github.com/acme/storefront", repo.WebURL)
	assert.Equal(t, "develop", repo.Branch)
	assert.Equal(t,
		"https://github.com/acme/storefront/blob/develop/src/app/app.module.ts#L12",
		repo.FileURL("src/app/app.module.ts", 12))
}

func TestDetect_HTTPSRemote(t *testing.T) {
	root := fakeRepo(t, "https://gitlab.com/acme/storefront.git", "ref: refs/heads/main")

	repo, err := Detect(root)
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.Equal(t, "https://gitlab.com/acme/storefront", repo.WebURL)
}

func TestDetect_NotARepo(t *testing.T) {
	repo, err := Detect(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, repo)

	// Nil repos are safe everywhere.
	assert.Empty(t, repo.FileURL("src/a.ts", 1))
	repo.Annotate(graph.New())
}

func TestDetect_DetachedHead(t *testing.T) {
	root := fakeRepo(t, "git@github.com:acme/x.git", "0123456789abcdef0123456789abcdef01234567")

	repo, err := Detect(root)
	require.NoError(t, err)
	assert.Equal(t, "main", repo.Branch)
}

func TestAnnotate(t *testing.T) {
	root := fakeRepo(t, "git@github.com:acme/storefront.git", "ref: refs/heads/main")
	repo, err := Detect(root)
	require.NoError(t, err)

	g := graph.New()
	e := graph.NewEntity(graph.TypeComponent, "AppComponent",
		graph.Location{FilePath: "src/app/app.component.ts", Line: 8})
	require.NoError(t, g.AddEntity(e))

	repo.Annotate(g)
	assert.Equal(t,
		"https://github.com/acme/storefront/blob/main/src/app/app.component.ts#L8",
		e.Location.SourceURL)
}
