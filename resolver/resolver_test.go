package resolver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("export {};\n"), 0o644))
}

func TestResolve_RelativeSibling(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFile(t, filepath.Join(src, "a.ts"))
	writeFile(t, filepath.Join(src, "sibling.ts"))

	r := New(root, nil, nil)
	res := r.Resolve("./sibling", filepath.Join(src, "a.ts"))

	assert.False(t, res.IsExternal)
	assert.True(t, res.Exists)
	assert.Equal(t, filepath.Join(src, "sibling.ts"), res.ResolvedPath)
	assert.Equal(t, ClassInternal, res.Classification)
}

func TestResolve_RelativeIndexFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.ts"))
	writeFile(t, filepath.Join(root, "src", "shared", "index.ts"))

	r := New(root, nil, nil)
	res := r.Resolve("./shared", filepath.Join(root, "src", "a.ts"))

	assert.True(t, res.Exists)
	assert.Equal(t, filepath.Join(root, "src", "shared", "index.ts"), res.ResolvedPath)
}

func TestResolve_RelativeMissing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.ts"))

	r := New(root, nil, nil)
	res := r.Resolve("./generated", filepath.Join(root, "src", "a.ts"))

	assert.False(t, res.IsExternal)
	assert.False(t, res.Exists)
	assert.Equal(t, ClassInternalUnresolved, res.Classification)
}

func TestResolve_NodeModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.ts"))
	writeFile(t, filepath.Join(root, "node_modules", "@angular", "core", "package.json"))

	r := New(root, nil, nil)
	res := r.Resolve("@angular/core", filepath.Join(root, "src", "a.ts"))

	assert.True(t, res.IsExternal)
	assert.True(t, res.Exists)
	assert.Equal(t, "@angular/core", res.PackageName)
	assert.Equal(t, ClassExternal, res.Classification)
}

func TestResolve_ManifestFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.ts"))

	manifest := &Manifest{Dependencies: map[string]string{"@angular/core": "^17.0.0"}}
	r := New(root, nil, manifest)
	res := r.Resolve("@angular/core", filepath.Join(root, "src", "a.ts"))

	assert.True(t, res.IsExternal)
	assert.False(t, res.Exists)
	assert.Equal(t, "@angular/core", res.PackageName)
	assert.Equal(t, ClassExternalUnverified, res.Classification)
}

func TestResolve_Unresolved(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.ts"))

	r := New(root, nil, &Manifest{})
	res := r.Resolve("totally-unknown-pkg", filepath.Join(root, "src", "a.ts"))

	assert.False(t, res.Exists)
	assert.Equal(t, ClassUnresolved, res.Classification)
}

func TestResolve_PathAlias(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "app", "shared", "util.ts"))
	writeFile(t, filepath.Join(root, "src", "app", "feature", "f.ts"))

	cfg := &TSConfig{
		CompilerOptions: CompilerOptions{
			BaseURL: ".",
			Paths:   map[string][]string{"@shared/*": {"src/app/shared/*"}},
		},
		Dir: root,
	}

	r := New(root, cfg, nil)
	res := r.Resolve("@shared/util", filepath.Join(root, "src", "app", "feature", "f.ts"))

	assert.True(t, res.Exists)
	assert.False(t, res.IsExternal, "alias targets inside the project are internal")
	assert.Equal(t, ClassInternal, res.Classification)
	assert.Equal(t, filepath.Join(root, "src", "app", "shared", "util.ts"), res.ResolvedPath)
}

// Every specifier lands in exactly one of the five classifications and
// Resolve never panics or errors.
func TestResolve_Exhaustive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.ts"))
	writeFile(t, filepath.Join(root, "src", "b.ts"))
	writeFile(t, filepath.Join(root, "node_modules", "rxjs", "index.ts"))

	manifest := &Manifest{PeerDependencies: map[string]string{"zone.js": "~0.14.0"}}
	r := New(root, nil, manifest)
	src := filepath.Join(root, "src", "a.ts")

	valid := map[Classification]bool{
		ClassInternal:           true,
		ClassInternalUnresolved: true,
		ClassExternal:           true,
		ClassExternalUnverified: true,
		ClassUnresolved:         true,
	}

	for _, spec := range []string{"./b", "./missing", "rxjs", "zone.js", "nope", "@scope/nope", "", "../.."} {
		res := r.Resolve(spec, src)
		assert.True(t, valid[res.Classification], "specifier %q got %q", spec, res.Classification)
	}
}

func TestResolve_Memoized(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "a.ts"))
	writeFile(t, filepath.Join(root, "src", "b.ts"))

	r := New(root, nil, nil)
	calls := 0
	inner := r.stat
	r.stat = func(p string) (os.FileInfo, error) {
		calls++
		return inner(p)
	}

	src := filepath.Join(root, "src", "a.ts")
	first := r.Resolve("./b", src)
	after := calls
	second := r.Resolve("./b", src)

	assert.Equal(t, first, second)
	assert.Equal(t, after, calls, "second call must hit the memo table")
	assert.Equal(t, 1, r.CacheLen())
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "rxjs", PackageName("rxjs/operators"))
	assert.Equal(t, "@angular/core", PackageName("@angular/core"))
	assert.Equal(t, "@angular/common", PackageName("@angular/common/http"))
	assert.Equal(t, "lodash", PackageName("lodash"))
}

func TestLoadTSConfig_CommentsAndTrailingCommas(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "tsconfig.json")
	content := `{
  // compiler settings
  "compilerOptions": {
    "baseUrl": "./src",
    /* aliases */
    "paths": {
      "@app/*": ["app/*"],
    },
  },
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadTSConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./src", cfg.CompilerOptions.BaseURL)
	assert.Equal(t, []string{"app/*"}, cfg.CompilerOptions.Paths["@app/*"])
	assert.Equal(t, filepath.Join(root, "src"), cfg.BaseDir())
}

func TestManifest_AngularVersion(t *testing.T) {
	m := &Manifest{Dependencies: map[string]string{"@angular/core": "^17.3.1"}}
	assert.Equal(t, "17.3.1", m.AngularVersion())

	var nilManifest *Manifest
	_, ok := nilManifest.HasDependency("x")
	assert.False(t, ok)
}
