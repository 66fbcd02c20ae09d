package resolver

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Classification is the resolver's verdict for one specifier. Every
// Resolve call yields exactly one of the five values.
type Classification string

const (
	// ClassInternal: relative or aliased import resolved to a project file.
	ClassInternal Classification = "internal"
	// ClassInternalUnresolved: relative import whose target file could
	// not be found on disk.
	ClassInternalUnresolved Classification = "internal-unresolved"
	// ClassExternal: resolved inside the dependency directory.
	ClassExternal Classification = "external"
	// ClassExternalUnverified: absent from disk but declared in the
	// manifest's dependency lists.
	ClassExternalUnverified Classification = "external-unverified"
	// ClassUnresolved: no strategy could place the specifier.
	ClassUnresolved Classification = "unresolved"
)

// Resolution is the result of classifying one import specifier.
type Resolution struct {
	ImportPath     string         `json:"importPath"`
	ResolvedPath   string         `json:"resolvedPath,omitempty"`
	IsExternal     bool           `json:"isExternal"`
	Exists         bool           `json:"exists"`
	PackageName    string         `json:"packageName,omitempty"`
	Classification Classification `json:"classification"`
}

// extensionCandidates is the fixed probe order for extensionless
// specifiers, matching compiler resolution: exact, source extensions,
// declaration files, then directory index files.
var extensionCandidates = []string{
	"",
	".ts",
	".tsx",
	".d.ts",
	".js",
	".jsx",
	"/index.ts",
	"/index.tsx",
	"/index.js",
	"/index.d.ts",
}

// cacheSize bounds the per-parse memo table. Redundant recomputation is
// harmless, so eviction has no correctness cost.
const cacheSize = 8192

// Resolver classifies import specifiers for one project parse. Safe for
// concurrent use; the memo table is shared across file workers.
type Resolver struct {
	root     string
	tsconfig *TSConfig
	manifest *Manifest
	cache    *lru.Cache[string, Resolution]

	// stat is swappable for tests and metrics wrapping.
	stat func(string) (os.FileInfo, error)
}

// New creates a resolver for a project rooted at root. Both tsconfig
// and manifest may be nil; the corresponding strategies are skipped.
func New(root string, tsconfig *TSConfig, manifest *Manifest) *Resolver {
	cache, _ := lru.New[string, Resolution](cacheSize)
	return &Resolver{
		root:     root,
		tsconfig: tsconfig,
		manifest: manifest,
		cache:    cache,
		stat:     os.Stat,
	}
}

// Resolve classifies one specifier imported from sourceFile. It never
// returns an error: failures degrade to weaker classifications down to
// unresolved. Results are memoized per (sourceFile, specifier).
func (r *Resolver) Resolve(specifier, sourceFile string) Resolution {
	key := sourceFile + "\x00" + specifier
	if res, ok := r.cache.Get(key); ok {
		return res
	}

	res := r.resolve(specifier, sourceFile)
	r.cache.Add(key, res)
	return res
}

func (r *Resolver) resolve(specifier, sourceFile string) Resolution {
	res := Resolution{ImportPath: specifier}

	// 1. Relative specifiers are always internal; probing only decides
	// whether the target exists.
	if strings.HasPrefix(specifier, ".") {
		base := filepath.Join(filepath.Dir(sourceFile), specifier)
		if hit, ok := r.probe(base); ok {
			res.ResolvedPath = hit
			res.Exists = true
			res.Classification = ClassInternal
			return res
		}
		res.Classification = ClassInternalUnresolved
		return res
	}

	// 2. Compiler-native resolution: path aliases, base URL, then the
	// dependency directory walk-up.
	if hit, ok := r.resolveAliased(specifier); ok {
		res.ResolvedPath = hit
		res.Exists = true
		if r.inDependencyDir(hit) {
			res.IsExternal = true
			res.PackageName = PackageName(specifier)
			res.Classification = ClassExternal
		} else {
			res.Classification = ClassInternal
		}
		return res
	}
	if hit, ok := r.resolveNodeModules(specifier, sourceFile); ok {
		res.ResolvedPath = hit
		res.Exists = true
		res.IsExternal = true
		res.PackageName = PackageName(specifier)
		res.Classification = ClassExternal
		return res
	}

	// 3. Manifest fallback: declared but not materialized on disk.
	pkg := PackageName(specifier)
	if _, ok := r.manifest.HasDependency(pkg); ok {
		res.IsExternal = true
		res.PackageName = pkg
		res.Classification = ClassExternalUnverified
		return res
	}

	// 4. Nothing matched.
	res.Classification = ClassUnresolved
	return res
}

// probe tries the fixed candidate list against a base path and returns
// the first regular file that exists.
func (r *Resolver) probe(base string) (string, bool) {
	for _, suffix := range extensionCandidates {
		candidate := base + suffix
		info, err := r.stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// resolveAliased expands tsconfig path aliases and the bare base-URL
// mapping, probing each expansion.
func (r *Resolver) resolveAliased(specifier string) (string, bool) {
	if r.tsconfig == nil {
		return "", false
	}

	baseDir := r.tsconfig.BaseDir()
	for _, target := range r.tsconfig.MatchPath(specifier) {
		if hit, ok := r.probe(filepath.Join(baseDir, target)); ok {
			return hit, true
		}
	}

	// With a baseUrl set, bare specifiers may name project files.
	if r.tsconfig.CompilerOptions.BaseURL != "" {
		if hit, ok := r.probe(filepath.Join(baseDir, specifier)); ok {
			return hit, true
		}
	}
	return "", false
}

// resolveNodeModules walks node_modules directories from the source
// file's directory up to the project root.
func (r *Resolver) resolveNodeModules(specifier, sourceFile string) (string, bool) {
	dir := filepath.Dir(sourceFile)
	for {
		base := filepath.Join(dir, "node_modules", specifier)
		if hit, ok := r.probe(base); ok {
			return hit, true
		}
		// Package root with a package.json counts as resolved even
		// without probing its entry point.
		if info, err := r.stat(filepath.Join(base, "package.json")); err == nil && !info.IsDir() {
			return base, true
		}

		if dir == r.root || dir == filepath.Dir(dir) {
			return "", false
		}
		dir = filepath.Dir(dir)
	}
}

// inDependencyDir reports whether an absolute path falls inside a
// node_modules directory. This alone decides external vs. internal for
// natively resolved specifiers.
func (r *Resolver) inDependencyDir(path string) bool {
	return strings.Contains(filepath.ToSlash(path), "/node_modules/")
}

// CacheLen reports the memo table's current size.
func (r *Resolver) CacheLen() int {
	return r.cache.Len()
}
