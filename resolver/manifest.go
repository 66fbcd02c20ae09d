// Package resolver classifies import specifiers as internal, external,
// or unresolved. Real projects contain path aliases, optional peers, and
// generated files, so resolution degrades gracefully through filesystem
// probing, compiler-config emulation, and manifest lookup instead of
// failing.
package resolver

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Manifest is the dependency manifest (package.json) with the declared
// dependency name lists the resolver falls back on.
type Manifest struct {
	Name             string            `json:"name"`
	Version          string            `json:"version"`
	Dependencies     map[string]string `json:"dependencies"`
	DevDependencies  map[string]string `json:"devDependencies"`
	PeerDependencies map[string]string `json:"peerDependencies"`
}

// LoadManifest reads a package.json file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

// HasDependency reports whether pkg is declared in any dependency list,
// and returns the declared version range when it is.
func (m *Manifest) HasDependency(pkg string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, deps := range []map[string]string{m.Dependencies, m.DevDependencies, m.PeerDependencies} {
		if v, ok := deps[pkg]; ok {
			return v, true
		}
	}
	return "", false
}

// AngularVersion returns the declared @angular/core version range, if
// any, with range prefixes trimmed.
func (m *Manifest) AngularVersion() string {
	v, ok := m.HasDependency("@angular/core")
	if !ok {
		return ""
	}
	return strings.TrimLeft(v, "^~>=")
}

// PackageName derives the package portion of a bare specifier: the
// first path segment, or the first two for scoped packages.
func PackageName(specifier string) string {
	parts := strings.Split(specifier, "/")
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
