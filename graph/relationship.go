package graph

import "fmt"

// RelationshipType classifies a directed edge between entities.
type RelationshipType string

const (
	RelInjects    RelationshipType = "Injects"
	RelDeclares   RelationshipType = "Declares"
	RelImports    RelationshipType = "Imports"
	RelExports    RelationshipType = "Exports"
	RelProvides   RelationshipType = "Provides"
	RelBootstraps RelationshipType = "Bootstraps"
)

// Classification records how a relationship target was resolved.
type Classification string

const (
	ClassInternal     Classification = "internal"
	ClassExternal     Classification = "external"
	ClassUnresolved   Classification = "unresolved"
	ClassInternalFile Classification = "internal-file"
)

// RefKind discriminates the target union of a relationship.
type RefKind int

const (
	// RefEntity targets an entity present in the graph's entity map.
	RefEntity RefKind = iota
	// RefExternal targets a name exported by an external package.
	RefExternal
	// RefUnresolved targets a name the resolver could not place.
	RefUnresolved
	// RefInternalFile targets a name in a project file that produced no entity.
	RefInternalFile
)

// TargetRef is the target of a relationship: either a real entity or a
// synthetic placeholder. Placeholders are never inserted into the entity
// map; only presentation materializes them.
type TargetRef struct {
	Kind    RefKind `json:"kind"`
	Name    string  `json:"name"`
	Entity  string  `json:"entity,omitempty"`  // entity ID for RefEntity
	Package string  `json:"package,omitempty"` // package name for RefExternal
	Path    string  `json:"path,omitempty"`    // file path for RefInternalFile
}

// EntityRef targets a real entity by ID.
func EntityRef(entityID string) TargetRef {
	return TargetRef{Kind: RefEntity, Entity: entityID, Name: entityID}
}

// ExternalRef targets a name from an external package.
func ExternalRef(pkg, name string) TargetRef {
	return TargetRef{Kind: RefExternal, Package: pkg, Name: name}
}

// UnresolvedRef targets a name with no known origin.
func UnresolvedRef(name string) TargetRef {
	return TargetRef{Kind: RefUnresolved, Name: name}
}

// InternalFileRef targets a name declared in a project file that did not
// yield a graph entity.
func InternalFileRef(path, name string) TargetRef {
	return TargetRef{Kind: RefInternalFile, Path: path, Name: name}
}

// ID renders the reference as a stable identifier. Real entities use
// their entity ID; placeholders use the synthetic forms
// external:<pkg>:<name>, unresolved:<name>, internal-file:<path>:<name>.
func (r TargetRef) ID() string {
	switch r.Kind {
	case RefEntity:
		return r.Entity
	case RefExternal:
		return fmt.Sprintf("external:%s:%s", r.Package, r.Name)
	case RefInternalFile:
		return fmt.Sprintf("internal-file:%s:%s", r.Path, r.Name)
	default:
		return fmt.Sprintf("unresolved:%s", r.Name)
	}
}

// Classification maps the reference kind to its resolution class.
func (r TargetRef) Classification() Classification {
	switch r.Kind {
	case RefEntity:
		return ClassInternal
	case RefExternal:
		return ClassExternal
	case RefInternalFile:
		return ClassInternalFile
	default:
		return ClassUnresolved
	}
}

// RelMeta carries resolution and injection metadata for a relationship.
type RelMeta struct {
	Classification Classification `json:"classification"`
	PackageName    string         `json:"packageName,omitempty"`
	Version        string         `json:"version,omitempty"`
	OriginalName   string         `json:"originalName,omitempty"`
	Optional       bool           `json:"optional,omitempty"`
	Self           bool           `json:"self,omitempty"`
	SkipSelf       bool           `json:"skipSelf,omitempty"`
	Host           bool           `json:"host,omitempty"`
	Multi          bool           `json:"multi,omitempty"`
}

// Relationship is a typed, directed edge recording a structural fact.
// Source always references a real entity; Target may be synthetic.
type Relationship struct {
	ID     string           `json:"id"`
	Type   RelationshipType `json:"type"`
	Source string           `json:"source"`
	Target TargetRef        `json:"target"`
	Meta   RelMeta          `json:"metadata"`
}

// NewRelationship builds an edge with a deterministic ID derived from
// its endpoints and type.
func NewRelationship(t RelationshipType, sourceID string, target TargetRef) *Relationship {
	rel := &Relationship{
		ID:     fmt.Sprintf("%s:%s->%s", t, sourceID, target.ID()),
		Type:   t,
		Source: sourceID,
		Target: target,
	}
	rel.Meta.Classification = target.Classification()
	if target.Kind == RefExternal {
		rel.Meta.PackageName = target.Package
	}
	return rel
}
