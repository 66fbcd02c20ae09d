package graph

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Metadata summarizes one parse run.
type Metadata struct {
	TotalEntities      int       `json:"totalEntities"`
	TotalRelationships int       `json:"totalRelationships"`
	Timestamp          time.Time `json:"timestamp"`
	RunID              string    `json:"runId,omitempty"`
	AngularVersion     string    `json:"angularVersion,omitempty"`
}

// KnowledgeGraph is the shared accumulator for one parse. It is created
// once per parse call, populated by additive inserts during traversal,
// finalized, and discarded on the next parse. Inserts are serialized
// internally so per-file extraction may run concurrently.
type KnowledgeGraph struct {
	mu            sync.Mutex
	entities      map[string]*Entity
	order         []string // insertion order of entity IDs
	relationships []*Relationship
	meta          Metadata
}

// New creates an empty knowledge graph.
func New() *KnowledgeGraph {
	return &KnowledgeGraph{
		entities: make(map[string]*Entity),
		meta:     Metadata{Timestamp: time.Now().UTC()},
	}
}

// AddEntity inserts an entity. The first insert for an ID wins; a
// duplicate is reported so the caller can record a warning.
func (g *KnowledgeGraph) AddEntity(e *Entity) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.entities[e.ID]; exists {
		return fmt.Errorf("duplicate entity id: %s", e.ID)
	}
	g.entities[e.ID] = e
	g.order = append(g.order, e.ID)
	return nil
}

// AddRelationship appends an edge to the relationship list.
func (g *KnowledgeGraph) AddRelationship(r *Relationship) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.relationships = append(g.relationships, r)
}

// Entity returns the entity with the given ID, if present.
func (g *KnowledgeGraph) Entity(id string) (*Entity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entities[id]
	return e, ok
}

// Entities returns all entities in insertion order.
func (g *KnowledgeGraph) Entities() []*Entity {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Entity, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.entities[id])
	}
	return out
}

// EntitiesSorted returns all entities ordered by ID. Useful where a
// reproducible order independent of file visit order is required.
func (g *KnowledgeGraph) EntitiesSorted() []*Entity {
	out := g.Entities()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Relationships returns the ordered relationship list.
func (g *KnowledgeGraph) Relationships() []*Relationship {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Relationship, len(g.relationships))
	copy(out, g.relationships)
	return out
}

// RelationshipsSorted returns all relationships ordered by ID. Insertion
// order follows worker completion order under a concurrent parse, so
// anything rendered to the user sorts first.
func (g *KnowledgeGraph) RelationshipsSorted() []*Relationship {
	out := g.Relationships()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns entity and relationship counts.
func (g *KnowledgeGraph) Len() (entities, relationships int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entities), len(g.relationships)
}

// SetRunID records the parse run identifier.
func (g *KnowledgeGraph) SetRunID(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.meta.RunID = id
}

// SetAngularVersion records the framework version from the manifest.
func (g *KnowledgeGraph) SetAngularVersion(v string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.meta.AngularVersion = v
}

// Finalize freezes the metadata counts after the traversal pass. The
// graph must not be mutated afterward.
func (g *KnowledgeGraph) Finalize() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.meta.TotalEntities = len(g.entities)
	g.meta.TotalRelationships = len(g.relationships)
}

// Meta returns the run metadata.
func (g *KnowledgeGraph) Meta() Metadata {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.meta
}

// ResolveTarget maps a relationship target to a graph entity when one
// exists. Placeholder references resolve late: extraction records the
// structural fact, and only here does a name or file path get matched
// against the finished entity map.
func (g *KnowledgeGraph) ResolveTarget(ref TargetRef) (*Entity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch ref.Kind {
	case RefEntity:
		e, ok := g.entities[ref.Entity]
		return e, ok
	case RefInternalFile:
		for _, t := range []EntityType{TypeComponent, TypeService, TypeModule, TypeDirective, TypePipe, TypeConstant} {
			if e, ok := g.entities[EntityID(ref.Path, ref.Name, t)]; ok {
				return e, true
			}
		}
		return nil, false
	case RefUnresolved:
		// Last resort: a unique name match anywhere in the graph.
		var found *Entity
		for _, id := range g.order {
			e := g.entities[id]
			if e.Name != ref.Name {
				continue
			}
			if found != nil {
				return nil, false
			}
			found = e
		}
		return found, found != nil
	}
	return nil, false
}

// Validate checks referential integrity: every relationship source must
// name an entity present in the graph. Targets may be synthetic.
func (g *KnowledgeGraph) Validate() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.relationships {
		if _, ok := g.entities[r.Source]; !ok {
			return fmt.Errorf("relationship %s: source %q is not a graph entity", r.ID, r.Source)
		}
	}
	return nil
}
