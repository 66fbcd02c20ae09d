// Package graph defines the knowledge graph built from one parse of an
// Angular project: entities, typed relationships, and the accumulator
// that visitors populate during traversal.
package graph

import "fmt"

// EntityType classifies a recognized framework construct.
type EntityType string

const (
	TypeComponent EntityType = "component"
	TypeService   EntityType = "service"
	TypeModule    EntityType = "module"
	TypeDirective EntityType = "directive"
	TypePipe      EntityType = "pipe"
	TypeConstant  EntityType = "constant"
)

// Location identifies where an entity was declared in source.
type Location struct {
	FilePath  string `json:"filePath"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// Entity is a structured record for one recognized framework construct.
// Type-specific fields are populated according to Type and omitted from
// JSON when empty.
type Entity struct {
	ID            string     `json:"id"`
	Type          EntityType `json:"type"`
	Name          string     `json:"name"`
	Location      Location   `json:"location"`
	Documentation string     `json:"documentation,omitempty"`
	Decorators    []string   `json:"decorators,omitempty"`
	Modifiers     []string   `json:"modifiers,omitempty"`

	// Component fields
	Selector        string   `json:"selector,omitempty"`
	Inputs          []string `json:"inputs,omitempty"`
	Outputs         []string `json:"outputs,omitempty"`
	Lifecycle       []string `json:"lifecycle,omitempty"`
	Standalone      bool     `json:"standalone,omitempty"`
	ChangeDetection string   `json:"changeDetection,omitempty"`

	// Service fields
	ProvidedIn   string   `json:"providedIn,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`

	// Module fields
	Declarations []string `json:"declarations,omitempty"`
	Imports      []string `json:"imports,omitempty"`
	Exports      []string `json:"exports,omitempty"`
	Providers    []string `json:"providers,omitempty"`

	// Pipe fields
	PipeName string `json:"pipeName,omitempty"`
	Pure     *bool  `json:"pure,omitempty"`
}

// EntityID builds the deterministic identifier for an entity. The same
// (filePath, name, type) triple always yields the same ID, so repeated
// parses of unchanged source produce identical graphs.
func EntityID(filePath, name string, t EntityType) string {
	return fmt.Sprintf("%s:%s:%s", t, filePath, name)
}

// NewEntity creates an entity with its deterministic ID.
func NewEntity(t EntityType, name string, loc Location) *Entity {
	return &Entity{
		ID:       EntityID(loc.FilePath, name, t),
		Type:     t,
		Name:     name,
		Location: loc,
	}
}
