// Package angraph defines the graph vocabulary: the predicate names
// used when entities and relationships are published as triples.
package angraph

// Entity predicates describe one extracted entity.
const (
	// EntityType is the entity kind (component, service, module, ...).
	EntityType = "angraph.entity.type"

	// EntityName is the declared class or constant name.
	EntityName = "angraph.entity.name"

	// EntityFile is the root-relative source file path.
	EntityFile = "angraph.entity.file"

	// EntityFeature is the feature grouping key.
	EntityFeature = "angraph.entity.feature"

	// EntitySelector is the component or directive selector.
	EntitySelector = "angraph.entity.selector"

	// EntityProvidedIn is the service's registration scope.
	EntityProvidedIn = "angraph.entity.provided_in"

	// EntityPipeName is the pipe's template name.
	EntityPipeName = "angraph.entity.pipe_name"

	// EntityStandalone marks standalone components and directives.
	EntityStandalone = "angraph.entity.standalone"

	// EntityDoc is the extracted documentation comment.
	EntityDoc = "angraph.entity.doc"
)

// Relationship predicates, one per edge type.
const (
	RelInjects    = "angraph.rel.injects"
	RelDeclares   = "angraph.rel.declares"
	RelImports    = "angraph.rel.imports"
	RelExports    = "angraph.rel.exports"
	RelProvides   = "angraph.rel.provides"
	RelBootstraps = "angraph.rel.bootstraps"
)

// Run predicates describe one parse run.
const (
	// RunProject is the parsed project root.
	RunProject = "angraph.run.project"

	// RunAngularVersion is the framework version from the manifest.
	RunAngularVersion = "angraph.run.angular_version"

	// RunEntityCount is the total entity count.
	RunEntityCount = "angraph.run.entity_count"

	// RunRelationshipCount is the total relationship count.
	RunRelationshipCount = "angraph.run.relationship_count"
)
