package chunk

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/halcyon-dev/angraph/graph"
)

// DefaultMaxTokens bounds one chunk's estimated size.
const DefaultMaxTokens = 4000

// Options configures chunk generation.
type Options struct {
	// Project names the parsed project in the manifest.
	Project string

	// Detail selects the rendering level. Defaults to detailed.
	Detail DetailLevel

	// MaxTokens is the per-chunk budget. An oversized feature is kept
	// whole and reported, never split mid-feature.
	MaxTokens int

	Logger *slog.Logger
}

// Build partitions the graph into one chunk per feature plus the
// manifest. Features are emitted in sorted order, so chunk IDs are
// stable across runs of the same graph. An empty graph yields no
// chunks and an empty manifest.
func Build(g *graph.KnowledgeGraph, opts Options) ([]*Chunk, *Manifest, error) {
	level := opts.Detail
	if level == "" {
		level = DetailDetailed
	}
	if !level.Valid() {
		return nil, nil, fmt.Errorf("unknown detail level %q", opts.Detail)
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Entity insertion order follows worker completion order, so every
	// feature group is sorted by ID before rendering. The same graph must
	// produce the same chunk bytes run over run.
	byFeature := map[string][]*graph.Entity{}
	for _, e := range g.Entities() {
		key := FeatureKey(e.Location.FilePath)
		byFeature[key] = append(byFeature[key], e)
	}
	for _, entities := range byFeature {
		sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
	}

	features := make([]string, 0, len(byFeature))
	for key := range byFeature {
		features = append(features, key)
	}
	sort.Strings(features)

	rels := g.RelationshipsSorted()
	r := newRenderer(level)

	chunks := make([]*Chunk, 0, len(features))
	chunkByFeature := map[string]*Chunk{}
	for i, feature := range features {
		entities := byFeature[feature]
		content := r.feature(feature, entities, rels)

		c := &Chunk{
			ID:      chunkID(i + 1),
			Feature: feature,
			Title:   fmt.Sprintf("Feature: %s", feature),
			Content: content,
			Tokens:  EstimateTokens(content),
		}
		for _, e := range entities {
			c.Entities = append(c.Entities, e.ID)
		}
		if c.Tokens > maxTokens {
			logger.Warn("chunk exceeds token budget",
				"chunk", c.ID, "feature", feature, "tokens", c.Tokens, "budget", maxTokens)
		}
		chunks = append(chunks, c)
		chunkByFeature[feature] = c
	}

	linkChunks(g, rels, chunks, chunkByFeature)

	manifest := &Manifest{
		ProjectName:   opts.Project,
		GeneratedAt:   time.Now().UTC(),
		RunID:         g.Meta().RunID,
		DetailLevel:   level,
		TotalEntities: g.Meta().TotalEntities,
		TotalChunks:   len(chunks),
		Chunks:        make([]ManifestEntry, 0, len(chunks)),
	}
	for _, c := range chunks {
		manifest.TotalTokens += c.Tokens
		manifest.Chunks = append(manifest.Chunks, ManifestEntry{
			ID:            c.ID,
			Feature:       c.Feature,
			Title:         c.Title,
			Tokens:        c.Tokens,
			Entities:      c.Entities,
			RelatedChunks: c.RelatedChunks,
		})
	}
	return chunks, manifest, nil
}

// linkChunks records cross-feature references: a relationship whose
// source and resolved target live in different features links the
// source's chunk to the target's. Links are deduplicated, sorted, and
// never self-referential.
func linkChunks(g *graph.KnowledgeGraph, rels []*graph.Relationship, chunks []*Chunk, byFeature map[string]*Chunk) {
	related := map[string]map[string]bool{}

	for _, rel := range rels {
		source, ok := g.Entity(rel.Source)
		if !ok {
			continue
		}
		target, ok := g.ResolveTarget(rel.Target)
		if !ok {
			continue
		}

		from := FeatureKey(source.Location.FilePath)
		to := FeatureKey(target.Location.FilePath)
		if from == to {
			continue
		}
		fromChunk, toChunk := byFeature[from], byFeature[to]
		if fromChunk == nil || toChunk == nil {
			continue
		}
		if related[fromChunk.ID] == nil {
			related[fromChunk.ID] = map[string]bool{}
		}
		related[fromChunk.ID][toChunk.ID] = true
	}

	for _, c := range chunks {
		ids := make([]string, 0, len(related[c.ID]))
		for id := range related[c.ID] {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		c.RelatedChunks = ids
	}
}
