// Package chunk partitions a knowledge graph into token-bounded,
// cross-linked documentation chunks. One chunk covers one feature; the
// configured detail level decides how much of each entity is rendered.
package chunk

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DetailLevel selects how much content each chunk carries. Levels are
// strictly ordered: everything a level renders, the next level renders
// too.
type DetailLevel string

const (
	DetailOverview DetailLevel = "overview"
	DetailFeatures DetailLevel = "features"
	DetailDetailed DetailLevel = "detailed"
	DetailComplete DetailLevel = "complete"
)

// Rank orders detail levels; unknown levels rank below overview.
func (d DetailLevel) Rank() int {
	switch d {
	case DetailOverview:
		return 1
	case DetailFeatures:
		return 2
	case DetailDetailed:
		return 3
	case DetailComplete:
		return 4
	}
	return 0
}

// Valid reports whether d names a known level.
func (d DetailLevel) Valid() bool { return d.Rank() > 0 }

// Chunk is one documentation unit covering a single feature.
type Chunk struct {
	ID            string   `json:"id"`
	Feature       string   `json:"feature"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Tokens        int      `json:"tokens"`
	Entities      []string `json:"entities"`
	RelatedChunks []string `json:"relatedChunks,omitempty"`
}

// ManifestEntry mirrors one chunk in the manifest, minus the content.
type ManifestEntry struct {
	ID            string   `json:"id"`
	Feature       string   `json:"feature"`
	Title         string   `json:"title"`
	Tokens        int      `json:"tokens"`
	Entities      []string `json:"entities"`
	RelatedChunks []string `json:"relatedChunks,omitempty"`
}

// Manifest indexes a chunk set.
type Manifest struct {
	ProjectName   string          `json:"projectName,omitempty"`
	GeneratedAt   time.Time       `json:"generatedAt"`
	RunID         string          `json:"runId,omitempty"`
	DetailLevel   DetailLevel     `json:"detailLevel"`
	TotalEntities int             `json:"totalEntities"`
	TotalChunks   int             `json:"totalChunks"`
	TotalTokens   int             `json:"totalTokens"`
	Chunks        []ManifestEntry `json:"chunks"`
}

// FeatureKey derives the feature grouping key from a root-relative
// file path: the first segment under src/app, or "core" for anything
// outside that layout (root files, src/ files, flat src/app files).
func FeatureKey(filePath string) string {
	parts := strings.Split(strings.TrimPrefix(filePath, "./"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "src" && parts[i+1] == "app" {
			// A file directly under src/app has no feature directory.
			if i+3 >= len(parts) {
				return "core"
			}
			return parts[i+2]
		}
	}
	return "core"
}

// EstimateTokens approximates the token count of rendered content at
// four characters per token.
func EstimateTokens(content string) int {
	return int(math.Round(float64(len(content)) * 0.25))
}

// chunkID renders the sequential chunk identifier.
func chunkID(n int) string {
	return fmt.Sprintf("chunk-%03d", n)
}
