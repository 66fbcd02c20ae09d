// Package output persists parse results: the graph as JSON, chunks as
// markdown files, and the chunk manifest.
package output

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/halcyon-dev/angraph/chunk"
	"github.com/halcyon-dev/angraph/graph"
)

// Writer persists artifacts under one base directory.
type Writer struct {
	baseDir string
	logger  *slog.Logger
}

// NewWriter creates a writer rooted at baseDir. The directory is
// created on first write.
func NewWriter(baseDir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{baseDir: baseDir, logger: logger}
}

// graphDocument is the serialized graph file layout.
type graphDocument struct {
	Metadata      graph.Metadata        `json:"metadata"`
	Entities      []*graph.Entity       `json:"entities"`
	Relationships []*graph.Relationship `json:"relationships"`
}

// WriteGraph writes the knowledge graph to graph.json. Entities and
// relationships are ordered by ID so an unchanged project serializes
// the same way regardless of worker completion order.
func (w *Writer) WriteGraph(g *graph.KnowledgeGraph) (string, error) {
	doc := graphDocument{
		Metadata:      g.Meta(),
		Entities:      g.EntitiesSorted(),
		Relationships: g.RelationshipsSorted(),
	}
	path := filepath.Join(w.baseDir, "graph.json")
	if err := w.writeJSON(path, doc); err != nil {
		return "", err
	}
	w.logger.Info("graph written", "path", path, "entities", len(doc.Entities))
	return path, nil
}

// WriteChunks writes one markdown file per chunk plus manifest.json
// under <base>/chunks.
func (w *Writer) WriteChunks(chunks []*chunk.Chunk, manifest *chunk.Manifest) error {
	dir := filepath.Join(w.baseDir, "chunks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chunk dir: %w", err)
	}

	for _, c := range chunks {
		path := filepath.Join(dir, c.ID+".md")
		if err := atomicWrite(path, []byte(c.Content)); err != nil {
			return fmt.Errorf("write chunk %s: %w", c.ID, err)
		}
	}
	if err := w.writeJSON(filepath.Join(dir, "manifest.json"), manifest); err != nil {
		return err
	}

	w.logger.Info("chunks written", "dir", dir, "chunks", len(chunks), "tokens", manifest.TotalTokens)
	return nil
}

func (w *Writer) writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return atomicWrite(path, append(data, '\n'))
}

// atomicWrite writes through a temp file and renames, so a crashed run
// never leaves a half-written artifact behind.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
