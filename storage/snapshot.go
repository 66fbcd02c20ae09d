// Package storage persists parse results in NATS KV: the latest graph
// snapshot per project plus a bounded run history.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/halcyon-dev/angraph/graph"
)

// Bucket names.
const (
	BucketGraphs = "ANGRAPH_GRAPHS"
	BucketRuns   = "ANGRAPH_RUNS"
)

// ErrNotFound is returned when no snapshot exists for a project.
var ErrNotFound = errors.New("not found")

// GraphSnapshot is the stored form of one finished graph.
type GraphSnapshot struct {
	Project        string                `json:"project"`
	RunID          string                `json:"runId"`
	AngularVersion string                `json:"angularVersion,omitempty"`
	CapturedAt     time.Time             `json:"capturedAt"`
	Entities       []*graph.Entity       `json:"entities"`
	Relationships  []*graph.Relationship `json:"relationships"`
}

// NewSnapshot captures a finalized graph for a project.
func NewSnapshot(project string, g *graph.KnowledgeGraph) *GraphSnapshot {
	meta := g.Meta()
	return &GraphSnapshot{
		Project:        project,
		RunID:          meta.RunID,
		AngularVersion: meta.AngularVersion,
		CapturedAt:     time.Now().UTC(),
		Entities:       g.EntitiesSorted(),
		Relationships:  g.Relationships(),
	}
}

// RunRecord summarizes one parse run for the history bucket.
type RunRecord struct {
	RunID         string        `json:"runId"`
	Project       string        `json:"project"`
	Entities      int           `json:"entities"`
	Relationships int           `json:"relationships"`
	Duration      time.Duration `json:"duration"`
	CapturedAt    time.Time     `json:"capturedAt"`
}

// Store provides snapshot storage backed by NATS KV.
type Store struct {
	graphs jetstream.KeyValue
	runs   jetstream.KeyValue
}

// NewStore creates a store, creating the KV buckets if needed.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	graphs, err := getOrCreateBucket(ctx, js, BucketGraphs)
	if err != nil {
		return nil, fmt.Errorf("create graphs bucket: %w", err)
	}
	runs, err := getOrCreateBucket(ctx, js, BucketRuns)
	if err != nil {
		return nil, fmt.Errorf("create runs bucket: %w", err)
	}
	return &Store{graphs: graphs, runs: runs}, nil
}

// PutSnapshot stores the latest snapshot for a project, replacing any
// previous one, and appends a run record.
func (s *Store) PutSnapshot(ctx context.Context, snap *GraphSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := s.graphs.Put(ctx, ProjectKey(snap.Project), data); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}

	record := RunRecord{
		RunID:         snap.RunID,
		Project:       snap.Project,
		Entities:      len(snap.Entities),
		Relationships: len(snap.Relationships),
		CapturedAt:    snap.CapturedAt,
	}
	recordData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal run record: %w", err)
	}
	if _, err := s.runs.Put(ctx, RunKey(snap.Project, snap.RunID), recordData); err != nil {
		return fmt.Errorf("put run record: %w", err)
	}
	return nil
}

// GetSnapshot loads the latest snapshot for a project.
func (s *Store) GetSnapshot(ctx context.Context, project string) (*GraphSnapshot, error) {
	entry, err := s.graphs.Get(ctx, ProjectKey(project))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap GraphSnapshot
	if err := json.Unmarshal(entry.Value(), &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// History lists run records for a project, most recent first.
func (s *Store) History(ctx context.Context, project string) ([]RunRecord, error) {
	lister, err := s.runs.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	prefix := ProjectKey(project) + "."
	var records []RunRecord
	for key := range lister.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		entry, err := s.runs.Get(ctx, key)
		if err != nil {
			continue
		}
		var record RunRecord
		if err := json.Unmarshal(entry.Value(), &record); err != nil {
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CapturedAt.After(records[j].CapturedAt)
	})
	return records, nil
}

// ProjectKey sanitizes a project path into a valid KV key segment.
func ProjectKey(project string) string {
	key := strings.Trim(project, "/")
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")
	key = replacer.Replace(key)
	if key == "" {
		key = "default"
	}
	return key
}

// RunKey builds the history key for one run.
func RunKey(project, runID string) string {
	return ProjectKey(project) + "." + runID
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: name})
}
