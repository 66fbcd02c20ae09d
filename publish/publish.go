// Package publish streams parse results into a NATS-backed knowledge
// store as entity triples.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/halcyon-dev/angraph/chunk"
	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/vocabulary/angraph"
)

// GraphIngestSubject is the stream subject entity messages go to.
const GraphIngestSubject = "graph.ingest.entity"

// tripleSource tags every published triple with its producer.
const tripleSource = "angraph.parse"

// EntityIngestMessage is the ingest envelope: one entity's triples.
type EntityIngestMessage struct {
	ID        string           `json:"id"`
	Triples   []message.Triple `json:"triples"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Publisher writes graph entities to the ingest stream. A nil client
// degrades every publish to a no-op, so callers never need to branch on
// whether streaming is configured.
type Publisher struct {
	client *natsclient.Client
	logger *slog.Logger
}

// Connect dials NATS and returns a ready publisher.
func Connect(ctx context.Context, url string, logger *slog.Logger) (*Publisher, error) {
	client, err := natsclient.NewClient(url,
		natsclient.WithName("angraph"),
		natsclient.WithMaxReconnects(5),
		natsclient.WithReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create nats client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForConnection(waitCtx); err != nil {
		return nil, fmt.Errorf("nats connection timeout: %w", err)
	}
	return New(client, logger), nil
}

// New wraps an existing client. Pass nil to disable publishing.
func New(client *natsclient.Client, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, logger: logger}
}

// Close releases the underlying connection.
func (p *Publisher) Close() {
	if p != nil && p.client != nil {
		p.client.Close(context.Background())
	}
}

// JetStream exposes the connection's JetStream context, used by the
// snapshot store.
func (p *Publisher) JetStream() (jetstream.JetStream, error) {
	if p == nil || p.client == nil {
		return nil, errors.New("publishing disabled, no nats client")
	}
	return p.client.JetStream()
}

// PublishGraph publishes every entity in the graph, one ingest message
// each, relationships attached to their source entity, followed by one
// run-summary message.
func (p *Publisher) PublishGraph(ctx context.Context, project string, g *graph.KnowledgeGraph) error {
	if p == nil || p.client == nil {
		return nil
	}

	bySource := map[string][]*graph.Relationship{}
	for _, rel := range g.Relationships() {
		bySource[rel.Source] = append(bySource[rel.Source], rel)
	}

	published := 0
	for _, e := range g.EntitiesSorted() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.publishEntity(ctx, e, bySource[e.ID]); err != nil {
			return fmt.Errorf("publish entity %s: %w", e.ID, err)
		}
		published++
	}

	if err := p.publishRun(ctx, project, g.Meta()); err != nil {
		return fmt.Errorf("publish run summary: %w", err)
	}

	p.logger.Info("graph published", "subject", GraphIngestSubject, "entities", published)
	return nil
}

func (p *Publisher) publishRun(ctx context.Context, project string, meta graph.Metadata) error {
	now := time.Now()
	msg := EntityIngestMessage{
		ID:        "run:" + meta.RunID,
		Triples:   runTriples(project, meta, now),
		UpdatedAt: now,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal run message: %w", err)
	}
	return p.client.PublishToStream(ctx, GraphIngestSubject, data)
}

func (p *Publisher) publishEntity(ctx context.Context, e *graph.Entity, rels []*graph.Relationship) error {
	now := time.Now()
	msg := EntityIngestMessage{ID: e.ID, Triples: entityTriples(e, rels, now), UpdatedAt: now}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal ingest message: %w", err)
	}
	return p.client.PublishToStream(ctx, GraphIngestSubject, data)
}

// entityTriples renders one entity and its outgoing edges as triples.
func entityTriples(e *graph.Entity, rels []*graph.Relationship, now time.Time) []message.Triple {
	triple := func(predicate string, object any) message.Triple {
		return message.Triple{
			Subject:    e.ID,
			Predicate:  predicate,
			Object:     object,
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		}
	}

	triples := []message.Triple{
		triple(angraph.EntityType, string(e.Type)),
		triple(angraph.EntityName, e.Name),
		triple(angraph.EntityFile, e.Location.FilePath),
		triple(angraph.EntityFeature, chunk.FeatureKey(e.Location.FilePath)),
	}
	if e.Selector != "" {
		triples = append(triples, triple(angraph.EntitySelector, e.Selector))
	}
	if e.ProvidedIn != "" {
		triples = append(triples, triple(angraph.EntityProvidedIn, e.ProvidedIn))
	}
	if e.PipeName != "" {
		triples = append(triples, triple(angraph.EntityPipeName, e.PipeName))
	}
	if e.Standalone {
		triples = append(triples, triple(angraph.EntityStandalone, true))
	}
	if e.Documentation != "" {
		triples = append(triples, triple(angraph.EntityDoc, e.Documentation))
	}
	for _, rel := range rels {
		triples = append(triples, triple(relPredicate(rel.Type), rel.Target.ID()))
	}
	return triples
}

// runTriples summarizes one parse run.
func runTriples(project string, meta graph.Metadata, now time.Time) []message.Triple {
	subject := "run:" + meta.RunID
	triple := func(predicate string, object any) message.Triple {
		return message.Triple{
			Subject:    subject,
			Predicate:  predicate,
			Object:     object,
			Source:     tripleSource,
			Timestamp:  now,
			Confidence: 1.0,
		}
	}

	triples := []message.Triple{
		triple(angraph.RunProject, project),
		triple(angraph.RunEntityCount, meta.TotalEntities),
		triple(angraph.RunRelationshipCount, meta.TotalRelationships),
	}
	if meta.AngularVersion != "" {
		triples = append(triples, triple(angraph.RunAngularVersion, meta.AngularVersion))
	}
	return triples
}

func relPredicate(t graph.RelationshipType) string {
	switch t {
	case graph.RelInjects:
		return angraph.RelInjects
	case graph.RelDeclares:
		return angraph.RelDeclares
	case graph.RelImports:
		return angraph.RelImports
	case graph.RelExports:
		return angraph.RelExports
	case graph.RelProvides:
		return angraph.RelProvides
	case graph.RelBootstraps:
		return angraph.RelBootstraps
	}
	return "angraph.rel." + string(t)
}
