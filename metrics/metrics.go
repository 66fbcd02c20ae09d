// Package metrics exposes pipeline instrumentation: parse throughput,
// extraction counts, and watch-mode rebuilds.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/parser"
)

var (
	filesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "angraph_files_parsed_total",
		Help: "Source files successfully parsed.",
	})
	filesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "angraph_files_failed_total",
		Help: "Source files skipped due to read or parse errors.",
	})
	entitiesExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "angraph_entities_extracted_total",
		Help: "Entities extracted, by entity type.",
	}, []string{"type"})
	parseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "angraph_parse_duration_seconds",
		Help:    "Wall time of full project parses.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})
	rebuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "angraph_rebuilds_total",
		Help: "Watch-mode rebuilds triggered by file changes.",
	})
	issuesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "angraph_issues_total",
		Help: "Non-fatal extraction issues, by severity.",
	}, []string{"severity"})
)

// ObserveParse records one completed parse run.
func ObserveParse(res *parser.Result) {
	filesParsed.Add(float64(res.Stats.FilesParsed))
	filesFailed.Add(float64(res.Stats.FilesFailed))
	parseDuration.Observe(res.Stats.Duration.Seconds())
	for _, e := range res.Graph.Entities() {
		entitiesExtracted.WithLabelValues(string(e.Type)).Inc()
	}
	for _, issue := range res.Issues {
		issuesRecorded.WithLabelValues(string(issue.Severity)).Inc()
	}
}

// ObserveRebuild records one watch-mode rebuild.
func ObserveRebuild() {
	rebuilds.Inc()
}

// EntityTypeCount reports per-type totals from a finished graph,
// useful for log summaries alongside the counters.
func EntityTypeCount(g *graph.KnowledgeGraph) map[graph.EntityType]int {
	out := map[graph.EntityType]int{}
	for _, e := range g.Entities() {
		out[e.Type]++
	}
	return out
}

// Serve exposes /metrics on addr until the context ends.
func Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
