// Package parser orchestrates a full project parse: file discovery,
// bounded-concurrency extraction, and graph finalization.
package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/halcyon-dev/angraph/extract"
	"github.com/halcyon-dev/angraph/frontend"
	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/resolver"
	"github.com/halcyon-dev/angraph/visitor"
)

// Options configures one project parse.
type Options struct {
	// Root is the project directory. Must exist.
	Root string

	Scan ScanOptions

	// Workers bounds per-file parallelism; 0 means GOMAXPROCS.
	Workers int

	// Registry supplies the visitors. Nil installs the built-in
	// extractors.
	Registry *visitor.Registry

	// Decorate runs over the populated graph before it is finalized.
	// Finalize freezes the graph, so presentation metadata such as
	// source links must be stamped here.
	Decorate func(*graph.KnowledgeGraph)

	Logger *slog.Logger
}

// Stats summarizes one parse run.
type Stats struct {
	FilesScanned  int           `json:"filesScanned"`
	FilesParsed   int           `json:"filesParsed"`
	FilesFailed   int           `json:"filesFailed"`
	Entities      int           `json:"entities"`
	Relationships int           `json:"relationships"`
	Duration      time.Duration `json:"duration"`
}

// Result is the output of one project parse.
type Result struct {
	Graph          *graph.KnowledgeGraph
	VisitorResults map[string]any
	Issues         []visitor.Issue
	Stats          Stats
}

// ParseProject runs the full pipeline over one project tree. The
// project root and its configuration files must be readable; individual
// source files that fail to parse are recorded as issues and skipped.
func ParseProject(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", root)
	}

	res, manifest, err := projectResolver(root, logger)
	if err != nil {
		return nil, err
	}

	files, err := Scan(root, opts.Scan)
	if err != nil {
		return nil, err
	}
	logger.Info("project scanned", "root", root, "files", len(files))

	reg := opts.Registry
	if reg == nil {
		reg = visitor.NewRegistry()
		extract.Register(reg)
	}
	reg.Reset()

	g := graph.New()
	issues := &visitor.IssueLog{}
	baseCtx := visitor.NewContext(g, res, issues, logger)
	baseCtx.Root = root

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := frontend.NewParser(root)
	var failed atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, path := range files {
		group.Go(func() error {
			// Cancellation wins over starting another file.
			if err := groupCtx.Err(); err != nil {
				return err
			}

			file, err := p.ParseFile(groupCtx, path)
			if err != nil {
				issues.Add(visitor.Issue{
					Severity: visitor.SeverityError,
					File:     relOf(root, path),
					Message:  err.Error(),
				})
				logger.Warn("file skipped", "file", path, "error", err)
				failed.Add(1)
				return nil
			}
			defer file.Close()

			reg.TraverseFile(file, baseCtx)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("parse interrupted: %w", err)
	}

	g.SetRunID(uuid.NewString())
	if v := manifest.AngularVersion(); v != "" {
		g.SetAngularVersion(v)
	}
	if opts.Decorate != nil {
		opts.Decorate(g)
	}
	g.Finalize()

	entities, relationships := g.Len()
	result := &Result{
		Graph:          g,
		VisitorResults: reg.Results(),
		Issues:         issues.Issues(),
		Stats: Stats{
			FilesScanned:  len(files),
			FilesParsed:   len(files) - int(failed.Load()),
			FilesFailed:   int(failed.Load()),
			Entities:      entities,
			Relationships: relationships,
			Duration:      time.Since(start),
		},
	}
	logger.Info("parse complete",
		"entities", entities,
		"relationships", relationships,
		"failed", failed.Load(),
		"duration", result.Stats.Duration,
	)
	return result, nil
}

// projectResolver loads the optional tsconfig.json and package.json
// next to the project root. A missing file skips its strategy; an
// unreadable one is fatal, because silently ignoring a present config
// misclassifies every aliased import.
func projectResolver(root string, logger *slog.Logger) (*resolver.Resolver, *resolver.Manifest, error) {
	var tsconfig *resolver.TSConfig
	tsPath := filepath.Join(root, "tsconfig.json")
	if _, err := os.Stat(tsPath); err == nil {
		tsconfig, err = resolver.LoadTSConfig(tsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load tsconfig: %w", err)
		}
	}

	var manifest *resolver.Manifest
	pkgPath := filepath.Join(root, "package.json")
	if _, err := os.Stat(pkgPath); err == nil {
		manifest, err = resolver.LoadManifest(pkgPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load package.json: %w", err)
		}
	}

	if tsconfig == nil {
		logger.Debug("no tsconfig.json, path aliases disabled")
	}
	if manifest == nil {
		logger.Debug("no package.json, manifest fallback disabled")
	}
	return resolver.New(root, tsconfig, manifest), manifest, nil
}

func relOf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
