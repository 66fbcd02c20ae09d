// Package main provides the angraph binary entry point.
// Angraph parses framework-annotated TypeScript projects into a typed
// knowledge graph and renders it as token-bounded documentation chunks.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/halcyon-dev/angraph/chunk"
	"github.com/halcyon-dev/angraph/config"
	"github.com/halcyon-dev/angraph/gitmeta"
	"github.com/halcyon-dev/angraph/graph"
	"github.com/halcyon-dev/angraph/metrics"
	"github.com/halcyon-dev/angraph/output"
	"github.com/halcyon-dev/angraph/parser"
	"github.com/halcyon-dev/angraph/publish"
	"github.com/halcyon-dev/angraph/storage"
	"github.com/halcyon-dev/angraph/watch"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "angraph"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flags shared by the pipeline subcommands.
type options struct {
	configPath string
	project    string
	outDir     string
	detail     string
	natsURL    string
	logLevel   string
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Knowledge graph and documentation generator for Angular projects",
		Long: `Angraph turns an Angular/TypeScript source tree into a typed
knowledge graph of components, services, modules, directives, and
pipes, then partitions the graph into token-bounded, cross-linked
documentation chunks.

Import specifiers are classified against tsconfig path aliases,
node_modules, and the dependency manifest; the graph can optionally be
streamed to a NATS-backed knowledge store as entity triples.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVarP(&opts.project, "project", "p", "", "Project root to parse")
	cmd.PersistentFlags().StringVarP(&opts.outDir, "out", "o", "", "Artifact output directory")
	cmd.PersistentFlags().StringVar(&opts.detail, "detail", "", "Chunk detail level (overview, features, detailed, complete)")
	cmd.PersistentFlags().StringVar(&opts.natsURL, "nats", "", "NATS URL for graph streaming")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(parseCmd(opts))
	cmd.AddCommand(docsCmd(opts))
	cmd.AddCommand(watchCmd(opts))
	cmd.AddCommand(historyCmd(opts))
	cmd.AddCommand(initCmd(opts))
	cmd.AddCommand(versionCmd())
	return cmd
}

func historyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List stored parse runs for the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			if cfg.NATS.URL == "" {
				return fmt.Errorf("history requires nats.url (or --nats)")
			}
			ctx, stop := signalContext()
			defer stop()

			pub, err := publish.Connect(ctx, cfg.NATS.URL, logger)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pub.Close()

			js, err := pub.JetStream()
			if err != nil {
				return err
			}
			store, err := storage.NewStore(ctx, js)
			if err != nil {
				return err
			}

			snap, err := store.GetSnapshot(ctx, cfg.Project.Path)
			switch {
			case err == nil:
				fmt.Printf("latest: run %s, %d entities, %d relationships (captured %s)\n",
					snap.RunID, len(snap.Entities), len(snap.Relationships),
					snap.CapturedAt.Format(time.RFC3339))
			case errors.Is(err, storage.ErrNotFound):
				fmt.Println("no snapshot stored for this project")
			default:
				return err
			}

			records, err := store.History(ctx, cfg.Project.Path)
			if err != nil {
				return err
			}
			for _, r := range records {
				fmt.Printf("%s  %s  entities=%d relationships=%d\n",
					r.CapturedAt.Format(time.RFC3339), r.RunID, r.Entities, r.Relationships)
			}
			return nil
		},
	}
}

func initCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default user configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.NewLoader(newLogger(opts.logLevel)).EnsureUserConfig()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s (built %s)\n", appName, Version, BuildTime)
		},
	}
}

func parseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse",
		Short: "Parse the project and write the knowledge graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			res, err := runParse(ctx, cfg, logger)
			if err != nil {
				return err
			}

			w := output.NewWriter(cfg.Output.Dir, logger)
			if _, err := w.WriteGraph(res.Graph); err != nil {
				return err
			}
			return publishGraph(ctx, cfg, res, logger)
		},
	}
}

func docsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Parse the project and write documentation chunks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			res, err := runParse(ctx, cfg, logger)
			if err != nil {
				return err
			}

			w := output.NewWriter(cfg.Output.Dir, logger)
			if _, err := w.WriteGraph(res.Graph); err != nil {
				return err
			}
			if err := writeDocs(cfg, res, w, logger); err != nil {
				return err
			}
			return publishGraph(ctx, cfg, res, logger)
		},
	}
}

func watchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the graph and chunks whenever sources change",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			if cfg.Metrics.Addr != "" {
				go func() {
					if err := metrics.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
						logger.Error("metrics server failed", "error", err)
					}
				}()
			}

			w := output.NewWriter(cfg.Output.Dir, logger)

			// Initial build before entering the loop.
			res, err := runParse(ctx, cfg, logger)
			if err != nil {
				return err
			}
			if _, err := w.WriteGraph(res.Graph); err != nil {
				return err
			}
			if err := writeDocs(cfg, res, w, logger); err != nil {
				return err
			}
			if err := publishGraph(ctx, cfg, res, logger); err != nil {
				logger.Error("publish failed", "error", err)
			}

			watcher, err := watch.NewWatcher(watch.Config{
				Root:          cfg.Project.Path,
				Parse:         parseOptions(cfg, logger),
				DebounceDelay: cfg.Watch.Debounce,
				Logger:        logger,
			})
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			if err := watcher.Start(ctx); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("shutting down")
					return watcher.Stop()
				case ev, ok := <-watcher.Events():
					if !ok {
						return watcher.Stop()
					}
					if ev.Err != nil {
						logger.Error("rebuild failed", "error", ev.Err)
						continue
					}
					metrics.ObserveRebuild()
					metrics.ObserveParse(ev.Result)
					if _, err := w.WriteGraph(ev.Result.Graph); err != nil {
						logger.Error("write graph failed", "error", err)
						continue
					}
					if err := writeDocs(cfg, ev.Result, w, logger); err != nil {
						logger.Error("write docs failed", "error", err)
					}
					if err := publishGraph(ctx, cfg, ev.Result, logger); err != nil {
						logger.Error("publish failed", "error", err)
					}
				}
			}
		},
	}
}

// setup merges layered config with command-line overrides and installs
// the process logger.
func setup(opts *options) (*config.Config, *slog.Logger, error) {
	logger := newLogger(opts.logLevel)
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.NewLoader(logger).Load()
	}
	if err != nil {
		return nil, nil, err
	}

	if opts.project != "" {
		cfg.Project.Path = opts.project
	}
	if opts.outDir != "" {
		cfg.Output.Dir = opts.outDir
	}
	if opts.detail != "" {
		cfg.Chunks.Detail = opts.detail
	}
	if opts.natsURL != "" {
		cfg.NATS.URL = opts.natsURL
	}
	if cfg.Project.Path == "" {
		cfg.Project.Path = "."
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func parseOptions(cfg *config.Config, logger *slog.Logger) parser.Options {
	return parser.Options{
		Root: cfg.Project.Path,
		Scan: parser.ScanOptions{
			Includes:     cfg.Scan.Include,
			Excludes:     cfg.Scan.Exclude,
			IncludeSpecs: cfg.Scan.Specs,
		},
		Workers:  cfg.Project.Workers,
		Decorate: sourceLinker(cfg.Project.Path, logger),
		Logger:   logger,
	}
}

// sourceLinker stamps entity source links when the project is a git
// checkout. Runs as the parser's pre-finalize decoration step.
func sourceLinker(root string, logger *slog.Logger) func(*graph.KnowledgeGraph) {
	return func(g *graph.KnowledgeGraph) {
		repo, err := gitmeta.Detect(root)
		if err != nil {
			logger.Warn("git metadata unavailable", "error", err)
			return
		}
		repo.Annotate(g)
	}
}

func runParse(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*parser.Result, error) {
	start := time.Now()
	res, err := parser.ParseProject(ctx, parseOptions(cfg, logger))
	if err != nil {
		return nil, err
	}
	metrics.ObserveParse(res)

	for _, issue := range res.Issues {
		logger.Warn("issue", "severity", issue.Severity, "file", issue.File, "message", issue.Message)
	}
	logger.Info("pipeline parse done",
		"entities", res.Stats.Entities,
		"relationships", res.Stats.Relationships,
		"byType", metrics.EntityTypeCount(res.Graph),
		"elapsed", time.Since(start))
	return res, nil
}

func writeDocs(cfg *config.Config, res *parser.Result, w *output.Writer, logger *slog.Logger) error {
	chunks, manifest, err := chunk.Build(res.Graph, chunk.Options{
		Project:   projectName(cfg.Project.Path),
		Detail:    chunk.DetailLevel(cfg.Chunks.Detail),
		MaxTokens: cfg.Chunks.MaxTokens,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("build chunks: %w", err)
	}
	return w.WriteChunks(chunks, manifest)
}

// projectName derives the manifest's project name from the root path.
func projectName(root string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return filepath.Base(root)
}

func publishGraph(ctx context.Context, cfg *config.Config, res *parser.Result, logger *slog.Logger) error {
	if cfg.NATS.URL == "" {
		return nil
	}
	pub, err := publish.Connect(ctx, cfg.NATS.URL, logger)
	if err != nil {
		return fmt.Errorf("connect publisher: %w", err)
	}
	defer pub.Close()

	if err := pub.PublishGraph(ctx, cfg.Project.Path, res.Graph); err != nil {
		return err
	}

	// Snapshot storage rides on the same connection; losing it costs
	// history, not the publish.
	js, err := pub.JetStream()
	if err != nil {
		return nil
	}
	store, err := storage.NewStore(ctx, js)
	if err != nil {
		logger.Warn("snapshot store unavailable", "error", err)
		return nil
	}
	if err := store.PutSnapshot(ctx, storage.NewSnapshot(cfg.Project.Path, res.Graph)); err != nil {
		logger.Warn("snapshot store failed", "error", err)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
