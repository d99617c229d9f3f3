package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/netip"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/haukened/ai-rules/internal/rules/common/clock"
	"github.com/haukened/ai-rules/internal/rules/common/log"
	"github.com/haukened/ai-rules/internal/rules/common/utils"
	"github.com/haukened/ai-rules/internal/rules/config"
	"github.com/haukened/ai-rules/internal/rules/domain"
	"github.com/haukened/ai-rules/internal/rules/gateways/fetch"
	"github.com/haukened/ai-rules/internal/rules/infra/metrics"
	"github.com/haukened/ai-rules/internal/rules/repos/catalog"
	"github.com/haukened/ai-rules/internal/rules/repos/ruleset"
	"github.com/haukened/ai-rules/internal/rules/repos/ruleset/bloom"
	"github.com/haukened/ai-rules/internal/rules/repos/ruleset/bolt"
	"github.com/haukened/ai-rules/internal/rules/repos/ruleset/lru"
	"github.com/haukened/ai-rules/internal/rules/services/pipeline"
)

const (
	// Version information
	version = "0.1.0-dev"
	appName = "ai-rules"

	usage = `usage: ai-rules [command]

commands:
  fetch            pull every source and write the rule document
  generate [fmt]   render the rule document into the proxy tool files
                   (clash surge shadowrocket loon quantumult-x sing-box; default all)
  run              fetch, then generate (default)
  check host...    report whether each host is covered by the rule document
`
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrNoHosts        = errors.New("check needs at least one host")
)

// Application holds all the components of the rule generator
type Application struct {
	config   *config.AppConfig
	pipeline *pipeline.Pipeline
	store    ruleset.Store
	metrics  *metrics.Recorder
	clock    clock.Clock
	out      io.Writer
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	err = log.Configure(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.LogLevel,
		"catalog":    cfg.Catalog,
		"data_dir":   cfg.DataDir,
		"output_dir": cfg.OutputDir,
	}, "Starting "+appName)

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = app.Execute(ctx, os.Args[1:])
	stop()
	app.Close()
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Command failed")
	}
}

// buildApplication constructs all components and wires them together
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	client, err := fetch.NewClient(fetch.Options{
		Timeout:   cfg.FetchTimeout,
		MaxBytes:  cfg.FetchMaxBytes,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch client: %w", err)
	}

	store, err := openSnapshot(cfg.SnapshotDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	recorder := metrics.New()
	p, err := pipeline.New(pipeline.Options{
		Catalog:      cat,
		Fetcher:      client,
		Store:        store,
		Metrics:      recorder,
		Clock:        clk,
		Logger:       logger,
		DocumentPath: cfg.DocumentPath(),
		OutputDir:    cfg.OutputDir,
		CustomRules:  cfg.CustomRules,
		Collected:    cfg.Collected,
		TagOverride:  cfg.TagOverride,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	return &Application{
		config:   cfg,
		pipeline: p,
		store:    store,
		metrics:  recorder,
		clock:    clk,
		out:      os.Stdout,
	}, nil
}

// loadCatalog reads the configured catalog file or falls back to the
// built-in one.
func loadCatalog(cfg *config.AppConfig) (*catalog.Catalog, error) {
	if cfg.Catalog == "" {
		log.Info(map[string]any{"catalog": "builtin"}, "Source catalog configured")
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	log.Info(map[string]any{
		"catalog": cfg.Catalog,
		"sources": cat.SourceNames(),
	}, "Source catalog configured")
	return cat, nil
}

// openSnapshot opens the bbolt snapshot store; an empty path disables it.
func openSnapshot(path string) (ruleset.Store, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	store, err := bolt.New(path)
	if err != nil {
		return nil, err
	}
	log.Info(map[string]any{"path": path, "version": store.Stats().Version}, "Snapshot store opened")
	return store, nil
}

// Close releases the snapshot store.
func (app *Application) Close() {
	if app.store == nil {
		return
	}
	if err := app.store.Close(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error closing snapshot store")
	}
}

// Execute runs one command. An empty argument list runs "run".
func (app *Application) Execute(ctx context.Context, args []string) error {
	cmd := "run"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "fetch":
		_, err = app.pipeline.Fetch(ctx)
	case "generate":
		_, err = app.pipeline.Generate(args...)
	case "run":
		err = app.pipeline.Run(ctx)
	case "check":
		return app.check(args)
	case "help", "-h", "--help":
		_, err = io.WriteString(app.out, usage)
		return err
	default:
		_, _ = io.WriteString(app.out, usage)
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	if err != nil {
		return err
	}
	return app.recordRun()
}

// recordRun stamps the run time and writes the metrics textfile when one
// is configured.
func (app *Application) recordRun() error {
	app.metrics.MarkRun(app.clock.Now())
	if app.config.MetricsFile == "" {
		return nil
	}
	if err := app.metrics.WriteTextfile(app.config.MetricsFile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	log.Debug(map[string]any{"path": app.config.MetricsFile}, "Metrics written")
	return nil
}

// check loads the rule document into a matcher and prints one line per host.
func (app *Application) check(hosts []string) error {
	if len(hosts) == 0 {
		return ErrNoHosts
	}
	rules, err := app.checkRules()
	if err != nil {
		return err
	}

	store := app.store
	if store == nil {
		dir, err := os.MkdirTemp("", appName+"-check-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		store, err = bolt.New(filepath.Join(dir, "check.db"))
		if err != nil {
			return fmt.Errorf("failed to open scratch store: %w", err)
		}
		defer store.Close()
	}

	cache, err := lru.New(app.config.CheckCacheSize)
	if err != nil {
		return fmt.Errorf("failed to create decision cache: %w", err)
	}
	repo := ruleset.NewRepository(store, cache, bloom.NewFactory(), app.config.BloomFPRate)
	version := store.Stats().Version
	if version == 0 {
		version = 1
	}
	if err := repo.UpdateAll(rules, version, app.clock.Now().Unix()); err != nil {
		return fmt.Errorf("failed to load matcher: %w", err)
	}

	for _, host := range hosts {
		fmt.Fprintln(app.out, describe(host, repo.Decide(host)))
	}

	stats := repo.RepoStats()
	log.Debug(map[string]any{
		"hits":    stats.Hits,
		"misses":  stats.Misses,
		"domains": stats.Store.DomainKeys,
		"suffix":  stats.Store.SuffixKeys,
	}, "Check completed")
	return nil
}

// checkRules reads the rule document. When it is missing, the last snapshot
// written by fetch is used instead.
func (app *Application) checkRules() (domain.Rules, error) {
	data, err := os.ReadFile(app.config.DocumentPath())
	if err == nil {
		doc, err := domain.DecodeDocument(data)
		if err != nil {
			return domain.Rules{}, err
		}
		return doc.Rules, nil
	}
	if !errors.Is(err, fs.ErrNotExist) || app.store == nil || app.store.Stats().Version == 0 {
		return domain.Rules{}, fmt.Errorf("failed to read rule document: %w", err)
	}

	rules, lerr := app.store.Load()
	if lerr != nil {
		return domain.Rules{}, fmt.Errorf("failed to load snapshot: %w", lerr)
	}
	log.Info(map[string]any{
		"document": app.config.DocumentPath(),
		"version":  app.store.Stats().Version,
	}, "Rule document missing, checking against snapshot")
	return rules, nil
}

// describe formats one check result as "host<TAB>PROXY category rule" or
// "host<TAB>DIRECT" with the registrable domain as a hint for new rules.
func describe(host string, d domain.Decision) string {
	if d.Matched {
		return fmt.Sprintf("%s\tPROXY\t%s\t%s", host, d.Category, d.Rule)
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return fmt.Sprintf("%s\tDIRECT", host)
	}
	if apex := utils.RegistrableDomain(host); apex != "" {
		return fmt.Sprintf("%s\tDIRECT\t(suggest DOMAIN-SUFFIX,%s)", host, apex)
	}
	return fmt.Sprintf("%s\tDIRECT", host)
}
