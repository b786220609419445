// Package main is the biokgvec CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/biokgvec/internal/artifacts"
	"github.com/hyperjump/biokgvec/internal/config"
	"github.com/hyperjump/biokgvec/internal/metrics"
	"github.com/hyperjump/biokgvec/internal/query"
	"github.com/hyperjump/biokgvec/internal/registry"
	"github.com/hyperjump/biokgvec/internal/resolver"
	"github.com/hyperjump/biokgvec/internal/server"
	"github.com/hyperjump/biokgvec/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/biokgvec/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory so that "biokgvec server" from a project dir
// uses the project's config. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "similarity":
		runSimilarity()
	case "neighbors":
		runNeighbors()
	case "models":
		runModels()
	case "status":
		runStatus()
	case "convert":
		runConvert()
	case "fetch":
		runFetch()
	case "init":
		runInit()
	case "version", "--version", "-v":
		fmt.Printf("biokgvec version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// argsReorder moves any flags (and their values) that appear after the positional
// arguments to the front so that flag.Parse() sees them. Go's flag package stops at the
// first non-flag argument, so "biokgvec neighbors GO TransE GO_0000001 -top-n 5" would
// otherwise leave -top-n unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func mustLogger(debug bool) *zap.Logger {
	logger, err := utils.NewLogger(debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func mustConfig(path string) (*config.Config, string) {
	cfg, resolved, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg, resolved
}

// openRegistry loads the configured models directory. Load failures of individual files are
// logged and kept on the registry; only cancellation is returned as an error.
func openRegistry(ctx context.Context, cfg *config.Config, logger *zap.Logger, suggestions bool) (*registry.Registry, error) {
	return registry.Load(ctx, cfg.Models.Directory,
		registry.WithLogger(logger),
		registry.WithParallelism(cfg.Models.Parallelism),
		registry.WithSuggestions(suggestions),
	)
}

func syncArtifacts(ctx context.Context, cfg *config.Config, dir string, logger *zap.Logger) (*artifacts.Result, error) {
	if !cfg.Artifacts.Enabled() {
		return nil, errors.New("artifacts endpoint and bucket are not configured")
	}
	syncer, err := artifacts.New(artifacts.Config{
		Endpoint:        cfg.Artifacts.Endpoint,
		Bucket:          cfg.Artifacts.Bucket,
		Prefix:          cfg.Artifacts.Prefix,
		AccessKeyID:     cfg.Artifacts.AccessKeyID,
		SecretAccessKey: cfg.Artifacts.SecretAccessKey,
		UseSSL:          cfg.Artifacts.UseSSL,
	}, logger)
	if err != nil {
		return nil, err
	}
	return syncer.Sync(ctx, dir)
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath := mustConfig(*configPath)
	debugMode := cfg.Debug || *debug
	logger := mustLogger(debugMode)
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("models_directory", cfg.Models.Directory),
		zap.Bool("debug", debugMode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Artifacts.SyncOnStart && cfg.Artifacts.Enabled() {
		res, err := syncArtifacts(ctx, cfg, cfg.Models.Directory, logger)
		if err != nil {
			// A stale local copy still serves.
			logger.Error("artifact sync failed", zap.Error(err))
		} else {
			logger.Info("artifacts synced",
				zap.Int("downloaded", len(res.Downloaded)),
				zap.Int("unchanged", len(res.Unchanged)))
		}
	}

	reg, err := openRegistry(ctx, cfg, logger, cfg.Models.SuggestionsOrDefault())
	if err != nil {
		logger.Fatal("Failed to load models", zap.Error(err))
	}
	defer reg.Close()

	rec := metrics.New()
	rec.SetRegistry(reg)
	svc := query.NewService(reg, resolver.New(cfg.Namespaces()),
		query.WithLogger(logger),
		query.WithObserver(rec),
	)

	srv, err := server.NewServer(svc, cfg, logger, rec)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

func runFetch() {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dir := fs.String("dir", "", "destination directory (default: models.directory from config)")
	_ = fs.Parse(os.Args[2:])

	cfg, _ := mustConfig(*configPath)
	logger := mustLogger(cfg.Debug)
	defer logger.Sync()

	dest := *dir
	if dest == "" {
		dest = cfg.Models.Directory
	}
	res, err := syncArtifacts(context.Background(), cfg, dest, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fetch failed: %v\n", err)
		os.Exit(1)
	}
	for _, f := range res.Downloaded {
		fmt.Printf("downloaded  %s\n", f)
	}
	fmt.Printf("%d downloaded, %d unchanged -> %s\n", len(res.Downloaded), len(res.Unchanged), dest)
}

// writeDefaultConfig writes a config with every default filled in. It refuses to replace an
// existing file unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path to write")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*configPath, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *configPath)
}

func printUsage() {
	fmt.Print(`biokgvec - biomedical ontology embedding similarity service

Usage:
  biokgvec server [--config path] [--debug]
      Load every model in models.directory and serve the REST API and web pages.

  biokgvec similarity [flags] <ontology> <method> <id1> <id2>
      Cosine similarity of two concepts. ids are labels or prefixed ids (GO_0000001).

  biokgvec neighbors [flags] <ontology> <method> <id>
      The top-n most similar concepts (--top-n, default 10).

  biokgvec models [flags]
      List loaded vector tables and label dictionaries.

  biokgvec status [flags]
      Snapshot id, loaded entries, load errors and disk usage.

  biokgvec convert <input> <output>
      Re-encode an artifact. Output format follows the extension (.kvec, .sqlite, .db).

  biokgvec fetch [--dir path]
      Mirror model artifacts from the configured S3-compatible bucket.

  biokgvec init [--config path] [--force]
      Write a config file with defaults.

  biokgvec version
  biokgvec help

Query commands take --server URL (default http://localhost:8080). Pass --server "" to load
the models directory directly instead of calling a running server.
`)
}
