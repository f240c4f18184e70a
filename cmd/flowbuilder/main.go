// Package main implements the flowbuilder command. It assembles the sample
// workflow through an editor session, runs the configuration test and save
// gates against local collaborators, and prints a JSON report.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/c360/flowbuilder/config"
	"github.com/c360/flowbuilder/editor"
	"github.com/c360/flowbuilder/metric"
	"github.com/c360/flowbuilder/nodetype"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "flowbuilder"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli, fs, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	if err := validateFlags(cli); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cli.ShowVersion {
		_, _ = fmt.Fprintf(stdout, "%s version %s\n", appName, Version)
		return nil
	}
	if cli.ShowHelp {
		printDetailedHelp(fs, stderr)
		return nil
	}

	cfg, err := loadConfiguration(cli)
	if err != nil {
		return err
	}

	logger := setupLogger(stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	logger.Info("Starting flowbuilder",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cli.ConfigPath)

	catalog, err := loadCatalog(cfg, logger)
	if err != nil {
		return err
	}

	if cli.Validate {
		logger.Info("Configuration is valid", "node_types", catalog.Len())
		return nil
	}
	if cli.ExportPath != "" {
		return exportCatalog(cli.ExportPath, stdout, cfg.Version, catalog)
	}

	tp, shutdownTracing, err := setupTracing(cli.Trace, stderr)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Trace flush failed", "error", err)
		}
	}()

	registry := metric.NewMetricsRegistry(false)
	session := editor.NewSession(catalog,
		editor.WithTracerProvider(tp),
		editor.WithConfig(cfg),
		editor.WithMetrics(registry.CoreMetrics()),
		editor.WithLogger(logger),
		editor.WithTester(previewTester{}),
		editor.WithSaver(&snapshotWriter{path: cli.SavePath, stdout: stdout}),
	)

	ids, err := buildSampleWorkflow(session)
	if err != nil {
		return fmt.Errorf("build sample workflow: %w", err)
	}

	rep := exercise(ctx, session, ids)
	if cli.Metrics {
		if rep.Metrics, err = registry.Snapshot(); err != nil {
			return fmt.Errorf("metrics snapshot: %w", err)
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// loadConfiguration layers the config file over defaults, then applies flag
// overrides on top of the environment.
func loadConfiguration(cli *CLIConfig) (*config.Config, error) {
	loader := config.NewLoader()
	if cli.ConfigPath != "" {
		loader.AddLayer(cli.ConfigPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.Log.Format = cli.LogFormat
	}
	if cli.CatalogPath != "" {
		cfg.Catalog.Path = cli.CatalogPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadCatalog starts from the built-in types unless the config replaces them.
// Types in the catalog file override built-ins with the same id.
func loadCatalog(cfg *config.Config, logger *slog.Logger) (*nodetype.Registry, error) {
	registry := nodetype.Builtin()
	if cfg.Catalog.ReplaceBuiltin {
		registry = nodetype.NewRegistry(logger)
	}
	if cfg.Catalog.Path == "" {
		return registry, nil
	}

	defs, err := nodetype.LoadCatalogFile(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	for _, def := range defs {
		if err := registry.Replace(def); err != nil {
			return nil, fmt.Errorf("register %s: %w", def.ID, err)
		}
	}
	logger.Info("Catalog loaded", "path", cfg.Catalog.Path, "added", len(defs), "total", registry.Len())
	return registry, nil
}

func exportCatalog(path string, stdout io.Writer, version string, catalog *nodetype.Registry) error {
	if path == "-" {
		return nodetype.ExportCatalog(stdout, version, catalog.List())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := nodetype.ExportCatalog(f, version, catalog.List()); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	slog.Info("Catalog exported", "path", path, "node_types", catalog.Len())
	return nil
}
