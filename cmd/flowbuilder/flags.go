package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	CatalogPath string
	ExportPath  string
	SavePath    string
	Metrics     bool
	Trace       bool
	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags(args []string, stderr io.Writer) (*CLIConfig, *flag.FlagSet, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("FLOWBUILDER_CONFIG", ""),
		"Path to a JSON or YAML configuration file (env: FLOWBUILDER_CONFIG)")
	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("FLOWBUILDER_CONFIG", ""),
		"Path to a JSON or YAML configuration file (env: FLOWBUILDER_CONFIG)")

	fs.StringVar(&cfg.LogLevel, "log-level", "",
		"Log level: debug, info, warn, error (default from config, env: FLOWBUILDER_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", "",
		"Log format: json, text (default from config, env: FLOWBUILDER_LOG_FORMAT)")

	fs.StringVar(&cfg.CatalogPath, "catalog", "",
		"Additional node type catalog, overrides catalog.path (env: FLOWBUILDER_CATALOG_PATH)")
	fs.StringVar(&cfg.ExportPath, "export", "",
		"Write the node type catalog to this path (- for stdout) and exit")
	fs.StringVar(&cfg.SavePath, "save", "",
		"Write the saved workflow snapshot to this path (- for stdout)")
	fs.BoolVar(&cfg.Metrics, "metrics",
		getEnvBool("FLOWBUILDER_METRICS", false),
		"Include a metrics snapshot in the report (env: FLOWBUILDER_METRICS)")

	fs.BoolVar(&cfg.Trace, "trace",
		getEnvBool("FLOWBUILDER_TRACE", false),
		"Write editor spans to stderr (env: FLOWBUILDER_TRACE)")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	fs.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and catalog, then exit")

	fs.Usage = func() { printDetailedHelp(fs, stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	return cfg, fs, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}
	if cfg.CatalogPath != "" {
		if _, err := os.Stat(cfg.CatalogPath); err != nil {
			return fmt.Errorf("catalog file not found: %s", cfg.CatalogPath)
		}
	}

	if cfg.LogLevel != "" && !contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "" && !contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}
	return nil
}

func printDetailedHelp(fs *flag.FlagSet, w io.Writer) {
	_, _ = fmt.Fprintf(w, `%s - workflow graph builder

Usage: %s [options]

Builds the sample workflow, tests and saves it, and prints a report of its
validation, connectivity and layout.

Options:
`, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(w, `
Examples:
  # Run with a config file and a custom catalog
  %s --config=flowbuilder.yaml --catalog=slack.yaml

  # Export the merged node type catalog
  %s --export=catalog.yaml

  # Validate configuration only
  %s --config=flowbuilder.yaml --validate

Version: %s
Build: %s
`, appName, appName, appName, Version, BuildTime)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
