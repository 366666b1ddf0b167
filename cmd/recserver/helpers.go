package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/abelbrown/moviefinder/internal/catalog"
	"github.com/abelbrown/moviefinder/internal/config"
	"github.com/abelbrown/moviefinder/internal/logging"
	"github.com/abelbrown/moviefinder/internal/otel"
)

// env bundles what every subcommand sets up.
type env struct {
	cfg     *config.Config
	catalog *catalog.Catalog
	events  *otel.Logger
	close   func()
}

// setup parses fs, loads config (plus keys from -keys), and opens logging,
// the event log and the catalog.
func setup(fs *flag.FlagSet) *env {
	configPath := fs.String("config", config.ConfigPath(), "path to config file")
	keysPath := fs.String("keys", "", "optional keys.sh with export KEY=value lines")
	dbPath := fs.String("db", "", "catalog database path (overrides config)")
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	if *keysPath != "" {
		if err := cfg.LoadKeysFromFile(*keysPath); err != nil {
			fatal("failed to read keys: %v", err)
		}
	}
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}

	if err := logging.Init(config.DataDir(), "recserver"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize logging: %v\n", err)
	}

	events, closeEvents, err := otel.OpenFile(config.EventLogPath())
	if err != nil {
		logging.Warn("event log disabled", "err", err)
		events = otel.NewNullLogger()
		closeEvents = func() {}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.ResolvedDBPath()), 0755); err != nil {
		fatal("failed to create catalog directory: %v", err)
	}
	cat, err := catalog.Open(cfg.ResolvedDBPath())
	if err != nil {
		fatal("failed to open catalog %s: %v", cfg.ResolvedDBPath(), err)
	}

	return &env{
		cfg:     cfg,
		catalog: cat,
		events:  events,
		close: func() {
			cat.Close()
			closeEvents()
			logging.Close()
		},
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
