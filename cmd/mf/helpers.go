package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/abelbrown/moviefinder/internal/api"
	"github.com/abelbrown/moviefinder/internal/config"
)

// clientFlags registers the flags shared by commands that call the backend.
type clientFlags struct {
	config  *string
	backend *string
}

func addClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		config:  fs.String("config", config.ConfigPath(), "path to config file"),
		backend: fs.String("backend", "", "backend base URL (overrides config)"),
	}
}

// load reads the config and applies the flag overrides.
func (f clientFlags) load() *config.Config {
	cfg, err := config.LoadFrom(*f.config)
	if err != nil {
		fatal("failed to load config: %v", err)
	}
	if *f.backend != "" {
		cfg.Client.BackendURL = *f.backend
	}
	return cfg
}

func newClient(cfg *config.Config) *api.Client {
	return api.NewClient(cfg.Client.BackendURL, cfg.Timeout())
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
