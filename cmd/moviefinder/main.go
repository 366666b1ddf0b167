// Command moviefinder is the terminal client for the recommendation backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/moviefinder/internal/api"
	"github.com/abelbrown/moviefinder/internal/config"
	"github.com/abelbrown/moviefinder/internal/logging"
	"github.com/abelbrown/moviefinder/internal/otel"
	"github.com/abelbrown/moviefinder/internal/render"
	"github.com/abelbrown/moviefinder/internal/search"
	"github.com/abelbrown/moviefinder/internal/ui"
)

func main() {
	configPath := flag.String("config", config.ConfigPath(), "path to config file")
	backend := flag.String("backend", "", "backend base URL (overrides config)")
	style := flag.String("style", "dark", "markdown style: dark, light, notty")
	flag.Parse()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fatal("Failed to load config: %v", err)
	}
	if *backend != "" {
		cfg.Client.BackendURL = *backend
	}

	if err := logging.Init(config.DataDir(), "moviefinder"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}
	defer logging.Close()

	events, closeEvents, err := otel.OpenFile(config.EventLogPath())
	if err != nil {
		logging.Warn("event log disabled", "err", err)
		events = otel.NewNullLogger()
		closeEvents = func() {}
	}
	defer closeEvents()

	ring := otel.NewRingBuffer(0)
	events.SetRingBuffer(ring)

	logging.Info("moviefinder starting", "backend", cfg.Client.BackendURL, "session", events.SessionID())
	events.Info(otel.KindStartup, "main", cfg.Client.BackendURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := api.NewClient(cfg.Client.BackendURL, cfg.Timeout())
	app := ui.NewApp(ui.AppConfig{
		Context:  ctx,
		Search:   search.NewController(client, events),
		History:  client,
		Renderer: render.NewRenderer(cfg.Client.ImageBaseURL, cfg.Client.CardWidth).WithStyle(*style),
		Events:   events,
		Ring:     ring,
	})

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		logging.Error("program exited with error", "err", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}

	events.Info(otel.KindShutdown, "main", "")
	logging.Info("moviefinder stopped")
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
