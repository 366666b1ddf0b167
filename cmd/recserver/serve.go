package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abelbrown/moviefinder/internal/brain"
	"github.com/abelbrown/moviefinder/internal/logging"
	"github.com/abelbrown/moviefinder/internal/otel"
	"github.com/abelbrown/moviefinder/internal/recommend"
	"github.com/abelbrown/moviefinder/internal/server"
)

func runServe() {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (overrides config)")
	e := setup(fs)
	defer e.close()

	if *addr != "" {
		e.cfg.Server.Addr = *addr
	}

	llm := brain.FromConfig(e.cfg.Models)
	if p := llm.GetAvailable(); p != nil {
		logging.Info("narrative provider", "name", p.Name())
	} else {
		fmt.Fprintln(os.Stderr, "warning: no LLM provider available, answers list candidates only")
	}

	if n, err := e.catalog.Count(); err == nil && n == 0 {
		fmt.Fprintln(os.Stderr, "warning: catalog is empty, run 'recserver import' first")
	}

	rec := recommend.New(e.catalog, llm, e.events)
	srv := &http.Server{
		Addr: e.cfg.Server.Addr,
		Handler: server.New(rec, server.Options{
			CORSOrigins:        e.cfg.Server.CORSOrigins,
			RateLimitPerMinute: e.cfg.Server.RateLimitPerMinute,
			Catalog:            e.catalog,
			Events:             e.events,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "recserver listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	e.events.Info(otel.KindStartup, "server", srv.Addr)
	logging.Info("recserver started", "addr", srv.Addr, "db", e.cfg.ResolvedDBPath())

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			logging.Error("server error", "err", err)
			e.close()
			fatal("server: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("shutdown incomplete", "err", err)
	}
	e.events.Info(otel.KindShutdown, "server", "")
}
