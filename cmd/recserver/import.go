package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abelbrown/moviefinder/internal/logging"
	"github.com/abelbrown/moviefinder/internal/tmdb"
)

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	pages := fs.Int("pages", 0, "pages of popular movies to import (default from config)")
	e := setup(fs)
	defer e.close()

	if e.cfg.TMDB.APIKey == "" {
		fmt.Fprintln(os.Stderr, "error: TMDB_API_KEY is required for import")
		fmt.Fprintln(os.Stderr, "  export TMDB_API_KEY=... or pass -keys keys.sh")
		e.close()
		os.Exit(1)
	}
	n := *pages
	if n <= 0 {
		n = e.cfg.TMDB.Pages
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	im := tmdb.NewImporter(tmdb.NewClient(e.cfg.TMDB.APIKey), e.catalog, e.events)
	stats, err := im.Import(ctx, n)
	logging.Info("import finished", "pages", stats.Pages, "movies", stats.Movies, "errors", stats.Errors, "err", err)

	total, _ := e.catalog.Count()
	fmt.Printf("Imported %d movies from %d/%d pages in %s (%d failed). Catalog now holds %d movies.\n",
		stats.Movies, stats.Pages, n, time.Since(start).Round(time.Millisecond), stats.Errors, total)
	if err != nil {
		e.close()
		fatal("import: %v", err)
	}
}
