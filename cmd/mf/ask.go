package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abelbrown/moviefinder/internal/logging"
	"github.com/abelbrown/moviefinder/internal/render"
	"github.com/abelbrown/moviefinder/internal/search"
	"github.com/abelbrown/moviefinder/internal/session"
)

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	cf := addClientFlags(fs)
	width := fs.Int("width", 100, "output width")
	style := fs.String("style", "notty", "markdown style: dark, light, notty")
	verbose := fs.Bool("v", false, "log diagnostics to stderr")
	fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: mf ask [-backend URL] [-width N] [-style S] <query...>")
		os.Exit(1)
	}
	if *verbose {
		logging.SetOutput(os.Stderr)
	}

	cfg := cf.load()
	q := strings.Join(fs.Args(), " ")

	var state session.State
	state.SetQuery(q)
	ctrl := search.NewController(newClient(cfg), nil)
	out := ctrl.Search(context.Background(), &state, search.Current)
	if !out.OK() {
		fatal("%v", out.Err)
	}

	r := render.NewRenderer(cfg.Client.ImageBaseURL, cfg.Client.CardWidth).WithStyle(*style)
	fmt.Println(r.Body(state.Result(), state.Loading(), "", *width))
	fmt.Fprintf(os.Stderr, "\n%d movies in %s (qid %s)\n",
		len(render.VisibleMovies(state.Result().SimilarMovies)), out.Dur.Round(time.Millisecond), out.Request.ID)
}
