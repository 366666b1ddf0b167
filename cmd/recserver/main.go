// Command recserver is the development recommendation backend for
// moviefinder.
//
// Usage:
//
//	recserver                  Serve the HTTP API (same as serve)
//	recserver serve            Serve the HTTP API
//	recserver import -pages N  Import N pages of popular TMDB movies
package main

import (
	"fmt"
	"os"
)

const usage = `recserver - moviefinder development backend

Usage:
  recserver [command] [flags]

Commands:
  serve       Serve POST /api/query, GET /api/history and GET /health (default)
  import      Import popular movies from TMDB into the catalog

Environment:
  TMDB_API_KEY       TMDB API key (required for import)
  GROQ_API_KEY       Groq API key for the recommendation narrative
  OLLAMA_HOST        Use a local Ollama instead of Groq
  MOVIEFINDER_DB     Catalog database path
  MOVIEFINDER_ADDR   Listen address (default :5001)

Run 'recserver <command> -h' for command-specific help.
`

func main() {
	cmd := "serve"
	if len(os.Args) > 1 && len(os.Args[1]) > 0 && os.Args[1][0] != '-' {
		cmd = os.Args[1]
		os.Args = os.Args[1:]
	}

	switch cmd {
	case "serve":
		runServe()
	case "import":
		runImport()
	case "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "recserver: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
