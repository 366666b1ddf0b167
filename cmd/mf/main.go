// Command mf is the scriptable moviefinder CLI.
//
// Usage:
//
//	mf                  Show help
//	mf ask <query>      Ask for a recommendation and print it
//	mf history          List the backend's remembered queries
//	mf events           JSONL event log viewer
package main

import (
	"fmt"
	"os"
)

const usage = `mf - moviefinder CLI

Usage:
  mf <command> [flags]

Commands:
  ask         Ask the backend for a recommendation and print it
  history     List queries the backend remembers
  events      JSONL event log viewer

Environment:
  MOVIEFINDER_BACKEND_URL  Backend base URL (default http://0.0.0.0:5001)
  MOVIEFINDER_TIMEOUT      Request timeout in seconds (default none)

Run 'mf <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "ask":
		runAsk()
	case "history":
		runHistory()
	case "events":
		runEvents()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "mf: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
