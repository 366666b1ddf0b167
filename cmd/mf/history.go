package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	cf := addClientFlags(fs)
	width := fs.Int("width", 80, "truncate entries to this many runes (0 = no limit)")
	fs.Parse(os.Args[1:])

	history, err := newClient(cf.load()).History(context.Background())
	if err != nil {
		fatal("%v", err)
	}
	if len(history) == 0 {
		fmt.Println("No history available")
		return
	}
	for i, q := range history {
		if *width > 3 {
			q = truncate(q, *width)
		}
		fmt.Printf("%3d  %s\n", i+1, q)
	}
}
