// Command expenses is a terminal client for the expenses REST backend.
package main

import (
	"fmt"
	"os"

	"expenses/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	root := newRootCmd(&app{cfg: cfg, out: os.Stdout, errOut: os.Stderr})
	if err := root.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}
