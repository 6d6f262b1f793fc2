package main

import (
	"os"

	"github.com/runnerr0/quix/internal/cli"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	// go-flags has already printed the error.
	if err := cli.Run(Version); err != nil {
		os.Exit(1)
	}
}
