package main

import (
	"os"

	"github.com/umoja-health/tracksync/internal/adapters/driving/cli"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
