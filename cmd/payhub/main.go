package main

import (
	"os"

	"github.com/payhub-dev/payhub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
