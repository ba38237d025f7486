package main

import (
	"os"

	"github.com/chazu/fission/cmd/fission/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
