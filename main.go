package main

import (
	"os"

	"github.com/medifleet/medifleet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
