// Package main is the entry point for the pagewash CLI.
package main

import (
	"os"

	"github.com/jmylchreest/pagewash/cmd/pagewash/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
