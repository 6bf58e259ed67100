// Package main is the entry point for the carhunt CLI.
package main

import (
	"os"

	"github.com/carhunt/carhunt/cmd/carhunt/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
