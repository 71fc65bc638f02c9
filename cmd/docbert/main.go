// Package main provides the entry point for the docbert CLI.
package main

import (
	"os"

	"github.com/docbert/docbert/cmd/docbert/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
