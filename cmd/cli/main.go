// Package main is the entry point for the avd-cost CLI.
package main

import (
	"os"

	"avd-cost/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
