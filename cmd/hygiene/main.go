// Package main is the entry point for the hygiene CLI.
package main

import (
	"os"

	"github.com/KshitijBharambe/Data-Hygiene-Toolkit-sub001/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present. Missing files are fine, configuration comes
	// from hygiene.yaml, HYGIENE_ variables and flags.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
