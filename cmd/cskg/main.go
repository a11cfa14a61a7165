// Package main provides the cskg command-line tool.
package main

import (
	"os"

	"github.com/cskg-labs/cskg/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
