// Package main is the entry point for the AegisVault CLI.
package main

import (
	"os"

	"github.com/abdul-hamid-achik/aegisvault/cmd/aegis/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
