// Package main provides the entry point for the gen192 CLI.
package main

import (
	"fmt"
	"os"

	"github.com/askiada/gen192/cmd/gen192/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
