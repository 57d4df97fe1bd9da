// Package main provides the CLI entry point for codeguardian.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/d-oit/code-guardian/internal/cliapp"
)

func main() {
	root := cliapp.NewRootCommand()

	if err := root.Execute(); err != nil {
		var exitErr *cliapp.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.Err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
