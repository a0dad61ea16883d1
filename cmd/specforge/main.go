package main

import (
	"fmt"
	"os"

	"specforge.app/specforge/internal/specerr"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorMessage(err))
		os.Exit(specerr.ExitCode(err))
	}
}
