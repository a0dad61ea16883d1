package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"specforge.app/specforge/internal/specerr"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "specforge",
		Short:         "Generate strict project specifications from natural-language prompts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Malformed flags are caller input errors, not internal ones.
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", specerr.ErrInvalidInput, err)
	})

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newKeysCmd())
	return root
}
