package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"specforge.app/specforge/internal/keystore"
	"specforge.app/specforge/internal/specerr"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored provider API keys",
	}
	cmd.AddCommand(newKeysSetCmd(), newKeysListCmd())
	return cmd
}

func newKeysSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider>",
		Short: "Store an API key for a provider (read from stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerName := strings.ToLower(strings.TrimSpace(args[0]))

			fmt.Fprintf(os.Stderr, "Enter API key for %s: ", providerName)
			reader := bufio.NewReader(cmd.InOrStdin())
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("%w: no key provided", specerr.ErrInvalidInput)
			}
			apiKey := strings.TrimSpace(line)

			if !keystore.ValidKeyFormat(providerName, apiKey) {
				return fmt.Errorf("%w: key does not look like a valid %s API key", specerr.ErrInvalidInput, providerName)
			}

			if err := keystore.New(".").SetAPIKey(providerName, apiKey); err != nil {
				return fmt.Errorf("storing key: %w", err)
			}
			fmt.Printf("Stored API key for %s\n", providerName)
			return nil
		},
	}
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List providers with stored API keys",
		RunE: func(_ *cobra.Command, _ []string) error {
			providers := keystore.New(".").Providers()
			if len(providers) == 0 {
				fmt.Println("No API keys stored.")
				return nil
			}
			for _, name := range providers {
				fmt.Println(name)
			}
			return nil
		},
	}
}
