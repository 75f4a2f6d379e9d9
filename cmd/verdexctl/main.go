// Package main provides the entry point for the verdexctl CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/verdex/internal/version"
)

var (
	globalAddr   string
	globalAPIKey string
	globalUser   string
	globalGroups []string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:     "verdexctl",
		Short:   "Operator CLI for the verdex document registry",
		Version: version.String(),
	}

	rootCmd.PersistentFlags().StringVar(&globalAddr, "addr", "http://localhost:8080", "verdex API address")
	rootCmd.PersistentFlags().StringVar(&globalAPIKey, "api-key", os.Getenv("VERDEX_API_KEY"), "API key (defaults to VERDEX_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&globalUser, "user", "", "User id sent as X-User-Id")
	rootCmd.PersistentFlags().StringSliceVar(&globalGroups, "groups", nil, "Groups sent as X-User-Groups")

	rootCmd.AddCommand(
		newRegisterCmd(),
		newTagCmd(),
		newGetCmd(),
		newRefreshCmd(),
	)

	return rootCmd.ExecuteContext(ctx)
}
