package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := buildRoot().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	apiFlags := &APIFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createServeCommand(globalFlags),
		createItemsCommand(apiFlags),
		createInitCommand(),
	)
	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "itemd",
		Short: "In-memory item resource server",
		Long: `itemd serves CRUD operations over an in-memory collection of items,
plus health and metrics endpoints.

Examples:
  itemd serve                                  # Start on :3000 (or $PORT)
  itemd serve config.toml                      # Start with a config file
  itemd init --type=tls                        # Write a starter config
  itemd items create --name=milk
  itemd items list --api-url=http://remote:3000`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")

	return root
}
