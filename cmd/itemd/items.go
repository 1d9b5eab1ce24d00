package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/loykin/itemd/pkg/client"
	"github.com/spf13/cobra"
)

// APIFlags holds connection flags shared by the items subcommands
type APIFlags struct {
	APIUrl     string
	APIBase    string
	APITimeout time.Duration
}

// ItemFlags holds the fields for create/update
type ItemFlags struct {
	Name      string
	Completed bool
}

func createItemsCommand(apiFlags *APIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Manage items on a running itemd server",
		Long: `Talk to a running itemd server over HTTP.

Examples:
  itemd items list
  itemd items create --name=milk
  itemd items update 1 --completed
  itemd items delete 1`,
	}

	cmd.PersistentFlags().StringVar(&apiFlags.APIUrl, "api-url", "http://localhost:3000", "itemd server URL")
	cmd.PersistentFlags().StringVar(&apiFlags.APIBase, "api-base", "/api", "resource base path")
	cmd.PersistentFlags().DurationVar(&apiFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	cmd.AddCommand(
		createItemsListCommand(apiFlags),
		createItemsGetCommand(apiFlags),
		createItemsCreateCommand(apiFlags),
		createItemsUpdateCommand(apiFlags),
		createItemsDeleteCommand(apiFlags),
	)
	return cmd
}

func newAPIClient(f *APIFlags) *client.Client {
	return client.New(client.Config{BaseURL: f.APIUrl, BasePath: f.APIBase, Timeout: f.APITimeout})
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func createItemsListCommand(apiFlags *APIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := newAPIClient(apiFlags).List(ctxOf(cmd))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	}
}

func createItemsGetCommand(apiFlags *APIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			it, err := newAPIClient(apiFlags).Get(ctxOf(cmd), id)
			if err != nil {
				return fmt.Errorf("item %d: %w", id, err)
			}
			return printJSON(cmd.OutOrStdout(), it)
		},
	}
}

func createItemsCreateCommand(apiFlags *APIFlags) *cobra.Command {
	f := &ItemFlags{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := newAPIClient(apiFlags).Create(ctxOf(cmd), itemInput(cmd, f))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), it)
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "item name")
	cmd.Flags().BoolVar(&f.Completed, "completed", false, "mark the item completed")
	return cmd
}

func createItemsUpdateCommand(apiFlags *APIFlags) *cobra.Command {
	f := &ItemFlags{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the given fields of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			it, err := newAPIClient(apiFlags).Update(ctxOf(cmd), id, itemInput(cmd, f))
			if err != nil {
				return fmt.Errorf("item %d: %w", id, err)
			}
			return printJSON(cmd.OutOrStdout(), it)
		},
	}
	cmd.Flags().StringVar(&f.Name, "name", "", "new name")
	cmd.Flags().BoolVar(&f.Completed, "completed", false, "new completed state")
	return cmd
}

func createItemsDeleteCommand(apiFlags *APIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			if err := newAPIClient(apiFlags).Delete(ctxOf(cmd), id); err != nil {
				return fmt.Errorf("item %d: %w", id, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
			return nil
		},
	}
}

// itemInput sends only the flags the user actually set.
func itemInput(cmd *cobra.Command, f *ItemFlags) client.ItemInput {
	var in client.ItemInput
	if cmd.Flags().Changed("name") {
		in.Name = client.String(f.Name)
	}
	if cmd.Flags().Changed("completed") {
		in.Completed = client.Bool(f.Completed)
	}
	return in
}

func parseIDArg(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid item id %q", s)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
