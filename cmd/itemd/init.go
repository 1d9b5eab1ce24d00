package main

import (
	"fmt"
	"strings"

	"github.com/loykin/itemd/pkg/template"
	"github.com/spf13/cobra"
)

// InitFlags holds flags for the init command
type InitFlags struct {
	Type   string
	Output string
}

func createInitCommand() *cobra.Command {
	flags := &InitFlags{}
	gen := template.NewGenerator()

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a starter TOML config from a template. Existing files are left alone.

Templates: ` + strings.Join(gen.GetSupportedTypes(), ", ") + `

Examples:
  itemd init                               # basic config in ./itemd.toml
  itemd init --type=tls --output=tls.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := gen.WriteFile(template.TemplateType(flags.Type), flags.Output); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", flags.Output, flags.Type)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.Type, "type", string(template.TypeBasic), "template type")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "itemd.toml", "output file")
	return cmd
}
