// File: cmd/replisync/stores_cmd.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStoresCmd() *cobra.Command {
	storesCmd := &cobra.Command{
		Use:   "stores",
		Short: "Inspect the stores defined in the catalog",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stores, their primary index and sorting attributes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			app, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			c, err := app.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			if len(c.Stores()) == 0 {
				app.Console.Comment("No stores configured in the catalog.")
				return nil
			}

			fmt.Fprintln(app.Console.Out(), app.Formatter.FormatStoreList(c))
			return nil
		},
	}

	storesCmd.AddCommand(listCmd)
	return storesCmd
}
