package cmd

import (
	"fmt"
	"os"

	"bizdocs-backend/importer"

	"github.com/spf13/cobra"
)

var importItemsCmd = &cobra.Command{
	Use:   "import-items <file.xlsx>",
	Args:  cobra.ExactArgs(1),
	Short: "Import catalog items from the first sheet of an Excel file",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		created, err := importer.ImportCatalogItems(cmd.Context(), rt.stores.Catalog, f)
		if err != nil {
			if len(created) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d items imported before the failure\n", len(created))
			}
			return err
		}
		for _, it := range created {
			fmt.Fprintf(cmd.OutOrStdout(), "%-40s %-15s %15s\n", it.Name, it.Type, it.Price.StringFixed(2))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d items imported\n", len(created))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importItemsCmd)
}
