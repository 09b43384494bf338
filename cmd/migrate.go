package cmd

import (
	"errors"
	"log"

	"bizdocs-backend/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.db == nil {
			return errors.New("migrate needs STORE_DRIVER=postgres")
		}
		if err := database.Migrate(rt.db); err != nil {
			return err
		}
		log.Printf("[database] migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
