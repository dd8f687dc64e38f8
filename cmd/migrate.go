package cmd

import (
	"task-marketplace/pkg/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		return database.Migrate(cmd.Context(), rt.db, rt.log)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
