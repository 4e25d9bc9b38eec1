package cli

import (
	"github.com/spf13/cobra"

	"github.com/casa-guarda/service-listing/internal/platform/database"
)

func newMigrateCmd(e *env) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Example: `  listingctl migrate
  listingctl migrate --dir ./migrations`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = e.cfg.MigrationsDir
			}
			return database.RunMigrations(e.cfg.DBConfig.DatabaseURL(), dir, e.log)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Migrations directory (defaults to LISTING_MIGRATIONS_DIR)")

	return cmd
}
