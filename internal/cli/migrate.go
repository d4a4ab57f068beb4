package cli

import (
	"github.com/spf13/cobra"

	"github.com/claude/vitalsync/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := requireDatabase(a.cfg, "migrate"); err != nil {
		return err
	}
	if err := storage.RunMigrations(a.cfg.Database.DSN()); err != nil {
		return err
	}
	a.log.Info("migrations applied")
	return nil
}
