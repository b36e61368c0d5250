package commands

import (
	"context"
	"strings"
	"time"

	auth "github.com/goliatone/go-auth-jwt"
	"github.com/spf13/cobra"
)

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Args:  cobra.NoArgs,
		Short: "Create the users and profiles tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := load(*configPath)
			if err != nil {
				return err
			}

			db, err := rt.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			if err := auth.Migrate(ctx, db); err != nil {
				return err
			}
			rt.logger.Info("migrations applied", "dsn_kind", dsnKind(rt.opts.DatabaseDSN))
			return nil
		},
	}
}

func dsnKind(dsn string) string {
	if strings.HasPrefix(dsn, "postgres") {
		return "postgres"
	}
	return "sqlite"
}
