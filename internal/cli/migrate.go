package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-chat/internal/config"
	"github.com/rcliao/agent-chat/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:       "migrate [up|version]",
		Short:     "Apply or inspect PostgreSQL schema migrations",
		Long:      "Apply pending PostgreSQL migrations (up, the default) or print the current schema version. SQLite creates its schema on open.",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "version"},
		Run:       runMigrate,
	}

	RootCmd.AddCommand(cmd)
}

func runMigrate(cmd *cobra.Command, args []string) {
	action := "up"
	if len(args) == 1 {
		action = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if cfg.Store.Driver != config.DriverPostgres {
		exitErr("migrate", errors.New("migrations apply to the postgres driver only"))
	}

	if action == "up" {
		if err := store.RunMigrations(cmd.Context(), cfg.Postgres.DSN); err != nil {
			exitErr("migrate", err)
		}
	}

	version, err := store.MigrationVersion(cmd.Context(), cfg.Postgres.DSN)
	if err != nil {
		exitErr("migrate", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"version":%d}`+"\n", version)
}
