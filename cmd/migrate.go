package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// initEnv migrates the store and, for the postgres source, the
		// industry table.
		env, err := initEnv(cmd.Context(), config.ModeLocal, true)
		if err != nil {
			return err
		}
		defer env.Close()

		zap.L().Info("migrations complete",
			zap.String("store", cfg.Store.Driver),
			zap.Bool("industry_table", env.Postgres != nil),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
