package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "init-db-migrate",
	Short: "Initialize tables and run database migrations",
	Long:  `This job ensures tables exist and then runs goose migrations.`,
	Run: func(cmd *cobra.Command, args []string) {

		commonSetUp()
		defer financeDB.Close()

		log.Info().Msgf("Running migrations...")
		if err := financeDB.Migrate(); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}

		log.Info().Msg("Migrations complete")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
