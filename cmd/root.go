package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ledgerline/finance-services/db"
	"github.com/ledgerline/finance-services/internal/appconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	configPath string
	host       string
	port       int

	appCfg    *appconfig.Config
	financeDB *db.FinanceDB
)

var rootCmd = &cobra.Command{
	Use:   "finance-services",
	Short: "Finance Services",
	Long:  `Finance Services is a CLI tool for running the personal finance tracking API and its supporting jobs.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn",
		"sets the log level")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml",
		"path to the config file")
}

// commonSetUp loads the config, initializes the database connection and
// sets up logging. Shared by every command that talks to the database.
func commonSetUp() {
	setLogging(logLevel)

	var err error
	appCfg, err = appconfig.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if err = os.Setenv("DATABASE_URL", appCfg.Database.Source); err != nil {
		log.Fatal().Err(err).Msg("failed to set DATABASE_URL")
	}

	dbLogger := log.With().Str("component", "db").Logger()
	financeDB, err = db.NewFinanceDB(&dbLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize FinanceDB")
	}
}

func setLogging(level string) {
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}
