// Package commands implements the CLI commands for carhunt.
package commands

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carhunt/carhunt/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "carhunt",
	Short: "Crawl Polish car classifieds and hunt for underpriced listings",
	Long: `Carhunt ingests vehicle listings from otomoto.pl and olx.pl,
stores them de-duplicated in a local SQLite database, and flags
listings priced below the market average for similar cars.

Examples:
  # Crawl 25 pages of BMW listings from otomoto
  carhunt crawl --source otomoto --brand bmw --pages 25

  # Find underpriced manual-gearbox petrol BMWs near Kraków
  carhunt analyze --brand bmw --fuel benzyna --gearbox manual \
      --location "Kraków"

  # Fill in missing locations on already-stored olx rows
  carhunt backfill --source olx`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.carhunt.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")
	rootCmd.PersistentFlags().String("db", "carhunt.db", "path to the SQLite database")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".carhunt")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CARHUNT")
	viper.AutomaticEnv()

	// Config file is optional
	_ = viper.ReadInConfig()
}

// initLogger applies the global logging flags. Called by every
// subcommand before doing real work.
func initLogger() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
