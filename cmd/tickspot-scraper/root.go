package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tickspot-scraper/internal/config"
)

var (
	logger *slog.Logger
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:           "tickspot-scraper",
	Short:         "Sync Tickspot time entries into MySQL",
	Long:          "tickspot-scraper pulls clients, projects, tasks, users and time entries from the Tickspot API and upserts them into MySQL.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)

		var err error
		cfg, err = config.Load(viper.GetViper())
		if err != nil {
			logger.Error("failed to load config", slog.String("error", err.Error()))
			return err
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.String("subdomain", "", "Tickspot account subdomain (TICKSPOT_SUBDOMAIN)")
	flags.String("email", "", "Tickspot user email (TICKSPOT_EMAIL)")
	flags.String("base-url", "", "Override the API host, e.g. for a proxy (TICKSPOT_BASE_URL)")
	flags.String("mysql-dsn", "", "MySQL DSN (MYSQL_DSN)")
	flags.String("sync-tz", "", "Timezone for daily syncs (SYNC_TZ)")

	_ = viper.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = viper.BindPFlag("subdomain", flags.Lookup("subdomain"))
	_ = viper.BindPFlag("email", flags.Lookup("email"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("mysql_dsn", flags.Lookup("mysql-dsn"))
	_ = viper.BindPFlag("sync_tz", flags.Lookup("sync-tz"))

	rootCmd.AddCommand(syncCmd, serveCmd, entriesCmd, clientsCmd, logCmd)
}

func initConfig() {
	config.Bind(viper.GetViper())
}
