package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"MCNews/internal/app"
	"MCNews/internal/config"
	"MCNews/internal/logging"
)

const (
	flagConfig    = "config"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MCNEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "mcnews",
		Short:         "Minecraft release and Mojang service monitor",
		Long:          "mcnews watches the Minecraft version manifest and the Mojang service health endpoints and pushes changes to whitelisted Telegram chats and webhooks.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagConfig, "mcnews.yaml", "path to the YAML or TOML configuration file")
	flags.String(flagLogLevel, "", "log level override (debug, info, warn, error)")
	flags.String(flagLogFormat, "", "log format override (console, json)")
	_ = v.BindPFlags(flags)

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(v),
		newStatusCmd(v),
		newLatestCmd(v),
		newCheckCmd(v),
		newWhitelistCmd(v),
		newGuideCmd(),
		newTokenCmd(),
	)

	return rootCmd
}

// runtime is what every command needs from the configuration.
type runtime struct {
	manager *config.Manager
	log     zerolog.Logger
}

func loadRuntime(v *viper.Viper) (*runtime, error) {
	path := v.GetString(flagConfig)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl := v.GetString(flagLogLevel); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if format := v.GetString(flagLogFormat); format != "" {
		cfg.Logging.Format = format
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	return &runtime{manager: config.NewManagerWith(path, cfg, log), log: log}, nil
}

func (r *runtime) application(cmd *cobra.Command) (*app.Application, error) {
	application, err := app.New(cmd.Context(), r.manager, r.log)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}
	return application, nil
}

func printText(cmd *cobra.Command, text string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
