package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"MCNews/internal/app"
	"MCNews/internal/format"
	"MCNews/internal/usecase"
)

func withApplication(cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, application *app.Application) error) error {
	rt, err := loadRuntime(v)
	if err != nil {
		return err
	}
	application, err := rt.application(cmd)
	if err != nil {
		return err
	}
	defer application.Close()
	return fn(cmd.Context(), application)
}

// withQueries runs fn against the read-only command set, leaving the state
// file and the Telegram session untouched.
func withQueries(cmd *cobra.Command, v *viper.Viper, fn func(ctx context.Context, queries *usecase.Commands) error) error {
	rt, err := loadRuntime(v)
	if err != nil {
		return err
	}
	return fn(cmd.Context(), app.NewQueries(rt.manager, rt.log))
}

func newStatusCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "status [service]",
		Short: "Probe the Mojang services, or one service by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQueries(cmd, v, func(ctx context.Context, queries *usecase.Commands) error {
				if len(args) == 1 {
					return printText(cmd, queries.Service(ctx, args[0]))
				}
				return printText(cmd, queries.Status(ctx))
			})
		},
	}
}

func newLatestCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the latest release and snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQueries(cmd, v, func(ctx context.Context, queries *usecase.Commands) error {
				return printText(cmd, queries.Latest(ctx))
			})
		},
	}
}

func newCheckCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:       "check versions|services",
		Short:     "Run one monitoring cycle now",
		Long:      "check runs a single version or service cycle against the stored state and pushes any change to the whitelist. A service cycle in a fresh process only seeds the health cache.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"versions", "services"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApplication(cmd, v, func(ctx context.Context, application *app.Application) error {
				switch strings.ToLower(args[0]) {
				case "versions":
					application.Monitor().CheckVersions(ctx)
				case "services":
					application.Monitor().CheckServices(ctx)
				default:
					return fmt.Errorf("unknown cycle %q, want versions or services", args[0])
				}
				return printText(cmd, "check "+strings.ToLower(args[0])+" done")
			})
		},
	}
}

func newGuideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guide",
		Short: "Print the chat command reference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printText(cmd, format.Help())
		},
	}
}
