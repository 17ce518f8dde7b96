package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"MCNews/internal/usecase"
)

func newWhitelistCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage push destinations",
	}

	// whitelist edits only touch the config file, so no network adapters are built
	commands := func() (*usecase.Commands, error) {
		rt, err := loadRuntime(v)
		if err != nil {
			return nil, err
		}
		return usecase.NewCommands(nil, nil, rt.manager, nil, rt.log), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <destination>",
			Short: "Add a destination (telegram:<chat>[:<thread>], chat id or https URL)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := commands()
				if err != nil {
					return err
				}
				return printText(cmd, c.AddWhitelist(args[0]))
			},
		},
		&cobra.Command{
			Use:   "remove <destination>",
			Short: "Remove a destination",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := commands()
				if err != nil {
					return err
				}
				return printText(cmd, c.RemoveWhitelist(args[0]))
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List destinations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := commands()
				if err != nil {
					return err
				}
				return printText(cmd, c.ListWhitelist())
			},
		},
	)
	return cmd
}
