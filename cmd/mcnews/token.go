package main

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"MCNews/internal/infrastructure/secrets"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Store the Telegram bot token in the OS keyring",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set [token]",
			Short: "Save the bot token; read from stdin when omitted",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				token := ""
				if len(args) == 1 {
					token = args[0]
				} else {
					line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
					if err != nil && line == "" {
						return errors.New("no token on stdin")
					}
					token = line
				}
				token = strings.TrimSpace(token)
				if err := secrets.SetTelegramToken(token); err != nil {
					return err
				}
				return printText(cmd, "Telegram token saved.")
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored bot token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := secrets.ClearTelegramToken(); err != nil {
					return err
				}
				return printText(cmd, "Telegram token removed.")
			},
		},
	)
	return cmd
}
