package main

import (
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitor until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := rt.application(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			ready := func() {
				if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
					rt.log.Warn().Err(err).Msg("systemd notify failed")
				} else if ok {
					rt.log.Debug().Msg("systemd notified ready")
				}
			}

			err = application.Run(ctx, ready)
			_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
			return err
		},
	}
}
