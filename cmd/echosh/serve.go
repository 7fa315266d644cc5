package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/replx"
	"pkt.systems/replx/internal/appconfig"
	"pkt.systems/replx/internal/auth"
	"pkt.systems/replx/internal/logx"
	"pkt.systems/replx/sample/echosh"
	"pkt.systems/replx/sshterm"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve echosh sessions over SSH",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			logger := logx.New(cfg.Logging, os.Stderr)
			ctx := pslog.ContextWithLogger(cmd.Context(), logger)

			var authStore sshterm.AuthStore
			if cfg.Auth.Enabled {
				store, err := auth.NewStoreWithLogger(cfg.Auth.UserFile, cfg.Auth.SeedUsers, logger)
				if err != nil {
					return err
				}
				authStore = store
			}

			srv := &sshterm.Server[echosh.State]{
				Addr:        cfg.SSH.Addr,
				HostKeyPath: cfg.SSH.HostKeyPath,
				Factory: func(_ context.Context, user string) (replx.Executor[echosh.State], echosh.State, []replx.Option, error) {
					return echosh.New(), echosh.State{User: user}, nil, nil
				},
				AuthStore: authStore,
				Options:   sessionOptions(cfg),
			}
			if cfg.History.Enabled {
				srv.HistoryDir = cfg.History.Dir
				srv.HistoryLimit = cfg.History.Limit
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			logger.Info("ssh server listening", "addr", cfg.SSH.Addr, "auth", cfg.Auth.Enabled)
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}
