package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pkt.systems/replx"
	"pkt.systems/replx/internal/appconfig"
	"pkt.systems/replx/internal/histfile"
	"pkt.systems/replx/internal/logx"
	"pkt.systems/replx/internal/version"
	"pkt.systems/replx/localterm"
	"pkt.systems/replx/sample/echosh"
)

func newRunCmd() *cobra.Command {
	var cfgPath string
	var user string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an echosh session on this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if user == "" {
				user = os.Getenv("USER")
			}

			// The session owns the terminal, so logs go to a file
			// under the state dir instead of stderr.
			if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
				return fmt.Errorf("create state dir: %w", err)
			}
			logPath := filepath.Join(cfg.StateDir, "echosh.log")
			logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer func() { _ = logFile.Close() }()
			logger := logx.New(cfg.Logging, logFile)
			ctx := logx.ContextWithUserLogger(cmd.Context(), logger, user)

			opts := sessionOptions(cfg)
			if cfg.History.Enabled {
				store, err := histfile.NewWithLogger(histfile.PathFor(cfg.History.Dir, user), cfg.History.Limit, logger)
				if err != nil {
					logger.Warn("history disabled", "err", err)
				} else {
					opts = append(opts, replx.WithHistoryStore(store))
				}
			}

			logger.Info("local session starting", "user", user)
			err = localterm.Run(ctx, echosh.Factory(user), opts...)
			if err != nil {
				logger.Warn("local session failed", "err", err)
				return err
			}
			logger.Info("local session ended")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVarP(&user, "user", "u", "", "session username (default $USER)")
	return cmd
}

func sessionOptions(cfg appconfig.Config) []replx.Option {
	return []replx.Option{
		replx.WithTheme(cfg.UI.Theme),
		replx.WithSpinnerDelay(cfg.UI.SpinnerDelay()),
		replx.WithCancelGrace(cfg.UI.CancelGrace()),
		replx.WithHistoryLimit(cfg.History.Limit),
		replx.WithWelcome(
			"echosh "+version.Current(),
			"type \"help\" for commands, Tab completes, Ctrl+D exits",
		),
	}
}
