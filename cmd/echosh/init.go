package main

import (
	"github.com/spf13/cobra"

	"pkt.systems/replx/internal/appconfig"
	"pkt.systems/replx/internal/logx"
)

func newInitCmd() *cobra.Command {
	var outputPath string
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logx.Ctx(cmd.Context())
			out := outputPath
			if out == "" {
				path, err := appconfig.DefaultConfigPath()
				if err != nil {
					return err
				}
				out = path
			}
			written, err := appconfig.WriteDefault(out, overwrite)
			if err != nil {
				return err
			}
			logger.Info("config written", "path", written)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path")
	cmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing config")
	return cmd
}
