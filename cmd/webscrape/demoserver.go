package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/raysh454/webscrape/internal/demoserver"
)

func newDemoServerCmd(rt *cliEnv) *cobra.Command {
	cfg := demoserver.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "demoserver",
		Short: "Serve versioned fixture pages to scrape locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Port < 1 || cfg.Port > 65535 {
				return eris.Errorf("invalid port: %d", cfg.Port)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return demoserver.NewDemoServer(cfg, rt.logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	cmd.Flags().IntVar(&cfg.InitialVersion, "initial-version", cfg.InitialVersion, "starting version of every page")
	return cmd
}
