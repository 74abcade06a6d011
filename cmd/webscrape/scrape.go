package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/raysh454/webscrape/internal/app"
	"github.com/raysh454/webscrape/internal/cli"
	"github.com/raysh454/webscrape/internal/logging"
)

func newScrapeCmd(rt *cliEnv) *cobra.Command {
	var args cli.ScrapeArgs

	cmd := &cobra.Command{
		Use:   "scrape URL...",
		Short: "Scrape one or more URLs and print their text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			args.URLs = positional
			if err := args.Validate(); err != nil {
				return err
			}
			if args.Concurrency == 0 {
				args.Concurrency = rt.cfg.Jobs.MaxConcurrency
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(rt.cfg, rt.logger)
			if err != nil {
				return eris.Wrap(err, "build application")
			}
			defer func() {
				if err := a.Shutdown(context.Background()); err != nil {
					rt.logger.Warn("application shutdown", logging.Err(err))
				}
			}()

			results := a.Scraper.ScrapeAll(ctx, args.URLs, args.Concurrency, nil)

			failed, err := cli.WriteResults(cmd.OutOrStdout(), results, args.JSON)
			if err != nil {
				return err
			}
			if args.OutDir != "" {
				paths, err := cli.SaveResults(args.OutDir, results)
				if err != nil {
					return err
				}
				rt.logger.Info("saved results", logging.Field{Key: "dir", Value: args.OutDir}, logging.Field{Key: "files", Value: len(paths)})
			}
			if failed > 0 {
				return eris.Errorf("%d of %d urls failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&args.Concurrency, "concurrency", "c", 0, "parallel scrapes (default jobs.max_concurrency)")
	cmd.Flags().BoolVar(&args.JSON, "json", false, "print one JSON object per URL")
	cmd.Flags().StringVarP(&args.OutDir, "out", "o", "", "also write each page's text to this directory")
	return cmd
}
