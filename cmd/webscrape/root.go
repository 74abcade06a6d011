package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/raysh454/webscrape/internal/app"
	"github.com/raysh454/webscrape/internal/logging"
)

// cliEnv is what PersistentPreRunE prepares for every subcommand.
type cliEnv struct {
	configPath string
	logLevel   string

	cfg    *app.Config
	logger *logging.ZapLogger
}

func newRootCmd() *cobra.Command {
	rt := &cliEnv{}

	root := &cobra.Command{
		Use:           "webscrape",
		Short:         "Scrape readable text from web pages",
		Long:          "Serves POST /search and the job, cache, agent and inference endpoints, and runs scrapes from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.Load(rt.configPath)
			if err != nil {
				return eris.Wrap(err, "load config")
			}
			if rt.logLevel != "" {
				c.Log.Level = rt.logLevel
			}
			rt.cfg = c

			l, err := logging.New(c.Log, "webscrape")
			if err != nil {
				return eris.Wrap(err, "init logger")
			}
			rt.logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "config file (default ./webscrape.yaml)")
	root.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(rt),
		newScrapeCmd(rt),
		newConverseCmd(rt),
		newDemoServerCmd(rt),
	)
	return root
}
