package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/raysh454/webscrape/internal/app"
	"github.com/raysh454/webscrape/internal/logging"
	"github.com/raysh454/webscrape/internal/server"
	"github.com/raysh454/webscrape/internal/webclient"
)

func newServeCmd(rt *cliEnv) *cobra.Command {
	var (
		addr    string
		backend string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := rt.cfg
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if backend != "" {
				cfg.WebClient.Client = webclient.Client(backend)
			}

			a, err := app.New(cfg, rt.logger)
			if err != nil {
				return eris.Wrap(err, "build application")
			}
			if err := a.Start(); err != nil {
				return err
			}

			srv, err := server.NewServer(server.Config{AppConfig: cfg, Logger: rt.logger, App: a})
			if err != nil {
				_ = a.Shutdown(context.Background())
				return eris.Wrap(err, "build server")
			}
			httpSrv := srv.HTTPServer()

			errCh := make(chan error, 1)
			go func() {
				rt.logger.Info("starting server", logging.Field{Key: "addr", Value: httpSrv.Addr})
				errCh <- httpSrv.ListenAndServe()
			}()

			var serveErr error
			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					serveErr = eris.Wrap(err, "server listen")
				}
			case <-ctx.Done():
				rt.logger.Info("shutting down server")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				if err := httpSrv.Shutdown(shutdownCtx); err != nil {
					rt.logger.Warn("http shutdown", logging.Err(err))
				}
				cancel()
			}

			if err := a.Shutdown(context.Background()); err != nil {
				rt.logger.Warn("application shutdown", logging.Err(err))
			}
			return serveErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&backend, "backend", "", "fetch backend: nethttp or chromedp (default from config)")
	return cmd
}
