package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/i18n"
	"github.com/hyperjump/tsunagu/internal/interlink"
	"github.com/hyperjump/tsunagu/internal/keyword"
	"github.com/hyperjump/tsunagu/internal/links"
	"github.com/hyperjump/tsunagu/internal/server"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		host  string
		port  int
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP lookup API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			logger := e.logger
			defer logger.Sync()
			if host != "" {
				e.cfg.Server.Host = host
			}
			if port != 0 {
				e.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cat, err := buildCatalog(ctx, e.cfg, logger)
			if err != nil {
				return err
			}
			idx, err := keyword.NewBleveIndex(cat, logger)
			if err != nil {
				return err
			}
			defer idx.Close()

			if watch {
				w, err := startFragmentWatcher(ctx, e, i18n.NewMerger(e.cfg.Locales.Dir, logger))
				if err != nil {
					return err
				}
				defer w.Stop()
			}

			srv := server.NewServer(cat, interlink.NewResolver(cat, logger), links.NewGenerator(logger), idx, e.cfg, logger)
			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				logger.Warn("server shutdown failed", zap.Error(err))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "also merge translation fragments as they change")
	return cmd
}
