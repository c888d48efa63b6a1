package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/greenmap/plant-service/internal/delivery/handler"
	natsdelivery "github.com/greenmap/plant-service/internal/delivery/nats"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the NATS responders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer a.close()

		if a.nc != nil {
			responders := natsdelivery.NewHandler(a.nc, cfg.NATSQueue, a.plants, a.wiki, a.health, log)
			if err := responders.Subscribe(); err != nil {
				return err
			}
			defer responders.Unsubscribe()
		}

		server := handler.NewServer(a.services(), handler.Options{
			CORSOrigins: cfg.CORSOrigins,
			ImageDir:    a.images.Dir(),
			Metrics:     a.metrics,
		}, log)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := server.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			log.Error("Server stopped with error", zap.Error(err))
			return err
		}
		log.Info("Server stopped")
		return nil
	},
}
