package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/passkeywallet/internal/metrics"
	"github.com/vadiminshakov/passkeywallet/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wallet HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer logger.Sync()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		wallet, err := newWallet(cfg, logger, metrics.New(reg))
		if err != nil {
			return err
		}
		defer wallet.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := web.NewServer(cfg.HTTP.Addr, wallet, cfg.HTTP.RefreshRPS, cfg.HTTP.RefreshBurst, reg, logger.Named("web"))

		logger.Info("starting wallet",
			zap.String("network", cfg.Network.String()),
			zap.String("rpc", cfg.RPCURL),
			zap.String("price_source", cfg.Price.Source),
		)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if len(cfg.HTTP.TLSDomains) > 0 {
				return srv.StartWithAutoTLS(gctx, cfg.HTTP.TLSDomains, cfg.HTTP.CertCache)
			}
			return srv.Start(gctx)
		})
		g.Go(func() error {
			<-gctx.Done()
			wallet.Disconnect(context.Background())
			return nil
		})

		if err := g.Wait(); err != nil {
			logger.Error("server stopped", zap.Error(err))
			return err
		}
		logger.Info("wallet stopped")
		return nil
	},
}
