package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bighouse/optrate/api"
	"github.com/bighouse/optrate/internal/config"
	"github.com/bighouse/optrate/internal/metrics"
	"github.com/bighouse/optrate/pkg/bootstrap"
	"github.com/bighouse/optrate/pkg/catalog"
	"github.com/bighouse/optrate/pkg/feed"
	"github.com/bighouse/optrate/pkg/scanner"
	"github.com/bighouse/optrate/pkg/store"
)

var (
	cfgFile string
	logger  *logrus.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "optrate-scanner",
		Short: "Implied option rate scanner",
		Long:  `A batch scanner that derives annualized implied borrow/lend rates from option quotes across a symbol universe`,
		Run:   runScanner,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runScanner(cmd *cobra.Command, args []string) {
	// API key may live in a local .env during development.
	godotenv.Load()

	logger = logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Error("Invalid log level, using INFO")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	symbols, err := cfg.LoadSymbols()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load symbol universe")
	}
	universe, err := catalog.NewSymbolUniverse(symbols)
	if err != nil {
		logger.WithError(err).Fatal("Invalid symbol universe")
	}
	expiries, err := catalog.NewExpirySet(cfg.Scan.Expiries)
	if err != nil {
		logger.WithError(err).Fatal("Invalid expiry set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := feed.NewWebSocketClient(cfg.Feed.URL, cfg.Feed.APIKey, logger)
	if err := client.Connect(ctx); err != nil {
		// Nothing downstream can run without the feed.
		logger.WithError(err).Fatal("Failed to connect to market data feed")
	}
	defer client.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	resultStore := store.NewResultStore(cfg.Store.Root, logger)

	sc := scanner.New(client, universe, expiries, resultStore, logger, m,
		cfg.Scan.BatchSize, time.Duration(cfg.Scan.SettleSeconds)*time.Second)

	apiServer := api.NewServer(sc, registry, logger, fmt.Sprintf("%d", cfg.Server.Port))
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.WithError(err).Fatal("Failed to start API server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received shutdown signal")
		cancel()
	}()

	if cfg.Bootstrap.Enabled {
		bs := bootstrap.New(client, universe, expiries, resultStore, logger, m,
			cfg.Bootstrap.BatchSize, time.Duration(cfg.Bootstrap.DelaySeconds)*time.Second)
		if err := bs.Run(ctx); err != nil {
			logger.WithError(err).Info("Catalog bootstrap interrupted")
			return
		}
	}

	if err := sc.Run(ctx); err != nil {
		logger.WithError(err).Info("Scan interrupted")
		return
	}

	logger.Info("Scan complete")
}
