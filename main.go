package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fundingwatch/config"
	"fundingwatch/logger"
	"fundingwatch/monitor"
	"fundingwatch/reader/binance"
	"fundingwatch/writer"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	pairsFile := flag.String("file", "", "Path to a file with one pair symbol per line")
	noDefaults := flag.Bool("no-default-pairs", false, "Do not prepend the default BTCUSDT/ETHUSDT pairs")

	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	// Pairs given on the command line replace the configured watch-list.
	if args := flag.Args(); len(args) > 0 || *pairsFile != "" || *noDefaults {
		if len(args) > 0 {
			cfg.Watchlist.Pairs = args
		}
		if *pairsFile != "" {
			cfg.Watchlist.PairsFile = *pairsFile
		}
		if *noDefaults {
			cfg.Watchlist.DefaultPairs = false
		}
		if err := cfg.ResolveWatchlist(); err != nil {
			log.WithError(err).Error("Failed to resolve watch-list")
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			log.WithError(err).Error("Failed to load configuration")
			os.Exit(1)
		}
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	env := config.AppEnvironment()
	log.WithFields(logger.Fields{
		"service":     cfg.Fundingwatch.Name,
		"version":     cfg.Fundingwatch.Version,
		"environment": env,
	}).Info("starting fundingwatch")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Production-like deployments publish metrics by default.
	if !cfg.Metrics.CloudWatch.Enabled && config.IsProductionLike(env) && cfg.Metrics.CloudWatch.Region != "" {
		cfg.Metrics.CloudWatch.Enabled = true
	}
	if cfg.Metrics.CloudWatch.Enabled {
		logger.InitCloudWatch(
			cfg.Metrics.CloudWatch.Region,
			cfg.Metrics.CloudWatch.Namespace,
			cfg.Metrics.CloudWatch.Dashboard,
		)
	}
	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	reader := binance.Binance_Market_NewReader(cfg)
	console := writer.NewConsoleWriter(os.Stdout, cfg.Output.Color)
	mon := monitor.NewMonitor(cfg, reader, console)

	if err := mon.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start monitor")
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()

	done := make(chan struct{})
	go func() {
		mon.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(10 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("fundingwatch stopped")
}
