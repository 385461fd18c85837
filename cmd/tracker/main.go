package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto-price-tracker/internal/config"
	"crypto-price-tracker/internal/datafeed"
	"crypto-price-tracker/internal/symbols"
	"crypto-price-tracker/internal/tracker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	mock := flag.Bool("mock", false, "Generate random prices instead of connecting to the exchange")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.New(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	syms, err := symbols.Load(cfg.SymbolsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load symbols")
	}
	log.Info().Strs("symbols", syms).Msg("Loaded symbols")

	var feed tracker.Feed
	switch {
	case *mock:
		feed = datafeed.NewMockFeed(syms, 500*time.Millisecond)
	case cfg.Feed.ProxyAddr != "":
		feed = datafeed.NewCoinbaseFeedWithProxy(cfg.Feed.URL, cfg.Feed.ProxyAddr, syms)
	default:
		feed = datafeed.NewCoinbaseFeed(cfg.Feed.URL, syms)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := tracker.New(feed, syms, cfg.PrintInterval, os.Stdout)

	errChan := make(chan error, 1)
	go func() {
		errChan <- tr.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal().Err(err).Msg("Tracker stopped")
		}
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
	}
}
