package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/yieldlens/yieldlens/internal/aggregator"
	"github.com/yieldlens/yieldlens/internal/chain"
	"github.com/yieldlens/yieldlens/internal/config"
	"github.com/yieldlens/yieldlens/internal/logger"
	"github.com/yieldlens/yieldlens/internal/marketdata"
	"github.com/yieldlens/yieldlens/internal/pricing"
	"github.com/yieldlens/yieldlens/internal/reader"
	"github.com/yieldlens/yieldlens/internal/state"
	"github.com/yieldlens/yieldlens/internal/types"
	"github.com/yieldlens/yieldlens/internal/web"
)

const DIAL_TIMEOUT = 15 * time.Second

// main is the entry point for the valuation engine.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Yieldlens valuation engine starting...")

	// Initialize Database Connection (protocol config store)
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Seed the default protocol set on first boot only.
	count, err := state.CountConfigs()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to count protocol configs")
	}
	if count == 0 {
		log.Info().Msg("No protocol configs found, seeding defaults.")
		for _, cfg := range config.DefaultProtocolConfigs {
			if _, err := state.SaveConfig(cfg); err != nil {
				log.Fatal().Err(err).Str("protocol", cfg.Name).Msg("Failed to seed default protocol config")
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- 2. Chain and Market Data ---
	dialCtx, dialCancel := context.WithTimeout(ctx, DIAL_TIMEOUT)
	chainClient, err := chain.Dial(dialCtx, config.RPCEndpoint)
	dialCancel()
	if err != nil {
		log.Fatal().Err(err).Str("endpoint", config.RPCEndpoint).Msg("RPC connection error")
	}
	defer chainClient.Close()
	log.Info().Str("endpoint", config.RPCEndpoint).Uint64("chain_id", config.ChainID).Msg("RPC connected")

	feed := marketdata.NewFeed(config.MarketDataURL)
	if err := feed.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial market data refresh failed, continuing without a snapshot")
	}
	go feed.Run(ctx)

	oracle := pricing.NewReferenceOracle(
		pricing.HTTPLookup(config.ReferencePriceURL, config.ReferenceAssetID),
		time.Now,
	)

	// --- 3. Aggregator with Dependency Injection ---
	agg, err := aggregator.New(reader.Deps{
		Chain:     chainClient,
		Market:    liveMarket{feed: feed},
		Reference: oracle,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create aggregator")
	}

	// --- 4. Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort, agg)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting web server")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// Block until shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutdown signal received, stopping.")
	cancel()
}

// liveMarket resolves the freshest snapshot on every lookup so long-lived
// readers never pin a stale one. A nil snapshot simply misses.
type liveMarket struct {
	feed *marketdata.Feed
}

func (m liveMarket) Token(address string) (types.TokenInfo, bool) {
	return m.feed.Latest().Token(address)
}

func (m liveMarket) PoolFeeAPY(address string) (float64, bool) {
	return m.feed.Latest().PoolFeeAPY(address)
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
