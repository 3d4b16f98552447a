package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Application configuration loaded from environment variables at startup
// by LoadConfig.
var (
	// RPCEndpoint is the EVM JSON-RPC endpoint used for all chain reads.
	RPCEndpoint string
	// ChainID identifies the target network.
	ChainID uint64

	// MarketDataURL serves the token/pool market-data snapshot.
	MarketDataURL string
	// ReferencePriceURL serves the wrapped-native reference price lookup.
	ReferencePriceURL string
	// ReferenceAssetID is the lookup key for the reference asset in the
	// price endpoint's response (e.g. "ethereum").
	ReferenceAssetID string
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. All listed variables are required.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	RPCEndpoint, err = getEnv("RPC_ENDPOINT")
	if err != nil {
		return err
	}

	ChainID, err = getEnvAsUint64("CHAIN_ID")
	if err != nil {
		return err
	}

	MarketDataURL, err = getEnv("MARKET_DATA_URL")
	if err != nil {
		return err
	}

	ReferencePriceURL, err = getEnv("REFERENCE_PRICE_URL")
	if err != nil {
		return err
	}

	ReferenceAssetID, err = getEnv("REFERENCE_ASSET_ID")
	if err != nil {
		return err
	}

	log.Debug().
		Str("RPCEndpoint", RPCEndpoint).
		Uint64("ChainID", ChainID).
		Str("MarketDataURL", MarketDataURL).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns
// error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}
