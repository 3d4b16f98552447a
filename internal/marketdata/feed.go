/*

HTTP market-data feed. Pulls the token price/metadata and pool fee-APY
snapshot from the configured endpoint, validates it strictly, and exposes
the latest snapshot behind an atomic pointer. The valuation core only ever
reads snapshots; refreshing happens here on its own cadence.

*/

package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yieldlens/yieldlens/internal/logger"
	"github.com/yieldlens/yieldlens/internal/types"
)

var feedLogger = logger.GetForComponent("market_data_feed")

var (
	ErrFeedUnavailable = errors.New("market data feed unavailable")
	ErrInvalidFeedData = errors.New("invalid market data received")
)

const (
	maxRetries     = 3
	requestTimeout = 30 * time.Second
	// RefreshInterval matches the feed's own update cadence; fetching
	// faster only re-reads identical data.
	RefreshInterval = 5 * time.Minute
)

type feedPayload struct {
	Tokens []types.TokenInfo `json:"tokens"`
	Pools  []types.PoolInfo  `json:"pools"`
}

// Feed periodically pulls market data and holds the latest valid snapshot.
type Feed struct {
	endpoint string
	client   *http.Client
	latest   atomic.Pointer[Snapshot]
}

// NewFeed builds a feed against the given snapshot endpoint.
func NewFeed(endpoint string) *Feed {
	return &Feed{
		endpoint: endpoint,
		client:   &http.Client{Timeout: requestTimeout},
	}
}

// Latest returns the most recent valid snapshot, or nil before the first
// successful refresh. A nil snapshot is safe to query and reports misses.
func (f *Feed) Latest() *Snapshot {
	return f.latest.Load()
}

// Refresh fetches and installs a new snapshot, retrying transient failures
// with linear backoff. A failed refresh keeps the previous snapshot.
func (f *Feed) Refresh(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		snapshot, err := f.fetch(ctx)
		if err == nil {
			f.latest.Store(snapshot)
			feedLogger.Info().
				Int("tokens", snapshot.TokenCount()).
				Time("fetchedAt", snapshot.FetchedAt).
				Msg("Market data snapshot refreshed")
			return nil
		}

		lastErr = err
		feedLogger.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("maxRetries", maxRetries).
			Msg("Market data fetch failed, will retry if attempts remain")

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return fmt.Errorf("%w: %w", ErrFeedUnavailable, lastErr)
}

// Run refreshes the snapshot on the feed cadence until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) {
	if err := f.Refresh(ctx); err != nil {
		feedLogger.Error().Err(err).Msg("Initial market data refresh failed, continuing without snapshot")
	}

	ticker := time.NewTicker(RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			feedLogger.Info().Msg("Market data feed stopped")
			return
		case <-ticker.C:
			if err := f.Refresh(ctx); err != nil {
				feedLogger.Error().Err(err).Msg("Market data refresh failed, keeping previous snapshot")
			}
		}
	}
}

func (f *Feed) fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed response: %w", err)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response body", ErrInvalidFeedData)
	}

	var payload feedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFeedData, err)
	}

	valid := make([]types.TokenInfo, 0, len(payload.Tokens))
	for _, token := range payload.Tokens {
		if err := validateToken(token); err != nil {
			feedLogger.Warn().
				Err(err).
				Str("address", token.Address).
				Str("symbol", token.Symbol).
				Msg("Dropping invalid token from snapshot")
			continue
		}
		valid = append(valid, token)
	}

	validPools := make([]types.PoolInfo, 0, len(payload.Pools))
	for _, pool := range payload.Pools {
		if err := validatePool(pool); err != nil {
			feedLogger.Warn().
				Err(err).
				Str("address", pool.Address).
				Msg("Dropping invalid pool from snapshot")
			continue
		}
		validPools = append(validPools, pool)
	}

	if len(valid) == 0 {
		return nil, fmt.Errorf("%w: no valid tokens in snapshot", ErrInvalidFeedData)
	}

	return NewSnapshot(valid, validPools, time.Now()), nil
}

func validateToken(token types.TokenInfo) error {
	if strings.TrimSpace(token.Address) == "" {
		return errors.New("token address cannot be empty")
	}
	if strings.TrimSpace(token.Symbol) == "" {
		return errors.New("token symbol cannot be empty")
	}
	if token.Decimals < 0 || token.Decimals > 36 {
		return fmt.Errorf("token decimals out of range: %d", token.Decimals)
	}
	if token.PriceUSD < 0 {
		return fmt.Errorf("token price cannot be negative: %f", token.PriceUSD)
	}
	if math.IsNaN(token.PriceUSD) || math.IsInf(token.PriceUSD, 0) {
		return fmt.Errorf("token price is not finite: %f", token.PriceUSD)
	}
	return nil
}

func validatePool(pool types.PoolInfo) error {
	if strings.TrimSpace(pool.Address) == "" {
		return errors.New("pool address cannot be empty")
	}
	if pool.FeeAPY < 0 {
		return fmt.Errorf("pool fee APY cannot be negative: %f", pool.FeeAPY)
	}
	if math.IsNaN(pool.FeeAPY) || math.IsInf(pool.FeeAPY, 0) {
		return fmt.Errorf("pool fee APY is not finite: %f", pool.FeeAPY)
	}
	return nil
}
