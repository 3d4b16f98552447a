/*

Reference-asset price oracle. The engine needs one externally-sourced USD
price (the wrapped native asset) to seed pool price derivation; everything
else is computed from pool state. The price is cached process-wide for 60
seconds, the external lookup is bounded to ~4 seconds, and on failure the
oracle falls back to the last cached value, then to a fixed default.

*/

package pricing

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
)

var oracleLogger = logger.GetForComponent("reference_oracle")

var ErrLookupFailed = errors.New("reference price lookup failed")

const (
	// CacheTTL is how long a fetched reference price is reused before a
	// fresh lookup is attempted.
	CacheTTL = 60 * time.Second
	// LookupTimeout bounds the external HTTP lookup.
	LookupTimeout = 4 * time.Second
	// DefaultReferencePriceUSD is the terminal fallback when no lookup has
	// ever succeeded. Deliberately conservative; it only matters before
	// the first successful fetch.
	DefaultReferencePriceUSD = 3000.0
)

// wrappedNativeAddresses is the canonical wrapped-native-asset contract set
// across supported chains, all lowercase. Membership is exact-match,
// case-insensitive.
var wrappedNativeAddresses = map[string]bool{
	"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": true, // WETH mainnet
	"0x4200000000000000000000000000000000000006": true, // WETH base / optimism
	"0x82af49447d8a07e3bd95bd0d56f35241523fbab1": true, // WETH arbitrum
	"0x7ceb23fd6bc0add59e62ac25578270cff1b9f619": true, // WETH polygon
}

// IsWrappedNative reports whether addr is a canonical wrapped-native-asset
// contract on any supported chain.
func IsWrappedNative(addr string) bool {
	return wrappedNativeAddresses[strings.ToLower(strings.TrimSpace(addr))]
}

// LookupFunc fetches the reference asset's current USD price.
type LookupFunc func(ctx context.Context) (float64, error)

type cachedPrice struct {
	price     float64
	fetchedAt time.Time
}

// ReferenceOracle caches the reference asset's USD price. The cache is the
// only shared mutable state in the valuation core; replacement is atomic
// and a racing reader seeing a marginally stale value is acceptable.
//
// lastAttempt gates the external endpoint to at most one lookup per
// CacheTTL window regardless of outcome: a failed lookup closes the window
// just like a successful one, so an outage never turns every valuation
// into its own external call.
type ReferenceOracle struct {
	lookup      LookupFunc
	now         func() time.Time
	cache       atomic.Pointer[cachedPrice]
	lastAttempt atomic.Pointer[time.Time]
}

// NewReferenceOracle builds an oracle around the given lookup. A nil now
// uses the wall clock; tests substitute a fixed clock.
func NewReferenceOracle(lookup LookupFunc, now func() time.Time) *ReferenceOracle {
	if now == nil {
		now = time.Now
	}
	return &ReferenceOracle{lookup: lookup, now: now}
}

// PriceUSD returns the reference asset's USD price. Cache entries under
// CacheTTL old are reused without a lookup; otherwise one bounded lookup is
// attempted, falling back to the stale cache and finally the fixed default.
// Only one lookup happens per CacheTTL window even when it fails.
func (o *ReferenceOracle) PriceUSD(ctx context.Context) float64 {
	if cached := o.cache.Load(); cached != nil && o.now().Sub(cached.fetchedAt) < CacheTTL {
		return cached.price
	}

	if attempt := o.lastAttempt.Load(); attempt != nil && o.now().Sub(*attempt) < CacheTTL {
		return o.fallback(nil)
	}

	attemptedAt := o.now()
	o.lastAttempt.Store(&attemptedAt)

	lookupCtx, cancel := context.WithTimeout(ctx, LookupTimeout)
	defer cancel()

	price, err := o.lookup(lookupCtx)
	if err == nil && price > 0 && !math.IsNaN(price) && !math.IsInf(price, 0) {
		o.cache.Store(&cachedPrice{price: price, fetchedAt: o.now()})
		oracleLogger.Debug().
			Float64("priceUSD", price).
			Msg("Reference price refreshed")
		return price
	}

	return o.fallback(err)
}

// fallback resolves a price without touching the endpoint: the stale cache
// when one exists, the fixed default otherwise.
func (o *ReferenceOracle) fallback(err error) float64 {
	if cached := o.cache.Load(); cached != nil {
		oracleLogger.Warn().
			Err(err).
			Float64("stalePriceUSD", cached.price).
			Time("fetchedAt", cached.fetchedAt).
			Msg("Reference price unavailable, reusing stale cache")
		return cached.price
	}

	oracleLogger.Warn().
		Err(err).
		Float64("defaultPriceUSD", DefaultReferencePriceUSD).
		Msg("Reference price unavailable with empty cache, using default")
	return DefaultReferencePriceUSD
}

// HTTPLookup builds a LookupFunc against a CoinGecko-style simple-price
// endpoint returning {"<asset>": {"usd": <price>}}.
func HTTPLookup(endpoint, assetID string) LookupFunc {
	client := &http.Client{}
	return func(ctx context.Context) (float64, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrLookupFailed, err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrLookupFailed, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return 0, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrLookupFailed, err)
		}

		var payload map[string]struct {
			USD float64 `json:"usd"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrLookupFailed, err)
		}

		entry, ok := payload[assetID]
		if !ok {
			return 0, fmt.Errorf("%w: asset %q missing from response", ErrLookupFailed, assetID)
		}
		if entry.USD <= 0 || math.IsNaN(entry.USD) || math.IsInf(entry.USD, 0) {
			return 0, fmt.Errorf("%w: unusable price %f", ErrLookupFailed, entry.USD)
		}
		return entry.USD, nil
	}
}
