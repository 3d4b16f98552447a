/*

Portfolio aggregator. Fans position reads out across enabled protocol
configs, concatenates whatever succeeded, and reduces the result with the
scoring engine. No reader failure is allowed to suppress another reader's
output.

*/

package aggregator

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yieldlens/yieldlens/internal/logger"
	"github.com/yieldlens/yieldlens/internal/reader"
	"github.com/yieldlens/yieldlens/internal/scoring"
	"github.com/yieldlens/yieldlens/internal/types"
)

var ErrNoWallet = errors.New("wallet address is required")

// Aggregator wires reader dependencies once and serves portfolio queries.
type Aggregator struct {
	logger zerolog.Logger
	deps   reader.Deps
}

// New creates an aggregator around the shared reader dependencies.
func New(deps reader.Deps) (*Aggregator, error) {
	if deps.Chain == nil {
		return nil, reader.ErrChainReaderMissing
	}
	return &Aggregator{
		logger: logger.GetForComponent("aggregator"),
		deps:   deps,
	}, nil
}

// CollectPositions reads the wallet's positions across all enabled configs
// concurrently. Per-reader failures are logged and skipped; the returned
// list is the concatenation of every successful reader's output with no
// inter-protocol ordering guarantee. An empty list is a valid result.
func (a *Aggregator) CollectPositions(ctx context.Context, wallet string, configs []types.ProtocolConfig) ([]types.Position, error) {
	if wallet == "" {
		return nil, ErrNoWallet
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		positions []types.Position
	)

	enabled := 0
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		enabled++

		wg.Add(1)
		go func(cfg types.ProtocolConfig) {
			defer wg.Done()

			protoReader, err := reader.NewReader(cfg, a.deps)
			if err != nil {
				a.logger.Warn().
					Err(err).
					Str("protocol", cfg.Name).
					Str("template", string(cfg.Template)).
					Msg("Skipping protocol with unusable config")
				return
			}

			found, err := protoReader.Read(ctx, wallet)
			if err != nil {
				a.logger.Warn().
					Err(err).
					Str("protocol", cfg.Name).
					Str("wallet", wallet).
					Msg("Protocol read failed, continuing with remaining protocols")
				return
			}

			mu.Lock()
			positions = append(positions, found...)
			mu.Unlock()
		}(cfg)
	}
	wg.Wait()

	a.logger.Info().
		Str("wallet", wallet).
		Int("enabledProtocols", enabled).
		Int("positions", len(positions)).
		Msg("Position collection completed")

	if positions == nil {
		positions = []types.Position{}
	}
	return positions, nil
}

// Portfolio collects positions and reduces them to aggregate metrics.
func (a *Aggregator) Portfolio(ctx context.Context, wallet string, configs []types.ProtocolConfig) ([]types.Position, types.PortfolioMetrics, error) {
	positions, err := a.CollectPositions(ctx, wallet, configs)
	if err != nil {
		return nil, types.PortfolioMetrics{}, err
	}
	return positions, scoring.Aggregate(positions), nil
}
