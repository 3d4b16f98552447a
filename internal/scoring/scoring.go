/*

Yield scoring engine. Reduces a heterogeneous position list to aggregate
metrics: totals, deposit-weighted APY, a bounded 0-100 yield score, and
descriptive strategy tags.

The score is an additive clamp of four components:

	apy       0..45  saturating curve over the weighted APY
	realized  0..25  realized yield relative to deposits
	spread    0..20  protocol and position-kind diversification
	range     0..10  share of LP value currently in range

An empty or zero-deposit portfolio scores 0. The apy component is strictly
monotone in weighted APY, the others ignore it, so the total is
non-decreasing in weighted APY with everything else held fixed.

*/

package scoring

import (
	"math"

	"github.com/yieldlens/yieldlens/internal/logger"
	"github.com/yieldlens/yieldlens/internal/types"
)

var scoreLogger = logger.GetForComponent("yield_scorer")

const (
	apyComponentMax      = 45.0
	realizedComponentMax = 25.0
	spreadComponentMax   = 20.0
	rangeComponentMax    = 10.0

	// apySaturation controls how fast the APY component saturates: a 12%
	// weighted APY earns ~63% of the component.
	apySaturation = 12.0
	// realizedTarget is the yield-to-deposit ratio that earns the full
	// realized component.
	realizedTarget = 0.05
)

// Aggregate reduces a position list to portfolio metrics. Unusable numeric
// inputs (NaN, Inf) are treated as zero contributions rather than errors:
// partial data always beats no data.
func Aggregate(positions []types.Position) types.PortfolioMetrics {
	metrics := types.PortfolioMetrics{StrategyTags: []string{}}
	if len(positions) == 0 {
		metrics.Tier = TierLabel(0)
		return metrics
	}

	var totalDeposited, totalYield, apyWeight float64
	for _, p := range positions {
		totalDeposited += sanitize(p.DepositedUSD)
		totalYield += sanitize(p.YieldEarnedUSD)
		apyWeight += sanitize(p.CurrentAPY) * sanitize(p.DepositedUSD)
	}

	metrics.TotalDepositedUSD = totalDeposited
	metrics.TotalYieldEarnedUSD = totalYield
	if totalDeposited > 0 {
		metrics.WeightedAPY = apyWeight / totalDeposited
	}

	metrics.YieldScore = yieldScore(positions, metrics.WeightedAPY, totalDeposited, totalYield)
	metrics.Tier = TierLabel(metrics.YieldScore)
	metrics.StrategyTags = StrategyTags(positions, metrics.WeightedAPY, totalYield)

	scoreLogger.Debug().
		Int("positions", len(positions)).
		Float64("totalDepositedUSD", totalDeposited).
		Float64("totalYieldEarnedUSD", totalYield).
		Float64("weightedAPY", metrics.WeightedAPY).
		Int("yieldScore", metrics.YieldScore).
		Strs("tags", metrics.StrategyTags).
		Msg("Portfolio metrics aggregated")

	return metrics
}

func yieldScore(positions []types.Position, weightedAPY, totalDeposited, totalYield float64) int {
	if totalDeposited <= 0 {
		return 0
	}

	apyComponent := apyComponentMax * (1 - math.Exp(-math.Max(weightedAPY, 0)/apySaturation))

	realizedRatio := totalYield / totalDeposited
	realizedComponent := realizedComponentMax * clamp01(realizedRatio/realizedTarget)

	spreadComponent := spreadScore(positions)
	rangeComponent := rangeScore(positions)

	total := apyComponent + realizedComponent + spreadComponent + rangeComponent
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	return int(math.Round(math.Min(100, math.Max(0, total))))
}

// spreadScore rewards spreading deposits across protocols and position
// kinds. A single-position portfolio earns nothing here, which is the
// concentration penalty.
func spreadScore(positions []types.Position) float64 {
	protocols := make(map[string]bool)
	kinds := make(map[types.PositionKind]bool)
	for _, p := range positions {
		if sanitize(p.DepositedUSD) > 0 {
			protocols[p.Protocol] = true
			kinds[p.Kind] = true
		}
	}

	protocolPart := math.Min(float64(len(protocols)-1), 2) / 2
	kindPart := math.Min(float64(len(kinds)-1), 2) / 2
	return spreadComponentMax * (math.Max(protocolPart, 0) + math.Max(kindPart, 0)) / 2
}

// rangeScore scales with the share of concentrated-liquidity value whose
// pool price is inside the position bounds. Portfolios with no LP value
// carry no range risk and earn the component in full.
func rangeScore(positions []types.Position) float64 {
	var lpValue, inRangeValue float64
	for _, p := range positions {
		if !p.IsLP() {
			continue
		}
		value := sanitize(p.DepositedUSD)
		lpValue += value
		if p.InRange != nil && *p.InRange {
			inRangeValue += value
		}
	}
	if lpValue <= 0 {
		return rangeComponentMax
	}
	return rangeComponentMax * (inRangeValue / lpValue)
}

// TierLabel maps a yield score onto its display tier. This is a pure
// presentation mapping, not part of the scoring function.
func TierLabel(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Building"
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
