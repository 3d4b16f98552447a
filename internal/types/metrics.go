package types

// PortfolioMetrics is the derived, never-stored reduction of a position set.
type PortfolioMetrics struct {
	TotalDepositedUSD   float64  `json:"total_deposited_usd"`
	TotalYieldEarnedUSD float64  `json:"total_yield_earned_usd"`
	WeightedAPY         float64  `json:"weighted_apy"`
	YieldScore          int      `json:"yield_score"` // 0..100
	Tier                string   `json:"tier"`
	StrategyTags        []string `json:"strategy_tags"`
}
