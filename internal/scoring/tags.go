package scoring

import (
	"github.com/yieldlens/yieldlens/internal/types"
)

// Tag vocabulary. Derivation is deterministic: the same position set always
// yields the same tag set, emitted in a fixed presentation order.
const (
	TagLendingFocused = "Lending Focused"
	TagStakingFocused = "Staking Focused"
	TagLPFocused      = "LP Focused"
	TagBondFocused    = "Bond Focused"
	TagDiversified    = "Diversified"
	TagConcentrated   = "Concentrated"
	TagInRangeLP      = "In-Range LP"
	TagOutOfRangeLP   = "Out-of-Range LP"
	TagProfitable     = "Profitable"
	TagUnderwater     = "Underwater"
	TagHighYield      = "High Yield"
	TagConservative   = "Conservative"
)

var kindTags = map[types.PositionKind]string{
	types.KindLending: TagLendingFocused,
	types.KindStaking: TagStakingFocused,
	types.KindLP:      TagLPFocused,
	types.KindBond:    TagBondFocused,
}

// StrategyTags derives descriptive labels from the position mix.
func StrategyTags(positions []types.Position, weightedAPY, totalYield float64) []string {
	if len(positions) == 0 {
		return []string{}
	}

	tags := make([]string, 0, 4)

	var totalValue float64
	kindValue := make(map[types.PositionKind]float64)
	protocols := make(map[string]bool)
	var lpCount, outOfRange int
	for _, p := range positions {
		value := sanitize(p.DepositedUSD)
		totalValue += value
		kindValue[p.Kind] += value
		protocols[p.Protocol] = true
		if p.IsLP() {
			lpCount++
			if p.InRange != nil && !*p.InRange {
				outOfRange++
			}
		}
	}

	// Dominant kind: more than half the deposited value in one kind.
	if totalValue > 0 {
		for _, kind := range []types.PositionKind{types.KindLending, types.KindStaking, types.KindLP, types.KindBond} {
			if kindValue[kind] > totalValue/2 {
				tags = append(tags, kindTags[kind])
				break
			}
		}
	}

	switch {
	case len(protocols) >= 3:
		tags = append(tags, TagDiversified)
	case len(protocols) == 1:
		tags = append(tags, TagConcentrated)
	}

	if lpCount > 0 {
		if outOfRange > 0 {
			tags = append(tags, TagOutOfRangeLP)
		} else {
			tags = append(tags, TagInRangeLP)
		}
	}

	switch {
	case totalYield > 0:
		tags = append(tags, TagProfitable)
	case totalYield < 0:
		tags = append(tags, TagUnderwater)
	}

	switch {
	case weightedAPY >= 15:
		tags = append(tags, TagHighYield)
	case weightedAPY > 0 && weightedAPY <= 3:
		tags = append(tags, TagConservative)
	}

	return tags
}
