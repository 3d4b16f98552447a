package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yieldlens/yieldlens/internal/types"
)

func TestStrategyTags_Empty(t *testing.T) {
	assert.Empty(t, StrategyTags(nil, 0, 0))
}

func TestStrategyTags_DominantKind(t *testing.T) {
	tags := StrategyTags([]types.Position{
		position("aave", types.KindLending, 8000, 5, 0),
		position("lido", types.KindStaking, 2000, 4, 0),
	}, 4.8, 0)

	assert.Contains(t, tags, TagLendingFocused)
	assert.NotContains(t, tags, TagStakingFocused)
}

func TestStrategyTags_NoDominantKind(t *testing.T) {
	tags := StrategyTags([]types.Position{
		position("aave", types.KindLending, 5000, 5, 0),
		position("lido", types.KindStaking, 5000, 4, 0),
	}, 4.5, 0)

	assert.NotContains(t, tags, TagLendingFocused)
	assert.NotContains(t, tags, TagStakingFocused)
}

func TestStrategyTags_ProtocolSpread(t *testing.T) {
	one := StrategyTags([]types.Position{
		position("aave", types.KindLending, 1000, 5, 0),
	}, 5, 0)
	assert.Contains(t, one, TagConcentrated)

	three := StrategyTags([]types.Position{
		position("aave", types.KindLending, 1000, 5, 0),
		position("lido", types.KindStaking, 1000, 5, 0),
		position("uniswap", types.KindBond, 1000, 5, 0),
	}, 5, 0)
	assert.Contains(t, three, TagDiversified)
	assert.NotContains(t, three, TagConcentrated)
}

func TestStrategyTags_LPRange(t *testing.T) {
	lp := position("uniswap", types.KindLP, 1000, 10, 0)
	lp.InRange = boolPtr(true)
	assert.Contains(t, StrategyTags([]types.Position{lp}, 10, 0), TagInRangeLP)

	// Any out-of-range position flips the tag for the whole portfolio.
	out := position("uniswap", types.KindLP, 1000, 10, 0)
	out.InRange = boolPtr(false)
	tags := StrategyTags([]types.Position{lp, out}, 10, 0)
	assert.Contains(t, tags, TagOutOfRangeLP)
	assert.NotContains(t, tags, TagInRangeLP)
}

func TestStrategyTags_ProfitAndAPY(t *testing.T) {
	profitable := StrategyTags([]types.Position{
		position("aave", types.KindLending, 1000, 20, 50),
	}, 20, 50)
	assert.Contains(t, profitable, TagProfitable)
	assert.Contains(t, profitable, TagHighYield)

	underwater := StrategyTags([]types.Position{
		position("aave", types.KindLending, 1000, 2, -50),
	}, 2, -50)
	assert.Contains(t, underwater, TagUnderwater)
	assert.Contains(t, underwater, TagConservative)
}

func TestStrategyTags_Deterministic(t *testing.T) {
	positions := []types.Position{
		position("aave", types.KindLending, 8000, 5, 100),
		position("lido", types.KindStaking, 1000, 4, 10),
		position("uniswap", types.KindLP, 1000, 12, 0),
	}

	first := StrategyTags(positions, 5.5, 110)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, StrategyTags(positions, 5.5, 110))
	}
}
