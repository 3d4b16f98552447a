package aggregator

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yieldlens/yieldlens/internal/chain"
	"github.com/yieldlens/yieldlens/internal/reader"
	"github.com/yieldlens/yieldlens/internal/types"
)

const testWallet = "0x47ac0Fb4F2D84898e4D9E7b4DaB3C24507a6D503"

// stubChain serves vault-style reads keyed by contract address.
type stubChain struct {
	shares map[string]*big.Int
}

func (s *stubChain) CallView(ctx context.Context, call chain.ViewCall) ([]interface{}, error) {
	shares, ok := s.shares[strings.ToLower(call.To)]
	if !ok {
		return nil, errors.New("rpc timeout")
	}
	switch call.Method {
	case "balanceOf", "convertToAssets":
		return []interface{}{new(big.Int).Set(shares)}, nil
	default:
		return nil, errors.New("unexpected method " + call.Method)
	}
}

func (s *stubChain) BatchCallViews(ctx context.Context, calls []chain.ViewCall) []chain.ViewResult {
	out := make([]chain.ViewResult, len(calls))
	for i, call := range calls {
		values, err := s.CallView(ctx, call)
		out[i] = chain.ViewResult{Values: values, Err: err}
	}
	return out
}

type emptyMarket struct{}

func (emptyMarket) Token(string) (types.TokenInfo, bool) { return types.TokenInfo{}, false }
func (emptyMarket) PoolFeeAPY(string) (float64, bool)    { return 0, false }

type fixedReference struct{}

func (fixedReference) PriceUSD(context.Context) float64 { return 3000 }

func vaultConfig(name, address string, enabled bool) types.ProtocolConfig {
	return types.ProtocolConfig{
		Name:         name,
		Template:     types.TemplateVault,
		Enabled:      enabled,
		VaultAddress: address,
		Underlying:   &types.UnderlyingToken{Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Symbol: "DAI", Decimals: 18, PriceUSD: 1},
		FallbackAPY:  4,
		Kind:         types.KindLending,
	}
}

func wei(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestCollectPositions_ConcatenatesAcrossProtocols(t *testing.T) {
	vaultA := "0x83F20F44975D03b1b09e64809B757c47f942BEeA"
	vaultB := "0x4DEDf26112B3Ec8eC46e7E31EA5e123490B05B8B"

	agg, err := New(reader.Deps{
		Chain: &stubChain{shares: map[string]*big.Int{
			strings.ToLower(vaultA): wei(100),
			strings.ToLower(vaultB): wei(250),
		}},
		Market:    emptyMarket{},
		Reference: fixedReference{},
	})
	require.NoError(t, err)

	positions, err := agg.CollectPositions(context.Background(), testWallet, []types.ProtocolConfig{
		vaultConfig("Vault A", vaultA, true),
		vaultConfig("Vault B", vaultB, true),
		vaultConfig("Disabled Vault", vaultA, false),
	})
	require.NoError(t, err)
	require.Len(t, positions, 2)

	names := map[string]bool{}
	for _, p := range positions {
		names[p.Protocol] = true
	}
	assert.True(t, names["Vault A"])
	assert.True(t, names["Vault B"])
	assert.False(t, names["Disabled Vault"])
}

func TestCollectPositions_FailedReaderDoesNotSuppressOthers(t *testing.T) {
	vaultA := "0x83F20F44975D03b1b09e64809B757c47f942BEeA"
	deadVault := "0x4DEDf26112B3Ec8eC46e7E31EA5e123490B05B8B"

	agg, err := New(reader.Deps{
		Chain: &stubChain{shares: map[string]*big.Int{
			strings.ToLower(vaultA): wei(100),
			// deadVault missing: every read against it fails.
		}},
		Market:    emptyMarket{},
		Reference: fixedReference{},
	})
	require.NoError(t, err)

	badConfig := vaultConfig("Broken Config", vaultA, true)
	badConfig.Underlying = nil

	positions, err := agg.CollectPositions(context.Background(), testWallet, []types.ProtocolConfig{
		vaultConfig("Vault A", vaultA, true),
		vaultConfig("Dead Vault", deadVault, true),
		badConfig,
	})
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "Vault A", positions[0].Protocol)
}

func TestCollectPositions_EmptyWallet(t *testing.T) {
	agg, err := New(reader.Deps{Chain: &stubChain{}, Market: emptyMarket{}, Reference: fixedReference{}})
	require.NoError(t, err)

	_, err = agg.CollectPositions(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrNoWallet)
}

func TestCollectPositions_NoConfigsIsEmptyNotNil(t *testing.T) {
	agg, err := New(reader.Deps{Chain: &stubChain{}, Market: emptyMarket{}, Reference: fixedReference{}})
	require.NoError(t, err)

	positions, err := agg.CollectPositions(context.Background(), testWallet, nil)
	require.NoError(t, err)
	assert.NotNil(t, positions)
	assert.Empty(t, positions)
}

func TestPortfolio_ReducesToMetrics(t *testing.T) {
	vaultA := "0x83F20F44975D03b1b09e64809B757c47f942BEeA"

	agg, err := New(reader.Deps{
		Chain: &stubChain{shares: map[string]*big.Int{
			strings.ToLower(vaultA): wei(100),
		}},
		Market:    emptyMarket{},
		Reference: fixedReference{},
	})
	require.NoError(t, err)

	positions, metrics, err := agg.Portfolio(context.Background(), testWallet, []types.ProtocolConfig{
		vaultConfig("Vault A", vaultA, true),
	})
	require.NoError(t, err)
	require.Len(t, positions, 1)

	assert.InDelta(t, 100.0, metrics.TotalDepositedUSD, 1e-9)
	assert.InDelta(t, 4.0, metrics.WeightedAPY, 1e-9)
	assert.NotEmpty(t, metrics.Tier)
	assert.Contains(t, metrics.StrategyTags, "Lending Focused")
}

func TestNew_RequiresChain(t *testing.T) {
	_, err := New(reader.Deps{})
	assert.ErrorIs(t, err, reader.ErrChainReaderMissing)
}
