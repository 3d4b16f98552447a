package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yieldlens/yieldlens/internal/types"
)

func validVaultConfig() types.ProtocolConfig {
	return types.ProtocolConfig{
		Name:         "Savings DAI",
		Template:     types.TemplateVault,
		ChainID:      1,
		VaultAddress: "0x83F20F44975D03b1b09e64809B757c47f942BEeA",
		Underlying:   &types.UnderlyingToken{Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Symbol: "DAI", Decimals: 18, PriceUSD: 1},
		Kind:         types.KindLending,
	}
}

func validCLConfig() types.ProtocolConfig {
	return types.ProtocolConfig{
		Name:            "Uniswap V3",
		Template:        types.TemplateConcentratedLiquidity,
		ChainID:         1,
		PositionManager: "0xC36442b4a4522E871399CD717aBDD847Ab11FE88",
		Factory:         "0x1F98431c8aD98523631AE4a59f267346ea31F984",
		Kind:            types.KindLP,
	}
}

func TestValidateConfig_AcceptsValidConfigs(t *testing.T) {
	assert.NoError(t, ValidateConfig(validVaultConfig()))
	assert.NoError(t, ValidateConfig(validCLConfig()))

	staking := validVaultConfig()
	staking.Kind = types.KindStaking
	assert.NoError(t, ValidateConfig(staking))
}

func TestValidateConfig_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.ProtocolConfig)
	}{
		{"empty name", func(c *types.ProtocolConfig) { c.Name = "  " }},
		{"missing chain id", func(c *types.ProtocolConfig) { c.ChainID = 0 }},
		{"unknown template", func(c *types.ProtocolConfig) { c.Template = "perpetual" }},
		{"vault without address", func(c *types.ProtocolConfig) { c.VaultAddress = "" }},
		{"vault without underlying", func(c *types.ProtocolConfig) { c.Underlying = nil }},
		{"vault with lp kind", func(c *types.ProtocolConfig) { c.Kind = types.KindLP }},
		{"unknown kind", func(c *types.ProtocolConfig) { c.Kind = "margin" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validVaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, ValidateConfig(cfg), ErrInvalidConfig)
		})
	}
}

func TestValidateConfig_ConcentratedLiquidityShape(t *testing.T) {
	missing := validCLConfig()
	missing.Factory = ""
	assert.ErrorIs(t, ValidateConfig(missing), ErrInvalidConfig)

	wrongKind := validCLConfig()
	wrongKind.Kind = types.KindLending
	assert.ErrorIs(t, ValidateConfig(wrongKind), ErrInvalidConfig)
}
