package config

import (
	"github.com/yieldlens/yieldlens/internal/types"
)

// DefaultProtocolConfigs seeds the protocol store on first start so a fresh
// deployment has something to read. Addresses are Ethereum mainnet.
var DefaultProtocolConfigs = []types.ProtocolConfig{
	{
		Name:            "Uniswap V3",
		Logo:            "uniswap.svg",
		Template:        types.TemplateConcentratedLiquidity,
		Enabled:         true,
		ChainID:         1,
		PositionManager: "0xC36442b4a4522E871399CD717aBDD847Ab11FE88",
		Factory:         "0x1F98431c8aD98523631AE4a59f267346ea31F984",
		FallbackAPY:     8.0,
		Kind:            types.KindLP,
	},
	{
		Name:         "sDAI Savings",
		Logo:         "sdai.svg",
		Template:     types.TemplateVault,
		Enabled:      true,
		ChainID:      1,
		VaultAddress: "0x83F20F44975D03b1b09e64809B757c47f942BEeA",
		Underlying: &types.UnderlyingToken{
			Address:  "0x6B175474E89094C44Da98b954EedeAC495271d0F",
			Symbol:   "DAI",
			Decimals: 18,
			PriceUSD: 1.0,
		},
		FallbackAPY: 5.0,
		Kind:        types.KindLending,
	},
}
