// Package contracts holds the addresses and interfaces of the on-chain
// contracts hopper talks to. Addresses are per-network constants.
package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// RawContract is an on-chain address paired with its interface.
type RawContract struct {
	Title   string
	Address common.Address
	ABI     *abi.ABI
}

// NativeToken is the placeholder routers use for the chain's native coin.
var NativeToken = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

// Routers
var (
	ArbitrumWooFi = RawContract{
		Title:   "arbitrum_woofi",
		Address: common.HexToAddress("0x9aed3a8896a85fe9a8cac52c9b402d092b629a30"),
		ABI:     WooFiRouterABI,
	}

	ArbitrumStargate = RawContract{
		Title:   "arbitrum_stargate",
		Address: common.HexToAddress("0x53bf833a5d6c4dda888f69c22c88c9f356a41614"),
		ABI:     StargateRouterABI,
	}

	AvalancheStargate = RawContract{
		Title:   "avalanche_stargate",
		Address: common.HexToAddress("0x45a01e4e04f14f7a4a6702c74187c5f6222033cd"),
		ABI:     StargateRouterABI,
	}

	PolygonStargate = RawContract{
		Title:   "polygon_stargate",
		Address: common.HexToAddress("0x45a01e4e04f14f7a4a6702c74187c5f6222033cd"),
		ABI:     StargateRouterABI,
	}

	BSCStargate = RawContract{
		Title:   "bsc_stargate",
		Address: common.HexToAddress("0x4a364f8c717cAAD9A442737Eb7b8A55cc6cf18D8"),
		ABI:     StargateRouterABI,
	}
)

// Tokens
var (
	ArbitrumUSDC  = common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
	ArbitrumUSDCe = common.HexToAddress("0xFF970A61A04b1cA14834A43f5dE4533eBDDB5CC8")
	ArbitrumUSDT  = common.HexToAddress("0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9")
	ArbitrumWBTC  = common.HexToAddress("0x2f2a2543B76A4166549F7aaB2e75Bef0aefC5B0f")
	AvalancheUSDC = common.HexToAddress("0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E")
	PolygonUSDC   = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	BSCUSDT       = common.HexToAddress("0x55d398326f99059fF775485246999027B3197955")
)

var tokens = map[string]map[string]common.Address{
	"arbitrum": {
		"USDC":   ArbitrumUSDC,
		"USDC.E": ArbitrumUSDCe,
		"USDT":   ArbitrumUSDT,
		"WBTC":   ArbitrumWBTC,
	},
	"avalanche": {
		"USDC": AvalancheUSDC,
	},
	"polygon": {
		"USDC": PolygonUSDC,
	},
	"bsc": {
		"USDT": BSCUSDT,
	},
}

// Token looks up a well-known token by network and symbol.
func Token(network, symbol string) (common.Address, bool) {
	byNetwork, ok := tokens[strings.ToLower(network)]
	if !ok {
		return common.Address{}, false
	}
	addr, ok := byNetwork[strings.ToUpper(symbol)]
	return addr, ok
}

// IsNative reports whether addr is the native coin placeholder.
func IsNative(addr common.Address) bool {
	return addr == NativeToken
}
