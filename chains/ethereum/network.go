package ethereum

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
)

var ErrUnknownNetwork = errors.New("unknown network")

// Network describes an EVM chain hopper can talk to
type Network struct {
	Name       string
	Title      string
	ChainID    *big.Int
	RPC        string
	CoinSymbol string
	Decimals   int32
	Explorer   string
	EIP1559    bool
}

var (
	Ethereum = Network{
		Name:       "ethereum",
		Title:      "Ethereum",
		ChainID:    big.NewInt(1),
		RPC:        "https://ethereum-rpc.publicnode.com",
		CoinSymbol: "ETH",
		Decimals:   18,
		Explorer:   "https://etherscan.io",
		EIP1559:    true,
	}

	Arbitrum = Network{
		Name:       "arbitrum",
		Title:      "Arbitrum",
		ChainID:    big.NewInt(42161),
		RPC:        "https://arb1.arbitrum.io/rpc",
		CoinSymbol: "ETH",
		Decimals:   18,
		Explorer:   "https://arbiscan.io",
		EIP1559:    true,
	}

	Optimism = Network{
		Name:       "optimism",
		Title:      "Optimism",
		ChainID:    big.NewInt(10),
		RPC:        "https://mainnet.optimism.io",
		CoinSymbol: "ETH",
		Decimals:   18,
		Explorer:   "https://optimistic.etherscan.io",
		EIP1559:    true,
	}

	Avalanche = Network{
		Name:       "avalanche",
		Title:      "Avalanche",
		ChainID:    big.NewInt(43114),
		RPC:        "https://api.avax.network/ext/bc/C/rpc",
		CoinSymbol: "AVAX",
		Decimals:   18,
		Explorer:   "https://snowtrace.io",
		EIP1559:    true,
	}

	Polygon = Network{
		Name:       "polygon",
		Title:      "Polygon",
		ChainID:    big.NewInt(137),
		RPC:        "https://polygon-rpc.com",
		CoinSymbol: "POL",
		Decimals:   18,
		Explorer:   "https://polygonscan.com",
		EIP1559:    true,
	}

	BSC = Network{
		Name:       "bsc",
		Title:      "BSC",
		ChainID:    big.NewInt(56),
		RPC:        "https://bsc-dataseed.binance.org",
		CoinSymbol: "BNB",
		Decimals:   18,
		Explorer:   "https://bscscan.com",
		EIP1559:    false,
	}
)

var networks = map[string]Network{
	Ethereum.Name:  Ethereum,
	Arbitrum.Name:  Arbitrum,
	Optimism.Name:  Optimism,
	Avalanche.Name: Avalanche,
	Polygon.Name:   Polygon,
	BSC.Name:       BSC,
}

// NetworkByName resolves a network by its name, case-insensitively.
// "avax", "matic" and "bnb" are accepted as aliases.
func NetworkByName(name string) (Network, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "avax":
		key = Avalanche.Name
	case "matic":
		key = Polygon.Name
	case "bnb", "binance":
		key = BSC.Name
	case "arb":
		key = Arbitrum.Name
	case "eth", "mainnet":
		key = Ethereum.Name
	}

	network, ok := networks[key]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
	return network, nil
}

// Networks returns every supported network ordered by name
func Networks() []Network {
	list := make([]Network, 0, len(networks))
	for _, n := range networks {
		list = append(list, n)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// TxURL links a transaction hash to the network's block explorer.
func (n Network) TxURL(hash string) string {
	return n.Explorer + "/tx/" + hash
}

// AddressURL links an address to the network's block explorer.
func (n Network) AddressURL(address string) string {
	return n.Explorer + "/address/" + address
}

func (n Network) String() string {
	return n.Title
}
