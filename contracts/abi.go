package contracts

import (
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

//go:embed abis/*.json
var abiFiles embed.FS

// Parsed contract interfaces shared by every network.
var (
	ERC20ABI          = mustLoad("erc20.json")
	WooFiRouterABI    = mustLoad("woofi.json")
	StargateRouterABI = mustLoad("stargate.json")
)

// LoadABI parses one of the embedded ABI files.
func LoadABI(name string) (*abi.ABI, error) {
	data, err := abiFiles.ReadFile("abis/" + name)
	if err != nil {
		return nil, fmt.Errorf("failed to read abi %s: %w", name, err)
	}

	parsed := new(abi.ABI)
	if err := json.Unmarshal(data, parsed); err != nil {
		return nil, fmt.Errorf("failed to decompose abi %s: %w", name, err)
	}
	return parsed, nil
}

func mustLoad(name string) *abi.ABI {
	parsed, err := LoadABI(name)
	if err != nil {
		panic(err)
	}
	return parsed
}

// Decode splits transaction input data into the method name and its named
// arguments. The data may carry a 0x prefix.
func Decode(contract *abi.ABI, data string) (string, map[string]interface{}, error) {
	inputs := map[string]interface{}{}

	data = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(data), "0x"), "0X")
	if len(data) < 8 {
		return "", inputs, fmt.Errorf("input data is too short: %d hex chars", len(data))
	}

	sig, err := hex.DecodeString(data[:8])
	if err != nil {
		return "", inputs, fmt.Errorf("failed to extract method signature: %w", err)
	}

	method, err := contract.MethodById(sig)
	if err != nil {
		return "", inputs, fmt.Errorf("failed to find method by signature %x: %w", sig, err)
	}

	payload, err := hex.DecodeString(data[8:])
	if err != nil {
		return method.Name, inputs, fmt.Errorf("failed to extract method arguments: %w", err)
	}

	if err := method.Inputs.UnpackIntoMap(inputs, payload); err != nil {
		return method.Name, inputs, fmt.Errorf("failed to unpack arguments of %s: %w", method.Name, err)
	}
	return method.Name, inputs, nil
}

// ByName returns the ABI registered under a short contract name.
func ByName(name string) (*abi.ABI, error) {
	switch strings.ToLower(name) {
	case "erc20", "token":
		return ERC20ABI, nil
	case "woofi":
		return WooFiRouterABI, nil
	case "stargate":
		return StargateRouterABI, nil
	default:
		return nil, fmt.Errorf("unknown contract %q (use erc20, woofi or stargate)", name)
	}
}
