package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/chinmay1088/hopper/contracts"
)

const defaultPollInterval = 2 * time.Second

var (
	ErrReadOnly        = errors.New("client has no signing key")
	ErrChainIDMismatch = errors.New("rpc chain id does not match network")
)

// Backend is the subset of the JSON-RPC API the client relies on.
// *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg geth.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg geth.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// Config describes how to reach a network.
type Config struct {
	Network Network
	// RPCURL overrides the network's default endpoint.
	RPCURL string
	// HTTPClient carries proxy settings; nil uses a plain client.
	HTTPClient *http.Client
	// PrivateKey signs transactions. Without it the client is watch-only
	// and Address must be set.
	PrivateKey   *ecdsa.PrivateKey
	Address      common.Address
	PollInterval time.Duration
}

// Client is an account bound to one network
type Client struct {
	backend      Backend
	network      Network
	key          *ecdsa.PrivateKey
	address      common.Address
	pollInterval time.Duration
}

// Dial connects to the configured RPC endpoint and checks that it serves the
// expected chain.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	url := cfg.RPCURL
	if url == "" {
		url = cfg.Network.RPC
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	rpcClient, err := rpc.DialOptions(ctx, url, rpc.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Network.Title, err)
	}
	backend := ethclient.NewClient(rpcClient)

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	if cfg.Network.ChainID != nil && chainID.Cmp(cfg.Network.ChainID) != 0 {
		backend.Close()
		return nil, fmt.Errorf("%w: %s expects %s, rpc returned %s",
			ErrChainIDMismatch, cfg.Network.Title, cfg.Network.ChainID, chainID)
	}

	client := NewClient(backend, cfg.Network, cfg.PrivateKey)
	if cfg.PrivateKey == nil {
		client.address = cfg.Address
	}
	if cfg.PollInterval > 0 {
		client.pollInterval = cfg.PollInterval
	}
	return client, nil
}

// NewClient wraps an existing backend. key may be nil for a watch-only client.
func NewClient(backend Backend, network Network, key *ecdsa.PrivateKey) *Client {
	c := &Client{
		backend:      backend,
		network:      network,
		key:          key,
		pollInterval: defaultPollInterval,
	}
	if key != nil {
		c.address = crypto.PubkeyToAddress(key.PublicKey)
	}
	return c
}

// WithAddress returns a watch-only view of another account on the same
// connection.
func (c *Client) WithAddress(address common.Address) *Client {
	return &Client{
		backend:      c.backend,
		network:      c.network,
		address:      address,
		pollInterval: c.pollInterval,
	}
}

func (c *Client) Address() common.Address { return c.address }

func (c *Client) Network() Network { return c.network }

func (c *Client) Close() {
	c.backend.Close()
}

// NativeBalance returns the balance of the network's coin.
func (c *Client) NativeBalance(ctx context.Context) (Amount, error) {
	wei, err := c.backend.BalanceAt(ctx, c.address, nil)
	if err != nil {
		return Amount{}, fmt.Errorf("failed to get %s balance: %w", c.network.CoinSymbol, err)
	}
	return AmountFromWei(wei, c.network.Decimals), nil
}

// TokenBalance returns the ERC-20 balance of the account, scaled by the
// token's decimals.
func (c *Client) TokenBalance(ctx context.Context, token common.Address) (Amount, error) {
	decimals, err := c.TokenDecimals(ctx, token)
	if err != nil {
		return Amount{}, err
	}

	out, err := c.callERC20(ctx, token, "balanceOf", c.address)
	if err != nil {
		return Amount{}, err
	}
	wei, ok := out[0].(*big.Int)
	if !ok {
		return Amount{}, fmt.Errorf("unexpected balanceOf result %T", out[0])
	}
	return AmountFromWei(wei, int32(decimals)), nil
}

func (c *Client) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := c.callERC20(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals result %T", out[0])
	}
	return decimals, nil
}

func (c *Client) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	out, err := c.callERC20(ctx, token, "symbol")
	if err != nil {
		return "", err
	}
	symbol, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected symbol result %T", out[0])
	}
	return symbol, nil
}

// Allowance returns how much spender may move on behalf of the account.
func (c *Client) Allowance(ctx context.Context, token, spender common.Address) (*big.Int, error) {
	out, err := c.callERC20(ctx, token, "allowance", c.address, spender)
	if err != nil {
		return nil, err
	}
	allowance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected allowance result %T", out[0])
	}
	return allowance, nil
}

// Call executes a read-only contract call against the latest block.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := geth.CallMsg{From: c.address, To: &to, Data: data}
	out, err := c.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", to.Hex(), err)
	}
	return out, nil
}

func (c *Client) callERC20(ctx context.Context, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contracts.ERC20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	raw, err := c.Call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	out, err := contracts.ERC20ABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s of %s: %w", method, token.Hex(), err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s result from %s", method, token.Hex())
	}
	return out, nil
}
