package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/chinmay1088/hopper/chains/ethereum"
	"github.com/chinmay1088/hopper/contracts"
)

var testAccount = common.HexToAddress("0x002b8491765536b7d4fe3e59db46596e1f577ecb")

type token struct {
	symbol   string
	decimals uint8
	balance  *big.Int
}

// fakeWallet records every transaction it is asked to send.
type fakeWallet struct {
	network    ethereum.Network
	native     *big.Int
	tokens     map[common.Address]token
	allowances map[common.Address]*big.Int
	lzFee      *big.Int

	sent      []ethereum.TxRequest
	sendErr   error
	receipt   error
	waitedFor []common.Hash
}

func newFakeWallet(network ethereum.Network) *fakeWallet {
	return &fakeWallet{
		network:    network,
		native:     new(big.Int),
		tokens:     map[common.Address]token{},
		allowances: map[common.Address]*big.Int{},
		lzFee:      new(big.Int),
	}
}

func (w *fakeWallet) Address() common.Address   { return testAccount }
func (w *fakeWallet) Network() ethereum.Network { return w.network }

func (w *fakeWallet) NativeBalance(context.Context) (ethereum.Amount, error) {
	return ethereum.AmountFromWei(w.native, w.network.Decimals), nil
}

func (w *fakeWallet) TokenBalance(_ context.Context, addr common.Address) (ethereum.Amount, error) {
	t, ok := w.tokens[addr]
	if !ok {
		return ethereum.Amount{}, fmt.Errorf("unknown token %s", addr.Hex())
	}
	return ethereum.AmountFromWei(t.balance, int32(t.decimals)), nil
}

func (w *fakeWallet) TokenDecimals(_ context.Context, addr common.Address) (uint8, error) {
	t, ok := w.tokens[addr]
	if !ok {
		return 0, fmt.Errorf("unknown token %s", addr.Hex())
	}
	return t.decimals, nil
}

func (w *fakeWallet) TokenSymbol(_ context.Context, addr common.Address) (string, error) {
	t, ok := w.tokens[addr]
	if !ok {
		return "", fmt.Errorf("unknown token %s", addr.Hex())
	}
	return t.symbol, nil
}

func (w *fakeWallet) Allowance(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if a, ok := w.allowances[token]; ok {
		return a, nil
	}
	return new(big.Int), nil
}

func (w *fakeWallet) Call(_ context.Context, _ common.Address, data []byte) ([]byte, error) {
	method, err := contracts.StargateRouterABI.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	if method.Name != "quoteLayerZeroFee" {
		return nil, errors.New("unexpected call " + method.Name)
	}
	return method.Outputs.Pack(w.lzFee, new(big.Int))
}

func (w *fakeWallet) Send(_ context.Context, req ethereum.TxRequest) (common.Hash, error) {
	if w.sendErr != nil {
		return common.Hash{}, w.sendErr
	}
	w.sent = append(w.sent, req)
	return common.BigToHash(big.NewInt(int64(len(w.sent)))), nil
}

func (w *fakeWallet) WaitForReceipt(_ context.Context, hash common.Hash, _ time.Duration) (*types.Receipt, error) {
	w.waitedFor = append(w.waitedFor, hash)
	if w.receipt != nil {
		return nil, w.receipt
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash}, nil
}

// method names of the sent transactions, in order
func (w *fakeWallet) sentMethods() []string {
	names := make([]string, 0, len(w.sent))
	for _, req := range w.sent {
		if len(req.Data) < 4 {
			names = append(names, "transfer")
			continue
		}
		for _, c := range []struct {
			name string
			abi  *abi.ABI
		}{
			{"erc20", contracts.ERC20ABI},
			{"woofi", contracts.WooFiRouterABI},
			{"stargate", contracts.StargateRouterABI},
		} {
			if m, err := c.abi.MethodById(req.Data[:4]); err == nil {
				names = append(names, c.name+"."+m.Name)
				break
			}
		}
	}
	return names
}

type fakePrices map[string]decimal.Decimal

func (p fakePrices) TokenPrice(_ context.Context, symbol string) (decimal.Decimal, error) {
	price, ok := p[strings.ToUpper(symbol)]
	if !ok {
		return decimal.Zero, fmt.Errorf("no price for %s", symbol)
	}
	return price, nil
}

func testBase(w *fakeWallet, prices fakePrices) Base {
	return Base{
		Wallet:         w,
		Prices:         prices,
		Logger:         log.New(io.Discard),
		ReceiptTimeout: time.Second,
	}
}
