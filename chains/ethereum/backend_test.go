package ethereum

import (
	"context"
	"errors"
	"math/big"
	"sync"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/chinmay1088/hopper/contracts"
)

// fakeBackend answers RPC calls from in-memory state.
type fakeBackend struct {
	mu sync.Mutex

	chainID  *big.Int
	balance  *big.Int
	nonce    uint64
	gas      uint64
	gasPrice *big.Int
	tip      *big.Int
	baseFee  *big.Int

	tokenDecimals uint8
	tokenSymbol   string
	tokenBalance  *big.Int
	allowance     *big.Int

	// receipts are handed out one per TransactionReceipt call
	receipts []receiptReply
	sent     []*types.Transaction
	calls    int
}

type receiptReply struct {
	receipt *types.Receipt
	err     error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID:       big.NewInt(42161),
		balance:       big.NewInt(0),
		gas:           100000,
		gasPrice:      big.NewInt(1_000_000_000),
		tip:           big.NewInt(100_000_000),
		baseFee:       big.NewInt(10_000_000),
		tokenDecimals: 6,
		tokenSymbol:   "USDC",
		tokenBalance:  big.NewInt(0),
		allowance:     big.NewInt(0),
	}
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) { return b.chainID, nil }

func (b *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return b.balance, nil
}

func (b *fakeBackend) CallContract(_ context.Context, msg geth.CallMsg, _ *big.Int) ([]byte, error) {
	method, err := contracts.ERC20ABI.MethodById(msg.Data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "decimals":
		return method.Outputs.Pack(b.tokenDecimals)
	case "symbol":
		return method.Outputs.Pack(b.tokenSymbol)
	case "balanceOf":
		return method.Outputs.Pack(b.tokenBalance)
	case "allowance":
		return method.Outputs.Pack(b.allowance)
	}
	return nil, errors.New("unsupported call " + method.Name)
}

func (b *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return b.nonce, nil
}

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) { return b.gasPrice, nil }

func (b *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) { return b.tip, nil }

func (b *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: b.baseFee}, nil
}

func (b *fakeBackend) EstimateGas(context.Context, geth.CallMsg) (uint64, error) { return b.gas, nil }

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if len(b.receipts) == 0 {
		return nil, geth.NotFound
	}
	reply := b.receipts[0]
	if len(b.receipts) > 1 {
		b.receipts = b.receipts[1:]
	}
	return reply.receipt, reply.err
}

func (b *fakeBackend) Close() {}
