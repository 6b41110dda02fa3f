package ethereum

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinmay1088/hopper/contracts"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func newTestClient(t *testing.T, backend *fakeBackend, network Network) *Client {
	t.Helper()
	key, err := ParsePrivateKey("0x" + testKey)
	require.NoError(t, err)
	c := NewClient(backend, network, key)
	c.pollInterval = time.Millisecond
	return c
}

func TestAmountRoundTrip(t *testing.T) {
	values := []string{"0", "1", "999999", "123456789012345678901234567890", "1000000000000000000"}
	for _, v := range values {
		wei, ok := new(big.Int).SetString(v, 10)
		require.True(t, ok)
		for _, d := range []int32{0, 6, 8, 18, 36} {
			a := AmountFromWei(wei, d)
			back := NewAmount(a.Ether(), d)
			assert.Equal(t, 0, wei.Cmp(back.Wei()), "value %s decimals %d", v, d)
		}
	}
}

func TestParseAmount(t *testing.T) {
	a, err := ParseAmount("0.5", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500000), a.Wei())
	assert.Equal(t, "0.5", a.String())

	// finer than the precision is truncated
	a, err = ParseAmount("1.0000019", 6)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000001), a.Wei())

	_, err = ParseAmount("-1", 18)
	assert.ErrorIs(t, err, ErrNegativeAmount)

	_, err = ParseAmount("abc", 18)
	assert.Error(t, err)

	_, err = ParseAmount("1", 40)
	assert.Error(t, err)
}

func TestAmountHelpers(t *testing.T) {
	a := AmountFromWei(big.NewInt(1001), 3)
	assert.Equal(t, big.NewInt(500), a.Fraction(1, 2).Wei())
	assert.False(t, a.IsZero())
	assert.True(t, Amount{}.IsZero())
	assert.Equal(t, 1, a.Cmp(AmountFromWei(big.NewInt(1000), 3)))

	// Wei hands out a copy
	a.Wei().SetInt64(0)
	assert.Equal(t, big.NewInt(1001), a.Wei())

	wei := EtherToWei(decimal.RequireFromString("1.5"))
	assert.Equal(t, "1500000000000000000", wei.String())
	assert.True(t, WeiToEther(wei).Equal(decimal.RequireFromString("1.5")))
}

func TestNetworkByName(t *testing.T) {
	n, err := NetworkByName("Avalanche")
	require.NoError(t, err)
	assert.Equal(t, "AVAX", n.CoinSymbol)

	n, err = NetworkByName("bnb")
	require.NoError(t, err)
	assert.Equal(t, BSC.Name, n.Name)
	assert.False(t, n.EIP1559)

	_, err = NetworkByName("fantom")
	assert.ErrorIs(t, err, ErrUnknownNetwork)

	list := Networks()
	require.Len(t, list, 6)
	assert.Equal(t, "arbitrum", list[0].Name)
	assert.Equal(t, "https://arbiscan.io/tx/0xabc", Arbitrum.TxURL("0xabc"))
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"), addr)

	_, err = ParseAddress("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed")
	assert.NoError(t, err)

	// broken checksum
	_, err = ParseAddress("0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	assert.Error(t, err)

	_, err = ParseAddress("not-an-address")
	assert.Error(t, err)
}

func TestTokenReads(t *testing.T) {
	backend := newFakeBackend()
	backend.tokenBalance = big.NewInt(2_500_000)
	backend.allowance = big.NewInt(42)
	c := newTestClient(t, backend, Arbitrum)
	ctx := context.Background()

	balance, err := c.TokenBalance(ctx, contracts.ArbitrumUSDC)
	require.NoError(t, err)
	assert.Equal(t, int32(6), balance.Decimals())
	assert.Equal(t, "2.5", balance.String())

	symbol, err := c.TokenSymbol(ctx, contracts.ArbitrumUSDC)
	require.NoError(t, err)
	assert.Equal(t, "USDC", symbol)

	allowance, err := c.Allowance(ctx, contracts.ArbitrumUSDC, contracts.ArbitrumWooFi.Address)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(42), allowance)

	backend.balance = big.NewInt(3e17)
	native, err := c.NativeBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.3", native.String())
}

func TestSendDynamicFee(t *testing.T) {
	backend := newFakeBackend()
	backend.nonce = 7
	c := newTestClient(t, backend, Arbitrum)

	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	hash, err := c.Send(context.Background(), TxRequest{To: to, Value: big.NewInt(5)})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)

	tx := backend.sent[0]
	assert.Equal(t, hash, tx.Hash())
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(120000), tx.Gas())
	assert.Equal(t, big.NewInt(100_000_000), tx.GasTipCap())
	assert.Equal(t, big.NewInt(120_000_000), tx.GasFeeCap())
	assert.Equal(t, to, *tx.To())

	sender, err := types.Sender(types.LatestSignerForChainID(Arbitrum.ChainID), tx)
	require.NoError(t, err)
	assert.Equal(t, c.Address(), sender)
}

func TestSendLegacy(t *testing.T) {
	backend := newFakeBackend()
	backend.chainID = big.NewInt(56)
	c := newTestClient(t, backend, BSC)

	_, err := c.Send(context.Background(), TxRequest{To: common.HexToAddress("0x01")})
	require.NoError(t, err)
	require.Len(t, backend.sent, 1)
	tx := backend.sent[0]
	assert.Equal(t, uint8(types.LegacyTxType), tx.Type())
	assert.Equal(t, big.NewInt(1_200_000_000), tx.GasPrice())
	assert.Zero(t, tx.Value().Sign())
}

func TestSendReadOnly(t *testing.T) {
	backend := newFakeBackend()
	c := NewClient(backend, Arbitrum, nil).WithAddress(common.HexToAddress("0x02"))
	_, err := c.Send(context.Background(), TxRequest{To: common.HexToAddress("0x01")})
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.Empty(t, backend.sent)
}

func TestApproveRequest(t *testing.T) {
	req, err := ApproveRequest(contracts.ArbitrumUSDC, contracts.ArbitrumWooFi.Address, big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, contracts.ArbitrumUSDC, req.To)
	assert.Nil(t, req.Value)
	assert.Equal(t, contracts.ERC20ABI.Methods["approve"].ID, req.Data[:4])
}

func TestValidateTransaction(t *testing.T) {
	to := common.HexToAddress("0x01")
	ok := NewTransaction(big.NewInt(1), 0, TxRequest{To: to}, 21000, nil, big.NewInt(1))
	assert.NoError(t, ValidateTransaction(ok))

	lowGas := NewTransaction(big.NewInt(1), 0, TxRequest{To: to}, 20000, nil, big.NewInt(1))
	assert.Error(t, ValidateTransaction(lowGas))

	noPrice := NewTransaction(big.NewInt(1), 0, TxRequest{To: to}, 21000, nil, big.NewInt(0))
	assert.Error(t, ValidateTransaction(noPrice))
}

func TestWaitForReceiptMined(t *testing.T) {
	backend := newFakeBackend()
	backend.receipts = []receiptReply{
		{err: errors.New("connection reset")},
		{receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(9)}},
	}
	c := newTestClient(t, backend, Arbitrum)

	receipt, err := c.WaitForReceipt(context.Background(), common.HexToHash("0x01"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(9), receipt.BlockNumber)
	assert.Equal(t, 2, backend.calls)
}

func TestWaitForReceiptReverted(t *testing.T) {
	backend := newFakeBackend()
	backend.receipts = []receiptReply{
		{receipt: &types.Receipt{Status: types.ReceiptStatusFailed}},
	}
	c := newTestClient(t, backend, Arbitrum)

	receipt, err := c.WaitForReceipt(context.Background(), common.HexToHash("0x01"), time.Second)
	assert.ErrorIs(t, err, ErrTxReverted)
	assert.NotErrorIs(t, err, ErrReceiptTimeout)
	require.NotNil(t, receipt)
}

func TestWaitForReceiptTimeout(t *testing.T) {
	backend := newFakeBackend()
	c := newTestClient(t, backend, Arbitrum)

	_, err := c.WaitForReceipt(context.Background(), common.HexToHash("0x01"), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrReceiptTimeout)
	assert.NotErrorIs(t, err, ErrTxReverted)
	assert.Greater(t, backend.calls, 1)
}

func TestWaitForReceiptTimeoutKeepsLastError(t *testing.T) {
	backend := newFakeBackend()
	backend.receipts = []receiptReply{{err: errors.New("rpc unavailable")}}
	c := newTestClient(t, backend, Arbitrum)

	_, err := c.WaitForReceipt(context.Background(), common.HexToHash("0x01"), 20*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReceiptTimeout)
	assert.Contains(t, err.Error(), "last error: rpc unavailable")
	assert.Greater(t, backend.calls, 1)
}

func TestWaitForReceiptCancelled(t *testing.T) {
	backend := newFakeBackend()
	c := newTestClient(t, backend, Arbitrum)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.WaitForReceipt(ctx, common.HexToHash("0x01"), time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientAddressFromKey(t *testing.T) {
	key, err := crypto.HexToECDSA(testKey)
	require.NoError(t, err)
	c := NewClient(newFakeBackend(), Arbitrum, key)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), c.Address())
	assert.Equal(t, Arbitrum.Name, c.Network().Name)
}
