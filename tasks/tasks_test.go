package tasks

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chinmay1088/hopper/chains/ethereum"
	"github.com/chinmay1088/hopper/contracts"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestMinOutput(t *testing.T) {
	out, err := MinOutput(dec("2"), dec("1500"), dec("1"))
	require.NoError(t, err)
	assert.True(t, out.Equal(dec("2970")), out.String())

	out, err = MinOutput(dec("0.5"), dec("1"), dec("0"))
	require.NoError(t, err)
	assert.True(t, out.Equal(dec("0.5")))

	_, err = MinOutput(dec("1"), dec("1"), dec("100"))
	assert.ErrorIs(t, err, ErrInvalidSlippage)
	_, err = MinOutput(dec("1"), dec("1"), dec("-0.1"))
	assert.ErrorIs(t, err, ErrInvalidSlippage)
	_, err = MinOutput(dec("-1"), dec("1"), dec("1"))
	assert.Error(t, err)
}

func TestMinOutputMonotonic(t *testing.T) {
	amounts := []string{"0", "0.000001", "1", "12345.6789"}
	rates := []string{"0.00003", "1", "2500.5"}
	for _, a := range amounts {
		for _, r := range rates {
			prev, err := MinOutput(dec(a), dec(r), dec("0"))
			require.NoError(t, err)
			expected := dec(a).Mul(dec(r))
			assert.True(t, prev.Equal(expected))

			for _, s := range []string{"0.1", "0.5", "1", "5", "50", "99.99"} {
				out, err := MinOutput(dec(a), dec(r), dec(s))
				require.NoError(t, err)
				assert.False(t, out.IsNegative())
				assert.True(t, out.LessThanOrEqual(prev), "amount %s rate %s slippage %s", a, r, s)
				prev = out
			}
		}
	}
}

func newWooFiWallet() *fakeWallet {
	w := newFakeWallet(ethereum.Arbitrum)
	w.native = ethereum.EtherToWei(dec("1"))
	w.tokens[contracts.ArbitrumUSDC] = token{symbol: "USDC", decimals: 6, balance: big.NewInt(3_000_000_000)}
	w.tokens[contracts.ArbitrumWBTC] = token{symbol: "WBTC", decimals: 8, balance: big.NewInt(0)}
	return w
}

var woofiPrices = fakePrices{
	"ETH":  dec("3000"),
	"USDC": dec("1"),
	"WBTC": dec("60000"),
}

func TestSwapNativeSkipsApproval(t *testing.T) {
	w := newWooFiWallet()
	swapper := NewSwapper(testBase(w, woofiPrices), WooFi{})

	res, err := swapper.Swap(context.Background(), SwapParams{
		From:     contracts.NativeToken,
		To:       contracts.ArbitrumUSDC,
		Amount:   decPtr("0.1"),
		Slippage: dec("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"woofi.swap"}, w.sentMethods())

	req := w.sent[0]
	assert.Equal(t, contracts.ArbitrumWooFi.Address, req.To)
	assert.Equal(t, ethereum.EtherToWei(dec("0.1")), req.Value)

	args, err := contracts.WooFiRouterABI.Methods["swap"].Inputs.Unpack(req.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, contracts.NativeToken, args[0])
	assert.Equal(t, contracts.ArbitrumUSDC, args[1])
	assert.Equal(t, ethereum.EtherToWei(dec("0.1")), args[2])
	// 0.1 ETH * 3000 * 0.99 = 297 USDC
	assert.Equal(t, big.NewInt(297_000_000), args[3])
	assert.Equal(t, testAccount, args[4])
	assert.Equal(t, testAccount, args[5])

	assert.Equal(t, "0.1 ETH was swapped to 297 USDC via WooFi", res.Summary)
	assert.Equal(t, w.waitedFor[0], res.TxHash)
	assert.Contains(t, res.String(), res.TxHash.Hex())
	assert.Contains(t, res.Explorer, "arbiscan.io/tx/")
}

func TestSwapTokenApprovesFirst(t *testing.T) {
	w := newWooFiWallet()
	swapper := NewSwapper(testBase(w, woofiPrices), WooFi{})

	_, err := swapper.Swap(context.Background(), SwapParams{
		From:     contracts.ArbitrumUSDC,
		To:       contracts.NativeToken,
		Amount:   decPtr("600"),
		Slippage: dec("0.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"erc20.approve", "woofi.swap"}, w.sentMethods())
	// the approval is confirmed before the swap goes out
	assert.Len(t, w.waitedFor, 2)

	approve := w.sent[0]
	assert.Equal(t, contracts.ArbitrumUSDC, approve.To)
	args, err := contracts.ERC20ABI.Methods["approve"].Inputs.Unpack(approve.Data[4:])
	require.NoError(t, err)
	assert.Equal(t, contracts.ArbitrumWooFi.Address, args[0])
	assert.Equal(t, big.NewInt(600_000_000), args[1])

	assert.Nil(t, w.sent[1].Value)
}

func TestSwapTokenWithAllowance(t *testing.T) {
	w := newWooFiWallet()
	w.allowances[contracts.ArbitrumUSDC] = big.NewInt(1_000_000_000)
	swapper := NewSwapper(testBase(w, woofiPrices), WooFi{})

	_, err := swapper.Swap(context.Background(), SwapParams{
		From:     contracts.ArbitrumUSDC,
		To:       contracts.ArbitrumWBTC,
		Amount:   decPtr("600"),
		Slippage: dec("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"woofi.swap"}, w.sentMethods())

	args, err := contracts.WooFiRouterABI.Methods["swap"].Inputs.Unpack(w.sent[0].Data[4:])
	require.NoError(t, err)
	// 600 / 60000 * 0.99 = 0.0099 WBTC
	assert.Equal(t, big.NewInt(990_000), args[3])
}

func TestSwapDefaultAmounts(t *testing.T) {
	w := newWooFiWallet()
	swapper := NewSwapper(testBase(w, woofiPrices), WooFi{})

	// half of the native balance
	res, err := swapper.Swap(context.Background(), SwapParams{
		From:     contracts.NativeToken,
		To:       contracts.ArbitrumUSDC,
		Slippage: dec("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, ethereum.EtherToWei(dec("0.5")), w.sent[0].Value)
	assert.Contains(t, res.Summary, "0.5 ETH")

	// the whole token balance
	w.allowances[contracts.ArbitrumUSDC] = big.NewInt(3_000_000_000)
	res, err = swapper.Swap(context.Background(), SwapParams{
		From:     contracts.ArbitrumUSDC,
		To:       contracts.NativeToken,
		Slippage: dec("1"),
	})
	require.NoError(t, err)
	assert.Contains(t, res.Summary, "3000 USDC")
}

func TestSwapInsufficientBalance(t *testing.T) {
	w := newWooFiWallet()
	swapper := NewSwapper(testBase(w, woofiPrices), WooFi{})

	_, err := swapper.Swap(context.Background(), SwapParams{
		From:     contracts.NativeToken,
		To:       contracts.ArbitrumUSDC,
		Amount:   decPtr("2"),
		Slippage: dec("1"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, w.sent)

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "Failed swap ETH 2 to USDC via WooFi: too low balance: 1", failure.Error())
}

func TestSwapRejections(t *testing.T) {
	w := newWooFiWallet()
	w.tokens[contracts.ArbitrumWBTC] = token{symbol: "WBTC", decimals: 8, balance: big.NewInt(0)}
	swapper := NewSwapper(testBase(w, woofiPrices), WooFi{})
	ctx := context.Background()

	_, err := swapper.Swap(ctx, SwapParams{From: contracts.ArbitrumWBTC, To: contracts.ArbitrumUSDC, Slippage: dec("1")})
	assert.ErrorIs(t, err, ErrZeroAmount)

	_, err = swapper.Swap(ctx, SwapParams{From: contracts.ArbitrumUSDC, To: contracts.ArbitrumUSDC, Slippage: dec("1")})
	assert.ErrorIs(t, err, ErrSameToken)

	_, err = swapper.Swap(ctx, SwapParams{From: contracts.NativeToken, To: contracts.ArbitrumUSDC, Amount: decPtr("0.1"), Slippage: dec("100")})
	assert.ErrorIs(t, err, ErrInvalidSlippage)

	other := NewSwapper(testBase(newFakeWallet(ethereum.Polygon), woofiPrices), WooFi{})
	_, err = other.Swap(ctx, SwapParams{From: contracts.NativeToken, To: contracts.PolygonUSDC, Slippage: dec("1")})
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)

	assert.Empty(t, w.sent)
}

func TestSwapRevertedReceipt(t *testing.T) {
	w := newWooFiWallet()
	w.receipt = ethereum.ErrTxReverted
	swapper := NewSwapper(testBase(w, woofiPrices), WooFi{})

	_, err := swapper.Swap(context.Background(), SwapParams{
		From:     contracts.NativeToken,
		To:       contracts.ArbitrumUSDC,
		Amount:   decPtr("0.1"),
		Slippage: dec("1"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ethereum.ErrTxReverted)

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.NotEqual(t, common.Hash{}, failure.TxHash)
}

func TestSwapApprovalFailureStopsSwap(t *testing.T) {
	w := newWooFiWallet()
	w.receipt = ethereum.ErrReceiptTimeout
	swapper := NewSwapper(testBase(w, woofiPrices), WooFi{})

	_, err := swapper.Swap(context.Background(), SwapParams{
		From:     contracts.ArbitrumUSDC,
		To:       contracts.NativeToken,
		Amount:   decPtr("1"),
		Slippage: dec("1"),
	})
	assert.ErrorIs(t, err, ErrApprovalFailed)
	assert.ErrorIs(t, err, ethereum.ErrReceiptTimeout)
	assert.Equal(t, []string{"erc20.approve"}, w.sentMethods())
}

func TestResolveToken(t *testing.T) {
	addr, err := ResolveToken(ethereum.Arbitrum, "eth")
	require.NoError(t, err)
	assert.Equal(t, contracts.NativeToken, addr)

	addr, err = ResolveToken(ethereum.Arbitrum, "USDC")
	require.NoError(t, err)
	assert.Equal(t, contracts.ArbitrumUSDC, addr)

	addr, err = ResolveToken(ethereum.Avalanche, "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E")
	require.NoError(t, err)
	assert.Equal(t, contracts.AvalancheUSDC, addr)

	_, err = ResolveToken(ethereum.Avalanche, "WBTC")
	assert.Error(t, err)
}

func newStargateWallet() *fakeWallet {
	w := newFakeWallet(ethereum.Avalanche)
	w.native = ethereum.EtherToWei(dec("1"))
	w.lzFee = ethereum.EtherToWei(dec("0.02"))
	w.tokens[contracts.AvalancheUSDC] = token{symbol: "USDC", decimals: 6, balance: big.NewInt(1_000_000)}
	return w
}

var stargatePrices = fakePrices{
	"AVAX": dec("20"),
	"BNB":  dec("300"),
	"POL":  dec("0.5"),
}

func TestStargateCalldataMatchesRecordedTransfer(t *testing.T) {
	w := newStargateWallet()
	bridge := NewStargate(testBase(w, stargatePrices))

	res, err := bridge.Send(context.Background(), BridgeParams{
		To:         "bsc",
		Amount:     decPtr("0.5"),
		Slippage:   dec("0.5"),
		MaxFee:     dec("1.1"),
		DestNative: decPtr("0.01"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"erc20.approve", "stargate.swap"}, w.sentMethods())

	swap := w.sent[1]
	assert.Equal(t, contracts.AvalancheStargate.Address, swap.To)
	assert.Equal(t, w.lzFee, swap.Value)
	assert.Equal(t,
		"9fbf10fc"+
			"0000000000000000000000000000000000000000000000000000000000000066"+
			"0000000000000000000000000000000000000000000000000000000000000001"+
			"0000000000000000000000000000000000000000000000000000000000000002"+
			"000000000000000000000000002b8491765536b7d4fe3e59db46596e1f577ecb"+
			"000000000000000000000000000000000000000000000000000000000007a120"+
			"000000000000000000000000000000000000000000000000000000000007975c"+
			"0000000000000000000000000000000000000000000000000000000000000120"+
			"00000000000000000000000000000000000000000000000000000000000001c0"+
			"0000000000000000000000000000000000000000000000000000000000000200"+
			"0000000000000000000000000000000000000000000000000000000000000000"+
			"000000000000000000000000000000000000000000000000002386f26fc10000"+
			"0000000000000000000000000000000000000000000000000000000000000060"+
			"0000000000000000000000000000000000000000000000000000000000000014"+
			"002b8491765536b7d4fe3e59db46596e1f577ecb000000000000000000000000"+
			"0000000000000000000000000000000000000000000000000000000000000014"+
			"002b8491765536b7d4fe3e59db46596e1f577ecb000000000000000000000000"+
			"0000000000000000000000000000000000000000000000000000000000000000",
		common.Bytes2Hex(swap.Data))

	assert.Equal(t, "0.5 USDC was sent from Avalanche to BSC via Stargate", res.Summary)
	assert.Contains(t, res.Explorer, "snowtrace.io/tx/")
}

func TestStargateDefaultsToFullBalance(t *testing.T) {
	w := newStargateWallet()
	w.allowances[contracts.AvalancheUSDC] = big.NewInt(1_000_000)
	bridge := NewStargate(testBase(w, stargatePrices))

	_, err := bridge.Send(context.Background(), BridgeParams{
		To:       "polygon",
		Slippage: dec("0.5"),
		MaxFee:   dec("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"stargate.swap"}, w.sentMethods())

	args, err := contracts.StargateRouterABI.Methods["swap"].Inputs.Unpack(w.sent[0].Data[4:])
	require.NoError(t, err)
	assert.Equal(t, uint16(109), args[0])
	assert.Equal(t, big.NewInt(1), args[2])
	assert.Equal(t, big.NewInt(1_000_000), args[4])
	assert.Equal(t, big.NewInt(995_000), args[5])
}

func TestStargateFeeTooHigh(t *testing.T) {
	w := newStargateWallet()
	// 0.1 AVAX * 20$ = 2$
	w.lzFee = ethereum.EtherToWei(dec("0.1"))
	bridge := NewStargate(testBase(w, stargatePrices))

	_, err := bridge.Send(context.Background(), BridgeParams{
		To:       "arbitrum",
		Amount:   decPtr("0.5"),
		Slippage: dec("0.5"),
		MaxFee:   dec("1"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFeeTooHigh)
	assert.Contains(t, err.Error(), "too high fee: 2.00$ (Avalanche)")
	assert.Empty(t, w.sent)
}

func TestStargateDestNativeOffsetsFee(t *testing.T) {
	w := newStargateWallet()
	w.lzFee = ethereum.EtherToWei(dec("0.1"))
	bridge := NewStargate(testBase(w, stargatePrices))

	// 2$ fee minus 0.005 BNB * 300$ = 0.5$
	_, err := bridge.Send(context.Background(), BridgeParams{
		To:         "bsc",
		Amount:     decPtr("0.5"),
		Slippage:   dec("0.5"),
		MaxFee:     dec("1"),
		DestNative: decPtr("0.005"),
	})
	require.NoError(t, err)
	assert.Len(t, w.sent, 2)
}

func TestStargateRejections(t *testing.T) {
	ctx := context.Background()

	w := newStargateWallet()
	bridge := NewStargate(testBase(w, stargatePrices))

	_, err := bridge.Send(ctx, BridgeParams{To: "avalanche", Slippage: dec("0.5"), MaxFee: dec("1")})
	assert.ErrorIs(t, err, ErrSameNetwork)
	assert.Equal(t, "Failed send from Avalanche to Avalanche via Stargate: the same source network and destination network", err.Error())

	_, err = bridge.Send(ctx, BridgeParams{To: "optimism", Slippage: dec("0.5"), MaxFee: dec("1")})
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)

	_, err = bridge.Send(ctx, BridgeParams{To: "fantom", Slippage: dec("0.5"), MaxFee: dec("1")})
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)

	_, err = bridge.Send(ctx, BridgeParams{To: "polygon", Amount: decPtr("5"), Slippage: dec("0.5"), MaxFee: dec("1")})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = bridge.Send(ctx, BridgeParams{To: "polygon", Amount: decPtr("-0.5"), Slippage: dec("0.5"), MaxFee: dec("1")})
	assert.ErrorIs(t, err, ethereum.ErrNegativeAmount)

	w.native = ethereum.EtherToWei(dec("0.01"))
	_, err = bridge.Send(ctx, BridgeParams{To: "polygon", Slippage: dec("0.5"), MaxFee: dec("1")})
	assert.ErrorIs(t, err, ErrInsufficientNative)

	assert.Empty(t, w.sent)

	opt := NewStargate(testBase(newFakeWallet(ethereum.Optimism), stargatePrices))
	_, err = opt.Send(ctx, BridgeParams{To: "polygon", Slippage: dec("0.5"), MaxFee: dec("1")})
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)
}
