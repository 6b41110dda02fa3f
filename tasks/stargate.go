package tasks

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chinmay1088/hopper/chains/ethereum"
	"github.com/chinmay1088/hopper/contracts"
)

// quoteLayerZeroFee function type of a plain token swap
const stargateSwapFunction uint8 = 1

// StargatePool is the Stargate deployment on one network.
type StargatePool struct {
	Network ethereum.Network
	// LayerZero chain id, not the EVM chain id
	ChainID uint16
	Router  common.Address
	Token   common.Address
	PoolID  int64
}

var stargatePools = map[string]StargatePool{
	ethereum.Arbitrum.Name: {
		Network: ethereum.Arbitrum,
		ChainID: 110,
		Router:  contracts.ArbitrumStargate.Address,
		Token:   contracts.ArbitrumUSDCe,
		PoolID:  1,
	},
	ethereum.Avalanche.Name: {
		Network: ethereum.Avalanche,
		ChainID: 106,
		Router:  contracts.AvalancheStargate.Address,
		Token:   contracts.AvalancheUSDC,
		PoolID:  1,
	},
	ethereum.Polygon.Name: {
		Network: ethereum.Polygon,
		ChainID: 109,
		Router:  contracts.PolygonStargate.Address,
		Token:   contracts.PolygonUSDC,
		PoolID:  1,
	},
	ethereum.BSC.Name: {
		Network: ethereum.BSC,
		ChainID: 102,
		Router:  contracts.BSCStargate.Address,
		Token:   contracts.BSCUSDT,
		PoolID:  2,
	},
}

// StargatePoolFor returns the Stargate pool of network.
func StargatePoolFor(network string) (StargatePool, bool) {
	pool, ok := stargatePools[network]
	return pool, ok
}

// BridgeParams describes a Stargate transfer from the wallet's network.
type BridgeParams struct {
	To string
	// nil sends the whole stablecoin balance
	Amount   *decimal.Decimal
	Slippage decimal.Decimal
	// MaxFee caps the LayerZero fee in USD
	MaxFee decimal.Decimal
	// DestNative, when set, is delivered to the wallet on the destination
	// network as gas money. Its value is subtracted from the fee.
	DestNative *decimal.Decimal
}

// lzTxObj mirrors IStargateRouter.lzTxObj
type lzTxObj struct {
	DstGasForCall   *big.Int
	DstNativeAmount *big.Int
	DstNativeAddr   []byte
}

// SwapArgs are the arguments of Router.swap.
type SwapArgs struct {
	DstChainID  uint16
	SrcPoolID   int64
	DstPoolID   int64
	Refund      common.Address
	AmountLD    *big.Int
	MinAmountLD *big.Int
	DstGas      *big.Int
	DstNative   *big.Int
	DstNativeTo []byte
	To          common.Address
}

func (a SwapArgs) lz() lzTxObj {
	obj := lzTxObj{
		DstGasForCall:   a.DstGas,
		DstNativeAmount: a.DstNative,
		DstNativeAddr:   a.DstNativeTo,
	}
	if obj.DstGasForCall == nil {
		obj.DstGasForCall = new(big.Int)
	}
	if obj.DstNativeAmount == nil {
		obj.DstNativeAmount = new(big.Int)
	}
	if len(obj.DstNativeAddr) == 0 {
		obj.DstNativeAddr = common.FromHex("0x0000000000000000000000000000000000000001")
	}
	return obj
}

// StargateSwapCalldata packs Router.swap with an empty payload.
func StargateSwapCalldata(args SwapArgs) ([]byte, error) {
	data, err := contracts.StargateRouterABI.Pack("swap",
		args.DstChainID,
		big.NewInt(args.SrcPoolID),
		big.NewInt(args.DstPoolID),
		args.Refund,
		args.AmountLD,
		args.MinAmountLD,
		args.lz(),
		args.To.Bytes(),
		[]byte{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack stargate swap: %w", err)
	}
	return data, nil
}

// Stargate bridges stablecoins between networks.
type Stargate struct {
	Base
}

func NewStargate(base Base) *Stargate {
	base.Logger = base.logger().WithPrefix("stargate")
	return &Stargate{Base: base}
}

// Send moves the network's Stargate stablecoin to params.To.
func (s *Stargate) Send(ctx context.Context, params BridgeParams) (res *Result, err error) {
	src := s.Wallet.Network()
	ctx, span := tracer.Start(ctx, "bridge", trace.WithAttributes(
		attribute.String("venue", "stargate"),
		attribute.String("network", src.Name),
		attribute.String("destination", params.To),
		attribute.String("account", s.Wallet.Address().Hex()),
	))
	defer func() { endSpan(span, err) }()

	action := fmt.Sprintf("send from %s to %s via Stargate", src.Title, params.To)

	dst, err := ethereum.NetworkByName(params.To)
	if err != nil {
		return nil, fail(action, fmt.Errorf("%w: %v", ErrUnsupportedNetwork, err))
	}
	action = fmt.Sprintf("send from %s to %s via Stargate", src.Title, dst.Title)
	if dst.Name == src.Name {
		return nil, fail(action, ErrSameNetwork)
	}

	srcPool, ok := StargatePoolFor(src.Name)
	if !ok {
		return nil, failf(action, ErrUnsupportedNetwork, "no Stargate pool on %s", src.Title)
	}
	dstPool, ok := StargatePoolFor(dst.Name)
	if !ok {
		return nil, failf(action, ErrUnsupportedNetwork, "no Stargate pool on %s", dst.Title)
	}

	token, err := s.resolveAsset(ctx, srcPool.Token)
	if err != nil {
		return nil, fail(action, err)
	}
	balance, err := s.Wallet.TokenBalance(ctx, token.Address)
	if err != nil {
		return nil, fail(action, err)
	}

	amount := balance
	if params.Amount != nil {
		amount = ethereum.NewAmount(*params.Amount, token.Decimals)
	}

	action = fmt.Sprintf("send %s %s from %s to %s via Stargate", amount, token.Symbol, src.Title, dst.Title)
	if amount.Ether().IsNegative() {
		return nil, fail(action, ethereum.ErrNegativeAmount)
	}
	if amount.IsZero() {
		return nil, fail(action, ErrZeroAmount)
	}
	if amount.Cmp(balance) > 0 {
		return nil, failf(action, ErrInsufficientBalance, "%s", balance)
	}
	if params.Slippage.IsNegative() || params.Slippage.GreaterThanOrEqual(hundred) {
		return nil, failf(action, ErrInvalidSlippage, "%s", params.Slippage)
	}

	account := s.Wallet.Address()
	args := SwapArgs{
		DstChainID: dstPool.ChainID,
		SrcPoolID:  srcPool.PoolID,
		DstPoolID:  dstPool.PoolID,
		Refund:     account,
		AmountLD:   amount.Wei(),
		MinAmountLD: decimal.NewFromBigInt(amount.Wei(), 0).
			Mul(hundred.Sub(params.Slippage)).
			Div(hundred).
			Truncate(0).
			BigInt(),
		To: account,
	}

	var destNative ethereum.Amount
	if params.DestNative != nil {
		destNative = ethereum.NewAmount(*params.DestNative, dst.Decimals)
		args.DstNative = destNative.Wei()
		args.DstNativeTo = account.Bytes()
	}

	s.logger().Info("send",
		"account", account.Hex(),
		"from", src.Name,
		"to", dst.Name,
		"amount", amount,
		"token", token.Symbol,
	)

	fee, err := s.quoteFee(ctx, srcPool.Router, args)
	if err != nil {
		return nil, fail(action, err)
	}

	native, err := s.Wallet.NativeBalance(ctx)
	if err != nil {
		return nil, fail(action, err)
	}
	if native.Cmp(fee) < 0 {
		return nil, failf(action, ErrInsufficientNative, "balance: %s %s; value: %s %s",
			native, src.CoinSymbol, fee, src.CoinSymbol)
	}

	coinPrice, err := s.Prices.TokenPrice(ctx, src.CoinSymbol)
	if err != nil {
		return nil, fail(action, err)
	}
	networkFee := fee.Ether().Mul(coinPrice)
	if params.DestNative != nil {
		dstPrice, err := s.Prices.TokenPrice(ctx, dst.CoinSymbol)
		if err != nil {
			return nil, fail(action, err)
		}
		networkFee = networkFee.Sub(destNative.Ether().Mul(dstPrice))
	}
	if networkFee.GreaterThan(params.MaxFee) {
		return nil, failf(action, ErrFeeTooHigh, "%s$ (%s)", networkFee.StringFixed(2), src.Title)
	}
	s.logger().Debug("layerzero fee", "value", fee, "usd", networkFee.StringFixed(4))

	if err := s.ensureAllowance(ctx, token.Address, srcPool.Router, amount.Wei()); err != nil {
		return nil, fail(action, err)
	}

	data, err := StargateSwapCalldata(args)
	if err != nil {
		return nil, fail(action, err)
	}

	hash, err := s.submit(ctx, action, ethereum.TxRequest{
		To:    srcPool.Router,
		Value: fee.Wei(),
		Data:  data,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Summary:  fmt.Sprintf("%s %s was sent from %s to %s via Stargate", amount, token.Symbol, src.Title, dst.Title),
		TxHash:   hash,
		Explorer: src.TxURL(hash.Hex()),
	}, nil
}

// quoteFee asks the router for the LayerZero message fee in native coin.
func (s *Stargate) quoteFee(ctx context.Context, router common.Address, args SwapArgs) (ethereum.Amount, error) {
	network := s.Wallet.Network()
	data, err := contracts.StargateRouterABI.Pack("quoteLayerZeroFee",
		args.DstChainID,
		stargateSwapFunction,
		args.To.Bytes(),
		[]byte{},
		args.lz(),
	)
	if err != nil {
		return ethereum.Amount{}, fmt.Errorf("%w: %v", ErrQuoteFailed, err)
	}

	raw, err := s.Wallet.Call(ctx, router, data)
	if err != nil {
		return ethereum.Amount{}, fmt.Errorf("%w: %v", ErrQuoteFailed, err)
	}
	out, err := contracts.StargateRouterABI.Unpack("quoteLayerZeroFee", raw)
	if err != nil || len(out) == 0 {
		return ethereum.Amount{}, fmt.Errorf("%w: unexpected quote %x", ErrQuoteFailed, raw)
	}
	fee, ok := out[0].(*big.Int)
	if !ok {
		return ethereum.Amount{}, fmt.Errorf("%w: unexpected quote type %T", ErrQuoteFailed, out[0])
	}
	return ethereum.AmountFromWei(fee, network.Decimals), nil
}
