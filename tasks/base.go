// Package tasks sequences the on-chain operations hopper performs: token
// swaps through a DEX router and stablecoin bridging through Stargate.
package tasks

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/chinmay1088/hopper/chains/ethereum"
	"github.com/chinmay1088/hopper/contracts"
)

const defaultReceiptTimeout = 200 * time.Second

var (
	hundred = decimal.NewFromInt(100)
	tracer  = otel.Tracer("github.com/chinmay1088/hopper/tasks")
)

// Wallet is an account on one network. *ethereum.Client implements it.
type Wallet interface {
	Address() common.Address
	Network() ethereum.Network
	NativeBalance(ctx context.Context) (ethereum.Amount, error)
	TokenBalance(ctx context.Context, token common.Address) (ethereum.Amount, error)
	TokenDecimals(ctx context.Context, token common.Address) (uint8, error)
	TokenSymbol(ctx context.Context, token common.Address) (string, error)
	Allowance(ctx context.Context, token, spender common.Address) (*big.Int, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	Send(ctx context.Context, req ethereum.TxRequest) (common.Hash, error)
	WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*types.Receipt, error)
}

// PriceOracle quotes USD prices by symbol.
type PriceOracle interface {
	TokenPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Base bundles what every task needs.
type Base struct {
	Wallet         Wallet
	Prices         PriceOracle
	Logger         *log.Logger
	ReceiptTimeout time.Duration
}

func (b *Base) logger() *log.Logger {
	if b.Logger == nil {
		b.Logger = log.New(io.Discard)
	}
	return b.Logger
}

func (b *Base) receiptTimeout() time.Duration {
	if b.ReceiptTimeout <= 0 {
		return defaultReceiptTimeout
	}
	return b.ReceiptTimeout
}

// MinOutput returns amount * rate * (1 - slippage/100).
func MinOutput(amount, rate, slippage decimal.Decimal) (decimal.Decimal, error) {
	if slippage.IsNegative() || slippage.GreaterThanOrEqual(hundred) {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidSlippage, slippage)
	}
	if amount.IsNegative() || rate.IsNegative() {
		return decimal.Zero, ethereum.ErrNegativeAmount
	}
	keep := hundred.Sub(slippage).Div(hundred)
	return amount.Mul(rate).Mul(keep), nil
}

// Asset is a token resolved on the active network.
type Asset struct {
	Address  common.Address
	Symbol   string
	Decimals int32
}

func (a Asset) Native() bool {
	return contracts.IsNative(a.Address)
}

// resolveAsset reads symbol and decimals for token, or takes them from the
// network for the native coin.
func (b *Base) resolveAsset(ctx context.Context, token common.Address) (Asset, error) {
	if contracts.IsNative(token) {
		network := b.Wallet.Network()
		return Asset{Address: token, Symbol: network.CoinSymbol, Decimals: network.Decimals}, nil
	}

	symbol, err := b.Wallet.TokenSymbol(ctx, token)
	if err != nil {
		return Asset{}, err
	}
	decimals, err := b.Wallet.TokenDecimals(ctx, token)
	if err != nil {
		return Asset{}, err
	}
	return Asset{Address: token, Symbol: symbol, Decimals: int32(decimals)}, nil
}

func (b *Base) balanceOf(ctx context.Context, asset Asset) (ethereum.Amount, error) {
	if asset.Native() {
		return b.Wallet.NativeBalance(ctx)
	}
	return b.Wallet.TokenBalance(ctx, asset.Address)
}

// ensureAllowance approves spender for amount when the current allowance is
// short, and waits for the approval to be mined.
func (b *Base) ensureAllowance(ctx context.Context, token, spender common.Address, amount *big.Int) error {
	ctx, span := tracer.Start(ctx, "approve", trace.WithAttributes(
		attribute.String("token", token.Hex()),
		attribute.String("spender", spender.Hex()),
	))
	defer span.End()

	allowance, err := b.Wallet.Allowance(ctx, token, spender)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrApprovalFailed, err)
	}
	if allowance.Cmp(amount) >= 0 {
		b.logger().Debug("allowance is sufficient", "token", token.Hex(), "allowance", allowance)
		return nil
	}

	req, err := ethereum.ApproveRequest(token, spender, amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrApprovalFailed, err)
	}
	hash, err := b.Wallet.Send(ctx, req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", ErrApprovalFailed, err)
	}
	b.logger().Info("approval sent", "token", token.Hex(), "spender", spender.Hex(), "tx", hash.Hex())

	if _, err := b.Wallet.WaitForReceipt(ctx, hash, b.receiptTimeout()); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %w", ErrApprovalFailed, err)
	}
	return nil
}

// submit sends req and waits until it is mined.
func (b *Base) submit(ctx context.Context, action string, req ethereum.TxRequest) (common.Hash, error) {
	hash, err := b.Wallet.Send(ctx, req)
	if err != nil {
		return common.Hash{}, fail(action, err)
	}
	b.logger().Info("transaction sent", "tx", hash.Hex())

	if _, err := b.Wallet.WaitForReceipt(ctx, hash, b.receiptTimeout()); err != nil {
		return hash, &Failure{Action: action, TxHash: hash, Err: err}
	}
	return hash, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
