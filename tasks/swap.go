package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chinmay1088/hopper/chains/ethereum"
	"github.com/chinmay1088/hopper/contracts"
)

// Venue is a DEX router swaps can be routed through.
type Venue interface {
	Name() string
	// Router returns the router address on network, if the venue is deployed there.
	Router(network string) (common.Address, bool)
	SwapCalldata(q Quote) ([]byte, error)
}

// Quote carries the arguments of a single swap.
type Quote struct {
	From      Asset
	To        Asset
	AmountIn  ethereum.Amount
	MinOut    ethereum.Amount
	Recipient common.Address
}

// SwapParams selects the pair and size of a swap. A nil Amount swaps half
// of the native balance, or the whole token balance.
type SwapParams struct {
	From     common.Address
	To       common.Address
	Amount   *decimal.Decimal
	Slippage decimal.Decimal
}

// Swapper runs swaps through one venue.
type Swapper struct {
	Base
	Venue Venue
}

func NewSwapper(base Base, venue Venue) *Swapper {
	base.Logger = base.logger().WithPrefix(strings.ToLower(venue.Name()))
	return &Swapper{Base: base, Venue: venue}
}

// Swap exchanges params.From for params.To and waits for the receipt.
func (s *Swapper) Swap(ctx context.Context, params SwapParams) (res *Result, err error) {
	network := s.Wallet.Network()
	ctx, span := tracer.Start(ctx, "swap", trace.WithAttributes(
		attribute.String("venue", s.Venue.Name()),
		attribute.String("network", network.Name),
		attribute.String("account", s.Wallet.Address().Hex()),
	))
	defer func() { endSpan(span, err) }()

	action := fmt.Sprintf("swap via %s", s.Venue.Name())

	router, ok := s.Venue.Router(network.Name)
	if !ok {
		return nil, failf(action, ErrUnsupportedNetwork, "%s is not deployed on %s", s.Venue.Name(), network.Title)
	}
	if params.From == params.To {
		return nil, fail(action, ErrSameToken)
	}

	from, err := s.resolveAsset(ctx, params.From)
	if err != nil {
		return nil, fail(action, err)
	}
	to, err := s.resolveAsset(ctx, params.To)
	if err != nil {
		return nil, fail(action, err)
	}

	balance, err := s.balanceOf(ctx, from)
	if err != nil {
		return nil, fail(action, err)
	}

	var amount ethereum.Amount
	switch {
	case params.Amount != nil:
		amount = ethereum.NewAmount(*params.Amount, from.Decimals)
	case from.Native():
		amount = balance.Fraction(1, 2)
	default:
		amount = balance
	}

	action = fmt.Sprintf("swap %s %s to %s via %s", from.Symbol, amount, to.Symbol, s.Venue.Name())
	if amount.IsZero() {
		return nil, fail(action, ErrZeroAmount)
	}
	if amount.Cmp(balance) > 0 {
		return nil, failf(action, ErrInsufficientBalance, "%s", balance)
	}

	fromPrice, err := s.Prices.TokenPrice(ctx, from.Symbol)
	if err != nil {
		return nil, fail(action, err)
	}
	toPrice, err := s.Prices.TokenPrice(ctx, to.Symbol)
	if err != nil {
		return nil, fail(action, err)
	}
	if !toPrice.IsPositive() {
		return nil, fail(action, fmt.Errorf("no price for %s", to.Symbol))
	}

	minOut, err := MinOutput(amount.Ether(), fromPrice.Div(toPrice), params.Slippage)
	if err != nil {
		return nil, fail(action, err)
	}

	quote := Quote{
		From:      from,
		To:        to,
		AmountIn:  amount,
		MinOut:    ethereum.NewAmount(minOut, to.Decimals),
		Recipient: s.Wallet.Address(),
	}

	s.logger().Info("swap",
		"account", s.Wallet.Address().Hex(),
		"network", network.Name,
		"from", from.Symbol,
		"to", to.Symbol,
		"amount", amount,
		"min_out", quote.MinOut,
	)

	if !from.Native() {
		if err := s.ensureAllowance(ctx, from.Address, router, amount.Wei()); err != nil {
			return nil, fail(action, err)
		}
	}

	data, err := s.Venue.SwapCalldata(quote)
	if err != nil {
		return nil, fail(action, err)
	}

	req := ethereum.TxRequest{To: router, Data: data}
	if from.Native() {
		req.Value = amount.Wei()
	}

	hash, err := s.submit(ctx, action, req)
	if err != nil {
		return nil, err
	}

	return &Result{
		Summary:  fmt.Sprintf("%s %s was swapped to %s %s via %s", amount, from.Symbol, quote.MinOut, to.Symbol, s.Venue.Name()),
		TxHash:   hash,
		Explorer: network.TxURL(hash.Hex()),
	}, nil
}

// WooFi is the WooFi V2 router.
type WooFi struct{}

func (WooFi) Name() string { return "WooFi" }

func (WooFi) Router(network string) (common.Address, bool) {
	switch network {
	case ethereum.Arbitrum.Name:
		return contracts.ArbitrumWooFi.Address, true
	}
	return common.Address{}, false
}

func (WooFi) SwapCalldata(q Quote) ([]byte, error) {
	data, err := contracts.WooFiRouterABI.Pack("swap",
		q.From.Address,
		q.To.Address,
		q.AmountIn.Wei(),
		q.MinOut.Wei(),
		q.Recipient,
		q.Recipient,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to pack woofi swap: %w", err)
	}
	return data, nil
}

// ResolveToken turns a symbol or hex address into a token address on
// network. The network's coin symbol resolves to the native placeholder.
func ResolveToken(network ethereum.Network, token string) (common.Address, error) {
	token = strings.TrimSpace(token)
	if strings.EqualFold(token, network.CoinSymbol) || strings.EqualFold(token, "native") {
		return contracts.NativeToken, nil
	}
	if common.IsHexAddress(token) {
		return ethereum.ParseAddress(token)
	}
	if addr, ok := contracts.Token(network.Name, token); ok {
		return addr, nil
	}
	return common.Address{}, fmt.Errorf("unknown token %q on %s", token, network.Title)
}

var _ Venue = WooFi{}
