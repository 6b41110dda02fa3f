// Package balance reads native and token balances for one or many accounts.
package balance

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/chinmay1088/hopper/chains/ethereum"
)

// Strategy decides how a concurrent batch is joined.
type Strategy int

const (
	// Gather cancels the batch on the first failure and returns it.
	Gather Strategy = iota
	// Wait lets every check finish and reports failures per account.
	Wait
)

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gather", "":
		return Gather, nil
	case "wait":
		return Wait, nil
	}
	return Gather, fmt.Errorf("unknown strategy %q (use gather or wait)", s)
}

func (s Strategy) String() string {
	if s == Wait {
		return "wait"
	}
	return "gather"
}

// Source is an account whose balance can be read.
type Source interface {
	Address() common.Address
	Network() ethereum.Network
	NativeBalance(ctx context.Context) (ethereum.Amount, error)
	TokenBalance(ctx context.Context, token common.Address) (ethereum.Amount, error)
	TokenSymbol(ctx context.Context, token common.Address) (string, error)
}

// Result is the balance of one account.
type Result struct {
	Address common.Address
	Network string
	Symbol  string
	Amount  ethereum.Amount
	Err     error
}

// Checker reads the native coin balance, or the balance of Token when set.
type Checker struct {
	Token  *common.Address
	Logger *log.Logger
}

func NewChecker(token *common.Address, logger *log.Logger) *Checker {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Checker{Token: token, Logger: logger.WithPrefix("balance")}
}

// Check reads a single balance.
func (c *Checker) Check(ctx context.Context, src Source) Result {
	res := Result{Address: src.Address(), Network: src.Network().Name}

	if c.Token == nil {
		res.Symbol = src.Network().CoinSymbol
		res.Amount, res.Err = src.NativeBalance(ctx)
	} else {
		res.Symbol, res.Err = src.TokenSymbol(ctx, *c.Token)
		if res.Err == nil {
			res.Amount, res.Err = src.TokenBalance(ctx, *c.Token)
		}
	}

	if res.Err != nil {
		c.Logger.Warn("balance check failed", "account", res.Address.Hex(), "network", res.Network, "err", res.Err)
	} else {
		c.Logger.Debug("balance", "account", res.Address.Hex(), "amount", res.Amount, "symbol", res.Symbol)
	}
	return res
}

// Sequential checks every source in order, repeat times each.
func (c *Checker) Sequential(ctx context.Context, sources []Source, repeat int) []Result {
	if repeat < 1 {
		repeat = 1
	}
	results := make([]Result, 0, len(sources)*repeat)
	for _, src := range sources {
		for i := 0; i < repeat; i++ {
			if ctx.Err() != nil {
				results = append(results, Result{Address: src.Address(), Network: src.Network().Name, Err: ctx.Err()})
				continue
			}
			results = append(results, c.Check(ctx, src))
		}
	}
	return results
}

// Concurrent checks all sources at once. Results keep the order of sources.
//
// With Gather the first failure cancels the remaining checks and is returned
// as the error. With Wait the error is always nil and failures are reported
// in each Result.
func (c *Checker) Concurrent(ctx context.Context, sources []Source, strategy Strategy) ([]Result, error) {
	results := make([]Result, len(sources))

	if strategy == Wait {
		var wg sync.WaitGroup
		for i, src := range sources {
			wg.Add(1)
			go func(i int, src Source) {
				defer wg.Done()
				results[i] = c.Check(ctx, src)
			}(i, src)
		}
		wg.Wait()
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			res := c.Check(gctx, src)
			results[i] = res
			if res.Err != nil {
				return fmt.Errorf("failed to get balance of %s: %w", res.Address.Hex(), res.Err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
