package ethereum

import (
	"context"
	"errors"
	"fmt"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	ErrTxReverted     = errors.New("transaction reverted")
	ErrReceiptTimeout = errors.New("transaction not mined in time")
)

// WaitForReceipt polls for the receipt of hash until it is mined or timeout
// elapses. A receipt with a failed status is returned together with
// ErrTxReverted.
func (c *Client) WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("%w: %s", ErrTxReverted, hash.Hex())
			}
			return receipt, nil
		case errors.Is(err, geth.NotFound):
			// pending
		default:
			lastErr = err
		}

		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ctx.Err()
			}
			if lastErr != nil && !errors.Is(lastErr, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s: %s (last error: %v)", ErrReceiptTimeout, timeout, hash.Hex(), lastErr)
			}
			return nil, fmt.Errorf("%w after %s: %s", ErrReceiptTimeout, timeout, hash.Hex())
		case <-ticker.C:
		}
	}
}
