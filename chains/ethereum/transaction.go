package ethereum

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/chinmay1088/hopper/contracts"
)

// TransferGasLimit is the gas of a plain coin transfer.
const TransferGasLimit = 21000

// TxRequest is a contract call or transfer waiting to be signed.
type TxRequest struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// NewTransaction builds an unsigned transaction. A nil tipCap produces a
// legacy transaction priced at feeCap.
func NewTransaction(chainID *big.Int, nonce uint64, req TxRequest, gasLimit uint64, tipCap, feeCap *big.Int) *types.Transaction {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To

	if tipCap == nil {
		return types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: feeCap,
			Gas:      gasLimit,
			To:       &to,
			Value:    value,
			Data:     req.Data,
		})
	}
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      req.Data,
	})
}

// SignTransaction signs tx for the given chain.
func SignTransaction(tx *types.Transaction, key *ecdsa.PrivateKey, chainID *big.Int) (*types.Transaction, error) {
	signer := types.LatestSignerForChainID(chainID)
	signed, err := types.SignTx(tx, signer, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// ValidateTransaction checks a transaction before broadcast.
func ValidateTransaction(tx *types.Transaction) error {
	if tx.To() == nil {
		return errors.New("transaction has no recipient")
	}
	if tx.Gas() < TransferGasLimit {
		return fmt.Errorf("gas limit %d is below %d", tx.Gas(), TransferGasLimit)
	}
	if tx.Value().Sign() < 0 {
		return ErrNegativeAmount
	}
	if tx.GasFeeCap().Sign() <= 0 {
		return errors.New("gas price must be positive")
	}
	return nil
}

// EstimateGasLimit asks the node for a gas estimate and adds a 20% buffer.
func EstimateGasLimit(ctx context.Context, backend Backend, from common.Address, req TxRequest) (uint64, error) {
	to := req.To
	gas, err := backend.EstimateGas(ctx, geth.CallMsg{
		From:  from,
		To:    &to,
		Value: req.Value,
		Data:  req.Data,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to estimate gas: %w", err)
	}
	return gas * 120 / 100, nil
}

// BuildTransaction fills nonce, gas and fees for req.
func (c *Client) BuildTransaction(ctx context.Context, req TxRequest) (*types.Transaction, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, c.address)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasLimit, err := EstimateGasLimit(ctx, c.backend, c.address, req)
	if err != nil {
		return nil, err
	}

	if !c.network.EIP1559 {
		gasPrice, err := c.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get gas price: %w", err)
		}
		// 20% over the suggestion so the transaction is not stuck
		gasPrice = new(big.Int).Div(new(big.Int).Mul(gasPrice, big.NewInt(120)), big.NewInt(100))
		return NewTransaction(c.network.ChainID, nonce, req, gasLimit, nil, gasPrice), nil
	}

	tip, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas tip: %w", err)
	}
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest header: %w", err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	feeCap := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)
	return NewTransaction(c.network.ChainID, nonce, req, gasLimit, tip, feeCap), nil
}

// Send signs and broadcasts req, returning the transaction hash.
func (c *Client) Send(ctx context.Context, req TxRequest) (common.Hash, error) {
	if c.key == nil {
		return common.Hash{}, ErrReadOnly
	}

	tx, err := c.BuildTransaction(ctx, req)
	if err != nil {
		return common.Hash{}, err
	}
	if err := ValidateTransaction(tx); err != nil {
		return common.Hash{}, fmt.Errorf("invalid transaction: %w", err)
	}

	signed, err := SignTransaction(tx, c.key, c.network.ChainID)
	if err != nil {
		return common.Hash{}, err
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	return signed.Hash(), nil
}

// ApproveRequest builds an ERC-20 approve call.
func ApproveRequest(token, spender common.Address, amount *big.Int) (TxRequest, error) {
	data, err := contracts.ERC20ABI.Pack("approve", spender, amount)
	if err != nil {
		return TxRequest{}, fmt.Errorf("failed to pack approve: %w", err)
	}
	return TxRequest{To: token, Data: data}, nil
}

// TransferRequest builds a native coin transfer.
func TransferRequest(to common.Address, amount Amount) TxRequest {
	return TxRequest{To: to, Value: amount.Wei()}
}
