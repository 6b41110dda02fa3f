package tasks

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance = errors.New("too low balance")
	ErrInsufficientNative  = errors.New("too low native balance")
	ErrZeroAmount          = errors.New("amount is zero")
	ErrInvalidSlippage     = errors.New("slippage must be in [0, 100)")
	ErrFeeTooHigh          = errors.New("too high fee")
	ErrSameNetwork         = errors.New("the same source network and destination network")
	ErrSameToken           = errors.New("the same source token and destination token")
	ErrUnsupportedNetwork  = errors.New("network is not supported")
	ErrApprovalFailed      = errors.New("can not approve")
	ErrQuoteFailed         = errors.New("can not get value")
)

// Result describes a confirmed operation.
type Result struct {
	Summary  string
	TxHash   common.Hash
	Explorer string
}

func (r *Result) String() string {
	return fmt.Sprintf("%s: %s", r.Summary, r.TxHash.Hex())
}

// Failure is returned when an operation stops before or after submission.
// Err wraps one of the sentinel errors or an error from the client.
type Failure struct {
	Action string
	TxHash common.Hash
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("Failed %s: %v", f.Action, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func fail(action string, err error) *Failure {
	return &Failure{Action: action, Err: err}
}

func failf(action string, sentinel error, format string, args ...interface{}) *Failure {
	return &Failure{Action: action, Err: fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...)}
}
