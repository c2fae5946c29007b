package actor

import (
	"fmt"

	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"go.uber.org/zap"
)

// Outcome is the execution result of a transaction that was accepted by the
// node.
type Outcome struct {
	// Hash is the transaction hash.
	Hash util.CryptoHash
	// Status is the kind of the final transaction status.
	Status result.StatusKind
	// Value is the value returned by the last receipt of a successful
	// transaction.
	Value []byte
	// Failure is set for transactions that failed during execution (like
	// running out of gas or a contract panic).
	Failure *result.TxExecutionError
	// Receipts are outcomes of all receipts produced by the transaction.
	Receipts []result.ExecutionOutcomeWithID
	// Raw is the node response as is.
	Raw *result.FinalExecutionOutcome
}

// NewOutcome creates an Outcome from the node's execution result.
func NewOutcome(res *result.FinalExecutionOutcome) *Outcome {
	o := &Outcome{
		Hash:     res.TransactionOutcome.ID,
		Status:   res.Status.Kind,
		Receipts: res.ReceiptsOutcome,
		Raw:      res,
	}
	if o.Hash.IsZero() {
		o.Hash = res.Transaction.Hash
	}
	switch res.Status.Kind {
	case result.StatusSuccessValue:
		o.Value = res.Status.SuccessValue
	case result.StatusFailure:
		o.Failure = res.Status.Failure
	}
	return o
}

// Err returns an error for failed or not yet finished transactions and nil
// for successful ones.
func (o *Outcome) Err() error {
	if o.Failure != nil {
		return fmt.Errorf("transaction %s failed: %w", o.Hash, o.Failure)
	}
	if o.Status != result.StatusSuccessValue {
		return fmt.Errorf("transaction %s: %w: %s", o.Hash, result.ErrNotFinal, o.Status)
	}
	return nil
}

// Logs returns all logs produced by the transaction and its receipts.
func (o *Outcome) Logs() []string {
	return o.Raw.Logs()
}

// GasBurnt returns the total amount of gas burnt by the transaction.
func (o *Outcome) GasBurnt() uint64 {
	return o.Raw.GasBurnt()
}

// handleError classifies broadcast errors. InvalidNonce rejections
// invalidate the nonce cache entry of the Actor's key and are wrapped into
// ErrInvalidNonce, anything else is returned as is and doesn't touch the
// cache.
func (a *Actor) handleError(err error) error {
	if err == nil {
		return nil
	}
	n, ok := nearrpc.InvalidNonceError(err)
	if !ok {
		return err
	}
	a.nonces.Invalidate(a.id)
	a.log.Debug("transaction rejected with invalid nonce",
		zap.Stringer("key", a.id),
		zap.Uint64("tx_nonce", n.TxNonce),
		zap.Uint64("ak_nonce", n.AkNonce))
	return fmt.Errorf("%w (tx nonce %d, key nonce %d): %w", ErrInvalidNonce, n.TxNonce, n.AkNonce, err)
}
