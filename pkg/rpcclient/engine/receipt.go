package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/util"
)

// ProofRPC is a set of RPC methods needed to follow receipt outcomes.
type ProofRPC interface {
	Block(ctx context.Context, block nearrpc.BlockReference) (*result.Block, error)
	LightClientProof(ctx context.Context, receipt util.CryptoHash, receiver util.AccountID, head util.CryptoHash) (*result.LightClientProof, error)
}

// ErrUnknownReceipt is returned for receipts with unknown execution status.
var ErrUnknownReceipt = errors.New("unknown receipt")

// ReceiptOutcome is the final outcome of an engine receipt.
type ReceiptOutcome struct {
	// ReceiptID is the receipt that produced the outcome.
	ReceiptID util.CryptoHash
	// Intermediate are receipts followed to get to the final one.
	Intermediate []util.CryptoHash
	// Result is the decoded value of a successful receipt.
	Result *SubmitResult
	// Failure is set for failed receipts.
	Failure *result.TxExecutionError
}

// ReceiptOutcome follows the receipt executed by the engine until it
// produces a value or fails. Every step requests a light client proof
// relative to the latest final block.
func (c *ContractReader) ReceiptOutcome(ctx context.Context, rpc ProofRPC, receipt util.CryptoHash) (*ReceiptOutcome, error) {
	res := &ReceiptOutcome{ReceiptID: receipt}
	for {
		head, err := rpc.Block(ctx, nearrpc.Final())
		if err != nil {
			return nil, fmt.Errorf("failed to get final block: %w", err)
		}
		proof, err := rpc.LightClientProof(ctx, res.ReceiptID, c.hash, head.Header.Hash)
		if err != nil {
			return nil, fmt.Errorf("failed to get receipt %s proof: %w", res.ReceiptID, err)
		}
		status := proof.OutcomeProof.Outcome.Status
		switch status.Kind {
		case result.StatusSuccessValue:
			res.Result, err = DecodeSubmitResult(status.SuccessValue)
			if err != nil {
				return nil, err
			}
			return res, nil
		case result.StatusFailure:
			res.Failure = status.Failure
			return res, nil
		case result.StatusSuccessReceiptID:
			res.Intermediate = append(res.Intermediate, res.ReceiptID)
			res.ReceiptID = status.SuccessReceiptID
		default:
			return nil, fmt.Errorf("%w %s: %s", ErrUnknownReceipt, res.ReceiptID, status.Kind)
		}
	}
}
