package rpcclient

import (
	"context"
	"encoding/base64"

	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/transaction"
	"github.com/aurora-is-near/aurora-go/pkg/util"
)

// ViewAccessKey returns the access key of the account at the given block.
// Missing keys are always reported as *nearrpc.Error with UnknownAccessKey
// cause, whichever way the node returns them.
func (c *Client) ViewAccessKey(ctx context.Context, account util.AccountID, key keys.PublicKey, block nearrpc.BlockReference) (*result.AccessKey, error) {
	var (
		params = block.Apply(map[string]any{
			"request_type": nearrpc.QueryViewAccessKey,
			"account_id":   account.String(),
			"public_key":   key.String(),
		})
		resp = new(result.AccessKey)
	)
	if err := c.performRequest(ctx, nearrpc.MethodQuery, params, resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, nearrpc.NewUnknownAccessKeyError(key.String(), resp.BlockHeight, resp.BlockHash.String(), resp.Error)
	}
	return resp, nil
}

// ViewAccount returns the account state at the given block.
func (c *Client) ViewAccount(ctx context.Context, account util.AccountID, block nearrpc.BlockReference) (*result.Account, error) {
	var (
		params = block.Apply(map[string]any{
			"request_type": nearrpc.QueryViewAccount,
			"account_id":   account.String(),
		})
		resp = new(result.Account)
	)
	if err := c.performRequest(ctx, nearrpc.MethodQuery, params, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CallFunction runs a read-only contract method at the given block. Contract
// failures some nodes report inside the result are converted to the same
// *nearrpc.Error modern nodes return for them.
func (c *Client) CallFunction(ctx context.Context, contract util.AccountID, method string, args []byte, block nearrpc.BlockReference) (*result.CallResult, error) {
	var (
		params = block.Apply(map[string]any{
			"request_type": nearrpc.QueryCallFunction,
			"account_id":   contract.String(),
			"method_name":  method,
			"args_base64":  base64.StdEncoding.EncodeToString(args),
		})
		resp = new(result.CallResult)
	)
	if err := c.performRequest(ctx, nearrpc.MethodQuery, params, resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, nearrpc.NewContractExecutionError(resp.Error)
	}
	return resp, nil
}

// Block returns the block with the given reference.
func (c *Client) Block(ctx context.Context, block nearrpc.BlockReference) (*result.Block, error) {
	var (
		params = block.Apply(nil)
		resp   = new(result.Block)
	)
	if err := c.performRequest(ctx, nearrpc.MethodBlock, params, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// BroadcastTxCommit sends the transaction and waits for its final execution
// outcome. Execution failures are a part of the outcome, errors are only
// returned for transactions that weren't accepted or for transport failures.
func (c *Client) BroadcastTxCommit(ctx context.Context, tx *transaction.SignedTransaction) (*result.FinalExecutionOutcome, error) {
	encoded, err := tx.Base64()
	if err != nil {
		return nil, err
	}
	var resp = new(result.FinalExecutionOutcome)
	if err := c.performRequest(ctx, nearrpc.MethodBroadcastTxCommit, []any{encoded}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// BroadcastTxAsync sends the transaction and returns its hash without waiting
// for it to be included.
func (c *Client) BroadcastTxAsync(ctx context.Context, tx *transaction.SignedTransaction) (util.CryptoHash, error) {
	encoded, err := tx.Base64()
	if err != nil {
		return util.CryptoHash{}, err
	}
	var resp util.CryptoHash
	if err := c.performRequest(ctx, nearrpc.MethodBroadcastTxAsync, []any{encoded}, &resp); err != nil {
		return util.CryptoHash{}, err
	}
	return resp, nil
}

// TxStatus returns the execution outcome of the transaction sent by sender
// once it reaches the given status (DefaultWaitStatus if empty).
func (c *Client) TxStatus(ctx context.Context, hash util.CryptoHash, sender util.AccountID, waitUntil nearrpc.TxExecutionStatus) (*result.FinalExecutionOutcome, error) {
	if waitUntil == "" {
		waitUntil = nearrpc.DefaultWaitStatus
	}
	var (
		params = nearrpc.TxParams{
			TxHash:          hash.String(),
			SenderAccountID: sender.String(),
			WaitUntil:       waitUntil,
		}
		resp = new(result.FinalExecutionOutcome)
	)
	if err := c.performRequest(ctx, nearrpc.MethodTx, params, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// LightClientProof returns the execution proof of the receipt relative to the
// given light client head block.
func (c *Client) LightClientProof(ctx context.Context, receipt util.CryptoHash, receiver util.AccountID, head util.CryptoHash) (*result.LightClientProof, error) {
	var (
		params = nearrpc.LightClientProofParams{
			Type:            "receipt",
			ReceiptID:       receipt.String(),
			ReceiverID:      receiver.String(),
			LightClientHead: head.String(),
		}
		resp = new(result.LightClientProof)
	)
	if err := c.performRequest(ctx, nearrpc.MethodLightClientProof, params, resp); err != nil {
		return nil, err
	}
	return resp, nil
}
