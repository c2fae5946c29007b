/*
Package invoker provides a convenient wrapper to perform read-only contract
calls (view calls) via RPC client.

View calls don't produce transactions, don't need a signer or nonce and
don't change the state of the chain. Invoker doesn't interpret the result
of the call, that's what [unwrap] package and contract-specific packages are
for.
*/
package invoker

import (
	"context"
	"encoding/json"

	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/near/borsh-go"
)

// RPCInvoke is a set of RPC methods needed to execute view calls.
type RPCInvoke interface {
	CallFunction(ctx context.Context, contract util.AccountID, method string, args []byte, block nearrpc.BlockReference) (*result.CallResult, error)
}

// Invoker allows to perform view calls using RPC client at some fixed block
// reference (final block by default). It returns results as is, without any
// decoding.
type Invoker struct {
	client RPCInvoke
	block  nearrpc.BlockReference
}

// New creates an Invoker to execute view calls at the given block reference.
// Zero BlockReference means the latest final block.
func New(client RPCInvoke, block nearrpc.BlockReference) *Invoker {
	return &Invoker{client: client, block: block}
}

// NewHistoricAtHeight creates an Invoker to execute view calls at some given
// height.
func NewHistoricAtHeight(height uint64, client RPCInvoke) *Invoker {
	return New(client, nearrpc.AtHeight(height))
}

// NewHistoricAtBlock creates an Invoker to execute view calls at some given
// block.
func NewHistoricAtBlock(block util.CryptoHash, client RPCInvoke) *Invoker {
	return New(client, nearrpc.AtHash(block))
}

// Block returns the block reference used by the Invoker.
func (v *Invoker) Block() nearrpc.BlockReference {
	return v.block
}

// Call invokes a view method of the contract with raw arguments and returns
// the result as is.
func (v *Invoker) Call(ctx context.Context, contract util.AccountID, method string, args []byte) (*result.CallResult, error) {
	return v.client.CallFunction(ctx, contract, method, args, v.block)
}

// CallJSON is similar to Call, but it serializes args to JSON first. Nil args
// are sent as an empty argument list.
func (v *Invoker) CallJSON(ctx context.Context, contract util.AccountID, method string, args any) (*result.CallResult, error) {
	var raw []byte
	if args != nil {
		var err error
		raw, err = json.Marshal(args)
		if err != nil {
			return nil, err
		}
	}
	return v.Call(ctx, contract, method, raw)
}

// CallBorsh is similar to Call, but it serializes args with Borsh first.
func (v *Invoker) CallBorsh(ctx context.Context, contract util.AccountID, method string, args any) (*result.CallResult, error) {
	raw, err := borsh.Serialize(args)
	if err != nil {
		return nil, err
	}
	return v.Call(ctx, contract, method, raw)
}

// View performs a view call at the given block reference and returns the raw
// bytes the method returned. It ignores the Invoker's default block.
func (v *Invoker) View(ctx context.Context, contract util.AccountID, method string, args []byte, block nearrpc.BlockReference) ([]byte, error) {
	res, err := v.client.CallFunction(ctx, contract, method, args, block)
	if err != nil {
		return nil, err
	}
	return res.Result, nil
}
