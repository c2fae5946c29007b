package testrpc

import (
	"encoding/base64"
	"encoding/json"

	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/util"
)

// CallParams are decoded call_function query params.
type CallParams struct {
	AccountID  string `json:"account_id"`
	MethodName string `json:"method_name"`
	ArgsBase64 string `json:"args_base64"`
	Finality   string `json:"finality,omitempty"`
	BlockID    any    `json:"block_id,omitempty"`
}

// Args returns decoded call arguments.
func (p CallParams) Args() []byte {
	b, _ := base64.StdEncoding.DecodeString(p.ArgsBase64)
	return b
}

// DecodeCall decodes call_function query params.
func DecodeCall(params json.RawMessage) CallParams {
	var p CallParams
	_ = json.Unmarshal(params, &p)
	return p
}

// ServeBlock makes the server respond to block requests with the given
// header.
func (s *Server) ServeBlock(height uint64, hash util.CryptoHash) {
	s.Handle(nearrpc.MethodBlock, Result(result.Block{
		Author: "node.near",
		Header: result.BlockHeader{Height: height, Hash: hash},
	}))
}

// ServeAccessKey makes the server respond to view_access_key queries with
// the given nonce.
func (s *Server) ServeAccessKey(nonce uint64) {
	s.HandleQuery(nearrpc.QueryViewAccessKey, Result(result.AccessKey{
		Nonce:      nonce,
		Permission: json.RawMessage(`"FullAccess"`),
	}))
}

// ServeCalls makes the server respond to call_function queries with
// per-method results. Unknown methods produce a contract execution error.
func (s *Server) ServeCalls(results map[string][]byte) {
	s.HandleQuery(nearrpc.QueryCallFunction, func(params json.RawMessage) (any, *nearrpc.Error) {
		p := DecodeCall(params)
		res, ok := results[p.MethodName]
		if !ok {
			return nil, nearrpc.NewContractExecutionError("MethodNotFound")
		}
		return result.CallResult{Result: res, Logs: []string{}}, nil
	})
}

// ServeCommit makes the server respond to broadcast_tx_commit with the given
// status and to broadcast_tx_async with the given hash.
func (s *Server) ServeCommit(hash util.CryptoHash, status result.ExecutionStatus) {
	outcome := &result.FinalExecutionOutcome{
		Status:      status,
		Transaction: result.TransactionView{Hash: hash},
		TransactionOutcome: result.ExecutionOutcomeWithID{
			ID:      hash,
			Outcome: result.ExecutionOutcome{Status: status},
		},
		ReceiptsOutcome:      []result.ExecutionOutcomeWithID{},
		FinalExecutionStatus: string(nearrpc.TxStatusFinal),
	}
	s.Handle(nearrpc.MethodBroadcastTxCommit, Result(outcome))
	s.Handle(nearrpc.MethodTx, Result(outcome))
	s.Handle(nearrpc.MethodBroadcastTxAsync, Result(hash))
}
