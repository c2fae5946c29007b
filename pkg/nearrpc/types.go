/*
Package nearrpc contains a set of types used for JSON-RPC communication with
NEAR nodes. It defines basic request/response types, the RPC error structure
and parameters used for specific requests.
*/
package nearrpc

import (
	"encoding/json"
)

const (
	// JSONRPCVersion is the only JSON-RPC protocol version supported.
	JSONRPCVersion = "2.0"
)

// NEAR RPC methods used by the client.
const (
	MethodQuery             = "query"
	MethodBlock             = "block"
	MethodBroadcastTxCommit = "broadcast_tx_commit"
	MethodBroadcastTxAsync  = "broadcast_tx_async"
	MethodTx                = "tx"
	MethodLightClientProof  = "light_client_proof"
)

// Query request types.
const (
	QueryViewAccessKey = "view_access_key"
	QueryCallFunction  = "call_function"
	QueryViewAccount   = "view_account"
)

type (
	// Request represents JSON-RPC request. Unlike many other chains NEAR
	// methods mostly expect params to be an object, so Params can be anything
	// that marshals to JSON properly.
	Request struct {
		// JSONRPC is the protocol version, only valid when it contains JSONRPCVersion.
		JSONRPC string `json:"jsonrpc"`
		// Method is the method being called.
		Method string `json:"method"`
		// Params is a set of method-specific parameters passed to the call.
		Params any `json:"params"`
		// ID is an identifier associated with this request, numeric ones are
		// used by the client.
		ID uint64 `json:"id"`
	}

	// Header is a generic JSON-RPC 2.0 response header (ID and JSON-RPC version).
	Header struct {
		ID      json.RawMessage `json:"id"`
		JSONRPC string          `json:"jsonrpc"`
	}

	// HeaderAndError adds an Error (that can be empty) to the Header.
	HeaderAndError struct {
		Header
		Error *Error `json:"error,omitempty"`
	}

	// Response represents a standard raw JSON-RPC 2.0
	// response: http://www.jsonrpc.org/specification#response_object.
	Response struct {
		HeaderAndError
		Result json.RawMessage `json:"result,omitempty"`
	}
)

// TxExecutionStatus is the execution stage a transaction has to reach before
// tx/broadcast_tx methods return.
type TxExecutionStatus string

// Known execution statuses, from the earliest to the latest.
const (
	TxStatusNone               TxExecutionStatus = "NONE"
	TxStatusIncluded           TxExecutionStatus = "INCLUDED"
	TxStatusExecutedOptimistic TxExecutionStatus = "EXECUTED_OPTIMISTIC"
	TxStatusIncludedFinal      TxExecutionStatus = "INCLUDED_FINAL"
	TxStatusExecuted           TxExecutionStatus = "EXECUTED"
	TxStatusFinal              TxExecutionStatus = "FINAL"
)

// DefaultWaitStatus is used when no explicit status is requested.
const DefaultWaitStatus = TxStatusFinal

type (
	// TxParams are the parameters of tx (status) requests.
	TxParams struct {
		TxHash          string            `json:"tx_hash"`
		SenderAccountID string            `json:"sender_account_id"`
		WaitUntil       TxExecutionStatus `json:"wait_until,omitempty"`
	}

	// LightClientProofParams are the parameters of light_client_proof
	// requests for receipts.
	LightClientProofParams struct {
		Type            string `json:"type"`
		ReceiptID       string `json:"receipt_id"`
		ReceiverID      string `json:"receiver_id"`
		LightClientHead string `json:"light_client_head"`
	}
)

// NewRequest creates a request with the given method and parameters.
func NewRequest(id uint64, method string, params any) *Request {
	return &Request{
		JSONRPC: JSONRPCVersion,
		Method:  method,
		Params:  params,
		ID:      id,
	}
}
