package nearrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoResult is returned for responses containing neither result nor error.
var ErrNoResult = errors.New("no result returned")

// Standard NEAR error kinds (Error.Name).
const (
	RequestValidationError = "REQUEST_VALIDATION_ERROR"
	HandlerError           = "HANDLER_ERROR"
	InternalError          = "INTERNAL_ERROR"

	// ContractExecutionError is the cause of failed view calls.
	ContractExecutionError = "CONTRACT_EXECUTION_ERROR"
	// UnknownAccessKey is the cause of view_access_key queries for keys
	// missing on chain.
	UnknownAccessKey = "UNKNOWN_ACCESS_KEY"
)

type (
	// Error is a NEAR JSON-RPC error. Modern nodes fill Name and Cause, the
	// older Code/Message/Data triple is kept for compatibility and is often
	// the only place where transaction errors are described.
	Error struct {
		Name    string          `json:"name,omitempty"`
		Cause   *ErrorCause     `json:"cause,omitempty"`
		Code    int64           `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data,omitempty"`
	}

	// ErrorCause is the structured cause of an Error.
	ErrorCause struct {
		Name string          `json:"name"`
		Info json.RawMessage `json:"info,omitempty"`
	}

	// InvalidNonce is the nonce rejection details: the nonce used by the
	// transaction and the current nonce of the access key.
	InvalidNonce struct {
		TxNonce uint64 `json:"tx_nonce"`
		AkNonce uint64 `json:"ak_nonce"`
	}
)

// NewError creates an Error with the given code and message.
func NewError(code int64, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewContractExecutionError creates a HandlerError for the view call failed
// with the given VM error.
func NewContractExecutionError(vmError string) *Error {
	info, _ := json.Marshal(map[string]string{"vm_error": vmError})
	return &Error{
		Name:    HandlerError,
		Cause:   &ErrorCause{Name: ContractExecutionError, Info: info},
		Code:    -32000,
		Message: "Server error",
	}
}

// NewUnknownAccessKeyError creates a HandlerError for the key that doesn't
// exist at the given block. message is the node's own description.
func NewUnknownAccessKeyError(publicKey string, height uint64, hash string, message string) *Error {
	info, _ := json.Marshal(map[string]any{
		"public_key":   publicKey,
		"block_height": height,
		"block_hash":   hash,
	})
	return &Error{
		Name:    HandlerError,
		Cause:   &ErrorCause{Name: UnknownAccessKey, Info: info},
		Code:    -32000,
		Message: message,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Cause != nil && e.Cause.Name != "" {
		b.WriteString(e.Cause.Name)
		if len(e.Cause.Info) != 0 && !bytes.Equal(e.Cause.Info, []byte("null")) && !bytes.Equal(e.Cause.Info, []byte("{}")) {
			b.WriteString(": ")
			b.Write(e.Cause.Info)
		}
	} else {
		fmt.Fprintf(&b, "%s (%d)", e.Message, e.Code)
		if len(e.Data) != 0 {
			b.WriteString(" - ")
			b.Write(e.Data)
		}
	}
	return b.String()
}

// Is allows to use errors.Is with Errors having the same name and cause
// (or code if there is no name).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	if e.Name != "" || t.Name != "" {
		return e.Name == t.Name && e.causeName() == t.causeName()
	}
	return e.Code == t.Code
}

func (e *Error) causeName() string {
	if e.Cause == nil {
		return ""
	}
	return e.Cause.Name
}

// InvalidNonceError returns nonce rejection details if err is (or wraps) an
// RPC Error reporting an InvalidNonce transaction. Nodes report it either in
// cause.info (InvalidTransaction handler error) or in the legacy data field
// nested into TxExecutionError/InvalidTxError objects.
func InvalidNonceError(err error) (*InvalidNonce, bool) {
	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		return nil, false
	}
	var sources []json.RawMessage
	if rpcErr.Cause != nil {
		sources = append(sources, rpcErr.Cause.Info)
	}
	sources = append(sources, rpcErr.Data)
	for _, src := range sources {
		if len(src) == 0 {
			continue
		}
		var v any
		if json.Unmarshal(src, &v) != nil {
			continue
		}
		if n, ok := findInvalidNonce(v); ok {
			return n, true
		}
	}
	return nil, false
}

func findInvalidNonce(v any) (*InvalidNonce, bool) {
	switch v := v.(type) {
	case map[string]any:
		if raw, ok := v["InvalidNonce"]; ok {
			data, err := json.Marshal(raw)
			if err == nil {
				var n InvalidNonce
				if json.Unmarshal(data, &n) == nil {
					return &n, true
				}
			}
		}
		for _, sub := range v {
			if n, ok := findInvalidNonce(sub); ok {
				return n, true
			}
		}
	case []any:
		for _, sub := range v {
			if n, ok := findInvalidNonce(sub); ok {
				return n, true
			}
		}
	case string:
		// Some nodes wrap the structured error into a string.
		if strings.Contains(v, "InvalidNonce") && strings.HasPrefix(strings.TrimSpace(v), "{") {
			var inner any
			if json.Unmarshal([]byte(v), &inner) == nil {
				return findInvalidNonce(inner)
			}
		}
	}
	return nil, false
}
