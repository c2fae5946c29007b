/*
Package result contains typed results of NEAR JSON-RPC calls.
*/
package result

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/aurora-is-near/aurora-go/pkg/util"
)

type (
	// QueryHeader is common to all query results, it describes the block
	// the query was executed at.
	QueryHeader struct {
		BlockHeight uint64          `json:"block_height"`
		BlockHash   util.CryptoHash `json:"block_hash"`
	}

	// AccessKey is the result of view_access_key query. Error is set
	// instead of the key data by nodes reporting missing keys inside the
	// result.
	AccessKey struct {
		QueryHeader
		Nonce      uint64          `json:"nonce"`
		Permission json.RawMessage `json:"permission"`
		Error      string          `json:"error,omitempty"`
	}

	// Account is the result of view_account query.
	Account struct {
		QueryHeader
		Amount        Yocto           `json:"amount"`
		Locked        Yocto           `json:"locked"`
		CodeHash      util.CryptoHash `json:"code_hash"`
		StorageUsage  uint64          `json:"storage_usage"`
		StoragePaidAt uint64          `json:"storage_paid_at"`
	}

	// CallResult is the result of call_function query. Error is only set by
	// nodes that report contract errors inside the result (it's converted to
	// an RPC error by the client).
	CallResult struct {
		QueryHeader
		Result Bytes    `json:"result"`
		Logs   []string `json:"logs"`
		Error  string   `json:"error,omitempty"`
	}
)

// IsFullAccess reports whether the key has FullAccess permission.
func (a *AccessKey) IsFullAccess() bool {
	var s string
	return json.Unmarshal(a.Permission, &s) == nil && s == "FullAccess"
}

// Bytes is a byte slice encoded in JSON as an array of numbers (as NEAR does
// for call_function results).
type Bytes []byte

// MarshalJSON implements the json.Marshaler interface.
func (b Bytes) MarshalJSON() ([]byte, error) {
	ints := make([]uint16, len(b))
	for i := range b {
		ints[i] = uint16(b[i])
	}
	return json.Marshal(ints)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	res := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte value out of range at %d: %d", i, v)
		}
		res[i] = byte(v)
	}
	*b = res
	return nil
}

// Yocto is a NEAR amount in yoctoNEAR, encoded in JSON as a decimal string.
type Yocto struct {
	big.Int
}

// MarshalJSON implements the json.Marshaler interface.
func (y Yocto) MarshalJSON() ([]byte, error) {
	return json.Marshal(y.Int.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (y *Yocto) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if _, ok := y.Int.SetString(s, 10); !ok {
		return fmt.Errorf("invalid amount %q", s)
	}
	return nil
}

// NEAR returns the amount formatted in NEAR.
func (y *Yocto) NEAR() string {
	return util.FormatNEAR(&y.Int)
}
