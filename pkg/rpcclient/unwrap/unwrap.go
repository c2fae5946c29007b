/*
Package unwrap provides a set of proxy methods to process view call results.

Functions implemented there are intended to be used as wrappers for other
functions that return (*result.CallResult, error) pair (like invoker.Invoker
methods). These functions check for error, check the length and format of
the returned bytes, convert them to appropriate type (if everything is OK)
and then return a result or error. They're mostly useful for other
higher-level contract-specific packages.
*/
package unwrap

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/near/borsh-go"
)

// ErrNoResult is returned for nil results without an error.
var ErrNoResult = errors.New("no call result")

// Bytes returns the raw result bytes if there was no error.
func Bytes(r *result.CallResult, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNoResult
	}
	return r.Result, nil
}

func fixed(r *result.CallResult, err error, size int) ([]byte, error) {
	b, err := Bytes(r, err)
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, fmt.Errorf("expected %d bytes, got %d", size, len(b))
	}
	return b, nil
}

// Uint32 expects exactly 4 bytes of little-endian unsigned integer.
func Uint32(r *result.CallResult, err error) (uint32, error) {
	b, err := fixed(r, err, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint64 expects exactly 8 bytes of little-endian unsigned integer.
func Uint64(r *result.CallResult, err error) (uint64, error) {
	b, err := fixed(r, err, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Uint256 expects up to 32 bytes of big-endian unsigned integer. Shorter
// results are treated as having leading zeroes stripped.
func Uint256(r *result.CallResult, err error) (*uint256.Int, error) {
	b, err := Bytes(r, err)
	if err != nil {
		return nil, err
	}
	if len(b) > 32 {
		return nil, fmt.Errorf("too long (%d bytes) for uint256", len(b))
	}
	return new(uint256.Int).SetBytes(b), nil
}

// Hash expects exactly 32 bytes (like EVM block hashes or storage values).
func Hash(r *result.CallResult, err error) (common.Hash, error) {
	b, err := fixed(r, err, common.HashLength)
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(b), nil
}

// Address expects exactly 20 bytes of an EVM address.
func Address(r *result.CallResult, err error) (common.Address, error) {
	b, err := fixed(r, err, common.AddressLength)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(b), nil
}

// UTF8String expects a valid UTF-8 string and returns it with leading and
// trailing whitespace trimmed.
func UTF8String(r *result.CallResult, err error) (string, error) {
	b, err := Bytes(r, err)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("not a UTF-8 string")
	}
	return strings.TrimSpace(string(b)), nil
}

// HexString returns the result bytes as a 0x-prefixed hex string.
func HexString(r *result.CallResult, err error) (string, error) {
	b, err := Bytes(r, err)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(b), nil
}

// Borsh deserializes the result into v (which must be a pointer) using Borsh
// encoding.
func Borsh(r *result.CallResult, err error, v any) error {
	b, err := Bytes(r, err)
	if err != nil {
		return err
	}
	if err := borsh.Deserialize(v, b); err != nil {
		return fmt.Errorf("invalid borsh data: %w", err)
	}
	return nil
}

// JSON unmarshals the result into v (which must be a pointer).
func JSON(r *result.CallResult, err error, v any) error {
	b, err := Bytes(r, err)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
