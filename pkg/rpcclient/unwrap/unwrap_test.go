package unwrap

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/require"
)

func res(b []byte) *result.CallResult {
	return &result.CallResult{Result: b}
}

func TestStdErrors(t *testing.T) {
	funcs := []func(r *result.CallResult, err error) (any, error){
		func(r *result.CallResult, err error) (any, error) {
			return Bytes(r, err)
		},
		func(r *result.CallResult, err error) (any, error) {
			return Uint32(r, err)
		},
		func(r *result.CallResult, err error) (any, error) {
			return Uint64(r, err)
		},
		func(r *result.CallResult, err error) (any, error) {
			return Uint256(r, err)
		},
		func(r *result.CallResult, err error) (any, error) {
			return Hash(r, err)
		},
		func(r *result.CallResult, err error) (any, error) {
			return Address(r, err)
		},
		func(r *result.CallResult, err error) (any, error) {
			return UTF8String(r, err)
		},
		func(r *result.CallResult, err error) (any, error) {
			return HexString(r, err)
		},
		func(r *result.CallResult, err error) (any, error) {
			var v uint64
			return nil, Borsh(r, err, &v)
		},
		func(r *result.CallResult, err error) (any, error) {
			var v any
			return nil, JSON(r, err, &v)
		},
	}
	t.Run("error on input", func(t *testing.T) {
		for _, f := range funcs {
			_, err := f(nil, errors.New("some"))
			require.Error(t, err)
		}
	})
	t.Run("nil result", func(t *testing.T) {
		for _, f := range funcs {
			_, err := f(nil, nil)
			require.ErrorIs(t, err, ErrNoResult)
		}
	})
}

func TestIntegers(t *testing.T) {
	for _, v := range []uint32{0, 1, 0xdeadbeef, math.MaxUint32} {
		b := binary.LittleEndian.AppendUint32(nil, v)
		got, err := Uint32(res(b), nil)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
	for _, v := range []uint64{0, 1, 1313161554, math.MaxUint64} {
		b := binary.LittleEndian.AppendUint64(nil, v)
		got, err := Uint64(res(b), nil)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}

	_, err := Uint32(res([]byte{1, 2, 3}), nil)
	require.Error(t, err)
	_, err = Uint64(res([]byte{1, 2, 3, 4}), nil)
	require.Error(t, err)
	_, err = Uint64(res(make([]byte, 9)), nil)
	require.Error(t, err)
}

func TestUint256(t *testing.T) {
	// get_balance of 1 ETH.
	b := uint256.NewInt(1_000_000_000_000_000_000).Bytes32()
	got, err := Uint256(res(b[:]), nil)
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", got.Dec())

	maxVal := new(uint256.Int).SetAllOne()
	b = maxVal.Bytes32()
	got, err = Uint256(res(b[:]), nil)
	require.NoError(t, err)
	require.True(t, got.Eq(maxVal))

	got, err = Uint256(res([]byte{1, 0}), nil)
	require.NoError(t, err)
	require.EqualValues(t, 256, got.Uint64())

	got, err = Uint256(res(nil), nil)
	require.NoError(t, err)
	require.True(t, got.IsZero())

	_, err = Uint256(res(make([]byte, 33)), nil)
	require.Error(t, err)
}

func TestHashAndAddress(t *testing.T) {
	addr := common.HexToAddress("0x4444588443C3a91288c5002483449Aba1054192b")
	got, err := Address(res(addr.Bytes()), nil)
	require.NoError(t, err)
	require.Equal(t, addr, got)
	_, err = Address(res(addr.Bytes()[1:]), nil)
	require.Error(t, err)

	h := common.HexToHash("0x01")
	gotH, err := Hash(res(h.Bytes()), nil)
	require.NoError(t, err)
	require.Equal(t, h, gotH)
	_, err = Hash(res(addr.Bytes()), nil)
	require.Error(t, err)
}

func TestStrings(t *testing.T) {
	s, err := UTF8String(res([]byte(" 3.6.4\n")), nil)
	require.NoError(t, err)
	require.Equal(t, "3.6.4", s)

	_, err = UTF8String(res([]byte{0xff, 0xfe}), nil)
	require.Error(t, err)

	s, err = HexString(res([]byte{0x60, 0x80, 0x60, 0x40}), nil)
	require.NoError(t, err)
	require.Equal(t, "0x60806040", s)

	s, err = HexString(res(nil), nil)
	require.NoError(t, err)
	require.Equal(t, "0x", s)
}

func TestBorsh(t *testing.T) {
	type fixedGas struct {
		Enabled bool
		Gas     uint64
		Name    string
	}
	exp := fixedGas{Enabled: true, Gas: 100500, Name: "silo"}
	b, err := borsh.Serialize(exp)
	require.NoError(t, err)

	var got fixedGas
	require.NoError(t, Borsh(res(b), nil, &got))
	require.Equal(t, exp, got)

	require.Error(t, Borsh(res(b[:1]), nil, &got))
}

func TestJSON(t *testing.T) {
	var v struct {
		Balance string `json:"balance"`
	}
	require.NoError(t, JSON(res([]byte(`{"balance":"42"}`)), nil, &v))
	require.Equal(t, "42", v.Balance)

	require.Error(t, JSON(res([]byte(`{`)), nil, &v))
}
