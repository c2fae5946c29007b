package invoker

import (
	"context"
	"errors"
	"testing"

	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/stretchr/testify/require"
)

type rpcInv struct {
	res *result.CallResult
	err error

	contract util.AccountID
	method   string
	args     []byte
	block    nearrpc.BlockReference
}

func (r *rpcInv) CallFunction(_ context.Context, contract util.AccountID, method string, args []byte, block nearrpc.BlockReference) (*result.CallResult, error) {
	r.contract, r.method, r.args, r.block = contract, method, args, block
	return r.res, r.err
}

func TestInvoker(t *testing.T) {
	ctx := context.Background()
	resExp := &result.CallResult{Result: []byte{1, 2, 3}}
	ri := &rpcInv{res: resExp}

	testInv := func(t *testing.T, inv *Invoker, block nearrpc.BlockReference) {
		res, err := inv.Call(ctx, "aurora", "get_code", []byte{0xff})
		require.NoError(t, err)
		require.Equal(t, resExp, res)
		require.Equal(t, util.AccountID("aurora"), ri.contract)
		require.Equal(t, "get_code", ri.method)
		require.Equal(t, []byte{0xff}, ri.args)
		require.Equal(t, block, ri.block)

		_, err = inv.CallJSON(ctx, "aurora", "ft_balance_of", map[string]string{"account_id": "alice.near"})
		require.NoError(t, err)
		require.JSONEq(t, `{"account_id":"alice.near"}`, string(ri.args))

		_, err = inv.CallJSON(ctx, "aurora", "get_version", nil)
		require.NoError(t, err)
		require.Nil(t, ri.args)

		_, err = inv.CallBorsh(ctx, "aurora", "get_erc20_from_nep141", struct{ Token string }{"usdt.near"})
		require.NoError(t, err)
		require.Equal(t, append([]byte{9, 0, 0, 0}, "usdt.near"...), ri.args)
	}
	t.Run("final", func(t *testing.T) {
		testInv(t, New(ri, nearrpc.BlockReference{}), nearrpc.BlockReference{})
	})
	t.Run("height", func(t *testing.T) {
		inv := NewHistoricAtHeight(100500, ri)
		h, ok := inv.Block().Height()
		require.True(t, ok)
		require.EqualValues(t, 100500, h)
		testInv(t, inv, nearrpc.AtHeight(100500))
	})
	t.Run("hash", func(t *testing.T) {
		hash := util.Sha256([]byte("block"))
		testInv(t, NewHistoricAtBlock(hash, ri), nearrpc.AtHash(hash))
	})
}

func TestView(t *testing.T) {
	ri := &rpcInv{res: &result.CallResult{Result: []byte("3.6.4")}}
	inv := New(ri, nearrpc.Final())

	b, err := inv.View(context.Background(), "aurora", "get_version", nil, nearrpc.AtHeight(7))
	require.NoError(t, err)
	require.Equal(t, []byte("3.6.4"), b)
	require.Equal(t, nearrpc.AtHeight(7), ri.block)

	ri.err = errors.New("some")
	_, err = inv.View(context.Background(), "aurora", "get_version", nil, nearrpc.Final())
	require.ErrorIs(t, err, ri.err)

	_, err = inv.CallJSON(context.Background(), "aurora", "x", func() {})
	require.Error(t, err)
}
