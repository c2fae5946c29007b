package rpcclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aurora-is-near/aurora-go/internal/testrpc"
	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/transaction"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *testrpc.Server, opts Options) *Client {
	c, err := New(srv.URL, opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNew(t *testing.T) {
	c, err := New("http://localhost:3030", Options{})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3030", c.Endpoint())
	require.Equal(t, defaultRequestTimeout, c.opts.RequestTimeout)
	require.Equal(t, defaultDialTimeout, c.opts.DialTimeout)

	_, err = New("ws://localhost:3030", Options{})
	require.Error(t, err)
	_, err = New(":::", Options{})
	require.Error(t, err)
}

func TestViewAccessKey(t *testing.T) {
	srv := testrpc.New(t)
	srv.ServeAccessKey(41)
	c := newTestClient(t, srv, Options{APIKey: "secret", Headers: map[string]string{"X-Test": "1"}})

	pk, err := keys.NewPrivateKey(keys.ED25519)
	require.NoError(t, err)
	ak, err := c.ViewAccessKey(context.Background(), "alice.near", pk.PublicKey(), nearrpc.Final())
	require.NoError(t, err)
	require.EqualValues(t, 41, ak.Nonce)
	require.True(t, ak.IsFullAccess())

	reqs := srv.Requests(nearrpc.MethodQuery)
	require.Len(t, reqs, 1)
	require.Equal(t, "secret", reqs[0].Headers.Get(APIKeyHeader))
	require.Equal(t, "1", reqs[0].Headers.Get("X-Test"))
	var params map[string]any
	require.NoError(t, json.Unmarshal(reqs[0].Params, &params))
	require.Equal(t, map[string]any{
		"request_type": "view_access_key",
		"account_id":   "alice.near",
		"public_key":   pk.PublicKey().String(),
		"finality":     "final",
	}, params)
}

func TestViewAccessKeyUnknown(t *testing.T) {
	srv := testrpc.New(t)
	srv.HandleQuery(nearrpc.QueryViewAccessKey, testrpc.Result(map[string]any{
		"block_hash":   "11111111111111111111111111111111",
		"block_height": 9,
		"error":        "access key ed25519:abc does not exist while viewing",
		"logs":         []string{},
	}))
	c := newTestClient(t, srv, Options{})

	pk, err := keys.NewPrivateKey(keys.ED25519)
	require.NoError(t, err)
	ak, err := c.ViewAccessKey(context.Background(), "alice.near", pk.PublicKey(), nearrpc.Final())
	require.Nil(t, ak)
	var rpcErr *nearrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, nearrpc.HandlerError, rpcErr.Name)
	require.Equal(t, nearrpc.UnknownAccessKey, rpcErr.Cause.Name)
	require.Contains(t, rpcErr.Message, "does not exist")
	_, isNonce := nearrpc.InvalidNonceError(err)
	require.False(t, isNonce)

	// Modern nodes return the same error directly.
	srv.HandleQuery(nearrpc.QueryViewAccessKey, testrpc.Fail(nearrpc.NewUnknownAccessKeyError(pk.PublicKey().String(), 9, "", "")))
	_, err = c.ViewAccessKey(context.Background(), "alice.near", pk.PublicKey(), nearrpc.Final())
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, nearrpc.UnknownAccessKey, rpcErr.Cause.Name)
}

func TestCallFunction(t *testing.T) {
	srv := testrpc.New(t)
	srv.ServeCalls(map[string][]byte{"get_version": []byte("3.6.4\n")})
	c := newTestClient(t, srv, Options{})

	res, err := c.CallFunction(context.Background(), "aurora", "get_version", []byte{1, 2}, nearrpc.AtHeight(100))
	require.NoError(t, err)
	require.Equal(t, result.Bytes("3.6.4\n"), res.Result)

	p := testrpc.DecodeCall(srv.Requests(nearrpc.MethodQuery)[0].Params)
	require.Equal(t, "aurora", p.AccountID)
	require.Equal(t, []byte{1, 2}, p.Args())
	require.EqualValues(t, 100, p.BlockID)

	_, err = c.CallFunction(context.Background(), "aurora", "unknown", nil, nearrpc.Final())
	var rpcErr *nearrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, nearrpc.ContractExecutionError, rpcErr.Cause.Name)

	// Legacy nodes put the error into the result.
	srv.HandleQuery(nearrpc.QueryCallFunction, testrpc.Result(map[string]any{
		"error": "wasm execution failed with error: MethodResolveError(MethodNotFound)",
		"logs":  []string{},
	}))
	_, err = c.CallFunction(context.Background(), "aurora", "unknown", nil, nearrpc.Final())
	require.ErrorAs(t, err, &rpcErr)
	require.ErrorContains(t, err, "MethodNotFound")
}

func TestViewAccount(t *testing.T) {
	srv := testrpc.New(t)
	srv.HandleQuery(nearrpc.QueryViewAccount, testrpc.Result(map[string]any{
		"amount":       "2000000000000000000000000",
		"locked":       "0",
		"code_hash":    "11111111111111111111111111111111",
		"storage_used": 100,
		"block_height": 7,
		"block_hash":   "11111111111111111111111111111111",
	}))
	c := newTestClient(t, srv, Options{})
	acc, err := c.ViewAccount(context.Background(), "alice.near", nearrpc.Optimistic())
	require.NoError(t, err)
	require.Equal(t, "2", acc.Amount.NEAR())
	require.EqualValues(t, 7, acc.BlockHeight)
}

func TestBlock(t *testing.T) {
	srv := testrpc.New(t)
	hash := util.Sha256([]byte("block"))
	srv.ServeBlock(123, hash)
	c := newTestClient(t, srv, Options{})
	b, err := c.Block(context.Background(), nearrpc.Final())
	require.NoError(t, err)
	require.EqualValues(t, 123, b.Header.Height)
	require.Equal(t, hash, b.Header.Hash)
}

func TestBroadcast(t *testing.T) {
	srv := testrpc.New(t)
	hash := util.Sha256([]byte("tx"))
	srv.ServeCommit(hash, result.ExecutionStatus{Kind: result.StatusSuccessValue, SuccessValue: []byte("ok")})
	c := newTestClient(t, srv, Options{})

	pk, err := keys.NewPrivateKey(keys.ED25519)
	require.NoError(t, err)
	tx := transaction.New("alice.near", pk.PublicKey(), 1, "bob.near", util.CryptoHash{}, transaction.Transfer{Deposit: big.NewInt(1)})
	stx, err := tx.Sign(pk)
	require.NoError(t, err)

	out, err := c.BroadcastTxCommit(context.Background(), stx)
	require.NoError(t, err)
	v, err := out.Value()
	require.NoError(t, err)
	require.Equal(t, []byte("ok"), v)

	var params []string
	require.NoError(t, json.Unmarshal(srv.Requests(nearrpc.MethodBroadcastTxCommit)[0].Params, &params))
	require.Len(t, params, 1)
	raw, err := base64.StdEncoding.DecodeString(params[0])
	require.NoError(t, err)
	expected, err := stx.Bytes()
	require.NoError(t, err)
	require.Equal(t, expected, raw)

	got, err := c.BroadcastTxAsync(context.Background(), stx)
	require.NoError(t, err)
	require.Equal(t, hash, got)

	out, err = c.TxStatus(context.Background(), hash, "alice.near", "")
	require.NoError(t, err)
	require.Equal(t, result.StatusSuccessValue, out.Status.Kind)
	var txParams nearrpc.TxParams
	require.NoError(t, json.Unmarshal(srv.Requests(nearrpc.MethodTx)[0].Params, &txParams))
	require.Equal(t, nearrpc.TxParams{TxHash: hash.String(), SenderAccountID: "alice.near", WaitUntil: nearrpc.TxStatusFinal}, txParams)
}

func TestLightClientProof(t *testing.T) {
	srv := testrpc.New(t)
	srv.Handle(nearrpc.MethodLightClientProof, testrpc.Result(map[string]any{
		"outcome_proof": map[string]any{
			"id":         "11111111111111111111111111111111",
			"block_hash": "11111111111111111111111111111111",
			"outcome":    map[string]any{"status": map[string]string{"SuccessValue": "AQ=="}},
		},
	}))
	c := newTestClient(t, srv, Options{})
	p, err := c.LightClientProof(context.Background(), util.CryptoHash{}, "aurora", util.CryptoHash{})
	require.NoError(t, err)
	require.Equal(t, []byte{1}, p.OutcomeProof.Outcome.Status.SuccessValue)

	var params nearrpc.LightClientProofParams
	require.NoError(t, json.Unmarshal(srv.Requests(nearrpc.MethodLightClientProof)[0].Params, &params))
	require.Equal(t, "receipt", params.Type)
	require.Equal(t, "aurora", params.ReceiverID)
}

func TestRPCErrors(t *testing.T) {
	srv := testrpc.New(t)
	srv.Handle(nearrpc.MethodBlock, testrpc.Fail(&nearrpc.Error{
		Name:  nearrpc.HandlerError,
		Cause: &nearrpc.ErrorCause{Name: "UNKNOWN_BLOCK"},
		Code:  -32000,
	}))
	c := newTestClient(t, srv, Options{})
	_, err := c.Block(context.Background(), nearrpc.AtHeight(1))
	var rpcErr *nearrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, "UNKNOWN_BLOCK", rpcErr.Cause.Name)

	_, err = c.LightClientProof(context.Background(), util.CryptoHash{}, "aurora", util.CryptoHash{})
	require.ErrorAs(t, err, &rpcErr)
	require.EqualValues(t, -32601, rpcErr.Code)

	srv.Handle(nearrpc.MethodBlock, testrpc.Result(nil))
	_, err = c.Block(context.Background(), nearrpc.Final())
	require.ErrorIs(t, err, nearrpc.ErrNoResult)
}

func TestTransportErrors(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(bad.Close)
	c, err := New(bad.URL, Options{})
	require.NoError(t, err)
	_, err = c.Block(context.Background(), nearrpc.Final())
	require.ErrorContains(t, err, "HTTP 502")

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)
	c, err = New(slow.URL, Options{RequestTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	_, err = c.Block(context.Background(), nearrpc.Final())
	require.Error(t, err)
	var rpcErr *nearrpc.Error
	require.False(t, errors.As(err, &rpcErr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c, err = New(slow.URL, Options{})
	require.NoError(t, err)
	_, err = c.Block(ctx, nearrpc.Final())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRequestIDs(t *testing.T) {
	srv := testrpc.New(t)
	srv.ServeBlock(1, util.CryptoHash{})
	c := newTestClient(t, srv, Options{})
	var ids []uint64
	c.requestF = func(ctx context.Context, r *nearrpc.Request) (*nearrpc.Response, error) {
		ids = append(ids, r.ID)
		return c.makeHTTPRequest(ctx, r)
	}
	for i := 0; i < 3; i++ {
		_, err := c.Block(context.Background(), nearrpc.Final())
		require.NoError(t, err)
	}
	require.Equal(t, []uint64{1, 2, 3}, ids)
}
