package nonce

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/aurora-is-near/aurora-go/internal/testrpc"
	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/stretchr/testify/require"
)

type RPCClient struct {
	lock      sync.Mutex
	nonces    map[Identity]uint64
	err       error
	blockErr  error
	keyCalls  int
	blockCall int
	// arrive, if set, is called by every ViewAccessKey before responding.
	arrive func()
}

var (
	keyHash   = util.Sha256([]byte("access key block"))
	finalHash = util.Sha256([]byte("final block"))
)

func (r *RPCClient) ViewAccessKey(_ context.Context, account util.AccountID, key keys.PublicKey, _ nearrpc.BlockReference) (*result.AccessKey, error) {
	r.lock.Lock()
	r.keyCalls++
	nonce, err, arrive := r.nonces[Identity{account, key}], r.err, r.arrive
	r.lock.Unlock()
	if arrive != nil {
		arrive()
	}
	if err != nil {
		return nil, err
	}
	return &result.AccessKey{
		QueryHeader: result.QueryHeader{BlockHash: keyHash},
		Nonce:       nonce,
	}, nil
}

func (r *RPCClient) Block(context.Context, nearrpc.BlockReference) (*result.Block, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.blockCall++
	if r.blockErr != nil {
		return nil, r.blockErr
	}
	return &result.Block{Header: result.BlockHeader{Hash: finalHash}}, nil
}

func (r *RPCClient) setNonce(id Identity, n uint64) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.nonces[id] = n
}

func (r *RPCClient) calls() (int, int) {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.keyCalls, r.blockCall
}

func newIdentity(t *testing.T, account util.AccountID) Identity {
	pk, err := keys.NewPrivateKey(keys.ED25519)
	require.NoError(t, err)
	return Identity{AccountID: account, PublicKey: pk.PublicKey()}
}

func newTestCache(t *testing.T) (*Cache, *RPCClient) {
	rpc := &RPCClient{nonces: make(map[Identity]uint64)}
	return New(rpc, nil), rpc
}

func TestReserveSeed(t *testing.T) {
	c, rpc := newTestCache(t)
	id := newIdentity(t, "alice.near")
	rpc.setNonce(id, 41)

	hash, n, err := c.Reserve(context.Background(), id)
	require.NoError(t, err)
	require.EqualValues(t, 42, n)
	require.Equal(t, keyHash, hash)

	last, ok := c.Last(id)
	require.True(t, ok)
	require.EqualValues(t, 42, last)
}

func TestReserveCached(t *testing.T) {
	c, rpc := newTestCache(t)
	id := newIdentity(t, "alice.near")
	rpc.setNonce(id, 10)

	_, n, err := c.Reserve(context.Background(), id)
	require.NoError(t, err)
	require.EqualValues(t, 11, n)

	// The chain value doesn't matter anymore.
	rpc.setNonce(id, 100)
	for i := uint64(12); i < 15; i++ {
		hash, n, err := c.Reserve(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, i, n)
		require.Equal(t, finalHash, hash)
	}
	keyCalls, blockCalls := rpc.calls()
	require.Equal(t, 1, keyCalls)
	require.Equal(t, 3, blockCalls)
}

func TestReserveConcurrent(t *testing.T) {
	const n = 100
	c, rpc := newTestCache(t)
	id := newIdentity(t, "alice.near")
	rpc.setNonce(id, 1000)

	var (
		wg     sync.WaitGroup
		lock   sync.Mutex
		issued []uint64
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, nonce, err := c.Reserve(context.Background(), id)
			require.NoError(t, err)
			lock.Lock()
			issued = append(issued, nonce)
			lock.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, issued, n)
	sort.Slice(issued, func(i, j int) bool { return issued[i] < issued[j] })
	for i := range issued {
		require.EqualValues(t, 1001+i, issued[i])
	}
}

func TestReserveFirstFetchRace(t *testing.T) {
	c, rpc := newTestCache(t)
	id := newIdentity(t, "alice.near")
	rpc.setNonce(id, 5)

	// Both callers get the chain nonce before any of them inserts the entry.
	var arrived sync.WaitGroup
	arrived.Add(2)
	rpc.arrive = func() {
		arrived.Done()
		arrived.Wait()
	}

	var (
		wg  sync.WaitGroup
		res [2]uint64
	)
	for i := range res {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, nonce, err := c.Reserve(context.Background(), id)
			require.NoError(t, err)
			res[i] = nonce
		}(i)
	}
	wg.Wait()

	require.ElementsMatch(t, []uint64{6, 7}, res[:])
	keyCalls, _ := rpc.calls()
	require.Equal(t, 2, keyCalls)
	require.Equal(t, 1, c.Len())
}

func TestReserveFetchMax(t *testing.T) {
	c, rpc := newTestCache(t)
	id := newIdentity(t, "alice.near")

	// First caller sees an older chain state than the second one.
	var (
		first  = make(chan struct{})
		second = make(chan struct{})
		calls  int
	)
	rpc.setNonce(id, 5)
	rpc.arrive = func() {
		rpc.lock.Lock()
		calls++
		call := calls
		rpc.lock.Unlock()
		if call == 1 {
			close(first)
			<-second
		}
	}

	var (
		wg         sync.WaitGroup
		slowResult uint64
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, n, err := c.Reserve(context.Background(), id)
		require.NoError(t, err)
		slowResult = n
	}()
	<-first
	rpc.setNonce(id, 20)
	_, fast, err := c.Reserve(context.Background(), id)
	require.NoError(t, err)
	require.EqualValues(t, 21, fast)
	close(second)
	wg.Wait()

	// The slow caller saw 5, but the counter is already above that.
	require.EqualValues(t, 22, slowResult)
	last, _ := c.Last(id)
	require.EqualValues(t, 22, last)
}

func TestInvalidate(t *testing.T) {
	c, rpc := newTestCache(t)
	id := newIdentity(t, "alice.near")
	rpc.setNonce(id, 50)

	_, n, err := c.Reserve(context.Background(), id)
	require.NoError(t, err)
	require.EqualValues(t, 51, n)

	// Some other process used the key.
	rpc.setNonce(id, 54)
	c.Invalidate(id)
	_, ok := c.Last(id)
	require.False(t, ok)

	_, n, err = c.Reserve(context.Background(), id)
	require.NoError(t, err)
	require.EqualValues(t, 55, n)
	keyCalls, _ := rpc.calls()
	require.Equal(t, 2, keyCalls)

	// Invalidating unknown keys is fine.
	c.Invalidate(newIdentity(t, "bob.near"))
	require.Equal(t, 1, c.Len())
}

func TestIsolation(t *testing.T) {
	c, rpc := newTestCache(t)
	a := newIdentity(t, "alice.near")
	b := newIdentity(t, "bob.near")
	// Same account, different key.
	a2 := Identity{AccountID: a.AccountID, PublicKey: b.PublicKey}
	rpc.setNonce(a, 10)
	rpc.setNonce(b, 100)
	rpc.setNonce(a2, 1000)

	var wg sync.WaitGroup
	for _, id := range []Identity{a, b, a2} {
		wg.Add(1)
		go func(id Identity) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				_, _, err := c.Reserve(context.Background(), id)
				require.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	for id, expected := range map[Identity]uint64{a: 20, b: 110, a2: 1010} {
		last, ok := c.Last(id)
		require.True(t, ok)
		require.Equal(t, expected, last)
	}

	c.Invalidate(a)
	last, ok := c.Last(b)
	require.True(t, ok)
	require.EqualValues(t, 110, last)
	_, n, err := c.Reserve(context.Background(), b)
	require.NoError(t, err)
	require.EqualValues(t, 111, n)
}

func TestReserveErrors(t *testing.T) {
	c, rpc := newTestCache(t)
	id := newIdentity(t, "alice.near")
	rpc.setNonce(id, 7)

	rpc.err = errors.New("connection refused")
	_, _, err := c.Reserve(context.Background(), id)
	require.ErrorIs(t, err, rpc.err)
	require.Equal(t, 0, c.Len())

	rpc.err = nil
	_, n, err := c.Reserve(context.Background(), id)
	require.NoError(t, err)
	require.EqualValues(t, 8, n)

	// Failed block hash fetch leaves a gap, nonce isn't reused.
	rpc.blockErr = errors.New("timeout")
	_, _, err = c.Reserve(context.Background(), id)
	require.ErrorIs(t, err, rpc.blockErr)
	rpc.blockErr = nil
	_, n, err = c.Reserve(context.Background(), id)
	require.NoError(t, err)
	require.EqualValues(t, 10, n)
}

func TestRaiseTo(t *testing.T) {
	c, rpc := newTestCache(t)
	id := newIdentity(t, "alice.near")
	rpc.setNonce(id, 3)
	_, _, err := c.Reserve(context.Background(), id)
	require.NoError(t, err)

	ctr := c.nonces[id]
	require.False(t, raiseTo(ctr, 2))
	require.False(t, raiseTo(ctr, 4))
	require.True(t, raiseTo(ctr, 10))
	require.EqualValues(t, 10, ctr.Load())
}

func TestReserveUnknownKey(t *testing.T) {
	srv := testrpc.New(t)
	srv.ServeBlock(10, util.Sha256([]byte("block")))
	srv.HandleQuery(nearrpc.QueryViewAccessKey, testrpc.Result(map[string]any{
		"block_hash":   "11111111111111111111111111111111",
		"block_height": 10,
		"error":        "access key does not exist while viewing",
		"logs":         []string{},
	}))
	client, err := rpcclient.New(srv.URL, rpcclient.Options{})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	c := New(client, nil)
	id := newIdentity(t, "alice.near")
	_, _, err = c.Reserve(context.Background(), id)
	var rpcErr *nearrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, nearrpc.UnknownAccessKey, rpcErr.Cause.Name)
	require.Equal(t, 0, c.Len())
	_, ok := c.Last(id)
	require.False(t, ok)

	// The key is added later, the cache isn't affected by the failure.
	srv.ServeAccessKey(41)
	_, n, err := c.Reserve(context.Background(), id)
	require.NoError(t, err)
	require.EqualValues(t, 42, n)
}
