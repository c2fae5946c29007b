/*
Package nonce implements an access key nonce cache. It hands out unique and
strictly increasing nonces for transactions signed with the same access key
without asking the node for the current key nonce every time.

The first reservation for a key fetches the key nonce from the chain, next
ones increment the cached counter and only fetch a fresh block hash. When
several goroutines race for the first reservation all of them end up on the
same counter raised to the maximum nonce any of them has seen. The cache has
no knowledge of other processes using the same key, if some transaction is
rejected because of its nonce the entry has to be invalidated (see
Invalidate) and the next reservation goes to the chain again.

Reserved nonces are never returned to the cache, so a transaction that is
not sent after reservation leaves a gap in the sequence, which is fine for
NEAR.
*/
package nonce

import (
	"context"
	"fmt"
	"sync"

	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// RPC is the set of node methods used by the Cache.
type RPC interface {
	ViewAccessKey(ctx context.Context, account util.AccountID, key keys.PublicKey, block nearrpc.BlockReference) (*result.AccessKey, error)
	Block(ctx context.Context, block nearrpc.BlockReference) (*result.Block, error)
}

// Identity is an access key of some account.
type Identity struct {
	AccountID util.AccountID
	PublicKey keys.PublicKey
}

// String implements the fmt.Stringer interface.
func (i Identity) String() string {
	return i.AccountID.String() + "/" + i.PublicKey.String()
}

// Cache is an access key nonce cache. It's safe for concurrent use.
type Cache struct {
	rpc RPC
	log *zap.Logger

	lock sync.Mutex
	// Every counter stores the last nonce issued (or seen on chain) for the
	// key, counters are only increased.
	nonces map[Identity]*atomic.Uint64
}

// New creates an empty Cache using rpc to fetch key nonces and block hashes.
// log can be nil.
func New(rpc RPC, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		rpc:    rpc,
		log:    log,
		nonces: make(map[Identity]*atomic.Uint64),
	}
}

// Reserve returns a new nonce for the key along with a recent block hash to
// use in the transaction. Nonces returned for the same key are unique and
// strictly increasing in the order of reservation. Errors are returned for
// failed node requests, the cache isn't changed in this case if it had no
// entry for the key.
func (c *Cache) Reserve(ctx context.Context, id Identity) (util.CryptoHash, uint64, error) {
	c.lock.Lock()
	ctr, ok := c.nonces[id]
	c.lock.Unlock()

	if ok {
		nonce := ctr.Inc()
		nonceHits.Inc()
		// Cached nonce is fine, but the block hash must be recent for the
		// transaction to be valid.
		b, err := c.rpc.Block(ctx, nearrpc.Final())
		if err != nil {
			return util.CryptoHash{}, 0, fmt.Errorf("failed to get block hash: %w", err)
		}
		return b.Header.Hash, nonce, nil
	}

	nonceMisses.Inc()
	ak, err := c.rpc.ViewAccessKey(ctx, id.AccountID, id.PublicKey, nearrpc.Final())
	if err != nil {
		return util.CryptoHash{}, 0, fmt.Errorf("failed to get access key nonce: %w", err)
	}
	c.log.Debug("access key nonce fetched",
		zap.Stringer("key", id),
		zap.Uint64("nonce", ak.Nonce),
		zap.Uint64("height", ak.BlockHeight))

	c.lock.Lock()
	ctr, ok = c.nonces[id]
	if !ok {
		ctr = atomic.NewUint64(ak.Nonce)
		c.nonces[id] = ctr
	}
	c.lock.Unlock()

	if raiseTo(ctr, ak.Nonce) {
		nonceCorrections.Inc()
		c.log.Debug("nonce counter raised to the chain value",
			zap.Stringer("key", id),
			zap.Uint64("nonce", ak.Nonce))
	}
	return ak.BlockHash, ctr.Inc(), nil
}

// raiseTo sets ctr to v if it's lower than v. It returns true if the counter
// was changed.
func raiseTo(ctr *atomic.Uint64, v uint64) bool {
	for {
		cur := ctr.Load()
		if cur >= v {
			return false
		}
		if ctr.CompareAndSwap(cur, v) {
			return true
		}
	}
}

// Invalidate drops the cached counter for the key, the next Reserve fetches
// the nonce from the chain.
func (c *Cache) Invalidate(id Identity) {
	c.lock.Lock()
	_, ok := c.nonces[id]
	delete(c.nonces, id)
	c.lock.Unlock()

	if ok {
		nonceInvalidations.Inc()
		c.log.Warn("access key nonce invalidated", zap.Stringer("key", id))
	}
}

// Last returns the last nonce issued for the key and true if the key is
// cached.
func (c *Cache) Last(id Identity) (uint64, bool) {
	c.lock.Lock()
	ctr, ok := c.nonces[id]
	c.lock.Unlock()
	if !ok {
		return 0, false
	}
	return ctr.Load(), true
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.nonces)
}
