/*
Package actor provides a way to change chain state via RPC client.

This layer builds on top of the basic RPC client and [invoker] package, it
simplifies creating, signing and sending transactions to the network (since
that's the only way chain state is changed). Nonces are reserved from the
access key nonce cache, so one Actor (or several Actors sharing a cache) can
be used from many goroutines for the same key.

There are two ways to send a transaction. SendCommit waits for the final
execution outcome, SendAsync only returns the transaction hash that can be
awaited later with the Waiter. In both cases an InvalidNonce rejection of the
transaction invalidates the cached nonce of the key, any other outcome
(including execution failures) leaves the cache as is.
*/
package actor

import (
	"context"
	"errors"

	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/invoker"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/nonce"
	"github.com/aurora-is-near/aurora-go/pkg/transaction"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"go.uber.org/zap"
)

// RPCActor is an interface required from the RPC client to successfully
// create and send transactions.
type RPCActor interface {
	invoker.RPCInvoke
	nonce.RPC

	BroadcastTxCommit(ctx context.Context, tx *transaction.SignedTransaction) (*result.FinalExecutionOutcome, error)
	BroadcastTxAsync(ctx context.Context, tx *transaction.SignedTransaction) (util.CryptoHash, error)
}

// Actor keeps a connection to the RPC endpoint and allows to perform
// state-changing actions on behalf of a single signer. It also provides an
// Invoker to perform view calls and a Waiter to await transactions sent
// with SendAsync.
//
// Actor-specific APIs use "Make" prefix for methods that create signed
// transactions without sending them and "Send" prefix for methods that
// transmit them to the RPC server. Helpers like SendCall or Transfer build the
// action list and use SendCommit.
type Actor struct {
	invoker.Invoker
	Waiter

	client RPCActor
	signer keys.Signer
	id     nonce.Identity
	nonces *nonce.Cache
	opts   Options
	log    *zap.Logger
}

// Options are used to create Actor with non-default behavior.
type Options struct {
	// Nonces is the nonce cache to reserve nonces from. A new one is created
	// for the Actor if nil. Actors signing with the same key must share the
	// cache.
	Nonces *nonce.Cache
	// NonceRetries is the number of times a transaction is rebuilt with a
	// fresh nonce and resent after an InvalidNonce rejection. Zero means the
	// rejection is returned to the caller.
	NonceRetries int
	// PriorityFee is set into every transaction made by the Actor (see
	// WithPriorityFee for per-transaction fees). Non-zero value produces V1
	// transactions.
	PriorityFee uint64
	// WaitStatus is the execution status the Waiter awaits for,
	// nearrpc.DefaultWaitStatus if empty.
	WaitStatus nearrpc.TxExecutionStatus
	// Logger is used for debug logging, no logging by default.
	Logger *zap.Logger
}

var (
	// ErrNoSigner is returned from New for signers without a private key.
	ErrNoSigner = errors.New("signer has no private key")
	// ErrInvalidNonce is wrapped by errors returned for transactions rejected
	// because of their nonce.
	ErrInvalidNonce = errors.New("invalid transaction nonce")
)

// New creates an Actor instance using the specified RPC interface and the
// signer. Every transaction created by this Actor is signed by this signer
// and all communication is performed via this RPC.
func New(ra RPCActor, signer keys.Signer, opts Options) (*Actor, error) {
	if signer.PrivateKey == nil {
		return nil, ErrNoSigner
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Nonces == nil {
		opts.Nonces = nonce.New(ra, opts.Logger)
	}
	if opts.NonceRetries < 0 {
		opts.NonceRetries = 0
	}
	return &Actor{
		Invoker: *invoker.New(ra, nearrpc.Final()),
		Waiter:  NewWaiter(ra, opts.WaitStatus),
		client:  ra,
		signer:  signer,
		id:      nonce.Identity{AccountID: signer.AccountID, PublicKey: signer.PublicKey()},
		nonces:  opts.Nonces,
		opts:    opts,
		log:     opts.Logger,
	}, nil
}

// Sender returns the signer account.
func (a *Actor) Sender() util.AccountID {
	return a.signer.AccountID
}

// Identity returns the access key used by the Actor.
func (a *Actor) Identity() nonce.Identity {
	return a.id
}

// WithPriorityFee returns a copy of the Actor making transactions with the
// given priority fee. The copy shares the client and the nonce cache with a.
func (a *Actor) WithPriorityFee(fee uint64) *Actor {
	c := *a
	c.opts.PriorityFee = fee
	return &c
}

// PriorityFee returns the priority fee of transactions made by the Actor.
func (a *Actor) PriorityFee() uint64 {
	return a.opts.PriorityFee
}

// Nonces returns the nonce cache used by the Actor.
func (a *Actor) Nonces() *nonce.Cache {
	return a.nonces
}

// MakeTransaction reserves a nonce and creates a transaction to the receiver
// with the given actions signed by the Actor's signer. The transaction isn't
// sent, if it's never sent the nonce is just skipped.
func (a *Actor) MakeTransaction(ctx context.Context, receiver util.AccountID, actions ...transaction.Action) (*transaction.SignedTransaction, error) {
	if len(actions) == 0 {
		return nil, transaction.ErrNoActions
	}
	blockHash, n, err := a.nonces.Reserve(ctx, a.id)
	if err != nil {
		return nil, err
	}
	tx := transaction.New(a.signer.AccountID, a.id.PublicKey, n, receiver, blockHash, actions...)
	tx.PriorityFee = a.opts.PriorityFee
	return tx.Sign(a.signer.PrivateKey)
}

// SendCommit creates a transaction (see MakeTransaction), sends it and waits
// for its final execution outcome. Execution failures don't produce an error,
// they're returned as a part of the Outcome (see Outcome.Err). Errors are
// returned for transactions that were rejected by the node or couldn't be
// sent. InvalidNonce rejections invalidate the nonce cache entry and are
// retried up to Options.NonceRetries times.
func (a *Actor) SendCommit(ctx context.Context, receiver util.AccountID, actions ...transaction.Action) (*Outcome, error) {
	for attempt := 0; ; attempt++ {
		tx, err := a.MakeTransaction(ctx, receiver, actions...)
		if err != nil {
			return nil, err
		}
		h, err := tx.Hash()
		if err != nil {
			return nil, err
		}
		a.log.Debug("sending transaction",
			zap.Stringer("hash", h),
			zap.Stringer("receiver", receiver),
			zap.Uint64("nonce", tx.Transaction.Nonce),
			zap.Int("attempt", attempt))
		res, err := a.client.BroadcastTxCommit(ctx, tx)
		err = a.handleError(err)
		if errors.Is(err, ErrInvalidNonce) && attempt < a.opts.NonceRetries {
			continue
		}
		if err != nil {
			return nil, err
		}
		return NewOutcome(res), nil
	}
}

// SendAsync creates a transaction (see MakeTransaction) and sends it without
// waiting for its execution. It returns the hash of the transaction that can
// be awaited with the Waiter. Rejections are handled the same way as in
// SendCommit.
func (a *Actor) SendAsync(ctx context.Context, receiver util.AccountID, actions ...transaction.Action) (util.CryptoHash, error) {
	for attempt := 0; ; attempt++ {
		tx, err := a.MakeTransaction(ctx, receiver, actions...)
		if err != nil {
			return util.CryptoHash{}, err
		}
		a.log.Debug("sending transaction asynchronously",
			zap.Stringer("receiver", receiver),
			zap.Uint64("nonce", tx.Transaction.Nonce),
			zap.Int("attempt", attempt))
		h, err := a.client.BroadcastTxAsync(ctx, tx)
		err = a.handleError(err)
		if errors.Is(err, ErrInvalidNonce) && attempt < a.opts.NonceRetries {
			continue
		}
		if err != nil {
			return util.CryptoHash{}, err
		}
		return h, nil
	}
}

// Wait awaits the transaction sent by the Actor with SendAsync.
func (a *Actor) Wait(ctx context.Context, h util.CryptoHash) (*Outcome, error) {
	res, err := a.Waiter.Wait(ctx, h, a.signer.AccountID)
	if err != nil {
		return nil, err
	}
	return NewOutcome(res), nil
}
