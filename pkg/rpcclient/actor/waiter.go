package actor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/util"
)

// PollingWaiterRetryCount is a threshold for a number of subsequent failed
// attempts to get transaction status from the RPC server for PollingWaiter.
// If it fails to retrieve the status PollingWaiterRetryCount times in a row
// then transaction awaiting attempt is considered to be failed and an error
// is returned. Unknown transaction and timeout responses are not failures,
// the transaction may be not yet propagated or executed.
const PollingWaiterRetryCount = 3

// DefaultPollInterval is the time between transaction status requests of
// PollingWaiter.
const DefaultPollInterval = time.Second

var (
	// ErrContextDone is returned when Waiter context has been done in the middle
	// of transaction awaiting process and no result was received yet.
	ErrContextDone = errors.New("waiter context done")
	// ErrAwaitingNotSupported is returned from Wait method if Waiter instance
	// doesn't support transaction awaiting.
	ErrAwaitingNotSupported = errors.New("awaiting not supported")
)

// Error cause names the node returns for transactions it can't report yet.
const (
	causeUnknownTransaction = "UNKNOWN_TRANSACTION"
	causeTimeout            = "TIMEOUT_ERROR"
)

type (
	// Waiter is an interface providing transaction awaiting functionality to Actor.
	Waiter interface {
		// Wait allows to wait until transaction sent by sender reaches the
		// Waiter's execution status. It returns transaction execution result
		// or an error if the status can't be retrieved.
		Wait(ctx context.Context, h util.CryptoHash, sender util.AccountID) (*result.FinalExecutionOutcome, error)
	}
	// RPCPollingWaiter is an interface that enables transaction awaiting
	// functionality for Actor instance based on periodical tx requests.
	RPCPollingWaiter interface {
		TxStatus(ctx context.Context, hash util.CryptoHash, sender util.AccountID, waitUntil nearrpc.TxExecutionStatus) (*result.FinalExecutionOutcome, error)
	}
)

// NullWaiter is a Waiter stub that doesn't support transaction awaiting functionality.
type NullWaiter struct{}

// PollingWaiter is a polling-based Waiter.
type PollingWaiter struct {
	polling RPCPollingWaiter
	status  nearrpc.TxExecutionStatus
	// PollInterval is the time between status requests, DefaultPollInterval
	// if not set.
	PollInterval time.Duration
}

// NewWaiter creates Waiter instance. It's polling-based if the given RPC
// client supports tx status requests, otherwise Waiter stub is returned.
func NewWaiter(ra any, status nearrpc.TxExecutionStatus) Waiter {
	if pollW, ok := ra.(RPCPollingWaiter); ok {
		return NewPollingWaiter(pollW, status)
	}
	return NewNullWaiter()
}

// NewNullWaiter creates an instance of Waiter stub.
func NewNullWaiter() NullWaiter {
	return NullWaiter{}
}

// Wait implements Waiter interface.
func (NullWaiter) Wait(context.Context, util.CryptoHash, util.AccountID) (*result.FinalExecutionOutcome, error) {
	return nil, ErrAwaitingNotSupported
}

// NewPollingWaiter creates an instance of Waiter supporting poll-based
// transaction awaiting until the given status (nearrpc.DefaultWaitStatus if
// empty).
func NewPollingWaiter(waiter RPCPollingWaiter, status nearrpc.TxExecutionStatus) *PollingWaiter {
	if status == "" {
		status = nearrpc.DefaultWaitStatus
	}
	return &PollingWaiter{
		polling:      waiter,
		status:       status,
		PollInterval: DefaultPollInterval,
	}
}

// Wait implements Waiter interface.
func (w *PollingWaiter) Wait(ctx context.Context, h util.CryptoHash, sender util.AccountID) (*result.FinalExecutionOutcome, error) {
	var (
		failedAttempt int
		pollTime      = w.PollInterval
	)
	if pollTime <= 0 {
		pollTime = DefaultPollInterval
	}
	timer := time.NewTicker(pollTime)
	defer timer.Stop()
	for {
		res, err := w.polling.TxStatus(ctx, h, sender, w.status)
		switch {
		case err == nil && w.reached(res):
			return res, nil
		case err == nil, isPending(err):
			failedAttempt = 0
		case ctx.Err() != nil:
		default:
			failedAttempt++
			if failedAttempt > PollingWaiterRetryCount {
				return nil, fmt.Errorf("failed to retrieve transaction status: %w", err)
			}
		}
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrContextDone, ctx.Err())
		}
	}
}

// reached checks whether the outcome satisfies the awaited status. Statuses
// that don't require execution are satisfied by any response.
func (w *PollingWaiter) reached(res *result.FinalExecutionOutcome) bool {
	switch w.status {
	case nearrpc.TxStatusNone, nearrpc.TxStatusIncluded, nearrpc.TxStatusIncludedFinal:
		return true
	default:
		return res.Status.IsFinal()
	}
}

func isPending(err error) bool {
	var rpcErr *nearrpc.Error
	if !errors.As(err, &rpcErr) || rpcErr.Cause == nil {
		return false
	}
	return rpcErr.Cause.Name == causeUnknownTransaction || rpcErr.Cause.Name == causeTimeout
}
