package actor

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/transaction"
	"github.com/aurora-is-near/aurora-go/pkg/util"
)

// Gas amounts.
const (
	TeraGas uint64 = 1_000_000_000_000
	// MaxGas is the maximum amount of gas a transaction can attach.
	MaxGas = 300 * TeraGas
)

// RelayerMethods are the engine methods relayer keys are allowed to call.
var RelayerMethods = []string{"submit", "submit_with_args", "call"}

// SendCall sends a transaction calling the contract method with raw args and
// deposit (can be nil), using all the gas allowed if gas is zero.
func (a *Actor) SendCall(ctx context.Context, contract util.AccountID, method string, args []byte, gas uint64, deposit *big.Int) (*Outcome, error) {
	if gas == 0 {
		gas = MaxGas
	}
	return a.SendCommit(ctx, contract, transaction.NewFunctionCall(method, args, gas, deposit))
}

// SendCallJSON is similar to SendCall, but it serializes args to JSON first.
func (a *Actor) SendCallJSON(ctx context.Context, contract util.AccountID, method string, args any, gas uint64, deposit *big.Int) (*Outcome, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	return a.SendCall(ctx, contract, method, raw, gas, deposit)
}

// Transfer sends amount of yoctoNEAR to the receiver.
func (a *Actor) Transfer(ctx context.Context, receiver util.AccountID, amount *big.Int) (*Outcome, error) {
	return a.SendCommit(ctx, receiver, transaction.Transfer{Deposit: amount})
}

// Deploy deploys the contract code to the signer account.
func (a *Actor) Deploy(ctx context.Context, code []byte) (*Outcome, error) {
	return a.SendCommit(ctx, a.signer.AccountID, transaction.DeployContract{Code: code})
}

// CreateSubAccount creates a sub-account of the signer with the given full
// access key and initial balance.
func (a *Actor) CreateSubAccount(ctx context.Context, account util.AccountID, key keys.PublicKey, amount *big.Int) (*Outcome, error) {
	if !account.IsSubAccountOf(a.signer.AccountID) {
		return nil, fmt.Errorf("%s is not a sub-account of %s", account, a.signer.AccountID)
	}
	return a.SendCommit(ctx, account,
		transaction.CreateAccount{},
		transaction.Transfer{Deposit: amount},
		transaction.AddKey{PublicKey: key, AccessKey: transaction.FullAccessKey()},
	)
}

// CreateAccount creates a new account. Sub-accounts of the signer are created
// directly (see CreateSubAccount), other accounts are created by the
// registrar contract (like "near" or "testnet") create_account method.
func (a *Actor) CreateAccount(ctx context.Context, account util.AccountID, key keys.PublicKey, amount *big.Int, registrar util.AccountID) (*Outcome, error) {
	if account.IsSubAccountOf(a.signer.AccountID) {
		return a.CreateSubAccount(ctx, account, key, amount)
	}
	args := map[string]string{
		"new_account_id": account.String(),
		"new_public_key": key.String(),
	}
	return a.SendCallJSON(ctx, registrar, "create_account", args, MaxGas, amount)
}

// AddFullAccessKey adds a full access key to the signer account.
func (a *Actor) AddFullAccessKey(ctx context.Context, key keys.PublicKey) (*Outcome, error) {
	return a.SendCommit(ctx, a.signer.AccountID, transaction.AddKey{PublicKey: key, AccessKey: transaction.FullAccessKey()})
}

// AddFunctionCallKey adds a key to the signer account that can only call the
// given methods (any method if none given) of the receiver with limited
// allowance (unlimited if nil).
func (a *Actor) AddFunctionCallKey(ctx context.Context, key keys.PublicKey, receiver util.AccountID, allowance *big.Int, methods ...string) (*Outcome, error) {
	return a.SendCommit(ctx, a.signer.AccountID, transaction.AddKey{
		PublicKey: key,
		AccessKey: transaction.FunctionCallAccessKey(receiver, allowance, methods...),
	})
}

// DeleteKey removes the key from the signer account.
func (a *Actor) DeleteKey(ctx context.Context, key keys.PublicKey) (*Outcome, error) {
	return a.SendCommit(ctx, a.signer.AccountID, transaction.DeleteKey{PublicKey: key})
}

// DeleteAccount deletes the signer account sending its balance to the
// beneficiary.
func (a *Actor) DeleteAccount(ctx context.Context, beneficiary util.AccountID) (*Outcome, error) {
	return a.SendCommit(ctx, a.signer.AccountID, transaction.DeleteAccount{BeneficiaryID: beneficiary})
}

// AddRelayer creates the relayer account (a sub-account of the signer) in a
// single transaction: the account is funded with deposit and gets the full
// access key and a function call key limited to RelayerMethods of the engine.
func (a *Actor) AddRelayer(ctx context.Context, relayer util.AccountID, deposit *big.Int, fullAccessKey, functionCallKey keys.PublicKey, engine util.AccountID) (*Outcome, error) {
	return a.SendCommit(ctx, relayer,
		transaction.CreateAccount{},
		transaction.Transfer{Deposit: deposit},
		transaction.AddKey{PublicKey: fullAccessKey, AccessKey: transaction.FullAccessKey()},
		transaction.AddKey{
			PublicKey: functionCallKey,
			AccessKey: transaction.FunctionCallAccessKey(engine, nil, RelayerMethods...),
		},
	)
}
