/*
Package engine allows to work with the Aurora Engine contract via RPC.

Safe (view) methods are encapsulated into ContractReader structure while
Contract provides various methods to perform Aurora Engine state-changing
calls, including submission of signed EVM transactions.
*/
package engine

import (
	"context"
	"encoding/binary"
	"math/big"

	"github.com/aurora-is-near/aurora-go/pkg/nearrpc/result"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/actor"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/unwrap"
	"github.com/aurora-is-near/aurora-go/pkg/transaction"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/near/borsh-go"
)

// DefaultAccountID is the engine account on mainnet and testnet.
const DefaultAccountID util.AccountID = "aurora"

// Invoker is used by ContractReader to call various methods.
type Invoker interface {
	Call(ctx context.Context, contract util.AccountID, method string, args []byte) (*result.CallResult, error)
}

// Actor is used by Contract to create and send transactions.
type Actor interface {
	Invoker

	SendCall(ctx context.Context, contract util.AccountID, method string, args []byte, gas uint64, deposit *big.Int) (*actor.Outcome, error)
	SendCallJSON(ctx context.Context, contract util.AccountID, method string, args any, gas uint64, deposit *big.Int) (*actor.Outcome, error)
	SendCommit(ctx context.Context, receiver util.AccountID, actions ...transaction.Action) (*actor.Outcome, error)
}

// ContractReader provides an interface to call read-only Aurora Engine
// methods.
type ContractReader struct {
	invoker Invoker
	hash    util.AccountID
}

// Contract represents an Aurora Engine contract client that can be used to
// invoke all of its methods.
type Contract struct {
	ContractReader

	actor Actor
}

// NewReader creates an instance of ContractReader for the engine deployed to
// the given account.
func NewReader(invoker Invoker, engine util.AccountID) *ContractReader {
	return &ContractReader{invoker, engine}
}

// New creates an instance of Contract to perform actions using the given
// Actor. Most of state-changing methods can only be called by the engine
// owner.
func New(actor Actor, engine util.AccountID) *Contract {
	return &Contract{*NewReader(actor, engine), actor}
}

// AccountID returns the engine account.
func (c *ContractReader) AccountID() util.AccountID {
	return c.hash
}

func (c *ContractReader) call(ctx context.Context, method string, args []byte) (*result.CallResult, error) {
	return c.invoker.Call(ctx, c.hash, method, args)
}

// ChainID returns the EVM chain id of the engine.
func (c *ContractReader) ChainID(ctx context.Context) (*uint256.Int, error) {
	return unwrap.Uint256(c.call(ctx, "get_chain_id", nil))
}

// Version returns the engine version.
func (c *ContractReader) Version(ctx context.Context) (string, error) {
	return unwrap.UTF8String(c.call(ctx, "get_version", nil))
}

// Owner returns the engine owner account.
func (c *ContractReader) Owner(ctx context.Context) (string, error) {
	return unwrap.UTF8String(c.call(ctx, "get_owner", nil))
}

// BridgeProver returns the bridge prover account.
func (c *ContractReader) BridgeProver(ctx context.Context) (string, error) {
	return unwrap.UTF8String(c.call(ctx, "get_bridge_prover", nil))
}

// UpgradeIndex returns the height after which the engine can be upgraded.
func (c *ContractReader) UpgradeIndex(ctx context.Context) (uint64, error) {
	return unwrap.Uint64(c.call(ctx, "get_upgrade_index", nil))
}

// Nonce returns the EVM nonce of the address.
func (c *ContractReader) Nonce(ctx context.Context, address common.Address) (*uint256.Int, error) {
	return unwrap.Uint256(c.call(ctx, "get_nonce", address.Bytes()))
}

// Balance returns the balance of the address in wei.
func (c *ContractReader) Balance(ctx context.Context, address common.Address) (*uint256.Int, error) {
	return unwrap.Uint256(c.call(ctx, "get_balance", address.Bytes()))
}

// Code returns the code of the contract deployed at the address.
func (c *ContractReader) Code(ctx context.Context, address common.Address) ([]byte, error) {
	return unwrap.Bytes(c.call(ctx, "get_code", address.Bytes()))
}

// BlockHash returns the EVM block hash for the given height.
func (c *ContractReader) BlockHash(ctx context.Context, height uint64) (common.Hash, error) {
	return unwrap.Hash(c.call(ctx, "get_block_hash", binary.LittleEndian.AppendUint64(nil, height)))
}

// StorageAt returns the value stored under the key of the contract.
func (c *ContractReader) StorageAt(ctx context.Context, address common.Address, key common.Hash) (common.Hash, error) {
	args, err := borsh.Serialize(GetStorageAtArgs{Address: address, Key: key})
	if err != nil {
		return common.Hash{}, err
	}
	return unwrap.Hash(c.call(ctx, "get_storage_at", args))
}

// Erc20FromNep141 returns the ERC-20 contract address of the bridged NEP-141
// token.
func (c *ContractReader) Erc20FromNep141(ctx context.Context, nep141 util.AccountID) (common.Address, error) {
	args, err := borsh.Serialize(GetErc20FromNep141Args{Nep141: nep141.String()})
	if err != nil {
		return common.Address{}, err
	}
	return unwrap.Address(c.call(ctx, "get_erc20_from_nep141", args))
}

// Nep141FromErc20 returns the NEP-141 token account of the bridged ERC-20
// contract.
func (c *ContractReader) Nep141FromErc20(ctx context.Context, erc20 common.Address) (string, error) {
	return unwrap.UTF8String(c.call(ctx, "get_nep141_from_erc20", erc20.Bytes()))
}

// PausedPrecompiles returns the mask of paused precompiles.
func (c *ContractReader) PausedPrecompiles(ctx context.Context) (uint32, error) {
	return unwrap.Uint32(c.call(ctx, "paused_precompiles", nil))
}

// SetOwner changes the engine owner.
func (c *Contract) SetOwner(ctx context.Context, owner util.AccountID) (*actor.Outcome, error) {
	args, err := borsh.Serialize(SetOwnerArgs{NewOwner: owner.String()})
	if err != nil {
		return nil, err
	}
	return c.actor.SendCall(ctx, c.hash, "set_owner", args, 0, nil)
}

// PausePrecompiles pauses precompiles set in the mask.
func (c *Contract) PausePrecompiles(ctx context.Context, mask uint32) (*actor.Outcome, error) {
	return c.precompiles(ctx, "pause_precompiles", mask)
}

// ResumePrecompiles resumes precompiles set in the mask.
func (c *Contract) ResumePrecompiles(ctx context.Context, mask uint32) (*actor.Outcome, error) {
	return c.precompiles(ctx, "resume_precompiles", mask)
}

func (c *Contract) precompiles(ctx context.Context, method string, mask uint32) (*actor.Outcome, error) {
	args, err := borsh.Serialize(PausePrecompilesArgs{PausedMask: mask})
	if err != nil {
		return nil, err
	}
	return c.actor.SendCall(ctx, c.hash, method, args, 0, nil)
}

// RegisterRelayer registers the EVM address of the relayer (signer account).
func (c *Contract) RegisterRelayer(ctx context.Context, address common.Address) (*actor.Outcome, error) {
	return c.actor.SendCall(ctx, c.hash, "register_relayer", address.Bytes(), 0, nil)
}

// SubmitOutcome is the outcome of the NEAR transaction carrying an EVM one.
type SubmitOutcome struct {
	*actor.Outcome
	// Result is set for successful NEAR transactions, EVM execution status
	// is inside.
	Result *SubmitResult
}

// Submit sends the RLP-encoded signed EVM transaction to the engine.
func (c *Contract) Submit(ctx context.Context, rawTx []byte) (*SubmitOutcome, error) {
	out, err := c.actor.SendCall(ctx, c.hash, "submit", rawTx, 0, nil)
	if err != nil {
		return nil, err
	}
	res := &SubmitOutcome{Outcome: out}
	if out.Failure == nil && out.Status == result.StatusSuccessValue {
		res.Result, err = DecodeSubmitResult(out.Value)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// NearAccountToEVMAddress returns the EVM address corresponding to the NEAR
// account.
func NearAccountToEVMAddress(account util.AccountID) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte(account))[12:])
}
