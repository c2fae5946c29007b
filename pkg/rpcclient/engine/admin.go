package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/actor"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/unwrap"
	"github.com/aurora-is-near/aurora-go/pkg/transaction"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/near/borsh-go"
)

// InitParams are the engine and ETH connector initialization parameters.
type InitParams struct {
	ChainID            uint64
	Owner              util.AccountID
	BridgeProver       util.AccountID
	UpgradeDelayBlocks uint64
	// Custodian is the ETH custodian contract, zero address if not set.
	Custodian common.Address
	// Metadata of the bridged ETH, DefaultFTMetadata if nil.
	Metadata *FungibleTokenMetadata
}

// UpgradeDelayBlocks returns the number of blocks staged code has to wait
// before it can be deployed.
func (c *ContractReader) UpgradeDelayBlocks(ctx context.Context) (uint64, error) {
	return unwrap.Uint64(c.call(ctx, "get_upgrade_delay_blocks", nil))
}

// FixedGas returns the fixed EVM gas cost of silo transactions, nil if it
// isn't set.
func (c *ContractReader) FixedGas(ctx context.Context) (*uint64, error) {
	var res FixedGasArgs
	r, err := c.call(ctx, "get_fixed_gas", nil)
	if err := unwrap.Borsh(r, err, &res); err != nil {
		return nil, err
	}
	return res.FixedGas, nil
}

// PausedFlags returns the ETH connector paused mask.
func (c *ContractReader) PausedFlags(ctx context.Context) (uint8, error) {
	var res uint8
	r, err := c.call(ctx, "get_paused_flags", nil)
	err = unwrap.Borsh(r, err, &res)
	return res, err
}

// WhitelistStatus reports whether the silo whitelist is active.
func (c *ContractReader) WhitelistStatus(ctx context.Context, kind WhitelistKind) (bool, error) {
	args, err := borsh.Serialize(WhitelistKindArgs{Kind: kind})
	if err != nil {
		return false, err
	}
	var res WhitelistStatusArgs
	r, err := c.call(ctx, "get_whitelist_status", args)
	if err := unwrap.Borsh(r, err, &res); err != nil {
		return false, err
	}
	return res.Active, nil
}

// DeployCode deploys the engine code to the engine account, the Actor must
// sign as the engine account.
func (c *Contract) DeployCode(ctx context.Context, code []byte) (*actor.Outcome, error) {
	return c.actor.SendCommit(ctx, c.hash, transaction.DeployContract{Code: code})
}

// Init initializes the freshly deployed engine and its ETH connector in one
// transaction.
func (c *Contract) Init(ctx context.Context, p InitParams) (*actor.Outcome, error) {
	newArgs, err := borsh.Serialize(NewCallArgsV2{
		ChainID:            uint256.NewInt(p.ChainID).Bytes32(),
		OwnerID:            p.Owner.String(),
		UpgradeDelayBlocks: p.UpgradeDelayBlocks,
	})
	if err != nil {
		return nil, err
	}
	meta := DefaultFTMetadata
	if p.Metadata != nil {
		meta = *p.Metadata
	}
	connArgs, err := borsh.Serialize(InitCallArgs{
		ProverAccount:       p.BridgeProver.String(),
		EthCustodianAddress: common.Bytes2Hex(p.Custodian.Bytes()),
		Metadata:            meta,
	})
	if err != nil {
		return nil, err
	}
	return c.actor.SendCommit(ctx, c.hash,
		transaction.NewFunctionCall("new", append([]byte{newCallArgsV2}, newArgs...), actor.MaxGas/2, nil),
		transaction.NewFunctionCall("new_eth_connector", connArgs, actor.MaxGas/2, nil))
}

// PauseContract pauses the engine.
func (c *Contract) PauseContract(ctx context.Context) (*actor.Outcome, error) {
	return c.actor.SendCall(ctx, c.hash, "pause_contract", nil, 0, nil)
}

// ResumeContract resumes the paused engine.
func (c *Contract) ResumeContract(ctx context.Context) (*actor.Outcome, error) {
	return c.actor.SendCall(ctx, c.hash, "resume_contract", nil, 0, nil)
}

// StageUpgrade stores the code to be deployed with DeployUpgrade after the
// upgrade delay.
func (c *Contract) StageUpgrade(ctx context.Context, code []byte) (*actor.Outcome, error) {
	return c.actor.SendCall(ctx, c.hash, "stage_upgrade", code, 0, nil)
}

// DeployUpgrade deploys the staged code.
func (c *Contract) DeployUpgrade(ctx context.Context) (*actor.Outcome, error) {
	return c.actor.SendCall(ctx, c.hash, "deploy_upgrade", nil, 0, nil)
}

// Upgrade deploys the code immediately.
func (c *Contract) Upgrade(ctx context.Context, code []byte) (*actor.Outcome, error) {
	return c.actor.SendCall(ctx, c.hash, "upgrade", code, 0, nil)
}

// SetUpgradeDelayBlocks changes the upgrade delay.
func (c *Contract) SetUpgradeDelayBlocks(ctx context.Context, blocks uint64) (*actor.Outcome, error) {
	return c.sendBorsh(ctx, "set_upgrade_delay_blocks", SetUpgradeDelayBlocksArgs{UpgradeDelayBlocks: blocks})
}

// SetFixedGas sets the fixed EVM gas cost, nil unsets it.
func (c *Contract) SetFixedGas(ctx context.Context, gas *uint64) (*actor.Outcome, error) {
	return c.sendBorsh(ctx, "set_fixed_gas", FixedGasArgs{FixedGas: gas})
}

// SetPausedFlags sets the ETH connector paused mask.
func (c *Contract) SetPausedFlags(ctx context.Context, mask uint8) (*actor.Outcome, error) {
	return c.sendBorsh(ctx, "set_paused_flags", PauseEthConnectorArgs{PausedMask: mask})
}

// StartHashchain starts the hashchain from the given height and value.
func (c *Contract) StartHashchain(ctx context.Context, height uint64, hashchain common.Hash) (*actor.Outcome, error) {
	return c.sendBorsh(ctx, "start_hashchain", StartHashchainArgs{BlockHeight: height, BlockHashchain: hashchain})
}

// SetKeyManager sets the account managing relayer keys, nil removes it.
func (c *Contract) SetKeyManager(ctx context.Context, manager *util.AccountID) (*actor.Outcome, error) {
	return c.actor.SendCallJSON(ctx, c.hash, "set_key_manager", map[string]*util.AccountID{"key_manager": manager}, 0, nil)
}

// AddRelayerKey adds a function call key of the engine account for relayers,
// allowance is attached as deposit. Only the key manager can call it.
func (c *Contract) AddRelayerKey(ctx context.Context, key keys.PublicKey, allowance *big.Int) (*actor.Outcome, error) {
	return c.actor.SendCallJSON(ctx, c.hash, "add_relayer_key", relayerKeyArgs{key}, 0, allowance)
}

// RemoveRelayerKey removes the relayer key added with AddRelayerKey.
func (c *Contract) RemoveRelayerKey(ctx context.Context, key keys.PublicKey) (*actor.Outcome, error) {
	return c.actor.SendCallJSON(ctx, c.hash, "remove_relayer_key", relayerKeyArgs{key}, 0, nil)
}

type relayerKeyArgs struct {
	PublicKey keys.PublicKey `json:"public_key"`
}

// SetWhitelistStatus enables or disables the silo whitelist.
func (c *Contract) SetWhitelistStatus(ctx context.Context, kind WhitelistKind, active bool) (*actor.Outcome, error) {
	return c.sendBorsh(ctx, "set_whitelist_status", WhitelistStatusArgs{Kind: kind, Active: active})
}

// AddWhitelistEntry adds an account or an address (depending on kind) to the
// whitelist.
func (c *Contract) AddWhitelistEntry(ctx context.Context, kind WhitelistKind, entry string) (*actor.Outcome, error) {
	args, err := whitelistArgs(kind, entry)
	if err != nil {
		return nil, err
	}
	return c.actor.SendCall(ctx, c.hash, "add_entry_to_whitelist", args, 0, nil)
}

// RemoveWhitelistEntry removes the entry added with AddWhitelistEntry.
func (c *Contract) RemoveWhitelistEntry(ctx context.Context, kind WhitelistKind, entry string) (*actor.Outcome, error) {
	args, err := whitelistArgs(kind, entry)
	if err != nil {
		return nil, err
	}
	return c.actor.SendCall(ctx, c.hash, "remove_entry_from_whitelist", args, 0, nil)
}

// Variants of the whitelist entry enum.
const (
	whitelistEntryAddress byte = iota
	whitelistEntryAccount
)

func whitelistArgs(kind WhitelistKind, entry string) ([]byte, error) {
	var (
		tag  byte
		data []byte
		err  error
	)
	switch {
	case kind > WhitelistAddress:
		return nil, fmt.Errorf("unknown whitelist kind %d", kind)
	case kind.IsAccount():
		acc, perr := util.ParseAccountID(entry)
		if perr != nil {
			return nil, perr
		}
		tag = whitelistEntryAccount
		data, err = borsh.Serialize(WhitelistAccountArgs{Kind: kind, AccountID: acc.String()})
	default:
		if !common.IsHexAddress(entry) {
			return nil, fmt.Errorf("invalid address %q", entry)
		}
		tag = whitelistEntryAddress
		data, err = borsh.Serialize(WhitelistAddressArgs{Kind: kind, Address: common.HexToAddress(entry)})
	}
	if err != nil {
		return nil, err
	}
	return append([]byte{tag}, data...), nil
}

func (c *Contract) sendBorsh(ctx context.Context, method string, args any) (*actor.Outcome, error) {
	raw, err := borsh.Serialize(args)
	if err != nil {
		return nil, err
	}
	return c.actor.SendCall(ctx, c.hash, method, raw, 0, nil)
}
