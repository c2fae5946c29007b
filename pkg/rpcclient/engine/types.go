package engine

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/near/borsh-go"
)

// Borsh-encoded arguments of engine methods.
type (
	// SetOwnerArgs are set_owner arguments.
	SetOwnerArgs struct {
		NewOwner string
	}

	// PausePrecompilesArgs are pause_precompiles and resume_precompiles
	// arguments.
	PausePrecompilesArgs struct {
		PausedMask uint32
	}

	// GetStorageAtArgs are get_storage_at arguments.
	GetStorageAtArgs struct {
		Address [common.AddressLength]byte
		Key     [common.HashLength]byte
	}

	// GetErc20FromNep141Args are get_erc20_from_nep141 arguments.
	GetErc20FromNep141Args struct {
		Nep141 string
	}

	// NewCallArgsV2 are the engine initialization (new) arguments, they're
	// prefixed with the version byte on the wire.
	NewCallArgsV2 struct {
		// ChainID is big-endian.
		ChainID            [32]byte
		OwnerID            string
		UpgradeDelayBlocks uint64
	}

	// InitCallArgs are new_eth_connector arguments.
	InitCallArgs struct {
		ProverAccount string
		// EthCustodianAddress is hex without 0x prefix.
		EthCustodianAddress string
		Metadata            FungibleTokenMetadata
	}

	// FungibleTokenMetadata is NEP-148 metadata of the bridged ETH token.
	FungibleTokenMetadata struct {
		Spec          string    `json:"spec"`
		Name          string    `json:"name"`
		Symbol        string    `json:"symbol"`
		Icon          *string   `json:"icon,omitempty"`
		Reference     *string   `json:"reference,omitempty"`
		ReferenceHash *[32]byte `json:"-"`
		Decimals      uint8     `json:"decimals"`
	}

	// SetUpgradeDelayBlocksArgs are set_upgrade_delay_blocks arguments.
	SetUpgradeDelayBlocksArgs struct {
		UpgradeDelayBlocks uint64
	}

	// FixedGasArgs are set_fixed_gas arguments and get_fixed_gas result.
	FixedGasArgs struct {
		FixedGas *uint64
	}

	// PauseEthConnectorArgs are set_paused_flags arguments.
	PauseEthConnectorArgs struct {
		PausedMask uint8
	}

	// StartHashchainArgs are start_hashchain arguments.
	StartHashchainArgs struct {
		BlockHeight    uint64
		BlockHashchain [32]byte
	}

	// WhitelistKindArgs are get_whitelist_status arguments.
	WhitelistKindArgs struct {
		Kind WhitelistKind
	}

	// WhitelistStatusArgs are set_whitelist_status arguments and
	// get_whitelist_status result.
	WhitelistStatusArgs struct {
		Kind   WhitelistKind
		Active bool
	}

	// WhitelistAccountArgs is an account entry of admin and account
	// whitelists.
	WhitelistAccountArgs struct {
		Kind      WhitelistKind
		AccountID string
	}

	// WhitelistAddressArgs is an address entry of EVM admin and address
	// whitelists.
	WhitelistAddressArgs struct {
		Kind    WhitelistKind
		Address [common.AddressLength]byte
	}
)

// newCallArgsV2 is the NewCallArgsV2 version byte.
const newCallArgsV2 byte = 1

// DefaultFTMetadata is the ETH token metadata used when none is given.
var DefaultFTMetadata = FungibleTokenMetadata{
	Spec:     "ft-1.0.0",
	Name:     "localETH",
	Symbol:   "localETH",
	Decimals: 18,
}

// WhitelistKind is the silo mode whitelist type.
type WhitelistKind uint8

// Silo whitelists.
const (
	// WhitelistAdmin holds accounts allowed to deploy EVM code.
	WhitelistAdmin WhitelistKind = iota
	// WhitelistEVMAdmin holds addresses allowed to deploy EVM code.
	WhitelistEVMAdmin
	// WhitelistAccount holds accounts allowed to submit transactions.
	WhitelistAccount
	// WhitelistAddress holds addresses allowed to submit transactions.
	WhitelistAddress
)

var whitelistNames = []string{"admin", "evm-admin", "account", "address"}

// String implements the fmt.Stringer interface.
func (k WhitelistKind) String() string {
	if int(k) < len(whitelistNames) {
		return whitelistNames[k]
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// IsAccount reports whether entries of the whitelist are NEAR accounts.
func (k WhitelistKind) IsAccount() bool {
	return k == WhitelistAdmin || k == WhitelistAccount
}

// ParseWhitelistKind parses a whitelist name (see WhitelistKind.String).
func ParseWhitelistKind(s string) (WhitelistKind, error) {
	for i, n := range whitelistNames {
		if n == s {
			return WhitelistKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown whitelist kind %q", s)
}

// Precompile bits of the pause mask.
const (
	PrecompileExitToNear     uint32 = 1 << 0
	PrecompileExitToEthereum uint32 = 1 << 1
)

// TransactionStatus is the EVM execution status of a submitted transaction.
// Only one of the variants is set according to Enum.
type TransactionStatus struct {
	Enum        borsh.Enum `borsh_enum:"true"`
	Succeed     []byte
	Revert      []byte
	OutOfGas    struct{}
	OutOfFund   struct{}
	OutOfOffset struct{}
	CallTooDeep struct{}
}

// Transaction status kinds.
const (
	StatusSucceed borsh.Enum = iota
	StatusRevert
	StatusOutOfGas
	StatusOutOfFund
	StatusOutOfOffset
	StatusCallTooDeep
)

var statusNames = []string{"succeed", "revert", "out_of_gas", "out_of_fund", "out_of_offset", "call_too_deep"}

// String implements the fmt.Stringer interface.
func (s TransactionStatus) String() string {
	if int(s.Enum) < len(statusNames) {
		return statusNames[s.Enum]
	}
	return fmt.Sprintf("unknown(%d)", s.Enum)
}

// Succeeded reports whether the EVM transaction succeeded.
func (s TransactionStatus) Succeeded() bool {
	return s.Enum == StatusSucceed
}

// Output returns the data returned by a successful or reverted transaction.
func (s TransactionStatus) Output() []byte {
	switch s.Enum {
	case StatusSucceed:
		return s.Succeed
	case StatusRevert:
		return s.Revert
	default:
		return nil
	}
}

// ResultLog is an EVM log produced by a transaction.
type ResultLog struct {
	Address [common.AddressLength]byte
	Topics  [][common.HashLength]byte
	Data    []byte
}

// SubmitResult is the result of submit and call engine methods.
type SubmitResult struct {
	Version uint8
	Status  TransactionStatus
	GasUsed uint64
	Logs    []ResultLog
}

// DecodeSubmitResult decodes Borsh-encoded SubmitResult.
func DecodeSubmitResult(b []byte) (*SubmitResult, error) {
	res := new(SubmitResult)
	if err := borsh.Deserialize(res, b); err != nil {
		return nil, fmt.Errorf("invalid submit result: %w", err)
	}
	return res, nil
}
