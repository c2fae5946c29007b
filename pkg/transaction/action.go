package transaction

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/near/borsh-go"
)

// ActionType is the position of an action in NEAR's action enum, it's the
// tag written in front of every encoded action.
type ActionType uint8

// Action types in their wire order.
const (
	CreateAccountT ActionType = iota
	DeployContractT
	FunctionCallT
	TransferT
	StakeT
	AddKeyT
	DeleteKeyT
	DeleteAccountT
)

var actionNames = map[ActionType]string{
	CreateAccountT:  "CreateAccount",
	DeployContractT: "DeployContract",
	FunctionCallT:   "FunctionCall",
	TransferT:       "Transfer",
	StakeT:          "Stake",
	AddKeyT:         "AddKey",
	DeleteKeyT:      "DeleteKey",
	DeleteAccountT:  "DeleteAccount",
}

// String implements the fmt.Stringer interface.
func (t ActionType) String() string {
	if s, ok := actionNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Action(%d)", uint8(t))
}

// Action is one step of a transaction. Actions of a transaction are executed
// sequentially and atomically on the receiver account.
type Action interface {
	Type() ActionType
	toBorsh() (borshAction, error)
}

type (
	// CreateAccount creates the receiver account, it must be a sub-account
	// of the signer (or a top-level/implicit one created via a registrar).
	CreateAccount struct{}

	// DeployContract deploys WASM code to the receiver account.
	DeployContract struct {
		Code []byte
	}

	// FunctionCall calls a contract method of the receiver.
	FunctionCall struct {
		MethodName string
		Args       []byte
		Gas        uint64
		// Deposit in yoctoNEAR, nil means zero.
		Deposit *big.Int
	}

	// Transfer sends yoctoNEAR to the receiver.
	Transfer struct {
		Deposit *big.Int
	}

	// Stake locks the given amount for validation with the given key.
	Stake struct {
		Stake     *big.Int
		PublicKey keys.PublicKey
	}

	// AddKey adds an access key to the receiver account.
	AddKey struct {
		PublicKey keys.PublicKey
		AccessKey AccessKey
	}

	// DeleteKey removes an access key from the receiver account.
	DeleteKey struct {
		PublicKey keys.PublicKey
	}

	// DeleteAccount deletes the receiver account sending the remaining
	// balance to the beneficiary.
	DeleteAccount struct {
		BeneficiaryID util.AccountID
	}

	// AccessKey describes permissions of an added key. A nil Permission means
	// full access.
	AccessKey struct {
		Nonce      uint64
		Permission *FunctionCallPermission
	}

	// FunctionCallPermission limits a key to calling the given methods of the
	// receiver (all methods if MethodNames is empty) spending no more than
	// Allowance (unlimited if nil) on fees.
	FunctionCallPermission struct {
		Allowance   *big.Int
		ReceiverID  util.AccountID
		MethodNames []string
	}
)

// Type implements the Action interface.
func (CreateAccount) Type() ActionType { return CreateAccountT }

// Type implements the Action interface.
func (DeployContract) Type() ActionType { return DeployContractT }

// Type implements the Action interface.
func (FunctionCall) Type() ActionType { return FunctionCallT }

// Type implements the Action interface.
func (Transfer) Type() ActionType { return TransferT }

// Type implements the Action interface.
func (Stake) Type() ActionType { return StakeT }

// Type implements the Action interface.
func (AddKey) Type() ActionType { return AddKeyT }

// Type implements the Action interface.
func (DeleteKey) Type() ActionType { return DeleteKeyT }

// Type implements the Action interface.
func (DeleteAccount) Type() ActionType { return DeleteAccountT }

// NewFunctionCall is a shortcut for a FunctionCall action.
func NewFunctionCall(method string, args []byte, gas uint64, deposit *big.Int) FunctionCall {
	return FunctionCall{MethodName: method, Args: args, Gas: gas, Deposit: deposit}
}

// FullAccessKey returns an AccessKey with full permissions.
func FullAccessKey() AccessKey {
	return AccessKey{}
}

// FunctionCallAccessKey returns an AccessKey limited to the given receiver
// and methods.
func FunctionCallAccessKey(receiver util.AccountID, allowance *big.Int, methods ...string) AccessKey {
	return AccessKey{Permission: &FunctionCallPermission{
		Allowance:   allowance,
		ReceiverID:  receiver,
		MethodNames: methods,
	}}
}

// Borsh representation, field order of the enum structures defines the tags.
type (
	borshPublicKey struct {
		Enum      borsh.Enum `borsh_enum:"true"`
		ED25519   [keys.ED25519PublicKeySize]byte
		SECP256K1 [keys.SECP256K1PublicKeySize]byte
	}

	borshSignature struct {
		Enum      borsh.Enum `borsh_enum:"true"`
		ED25519   [keys.ED25519SignatureSize]byte
		SECP256K1 [keys.SECP256K1SignatureSize]byte
	}

	borshAction struct {
		Enum           borsh.Enum `borsh_enum:"true"`
		CreateAccount  borshCreateAccount
		DeployContract borshDeployContract
		FunctionCall   borshFunctionCall
		Transfer       borshTransfer
		Stake          borshStake
		AddKey         borshAddKey
		DeleteKey      borshDeleteKey
		DeleteAccount  borshDeleteAccount
	}

	borshCreateAccount struct{}

	borshDeployContract struct {
		Code []byte
	}

	borshFunctionCall struct {
		MethodName string
		Args       []byte
		Gas        uint64
		Deposit    big.Int
	}

	borshTransfer struct {
		Deposit big.Int
	}

	borshStake struct {
		Stake     big.Int
		PublicKey borshPublicKey
	}

	borshAddKey struct {
		PublicKey borshPublicKey
		AccessKey borshAccessKey
	}

	borshAccessKey struct {
		Nonce      uint64
		Permission borshPermission
	}

	borshPermission struct {
		Enum         borsh.Enum `borsh_enum:"true"`
		FunctionCall borshFunctionCallPermission
		FullAccess   borshFullAccess
	}

	borshFunctionCallPermission struct {
		Allowance   *big.Int
		ReceiverID  string
		MethodNames []string
	}

	borshFullAccess struct{}

	borshDeleteKey struct {
		PublicKey borshPublicKey
	}

	borshDeleteAccount struct {
		BeneficiaryID string
	}
)

var (
	errNegativeAmount = errors.New("negative amount")
	errAmountOverflow = errors.New("amount doesn't fit into u128")
	maxU128           = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

func u128(v *big.Int) (big.Int, error) {
	if v == nil {
		return big.Int{}, nil
	}
	if v.Sign() < 0 {
		return big.Int{}, errNegativeAmount
	}
	if v.Cmp(maxU128) > 0 {
		return big.Int{}, errAmountOverflow
	}
	return *new(big.Int).Set(v), nil
}

func publicKeyToBorsh(p keys.PublicKey) (borshPublicKey, error) {
	var res borshPublicKey
	switch p.Type {
	case keys.ED25519:
		if len(p.Bytes()) != keys.ED25519PublicKeySize {
			return res, errors.New("empty or malformed public key")
		}
		copy(res.ED25519[:], p.Bytes())
	case keys.SECP256K1:
		if len(p.Bytes()) != keys.SECP256K1PublicKeySize {
			return res, errors.New("empty or malformed public key")
		}
		copy(res.SECP256K1[:], p.Bytes())
	default:
		return res, keys.ErrUnknownKeyType
	}
	res.Enum = borsh.Enum(p.Type)
	return res, nil
}

func signatureToBorsh(s keys.Signature) (borshSignature, error) {
	var res borshSignature
	switch s.Type {
	case keys.ED25519:
		if len(s.Data) != keys.ED25519SignatureSize {
			return res, fmt.Errorf("invalid ed25519 signature length %d", len(s.Data))
		}
		copy(res.ED25519[:], s.Data)
	case keys.SECP256K1:
		if len(s.Data) != keys.SECP256K1SignatureSize {
			return res, fmt.Errorf("invalid secp256k1 signature length %d", len(s.Data))
		}
		copy(res.SECP256K1[:], s.Data)
	default:
		return res, keys.ErrUnknownKeyType
	}
	res.Enum = borsh.Enum(s.Type)
	return res, nil
}

func (CreateAccount) toBorsh() (borshAction, error) {
	return borshAction{Enum: borsh.Enum(CreateAccountT)}, nil
}

func (a DeployContract) toBorsh() (borshAction, error) {
	return borshAction{
		Enum:           borsh.Enum(DeployContractT),
		DeployContract: borshDeployContract{Code: a.Code},
	}, nil
}

func (a FunctionCall) toBorsh() (borshAction, error) {
	deposit, err := u128(a.Deposit)
	if err != nil {
		return borshAction{}, fmt.Errorf("function call deposit: %w", err)
	}
	args := a.Args
	if args == nil {
		args = []byte{}
	}
	return borshAction{
		Enum: borsh.Enum(FunctionCallT),
		FunctionCall: borshFunctionCall{
			MethodName: a.MethodName,
			Args:       args,
			Gas:        a.Gas,
			Deposit:    deposit,
		},
	}, nil
}

func (a Transfer) toBorsh() (borshAction, error) {
	deposit, err := u128(a.Deposit)
	if err != nil {
		return borshAction{}, fmt.Errorf("transfer deposit: %w", err)
	}
	return borshAction{
		Enum:     borsh.Enum(TransferT),
		Transfer: borshTransfer{Deposit: deposit},
	}, nil
}

func (a Stake) toBorsh() (borshAction, error) {
	amount, err := u128(a.Stake)
	if err != nil {
		return borshAction{}, fmt.Errorf("stake amount: %w", err)
	}
	pk, err := publicKeyToBorsh(a.PublicKey)
	if err != nil {
		return borshAction{}, err
	}
	return borshAction{
		Enum:  borsh.Enum(StakeT),
		Stake: borshStake{Stake: amount, PublicKey: pk},
	}, nil
}

func (a AddKey) toBorsh() (borshAction, error) {
	pk, err := publicKeyToBorsh(a.PublicKey)
	if err != nil {
		return borshAction{}, err
	}
	ak := borshAccessKey{Nonce: a.AccessKey.Nonce}
	if p := a.AccessKey.Permission; p != nil {
		var allowance *big.Int
		if p.Allowance != nil {
			v, err := u128(p.Allowance)
			if err != nil {
				return borshAction{}, fmt.Errorf("key allowance: %w", err)
			}
			allowance = &v
		}
		methods := p.MethodNames
		if methods == nil {
			methods = []string{}
		}
		ak.Permission = borshPermission{
			FunctionCall: borshFunctionCallPermission{
				Allowance:   allowance,
				ReceiverID:  p.ReceiverID.String(),
				MethodNames: methods,
			},
		}
	} else {
		ak.Permission = borshPermission{Enum: 1}
	}
	return borshAction{
		Enum:   borsh.Enum(AddKeyT),
		AddKey: borshAddKey{PublicKey: pk, AccessKey: ak},
	}, nil
}

func (a DeleteKey) toBorsh() (borshAction, error) {
	pk, err := publicKeyToBorsh(a.PublicKey)
	if err != nil {
		return borshAction{}, err
	}
	return borshAction{
		Enum:      borsh.Enum(DeleteKeyT),
		DeleteKey: borshDeleteKey{PublicKey: pk},
	}, nil
}

func (a DeleteAccount) toBorsh() (borshAction, error) {
	return borshAction{
		Enum:          borsh.Enum(DeleteAccountT),
		DeleteAccount: borshDeleteAccount{BeneficiaryID: a.BeneficiaryID.String()},
	}, nil
}
