package engine

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// EVMTransaction describes an EVM call or deployment (nil To).
type EVMTransaction struct {
	To    *common.Address
	Value *big.Int
	Data  []byte
}

// MakeEVMTransaction creates a legacy EVM transaction signed by key. The
// nonce and chain id are read from the engine, gas price is zero and gas
// limit is unbounded since the gas is paid by the NEAR transaction.
func (c *ContractReader) MakeEVMTransaction(ctx context.Context, key *ecdsa.PrivateKey, evmTx EVMTransaction) (*types.Transaction, error) {
	sender := crypto.PubkeyToAddress(key.PublicKey)
	nonce, err := c.Nonce(ctx, sender)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	if !nonce.IsUint64() {
		return nil, fmt.Errorf("nonce %s overflows uint64", nonce.Dec())
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	value := evmTx.Value
	if value == nil {
		value = new(big.Int)
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce.Uint64(),
		GasPrice: new(big.Int),
		Gas:      math.MaxUint64,
		To:       evmTx.To,
		Value:    value,
		Data:     evmTx.Data,
	})
	return types.SignTx(tx, types.NewEIP155Signer(chainID.ToBig()), key)
}

// SubmitEVMTransaction signs the EVM transaction (see MakeEVMTransaction)
// and submits it to the engine.
func (c *Contract) SubmitEVMTransaction(ctx context.Context, key *ecdsa.PrivateKey, evmTx EVMTransaction) (*SubmitOutcome, error) {
	tx, err := c.MakeEVMTransaction(ctx, key, evmTx)
	if err != nil {
		return nil, err
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, raw)
}

// ParseEVMKey parses a hex-encoded (with or without 0x prefix) secp256k1
// EVM secret key.
func ParseEVMKey(s string) (*ecdsa.PrivateKey, error) {
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	return crypto.HexToECDSA(s)
}
