/*
Package transaction implements NEAR transactions: the action set, the
transaction envelope, its canonical Borsh encoding, hashing and signing.
*/
package transaction

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/near/borsh-go"
)

// ErrNoActions is returned when encoding a transaction without actions.
var ErrNoActions = errors.New("transaction has no actions")

// Transaction is an unsigned NEAR transaction. Transactions with zero
// PriorityFee are encoded in the original (V0) layout, non-zero fees need
// the V1 layout.
type Transaction struct {
	SignerID    util.AccountID
	PublicKey   keys.PublicKey
	Nonce       uint64
	ReceiverID  util.AccountID
	BlockHash   util.CryptoHash
	Actions     []Action
	PriorityFee uint64
}

// SignedTransaction is a transaction along with the signature of its hash.
type SignedTransaction struct {
	Transaction *Transaction
	Signature   keys.Signature
}

type borshTransactionV0 struct {
	SignerID   string
	PublicKey  borshPublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  [util.CryptoHashSize]byte
	Actions    []borshAction
}

type borshTransactionV1 struct {
	SignerID    string
	PublicKey   borshPublicKey
	Nonce       uint64
	ReceiverID  string
	BlockHash   [util.CryptoHashSize]byte
	Actions     []borshAction
	PriorityFee uint64
}

// Version of the V1 layout, written before the rest of the transaction.
const versionV1 byte = 1

// New creates a transaction with the given parameters.
func New(signer util.AccountID, pub keys.PublicKey, nonce uint64, receiver util.AccountID, blockHash util.CryptoHash, actions ...Action) *Transaction {
	return &Transaction{
		SignerID:   signer,
		PublicKey:  pub,
		Nonce:      nonce,
		ReceiverID: receiver,
		BlockHash:  blockHash,
		Actions:    actions,
	}
}

func (t *Transaction) toBorsh() (borshTransactionV0, error) {
	var res borshTransactionV0
	if len(t.Actions) == 0 {
		return res, ErrNoActions
	}
	pk, err := publicKeyToBorsh(t.PublicKey)
	if err != nil {
		return res, fmt.Errorf("signer key: %w", err)
	}
	res = borshTransactionV0{
		SignerID:   t.SignerID.String(),
		PublicKey:  pk,
		Nonce:      t.Nonce,
		ReceiverID: t.ReceiverID.String(),
		BlockHash:  t.BlockHash,
		Actions:    make([]borshAction, 0, len(t.Actions)),
	}
	for i, a := range t.Actions {
		if a == nil {
			return res, fmt.Errorf("action %d is nil", i)
		}
		ba, err := a.toBorsh()
		if err != nil {
			return res, fmt.Errorf("action %d (%s): %w", i, a.Type(), err)
		}
		res.Actions = append(res.Actions, ba)
	}
	return res, nil
}

// Bytes returns the canonical Borsh encoding of the transaction, that's what
// gets hashed and signed.
func (t *Transaction) Bytes() ([]byte, error) {
	v0, err := t.toBorsh()
	if err != nil {
		return nil, err
	}
	if t.PriorityFee == 0 {
		return borsh.Serialize(v0)
	}
	data, err := borsh.Serialize(borshTransactionV1{
		SignerID:    v0.SignerID,
		PublicKey:   v0.PublicKey,
		Nonce:       v0.Nonce,
		ReceiverID:  v0.ReceiverID,
		BlockHash:   v0.BlockHash,
		Actions:     v0.Actions,
		PriorityFee: t.PriorityFee,
	})
	if err != nil {
		return nil, err
	}
	return append([]byte{versionV1}, data...), nil
}

// Hash returns the transaction hash (sha256 of its encoding).
func (t *Transaction) Hash() (util.CryptoHash, error) {
	data, err := t.Bytes()
	if err != nil {
		return util.CryptoHash{}, err
	}
	return util.Sha256(data), nil
}

// Sign signs the transaction with the given key. The key must match the
// transaction's PublicKey.
func (t *Transaction) Sign(pk *keys.PrivateKey) (*SignedTransaction, error) {
	if !pk.PublicKey().Equal(t.PublicKey) {
		return nil, errors.New("signing key doesn't match transaction public key")
	}
	h, err := t.Hash()
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{
		Transaction: t,
		Signature:   pk.Sign(h[:]),
	}, nil
}

// Hash returns the hash of the signed transaction which is the hash of
// the transaction itself.
func (s *SignedTransaction) Hash() (util.CryptoHash, error) {
	return s.Transaction.Hash()
}

// Bytes returns the Borsh encoding of the signed transaction (transaction
// followed by the signature).
func (s *SignedTransaction) Bytes() ([]byte, error) {
	data, err := s.Transaction.Bytes()
	if err != nil {
		return nil, err
	}
	sig, err := signatureToBorsh(s.Signature)
	if err != nil {
		return nil, err
	}
	sigData, err := borsh.Serialize(sig)
	if err != nil {
		return nil, err
	}
	return append(data, sigData...), nil
}

// Base64 returns the encoded signed transaction in the form accepted by
// broadcast_tx_* RPC methods.
func (s *SignedTransaction) Base64() (string, error) {
	data, err := s.Bytes()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Verify checks the transaction signature.
func (s *SignedTransaction) Verify() bool {
	h, err := s.Hash()
	if err != nil {
		return false
	}
	return s.Transaction.PublicKey.Verify(h[:], s.Signature)
}
