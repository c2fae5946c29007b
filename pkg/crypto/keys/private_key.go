package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/mr-tron/base58"
)

const secp256k1PrivateKeySize = 32

// PrivateKey is a NEAR secret key of either supported type.
type PrivateKey struct {
	edKey ed25519.PrivateKey
	ecKey *secp256k1.PrivateKey
}

// Signature is a NEAR transaction signature.
type Signature struct {
	Type KeyType
	Data []byte
}

// NewPrivateKey generates a random key of the given type.
func NewPrivateKey(t KeyType) (*PrivateKey, error) {
	switch t {
	case ED25519:
		_, k, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		return &PrivateKey{edKey: k}, nil
	case SECP256K1:
		k, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		return &PrivateKey{ecKey: k}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKeyType, t)
	}
}

// NewPrivateKeyFromBytes creates a key from raw bytes. ed25519 keys can be
// given either as a 32 byte seed or as a 64 byte seed+public key pair,
// secp256k1 keys are 32 byte scalars.
func NewPrivateKeyFromBytes(t KeyType, b []byte) (*PrivateKey, error) {
	switch t {
	case ED25519:
		switch len(b) {
		case ed25519.SeedSize:
			return &PrivateKey{edKey: ed25519.NewKeyFromSeed(b)}, nil
		case ed25519.PrivateKeySize:
			k := ed25519.NewKeyFromSeed(b[:ed25519.SeedSize])
			if string(k[ed25519.SeedSize:]) != string(b[ed25519.SeedSize:]) {
				return nil, errors.New("ed25519 secret key doesn't match its public part")
			}
			return &PrivateKey{edKey: k}, nil
		default:
			return nil, fmt.Errorf("invalid ed25519 secret key length %d", len(b))
		}
	case SECP256K1:
		if len(b) != secp256k1PrivateKeySize {
			return nil, fmt.Errorf("invalid secp256k1 secret key length %d", len(b))
		}
		return &PrivateKey{ecKey: secp256k1.PrivKeyFromBytes(b)}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKeyType, t)
	}
}

// NewPrivateKeyFromString parses "ed25519:<base58>" or
// "secp256k1:<base58>" secret keys.
func NewPrivateKeyFromString(s string) (*PrivateKey, error) {
	t, raw, err := splitKeyString(s)
	if err != nil {
		return nil, err
	}
	return NewPrivateKeyFromBytes(t, raw)
}

// Type returns the key curve.
func (p *PrivateKey) Type() KeyType {
	if p.ecKey != nil {
		return SECP256K1
	}
	return ED25519
}

// Bytes returns raw key bytes in the form used by NEAR key strings.
func (p *PrivateKey) Bytes() []byte {
	if p.ecKey != nil {
		return p.ecKey.Serialize()
	}
	return append([]byte(nil), p.edKey...)
}

// String returns the "type:base58" representation of the key.
func (p *PrivateKey) String() string {
	return p.Type().String() + ":" + base58.Encode(p.Bytes())
}

// MarshalJSON implements the json.Marshaler interface.
func (p *PrivateKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// PublicKey returns the public part of the key.
func (p *PrivateKey) PublicKey() PublicKey {
	if p.ecKey != nil {
		// Uncompressed form is 0x04 || X || Y, NEAR stores X || Y.
		return PublicKey{Type: SECP256K1, data: string(p.ecKey.PubKey().SerializeUncompressed()[1:])}
	}
	return PublicKey{Type: ED25519, data: string(p.edKey.Public().(ed25519.PublicKey))}
}

// Sign signs the given 32 byte digest. secp256k1 signatures are recoverable
// and laid out as r || s || v with v in [0, 1].
func (p *PrivateKey) Sign(digest []byte) Signature {
	if p.ecKey != nil {
		compact := ecdsa.SignCompact(p.ecKey, digest, false)
		data := make([]byte, SECP256K1SignatureSize)
		copy(data, compact[1:])
		data[64] = compact[0] - 27
		return Signature{Type: SECP256K1, Data: data}
	}
	return Signature{Type: ED25519, Data: ed25519.Sign(p.edKey, digest)}
}

// Verify checks sig over digest against the public key p.
func (p PublicKey) Verify(digest []byte, sig Signature) bool {
	if sig.Type != p.Type {
		return false
	}
	switch p.Type {
	case ED25519:
		return len(sig.Data) == ED25519SignatureSize && ed25519.Verify(p.Bytes(), digest, sig.Data)
	case SECP256K1:
		if len(sig.Data) != SECP256K1SignatureSize || sig.Data[64] > 1 {
			return false
		}
		compact := make([]byte, SECP256K1SignatureSize)
		compact[0] = sig.Data[64] + 27
		copy(compact[1:], sig.Data[:64])
		pub, _, err := ecdsa.RecoverCompact(compact, digest)
		if err != nil {
			return false
		}
		return string(pub.SerializeUncompressed()[1:]) == p.data
	default:
		return false
	}
}

// String returns the "type:base58" representation of the signature.
func (s Signature) String() string {
	return s.Type.String() + ":" + base58.Encode(s.Data)
}
