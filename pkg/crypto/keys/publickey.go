/*
Package keys implements NEAR access keys: ed25519 and secp256k1 key pairs,
their textual "type:base58" representation, transaction signatures and the
JSON key files used by NEAR tooling.
*/
package keys

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/mr-tron/base58"
)

// KeyType is a NEAR key curve identifier, its numeric value is used in the
// binary (Borsh) encoding of keys and signatures.
type KeyType uint8

// Supported key types.
const (
	ED25519   KeyType = 0
	SECP256K1 KeyType = 1
)

const (
	// ED25519PublicKeySize is the size of ed25519 public keys.
	ED25519PublicKeySize = ed25519.PublicKeySize
	// SECP256K1PublicKeySize is the size of uncompressed secp256k1 public
	// keys without the 0x04 prefix.
	SECP256K1PublicKeySize = 64
	// ED25519SignatureSize is the size of ed25519 signatures.
	ED25519SignatureSize = ed25519.SignatureSize
	// SECP256K1SignatureSize is the size of recoverable secp256k1 signatures
	// (r, s, v).
	SECP256K1SignatureSize = 65
)

// ErrUnknownKeyType is returned for key strings with unsupported curve
// prefixes.
var ErrUnknownKeyType = errors.New("unknown key type")

// String implements the fmt.Stringer interface.
func (t KeyType) String() string {
	switch t {
	case ED25519:
		return "ed25519"
	case SECP256K1:
		return "secp256k1"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseKeyType converts a textual curve name to KeyType.
func ParseKeyType(s string) (KeyType, error) {
	switch strings.ToLower(s) {
	case "ed25519":
		return ED25519, nil
	case "secp256k1":
		return SECP256K1, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKeyType, s)
	}
}

func (t KeyType) publicKeySize() int {
	if t == SECP256K1 {
		return SECP256K1PublicKeySize
	}
	return ED25519PublicKeySize
}

// PublicKey is a NEAR public key. It's comparable and can be used as a map
// key.
type PublicKey struct {
	Type KeyType
	data string
}

// NewPublicKey creates a PublicKey of the given type from raw bytes.
func NewPublicKey(t KeyType, data []byte) (PublicKey, error) {
	if t != ED25519 && t != SECP256K1 {
		return PublicKey{}, fmt.Errorf("%w: %d", ErrUnknownKeyType, t)
	}
	if len(data) != t.publicKeySize() {
		return PublicKey{}, fmt.Errorf("invalid %s public key length: expected %d got %d", t, t.publicKeySize(), len(data))
	}
	if t == SECP256K1 {
		if _, err := secp256k1.ParsePubKey(append([]byte{0x04}, data...)); err != nil {
			return PublicKey{}, fmt.Errorf("invalid secp256k1 public key: %w", err)
		}
	}
	return PublicKey{Type: t, data: string(data)}, nil
}

// NewPublicKeyFromString parses "ed25519:<base58>" or "secp256k1:<base58>".
// Strings without a prefix are treated as ed25519 keys.
func NewPublicKeyFromString(s string) (PublicKey, error) {
	t, raw, err := splitKeyString(s)
	if err != nil {
		return PublicKey{}, err
	}
	return NewPublicKey(t, raw)
}

// Bytes returns raw key bytes (without the type).
func (p PublicKey) Bytes() []byte {
	return []byte(p.data)
}

// IsZero reports whether p is an uninitialized key.
func (p PublicKey) IsZero() bool {
	return len(p.data) == 0
}

// Equal reports whether p and other are the same key.
func (p PublicKey) Equal(other PublicKey) bool {
	return p.Type == other.Type && bytes.Equal(p.Bytes(), other.Bytes())
}

// String implements the fmt.Stringer interface.
func (p PublicKey) String() string {
	return p.Type.String() + ":" + base58.Encode(p.Bytes())
}

// MarshalJSON implements the json.Marshaler interface.
func (p PublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *PublicKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	pk, err := NewPublicKeyFromString(s)
	if err != nil {
		return err
	}
	*p = pk
	return nil
}

// ImplicitAccountID returns the hex encoded public key, that's the implicit
// account id of an ed25519 key.
func (p PublicKey) ImplicitAccountID() string {
	return fmt.Sprintf("%x", p.Bytes())
}

func splitKeyString(s string) (KeyType, []byte, error) {
	var (
		t       = ED25519
		encoded = s
	)
	if prefix, rest, ok := strings.Cut(s, ":"); ok {
		var err error
		t, err = ParseKeyType(prefix)
		if err != nil {
			return 0, nil, err
		}
		encoded = rest
	}
	raw, err := base58.Decode(encoded)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid base58 key data: %w", err)
	}
	return t, raw, nil
}
