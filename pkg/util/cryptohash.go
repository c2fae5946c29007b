package util

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

// CryptoHashSize is the size of NEAR hashes (blocks, transactions, receipts)
// in bytes.
const CryptoHashSize = 32

// CryptoHash is a 32 byte SHA-256 digest used by NEAR to identify blocks,
// transactions and receipts. Its textual form is base58.
type CryptoHash [CryptoHashSize]byte

// CryptoHashDecodeString decodes a base58 hash string.
func CryptoHashDecodeString(s string) (CryptoHash, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return CryptoHash{}, fmt.Errorf("invalid base58 hash %q: %w", s, err)
	}
	return CryptoHashDecodeBytes(b)
}

// CryptoHashDecodeBytes converts the given slice into a CryptoHash.
func CryptoHashDecodeBytes(b []byte) (h CryptoHash, err error) {
	if len(b) != CryptoHashSize {
		return h, fmt.Errorf("expected []byte of size %d got %d", CryptoHashSize, len(b))
	}
	copy(h[:], b)
	return h, nil
}

// Sha256 returns the CryptoHash of data.
func Sha256(data []byte) CryptoHash {
	return sha256.Sum256(data)
}

// Bytes returns a copy of the hash as a byte slice.
func (h CryptoHash) Bytes() []byte {
	b := make([]byte, CryptoHashSize)
	copy(b, h[:])
	return b
}

// IsZero reports whether h is all zeroes.
func (h CryptoHash) IsZero() bool {
	return h == CryptoHash{}
}

// String implements the fmt.Stringer interface.
func (h CryptoHash) String() string {
	return base58.Encode(h[:])
}

// MarshalJSON implements the json.Marshaler interface.
func (h CryptoHash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (h *CryptoHash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dec, err := CryptoHashDecodeString(s)
	if err != nil {
		return err
	}
	*h = dec
	return nil
}
