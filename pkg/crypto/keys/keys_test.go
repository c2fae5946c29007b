package keys

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestKeyStrings(t *testing.T) {
	for _, typ := range []KeyType{ED25519, SECP256K1} {
		t.Run(typ.String(), func(t *testing.T) {
			pk, err := NewPrivateKey(typ)
			require.NoError(t, err)
			require.Equal(t, typ, pk.Type())

			restored, err := NewPrivateKeyFromString(pk.String())
			require.NoError(t, err)
			require.Equal(t, pk.Bytes(), restored.Bytes())

			pub := pk.PublicKey()
			require.Equal(t, typ, pub.Type)
			parsed, err := NewPublicKeyFromString(pub.String())
			require.NoError(t, err)
			require.True(t, pub.Equal(parsed))
			require.Equal(t, pub, parsed)
		})
	}
}

func TestED25519Seed(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 32)
	pk, err := NewPrivateKeyFromBytes(ED25519, seed)
	require.NoError(t, err)
	full, err := NewPrivateKeyFromBytes(ED25519, pk.Bytes())
	require.NoError(t, err)
	require.Equal(t, pk.PublicKey(), full.PublicKey())

	broken := pk.Bytes()
	broken[40] ^= 0xff
	_, err = NewPrivateKeyFromBytes(ED25519, broken)
	require.Error(t, err)

	_, err = NewPrivateKeyFromBytes(ED25519, []byte{1, 2})
	require.Error(t, err)
	_, err = NewPrivateKeyFromBytes(SECP256K1, []byte{1, 2})
	require.Error(t, err)
	_, err = NewPrivateKeyFromBytes(KeyType(5), seed)
	require.ErrorIs(t, err, ErrUnknownKeyType)
}

func TestPublicKeyParsing(t *testing.T) {
	pk, err := NewPrivateKey(ED25519)
	require.NoError(t, err)
	pub := pk.PublicKey()

	// No prefix means ed25519.
	noPrefix, err := NewPublicKeyFromString(pub.String()[len("ed25519:"):])
	require.NoError(t, err)
	require.True(t, pub.Equal(noPrefix))

	_, err = NewPublicKeyFromString("rsa:abc")
	require.ErrorIs(t, err, ErrUnknownKeyType)
	_, err = NewPublicKeyFromString("ed25519:0OIl")
	require.Error(t, err)
	_, err = NewPublicKeyFromString("ed25519:abc")
	require.Error(t, err)
	_, err = NewPublicKey(SECP256K1, bytes.Repeat([]byte{1}, SECP256K1PublicKeySize))
	require.Error(t, err)

	data, err := json.Marshal(pub)
	require.NoError(t, err)
	var fromJSON PublicKey
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	require.Equal(t, pub, fromJSON)
	require.Len(t, pub.ImplicitAccountID(), 64)
	require.True(t, util.AccountID(pub.ImplicitAccountID()).IsImplicit())
}

func TestSignVerify(t *testing.T) {
	digest := util.Sha256([]byte("transaction"))
	for _, typ := range []KeyType{ED25519, SECP256K1} {
		t.Run(typ.String(), func(t *testing.T) {
			pk, err := NewPrivateKey(typ)
			require.NoError(t, err)
			sig := pk.Sign(digest[:])
			require.Equal(t, typ, sig.Type)
			if typ == ED25519 {
				require.Len(t, sig.Data, ED25519SignatureSize)
			} else {
				require.Len(t, sig.Data, SECP256K1SignatureSize)
				require.LessOrEqual(t, sig.Data[64], byte(1))
			}
			require.True(t, pk.PublicKey().Verify(digest[:], sig))

			other := util.Sha256([]byte("other"))
			require.False(t, pk.PublicKey().Verify(other[:], sig))

			another, err := NewPrivateKey(typ)
			require.NoError(t, err)
			require.False(t, another.PublicKey().Verify(digest[:], sig))
		})
	}
}

func TestReadKeyFile(t *testing.T) {
	pk, err := NewPrivateKey(ED25519)
	require.NoError(t, err)
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	data, err := json.Marshal(NewKeyFile("alice.near", pk))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(good, data, 0600))

	s, err := ReadKeyFile(good)
	require.NoError(t, err)
	require.Equal(t, util.AccountID("alice.near"), s.AccountID)
	require.Equal(t, pk.PublicKey(), s.PublicKey())

	// "private_key" without "public_key" is accepted too.
	alt := filepath.Join(dir, "alt.json")
	require.NoError(t, os.WriteFile(alt, []byte(`{"account_id":"bob.near","private_key":"`+pk.String()+`"}`), 0600))
	s, err = ReadKeyFile(alt)
	require.NoError(t, err)
	require.Equal(t, util.AccountID("bob.near"), s.AccountID)

	other, err := NewPrivateKey(ED25519)
	require.NoError(t, err)
	mismatch := filepath.Join(dir, "mismatch.json")
	require.NoError(t, os.WriteFile(mismatch, []byte(`{"account_id":"bob.near","public_key":"`+
		other.PublicKey().String()+`","secret_key":"`+pk.String()+`"}`), 0600))
	_, err = ReadKeyFile(mismatch)
	require.Error(t, err)

	noKey := filepath.Join(dir, "nokey.json")
	require.NoError(t, os.WriteFile(noKey, []byte(`{"account_id":"bob.near"}`), 0600))
	_, err = ReadKeyFile(noKey)
	require.Error(t, err)

	_, err = ReadKeyFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestWriteKeyFile(t *testing.T) {
	pk, err := NewPrivateKey(SECP256K1)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(t, NewKeyFile("alice.near", pk).Write(path))

	s, err := ReadKeyFile(path)
	require.NoError(t, err)
	require.Equal(t, pk.PublicKey(), s.PublicKey())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	require.Error(t, NewKeyFile("alice.near", pk).Write(path))
}
