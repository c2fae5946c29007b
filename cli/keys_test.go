package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/engine"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestGenerateNearKey(t *testing.T) {
	e := newExecutor(t)

	e.Run(t, "aurora-go", "keys", "generate-near-key", "-o", "json")
	var kf keys.KeyFile
	e.outJSON(t, &kf)
	s, err := kf.NewSigner()
	require.NoError(t, err)
	require.True(t, s.AccountID.IsImplicit())
	require.True(t, strings.HasPrefix(kf.PublicKey, "ed25519:"))

	path := filepath.Join(t.TempDir(), "bob.json")
	e.Run(t, "aurora-go", "keys", "generate-near-key", "-t", "secp256k1", "--account", "bob.near", "--out", path)
	s, err = keys.ReadKeyFile(path)
	require.NoError(t, err)
	require.EqualValues(t, "bob.near", s.AccountID)
	require.Equal(t, s.PublicKey().String()+"\n", e.Out.String())

	// Existing files are kept.
	e.RunWithError(t, "aurora-go", "keys", "generate-near-key", "--out", path)
	e.RunWithError(t, "aurora-go", "keys", "generate-near-key", "-t", "rsa")
	e.RunWithError(t, "aurora-go", "keys", "generate-near-key", "--account", "Bob")
	e.RunWithError(t, "aurora-go", "keys", "generate-near-key", "-t", "secp256k1")
}

func TestGenerateEVMKey(t *testing.T) {
	e := newExecutor(t)
	e.Run(t, "aurora-go", "keys", "generate-evm-key", "-o", "json")
	var res map[string]string
	e.outJSON(t, &res)

	key, err := engine.ParseEVMKey(res["private_key"])
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(key.PublicKey).Hex(), res["address"])
}
