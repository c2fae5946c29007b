package keys

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aurora-is-near/aurora-go/pkg/util"
)

// Signer is an account bound to one of its access keys. It's everything
// needed to sign transactions on behalf of the account.
type Signer struct {
	AccountID  util.AccountID
	PrivateKey *PrivateKey
}

// PublicKey returns the public key of the signer's access key.
func (s Signer) PublicKey() PublicKey {
	return s.PrivateKey.PublicKey()
}

// KeyFile is the JSON structure of NEAR credential files. Some tools write
// "private_key" instead of "secret_key" and some omit "public_key".
type KeyFile struct {
	AccountID  string `json:"account_id" yaml:"account_id"`
	PublicKey  string `json:"public_key,omitempty" yaml:"public_key,omitempty"`
	SecretKey  string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
	PrivateKey string `json:"private_key,omitempty" yaml:"private_key,omitempty"`
}

var errNoSecretKey = errors.New("key file has no secret key")

// NewSigner creates a Signer from the key file contents.
func (f KeyFile) NewSigner() (Signer, error) {
	acc, err := util.ParseAccountID(f.AccountID)
	if err != nil {
		return Signer{}, err
	}
	secret := f.SecretKey
	if secret == "" {
		secret = f.PrivateKey
	}
	if secret == "" {
		return Signer{}, errNoSecretKey
	}
	pk, err := NewPrivateKeyFromString(secret)
	if err != nil {
		return Signer{}, fmt.Errorf("bad secret key: %w", err)
	}
	if f.PublicKey != "" {
		pub, err := NewPublicKeyFromString(f.PublicKey)
		if err != nil {
			return Signer{}, fmt.Errorf("bad public key: %w", err)
		}
		if !pub.Equal(pk.PublicKey()) {
			return Signer{}, errors.New("public key doesn't match the secret key")
		}
	}
	return Signer{AccountID: acc, PrivateKey: pk}, nil
}

// ReadKeyFile loads a Signer from the JSON key file at path.
func ReadKeyFile(path string) (Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Signer{}, err
	}
	var f KeyFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Signer{}, fmt.Errorf("failed to unmarshal key file %s: %w", path, err)
	}
	return f.NewSigner()
}

// NewKeyFile returns a KeyFile for the given account and key.
func NewKeyFile(acc util.AccountID, pk *PrivateKey) KeyFile {
	return KeyFile{
		AccountID: acc.String(),
		PublicKey: pk.PublicKey().String(),
		SecretKey: pk.String(),
	}
}

// Write stores the key file at path with owner-only permissions. Existing
// files are not overwritten.
func (f KeyFile) Write(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	_, err = file.Write(append(data, '\n'))
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}
