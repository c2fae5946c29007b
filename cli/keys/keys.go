/*
Package keys contains key generation commands.
*/
package keys

import (
	"errors"
	"fmt"

	"github.com/aurora-is-near/aurora-go/cli/options"
	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli"
)

// NewCommands returns 'keys' command.
func NewCommands() []cli.Command {
	return []cli.Command{{
		Name:  "keys",
		Usage: "generate NEAR and EVM keys",
		Subcommands: []cli.Command{
			{
				Name:   "generate-near-key",
				Usage:  "generate a NEAR key pair",
				Action: generateNearKey,
				Flags: []cli.Flag{
					cli.StringFlag{Name: "type, t", Value: keys.ED25519.String(), Usage: "key type (ed25519, secp256k1)"},
					cli.StringFlag{Name: "account", Usage: "account ID to store in the key file (implicit account for ed25519 keys by default)"},
					cli.StringFlag{Name: "out", Usage: "write the key file to the given path instead of printing it"},
					options.Output,
				},
			},
			{
				Name:   "generate-evm-key",
				Usage:  "generate an EVM private key",
				Action: generateEVMKey,
				Flags:  []cli.Flag{options.Output},
			},
		},
	}}
}

func generateNearKey(ctx *cli.Context) error {
	kt, err := keys.ParseKeyType(ctx.String("type"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	pk, err := keys.NewPrivateKey(kt)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	var acc util.AccountID
	switch s := ctx.String("account"); {
	case s != "":
		acc, err = util.ParseAccountID(s)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
	case kt == keys.ED25519:
		acc = util.AccountID(pk.PublicKey().ImplicitAccountID())
	default:
		return cli.NewExitError(errors.New("--account is required for non-ed25519 keys"), 1)
	}
	kf := keys.NewKeyFile(acc, pk)
	if out := ctx.String("out"); out != "" {
		if err := kf.Write(out); err != nil {
			return cli.NewExitError(err, 1)
		}
		return options.PrintResult(ctx, kf.PublicKey)
	}
	return options.PrintResult(ctx, kf)
}

type evmKey struct {
	PrivateKey string `json:"private_key" yaml:"private_key"`
	Address    string `json:"address" yaml:"address"`
}

func generateEVMKey(ctx *cli.Context) error {
	k, err := crypto.GenerateKey()
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return options.PrintResult(ctx, evmKey{
		PrivateKey: fmt.Sprintf("0x%x", crypto.FromECDSA(k)),
		Address:    crypto.PubkeyToAddress(k.PublicKey).Hex(),
	})
}
