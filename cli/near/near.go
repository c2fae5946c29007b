/*
Package near contains NEAR account and transaction commands.
*/
package near

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/aurora-is-near/aurora-go/cli/flags"
	"github.com/aurora-is-near/aurora-go/cli/options"
	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/actor"
	"github.com/aurora-is-near/aurora-go/pkg/transaction"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/urfave/cli"
)

var (
	gasFlag = cli.Uint64Flag{
		Name:  "gas",
		Value: 300,
		Usage: "gas to attach in TGas",
	}
	depositFlag = cli.StringFlag{
		Name:  "deposit",
		Value: "0",
		Usage: "deposit to attach in NEAR",
	}
	asyncFlag = cli.BoolFlag{
		Name:  "async",
		Usage: "don't wait for the execution, print the transaction hash",
	}
)

// NewCommands returns 'near' command.
func NewCommands() []cli.Command {
	sendFlags := append([]cli.Flag{asyncFlag}, options.Write...)
	return []cli.Command{{
		Name:  "near",
		Usage: "NEAR accounts and transactions",
		Subcommands: []cli.Command{
			{
				Name:      "view-account",
				Usage:     "print account state",
				ArgsUsage: "<account>",
				Action:    viewAccount,
				Flags:     options.Read,
			},
			{
				Name:      "view-access-key",
				Usage:     "print access key nonce and permission",
				ArgsUsage: "<account> <public-key>",
				Action:    viewAccessKey,
				Flags:     options.Read,
			},
			{
				Name:      "view-call",
				Usage:     "call a view method of a contract",
				ArgsUsage: "<contract> <method> [JSON args]",
				Action:    viewCall,
				Flags:     options.Read,
			},
			{
				Name:      "call",
				Usage:     "send a function call transaction",
				ArgsUsage: "<contract> <method> [JSON args]",
				Action:    call,
				Flags:     append([]cli.Flag{gasFlag, depositFlag}, sendFlags...),
			},
			{
				Name:      "transfer",
				Usage:     "transfer NEAR to another account",
				ArgsUsage: "<receiver> <amount>",
				Action:    transfer,
				Flags:     sendFlags,
			},
			{
				Name:      "deploy",
				Usage:     "deploy a contract to the signer account",
				ArgsUsage: "<wasm file>",
				Action:    deploy,
				Flags:     sendFlags,
			},
			{
				Name:      "create-account",
				Usage:     "create an account, a new key is generated if no public key is given",
				ArgsUsage: "<account>",
				Action:    createAccount,
				Flags: append([]cli.Flag{
					cli.StringFlag{Name: "public-key", Usage: "full access key of the new account"},
					cli.StringFlag{Name: "deposit", Value: "1", Usage: "initial balance in NEAR"},
				}, options.Write...),
			},
			{
				Name:      "add-relayer",
				Usage:     "create a relayer sub-account with full access and engine function call keys",
				ArgsUsage: "<relayer account>",
				Action:    addRelayer,
				Flags: append(flags.MarkRequired([]cli.Flag{
					cli.StringFlag{Name: "full-access-key", Usage: "full access key of the relayer"},
					cli.StringFlag{Name: "function-call-key", Usage: "engine function call key of the relayer"},
					cli.StringFlag{Name: "deposit", Value: "10", Usage: "initial balance in NEAR"},
				}, "full-access-key", "function-call-key"), options.Write...),
			},
			{
				Name:      "add-key",
				Usage:     "add an access key to the signer account",
				ArgsUsage: "<public-key>",
				Action:    addKey,
				Flags: append([]cli.Flag{
					flags.AccountFlag{Name: "receiver", Usage: "contract the key can call (full access key if not set)"},
					cli.StringSliceFlag{Name: "method", Usage: "method the key can call (any if not set)"},
					cli.StringFlag{Name: "allowance", Usage: "allowance in NEAR (unlimited if not set)"},
				}, sendFlags...),
			},
			{
				Name:      "delete-key",
				Usage:     "delete an access key of the signer account",
				ArgsUsage: "<public-key>",
				Action:    deleteKey,
				Flags:     sendFlags,
			},
			{
				Name:      "delete-account",
				Usage:     "delete the signer account",
				ArgsUsage: "<beneficiary>",
				Action:    deleteAccount,
				Flags:     options.Write,
			},
			{
				Name:      "tx-status",
				Usage:     "print transaction outcome",
				ArgsUsage: "<hash>",
				Action:    txStatus,
				Flags: append([]cli.Flag{
					flags.AccountFlag{Name: "sender", Usage: "transaction sender (signer account if not set)"},
					cli.StringFlag{Name: "wait-until", Value: string(nearrpc.DefaultWaitStatus), Usage: "execution status to wait for"},
				}, options.Write...),
			},
		},
	}}
}

var errArgs = errors.New("wrong number of arguments, see help")

func args(ctx *cli.Context, min, max int) ([]string, error) {
	a := ctx.Args()
	if len(a) < min || len(a) > max {
		return nil, cli.NewExitError(errArgs, 1)
	}
	return a, nil
}

func parseAccount(s string) (util.AccountID, error) {
	acc, err := util.ParseAccountID(s)
	if err != nil {
		return "", cli.NewExitError(err, 1)
	}
	return acc, nil
}

func parseKey(s string) (keys.PublicKey, error) {
	pk, err := keys.NewPublicKeyFromString(s)
	if err != nil {
		return keys.PublicKey{}, cli.NewExitError(fmt.Errorf("invalid public key: %w", err), 1)
	}
	return pk, nil
}

func parseNEAR(name, s string) (*big.Int, error) {
	v, err := util.ParseNEAR(s)
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("invalid %s: %w", name, err), 1)
	}
	return v, nil
}

// jsonArgs validates the optional JSON argument, absent arguments are
// encoded as an empty object.
func jsonArgs(a []string, i int) ([]byte, error) {
	if len(a) <= i {
		return []byte("{}"), nil
	}
	if !json.Valid([]byte(a[i])) {
		return nil, cli.NewExitError(errors.New("arguments are not valid JSON"), 1)
	}
	return []byte(a[i]), nil
}

type accountState struct {
	Account      string `json:"account" yaml:"account"`
	Balance      string `json:"balance" yaml:"balance"`
	Locked       string `json:"locked" yaml:"locked"`
	CodeHash     string `json:"code_hash" yaml:"code_hash"`
	StorageUsage uint64 `json:"storage_usage" yaml:"storage_usage"`
	BlockHeight  uint64 `json:"block_height" yaml:"block_height"`
}

func viewAccount(ctx *cli.Context) error {
	a, err := args(ctx, 1, 1)
	if err != nil {
		return err
	}
	acc, err := parseAccount(a[0])
	if err != nil {
		return err
	}
	env, ec := options.NewEnv(ctx)
	if ec != nil {
		return ec
	}
	defer env.Close()
	block, err := options.GetBlockReference(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	gctx, cancel := options.GetTimeoutContext(env.Config)
	defer cancel()

	res, err := env.Client.ViewAccount(gctx, acc, block)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return options.PrintResult(ctx, accountState{
		Account:      acc.String(),
		Balance:      res.Amount.NEAR(),
		Locked:       res.Locked.NEAR(),
		CodeHash:     res.CodeHash.String(),
		StorageUsage: res.StorageUsage,
		BlockHeight:  res.BlockHeight,
	})
}

type accessKeyState struct {
	Nonce       uint64          `json:"nonce" yaml:"nonce"`
	Permission  json.RawMessage `json:"permission" yaml:"-"`
	FullAccess  bool            `json:"full_access" yaml:"full_access"`
	BlockHeight uint64          `json:"block_height" yaml:"block_height"`
}

func viewAccessKey(ctx *cli.Context) error {
	a, err := args(ctx, 2, 2)
	if err != nil {
		return err
	}
	acc, err := parseAccount(a[0])
	if err != nil {
		return err
	}
	pk, err := parseKey(a[1])
	if err != nil {
		return err
	}
	env, ec := options.NewEnv(ctx)
	if ec != nil {
		return ec
	}
	defer env.Close()
	block, err := options.GetBlockReference(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	gctx, cancel := options.GetTimeoutContext(env.Config)
	defer cancel()

	res, err := env.Client.ViewAccessKey(gctx, acc, pk, block)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return options.PrintResult(ctx, accessKeyState{
		Nonce:       res.Nonce,
		Permission:  res.Permission,
		FullAccess:  res.IsFullAccess(),
		BlockHeight: res.BlockHeight,
	})
}

func viewCall(ctx *cli.Context) error {
	a, err := args(ctx, 2, 3)
	if err != nil {
		return err
	}
	contract, err := parseAccount(a[0])
	if err != nil {
		return err
	}
	callArgs, err := jsonArgs(a, 2)
	if err != nil {
		return err
	}
	env, ec := options.NewEnv(ctx)
	if ec != nil {
		return ec
	}
	defer env.Close()
	inv, ec := options.GetInvoker(env.Client, ctx)
	if ec != nil {
		return ec
	}
	gctx, cancel := options.GetTimeoutContext(env.Config)
	defer cancel()

	res, err := inv.Call(gctx, contract, a[1], callArgs)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return options.PrintResult(ctx, options.FormatValue(res.Result))
}

// send broadcasts the transaction either waiting for the outcome or not
// depending on the "--async" flag.
func send(ctx *cli.Context, receiver util.AccountID, actions ...transaction.Action) error {
	env, ec := options.NewEnv(ctx)
	if ec != nil {
		return ec
	}
	defer env.Close()
	act, ec := options.GetActor(env.Client, env.Config, env.Log)
	if ec != nil {
		return ec
	}
	if receiver == "" {
		receiver = act.Sender()
	}
	gctx, cancel := options.GetTimeoutContext(env.Config)
	defer cancel()

	if ctx.Bool("async") {
		h, err := act.SendAsync(gctx, receiver, actions...)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		return options.PrintResult(ctx, h)
	}
	out, err := act.SendCommit(gctx, receiver, actions...)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return options.PrintOutcome(ctx, out)
}

// withActor runs f with a configured Actor and prints the outcome.
func withActor(ctx *cli.Context, f func(*options.Env, *actor.Actor) (*actor.Outcome, error)) error {
	env, ec := options.NewEnv(ctx)
	if ec != nil {
		return ec
	}
	defer env.Close()
	act, ec := options.GetActor(env.Client, env.Config, env.Log)
	if ec != nil {
		return ec
	}
	out, err := f(env, act)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return options.PrintOutcome(ctx, out)
}

func call(ctx *cli.Context) error {
	a, err := args(ctx, 2, 3)
	if err != nil {
		return err
	}
	contract, err := parseAccount(a[0])
	if err != nil {
		return err
	}
	callArgs, err := jsonArgs(a, 2)
	if err != nil {
		return err
	}
	deposit, err := parseNEAR("deposit", ctx.String("deposit"))
	if err != nil {
		return err
	}
	gas := ctx.Uint64("gas") * actor.TeraGas
	if gas == 0 || gas > actor.MaxGas {
		return cli.NewExitError(fmt.Errorf("gas must be between 1 and %d TGas", actor.MaxGas/actor.TeraGas), 1)
	}
	return send(ctx, contract, transaction.NewFunctionCall(a[1], callArgs, gas, deposit))
}

func transfer(ctx *cli.Context) error {
	a, err := args(ctx, 2, 2)
	if err != nil {
		return err
	}
	receiver, err := parseAccount(a[0])
	if err != nil {
		return err
	}
	amount, err := parseNEAR("amount", a[1])
	if err != nil {
		return err
	}
	return send(ctx, receiver, transaction.Transfer{Deposit: amount})
}

func deploy(ctx *cli.Context) error {
	a, err := args(ctx, 1, 1)
	if err != nil {
		return err
	}
	code, err := os.ReadFile(a[0])
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return send(ctx, "", transaction.DeployContract{Code: code})
}

type newAccount struct {
	TxResult  options.TxResult `json:"tx" yaml:"tx"`
	Account   string           `json:"account" yaml:"account"`
	PublicKey string           `json:"public_key" yaml:"public_key"`
	SecretKey string           `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
}

func createAccount(ctx *cli.Context) error {
	a, err := args(ctx, 1, 1)
	if err != nil {
		return err
	}
	acc, err := parseAccount(a[0])
	if err != nil {
		return err
	}
	deposit, err := parseNEAR("deposit", ctx.String("deposit"))
	if err != nil {
		return err
	}
	var (
		res    = newAccount{Account: acc.String()}
		pubKey keys.PublicKey
	)
	if s := ctx.String("public-key"); s != "" {
		pubKey, err = parseKey(s)
		if err != nil {
			return err
		}
	} else {
		priv, err := keys.NewPrivateKey(keys.ED25519)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		pubKey = priv.PublicKey()
		res.SecretKey = priv.String()
	}
	res.PublicKey = pubKey.String()

	env, ec := options.NewEnv(ctx)
	if ec != nil {
		return ec
	}
	defer env.Close()
	act, ec := options.GetActor(env.Client, env.Config, env.Log)
	if ec != nil {
		return ec
	}
	var registrar util.AccountID
	if !acc.IsSubAccountOf(act.Sender()) {
		registrar, err = env.Config.Registrar()
		if err != nil {
			return cli.NewExitError(err, 1)
		}
	}
	gctx, cancel := options.GetTimeoutContext(env.Config)
	defer cancel()
	out, err := act.CreateAccount(gctx, acc, pubKey, deposit, registrar)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	res.TxResult = options.NewTxResult(out)
	if err := options.PrintResult(ctx, res); err != nil {
		return err
	}
	if out.Failure != nil {
		return cli.NewExitError(fmt.Errorf("account %s wasn't created: %w", acc, out.Failure), 1)
	}
	return nil
}

func addRelayer(ctx *cli.Context) error {
	a, err := args(ctx, 1, 1)
	if err != nil {
		return err
	}
	relayer, err := parseAccount(a[0])
	if err != nil {
		return err
	}
	full, err := parseKey(ctx.String("full-access-key"))
	if err != nil {
		return err
	}
	fc, err := parseKey(ctx.String("function-call-key"))
	if err != nil {
		return err
	}
	deposit, err := parseNEAR("deposit", ctx.String("deposit"))
	if err != nil {
		return err
	}
	return withActor(ctx, func(env *options.Env, act *actor.Actor) (*actor.Outcome, error) {
		gctx, cancel := options.GetTimeoutContext(env.Config)
		defer cancel()
		return act.AddRelayer(gctx, relayer, deposit, full, fc, util.AccountID(env.Config.EngineAccountID))
	})
}

func addKey(ctx *cli.Context) error {
	a, err := args(ctx, 1, 1)
	if err != nil {
		return err
	}
	pk, err := parseKey(a[0])
	if err != nil {
		return err
	}
	receiver := ctx.Generic("receiver").(*flags.Account)
	if !receiver.IsSet {
		return send(ctx, "", transaction.AddKey{PublicKey: pk, AccessKey: transaction.FullAccessKey()})
	}
	var allowance *big.Int
	if s := ctx.String("allowance"); s != "" {
		allowance, err = parseNEAR("allowance", s)
		if err != nil {
			return err
		}
	}
	return send(ctx, "", transaction.AddKey{
		PublicKey: pk,
		AccessKey: transaction.FunctionCallAccessKey(receiver.Value, allowance, ctx.StringSlice("method")...),
	})
}

func deleteKey(ctx *cli.Context) error {
	a, err := args(ctx, 1, 1)
	if err != nil {
		return err
	}
	pk, err := parseKey(a[0])
	if err != nil {
		return err
	}
	return send(ctx, "", transaction.DeleteKey{PublicKey: pk})
}

func deleteAccount(ctx *cli.Context) error {
	a, err := args(ctx, 1, 1)
	if err != nil {
		return err
	}
	beneficiary, err := parseAccount(a[0])
	if err != nil {
		return err
	}
	return withActor(ctx, func(env *options.Env, act *actor.Actor) (*actor.Outcome, error) {
		gctx, cancel := options.GetTimeoutContext(env.Config)
		defer cancel()
		return act.DeleteAccount(gctx, beneficiary)
	})
}

func txStatus(ctx *cli.Context) error {
	a, err := args(ctx, 1, 1)
	if err != nil {
		return err
	}
	h, err := util.CryptoHashDecodeString(a[0])
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid transaction hash: %w", err), 1)
	}
	env, ec := options.NewEnv(ctx)
	if ec != nil {
		return ec
	}
	defer env.Close()

	sender := ctx.Generic("sender").(*flags.Account)
	if !sender.IsSet {
		signer, err := options.GetSigner(env.Config)
		if err != nil {
			return cli.NewExitError(fmt.Errorf("no --sender and %w", err), 1)
		}
		sender.Value = signer.AccountID
	}
	status := nearrpc.TxExecutionStatus(strings.ToUpper(ctx.String("wait-until")))
	gctx, cancel := options.GetTimeoutContext(env.Config)
	defer cancel()
	res, err := env.Client.TxStatus(gctx, h, sender.Value, status)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return options.PrintOutcome(ctx, actor.NewOutcome(res))
}
