/*
Package engine contains Aurora Engine commands.
*/
package engine

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/aurora-is-near/aurora-go/cli/flags"
	"github.com/aurora-is-near/aurora-go/cli/options"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/actor"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/engine"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli"
)

var addressFlag = flags.EVMAddressFlag{
	Name:  "address, a",
	Usage: "EVM address (required)",
}

// NewCommands returns 'engine' command.
func NewCommands() []cli.Command {
	addrFlags := append([]cli.Flag{addressFlag}, options.Read...)
	evmKeyFlag := cli.StringFlag{
		Name:  "evm-key",
		Usage: "hex EVM private key, overrides configuration",
	}
	return []cli.Command{{
		Name:  "engine",
		Usage: "Aurora Engine views and calls",
		Subcommands: append([]cli.Command{
			{Name: "get-chain-id", Usage: "print engine chain ID", Action: view(getChainID), Flags: options.Read},
			{Name: "get-version", Usage: "print engine version", Action: view(getVersion), Flags: options.Read},
			{Name: "get-owner", Usage: "print engine owner", Action: view(getOwner), Flags: options.Read},
			{Name: "get-bridge-prover", Usage: "print bridge prover account", Action: view(getBridgeProver), Flags: options.Read},
			{Name: "get-upgrade-index", Usage: "print upgrade delay", Action: view(getUpgradeIndex), Flags: options.Read},
			{Name: "paused-precompiles", Usage: "print paused precompiles mask", Action: view(getPausedPrecompiles), Flags: options.Read},
			{Name: "get-nonce", Usage: "print EVM account nonce", Action: view(getNonce), Flags: addrFlags},
			{Name: "get-balance", Usage: "print EVM account balance in wei", Action: view(getBalance), Flags: addrFlags},
			{Name: "get-code", Usage: "print EVM account code", Action: view(getCode), Flags: addrFlags},
			{Name: "get-nep141-from-erc20", Usage: "print NEP-141 token of the ERC-20 address", Action: view(getNep141), Flags: addrFlags},
			{
				Name:   "get-storage-at",
				Usage:  "print EVM storage value",
				Action: view(getStorageAt),
				Flags: append([]cli.Flag{
					addressFlag,
					cli.StringFlag{Name: "key", Usage: "32-byte hex storage key"},
				}, options.Read...),
			},
			{Name: "get-block-hash", Usage: "print EVM block hash", ArgsUsage: "<height>", Action: view(getBlockHash), Flags: options.Read},
			{Name: "get-erc20-from-nep141", Usage: "print ERC-20 address of the NEP-141 token", ArgsUsage: "<token account>", Action: view(getErc20), Flags: options.Read},
			{
				Name:      "encode-address",
				Usage:     "print EVM address of a NEAR account",
				ArgsUsage: "<account>",
				Action:    encodeAddress,
				Flags:     []cli.Flag{options.Output},
			},
			{Name: "set-owner", Usage: "change engine owner", ArgsUsage: "<account>", Action: call(setOwner), Flags: options.Write},
			{Name: "pause-precompiles", Usage: "pause precompiles by mask", ArgsUsage: "<mask>", Action: call(pausePrecompiles), Flags: options.Write},
			{Name: "resume-precompiles", Usage: "resume precompiles by mask", ArgsUsage: "<mask>", Action: call(resumePrecompiles), Flags: options.Write},
			{Name: "register-relayer", Usage: "register EVM address of the signer relayer", Action: call(registerRelayer), Flags: append([]cli.Flag{addressFlag}, options.Write...)},
			{Name: "send-raw-tx", Usage: "submit a signed RLP-encoded EVM transaction", ArgsUsage: "<hex>", Action: submit(sendRawTx), Flags: options.Write},
			{
				Name:   "call-evm",
				Usage:  "sign and submit an EVM transaction, a contract is deployed if no --to is given",
				Action: submit(callEVM),
				Flags: append([]cli.Flag{
					flags.EVMAddressFlag{Name: "to", Usage: "EVM receiver"},
					cli.StringFlag{Name: "value", Value: "0", Usage: "value in wei"},
					cli.StringFlag{Name: "data", Usage: "hex call data or contract code"},
					evmKeyFlag,
				}, options.Write...),
			},
			{
				Name:      "receipt-outcome",
				Usage:     "follow the engine receipt to its final outcome",
				ArgsUsage: "<receipt id>",
				Action:    receiptOutcome,
				Flags:     options.Read,
			},
		}, adminCommands()...),
	}}
}

var errNoAddress = errors.New("--address is required")

func arg(ctx *cli.Context) (string, error) {
	if len(ctx.Args()) != 1 {
		return "", errors.New("exactly one argument is expected, see help")
	}
	return ctx.Args()[0], nil
}

func address(ctx *cli.Context) (common.Address, error) {
	a := ctx.Generic("address").(*flags.EVMAddress)
	if !a.IsSet {
		return common.Address{}, errNoAddress
	}
	return a.Value, nil
}

type viewFunc func(ctx *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error)

// view wraps an engine read so that it gets a configured ContractReader.
func view(f viewFunc) cli.ActionFunc {
	return func(ctx *cli.Context) error {
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
		res, err := f(ctx, engine.NewReader(inv, util.AccountID(env.Config.EngineAccountID)), gctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		return options.PrintResult(ctx, res)
	}
}

func getChainID(_ *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	id, err := r.ChainID(gctx)
	if err != nil {
		return nil, err
	}
	return id.Dec(), nil
}

func getVersion(_ *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	return r.Version(gctx)
}

func getOwner(_ *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	return r.Owner(gctx)
}

func getBridgeProver(_ *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	return r.BridgeProver(gctx)
}

func getUpgradeIndex(_ *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	return r.UpgradeIndex(gctx)
}

func getPausedPrecompiles(_ *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	return r.PausedPrecompiles(gctx)
}

func getNonce(ctx *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	addr, err := address(ctx)
	if err != nil {
		return nil, err
	}
	n, err := r.Nonce(gctx, addr)
	if err != nil {
		return nil, err
	}
	return n.Dec(), nil
}

func getBalance(ctx *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	addr, err := address(ctx)
	if err != nil {
		return nil, err
	}
	b, err := r.Balance(gctx, addr)
	if err != nil {
		return nil, err
	}
	return b.Dec(), nil
}

func getCode(ctx *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	addr, err := address(ctx)
	if err != nil {
		return nil, err
	}
	return r.Code(gctx, addr)
}

func getNep141(ctx *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	addr, err := address(ctx)
	if err != nil {
		return nil, err
	}
	return r.Nep141FromErc20(gctx, addr)
}

func getStorageAt(ctx *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	addr, err := address(ctx)
	if err != nil {
		return nil, err
	}
	key, err := parseHash(ctx.String("key"))
	if err != nil {
		return nil, fmt.Errorf("invalid --key: %w", err)
	}
	v, err := r.StorageAt(gctx, addr, key)
	if err != nil {
		return nil, err
	}
	return v.Hex(), nil
}

func getBlockHash(ctx *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	s, err := arg(ctx)
	if err != nil {
		return nil, err
	}
	height, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid height: %w", err)
	}
	h, err := r.BlockHash(gctx, height)
	if err != nil {
		return nil, err
	}
	return h.Hex(), nil
}

func getErc20(ctx *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	s, err := arg(ctx)
	if err != nil {
		return nil, err
	}
	acc, err := util.ParseAccountID(s)
	if err != nil {
		return nil, err
	}
	addr, err := r.Erc20FromNep141(gctx, acc)
	if err != nil {
		return nil, err
	}
	return addr.Hex(), nil
}

func encodeAddress(ctx *cli.Context) error {
	s, err := arg(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	acc, err := util.ParseAccountID(s)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	return options.PrintResult(ctx, engine.NearAccountToEVMAddress(acc).Hex())
}

func parseHash(s string) (common.Hash, error) {
	b, err := decodeHex(s)
	if err != nil {
		return common.Hash{}, err
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("expected %d bytes, got %d", common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
}

type callFunc func(ctx *cli.Context, env *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error)

// call wraps an engine state-changing call so that it gets a configured
// Contract.
func call(f callFunc) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		env, ec := options.NewEnv(ctx)
		if ec != nil {
			return ec
		}
		defer env.Close()
		act, ec := options.GetActor(env.Client, env.Config, env.Log)
		if ec != nil {
			return ec
		}
		gctx, cancel := options.GetTimeoutContext(env.Config)
		defer cancel()
		out, err := f(ctx, env, engine.New(act, util.AccountID(env.Config.EngineAccountID)), gctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		return options.PrintOutcome(ctx, out)
	}
}

func setOwner(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	s, err := arg(ctx)
	if err != nil {
		return nil, err
	}
	acc, err := util.ParseAccountID(s)
	if err != nil {
		return nil, err
	}
	return c.SetOwner(gctx, acc)
}

func parseMask(ctx *cli.Context) (uint32, error) {
	s, err := arg(ctx)
	if err != nil {
		return 0, err
	}
	m, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mask: %w", err)
	}
	return uint32(m), nil
}

func pausePrecompiles(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	m, err := parseMask(ctx)
	if err != nil {
		return nil, err
	}
	return c.PausePrecompiles(gctx, m)
}

func resumePrecompiles(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	m, err := parseMask(ctx)
	if err != nil {
		return nil, err
	}
	return c.ResumePrecompiles(gctx, m)
}

func registerRelayer(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	addr, err := address(ctx)
	if err != nil {
		return nil, err
	}
	return c.RegisterRelayer(gctx, addr)
}

// SubmitResult is the printable form of a submit outcome.
type SubmitResult struct {
	options.TxResult `yaml:",inline"`
	EVMStatus        string   `json:"evm_status,omitempty" yaml:"evm_status,omitempty"`
	EVMOutput        string   `json:"evm_output,omitempty" yaml:"evm_output,omitempty"`
	EVMGasUsed       uint64   `json:"evm_gas_used,omitempty" yaml:"evm_gas_used,omitempty"`
	EVMLogs          []EVMLog `json:"evm_logs,omitempty" yaml:"evm_logs,omitempty"`
}

// EVMLog is the printable form of an EVM log.
type EVMLog struct {
	Address string   `json:"address" yaml:"address"`
	Topics  []string `json:"topics" yaml:"topics"`
	Data    string   `json:"data" yaml:"data"`
}

func newSubmitResult(tx options.TxResult, r *engine.SubmitResult) SubmitResult {
	res := SubmitResult{TxResult: tx}
	if r == nil {
		return res
	}
	// The value is already decoded.
	res.Value = ""
	res.EVMStatus = r.Status.String()
	if out := r.Status.Output(); len(out) > 0 {
		res.EVMOutput = fmt.Sprintf("0x%x", out)
	}
	res.EVMGasUsed = r.GasUsed
	for _, l := range r.Logs {
		log := EVMLog{
			Address: common.Address(l.Address).Hex(),
			Data:    fmt.Sprintf("0x%x", l.Data),
		}
		for _, t := range l.Topics {
			log.Topics = append(log.Topics, common.Hash(t).Hex())
		}
		res.EVMLogs = append(res.EVMLogs, log)
	}
	return res
}

type submitFunc func(ctx *cli.Context, env *options.Env, c *engine.Contract, gctx context.Context) (*engine.SubmitOutcome, error)

// submit is similar to call, but it decodes EVM execution results.
func submit(f submitFunc) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		env, ec := options.NewEnv(ctx)
		if ec != nil {
			return ec
		}
		defer env.Close()
		act, ec := options.GetActor(env.Client, env.Config, env.Log)
		if ec != nil {
			return ec
		}
		gctx, cancel := options.GetTimeoutContext(env.Config)
		defer cancel()
		out, err := f(ctx, env, engine.New(act, util.AccountID(env.Config.EngineAccountID)), gctx)
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		if err := options.PrintResult(ctx, newSubmitResult(options.NewTxResult(out.Outcome), out.Result)); err != nil {
			return err
		}
		switch {
		case out.Failure != nil:
			return cli.NewExitError(fmt.Errorf("transaction %s failed: %w", out.Hash, out.Failure), 1)
		case out.Result != nil && !out.Result.Status.Succeeded():
			return cli.NewExitError(fmt.Errorf("EVM execution failed: %s", out.Result.Status), 1)
		}
		return nil
	}
}

func sendRawTx(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*engine.SubmitOutcome, error) {
	s, err := arg(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := decodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction: %w", err)
	}
	return c.Submit(gctx, raw)
}

func callEVM(ctx *cli.Context, env *options.Env, c *engine.Contract, gctx context.Context) (*engine.SubmitOutcome, error) {
	keyStr := ctx.String("evm-key")
	if keyStr == "" {
		keyStr = env.Config.EVMSecretKey
	}
	if keyStr == "" {
		return nil, errors.New("no EVM key, use --evm-key or EVMSecretKey configuration")
	}
	key, err := engine.ParseEVMKey(keyStr)
	if err != nil {
		return nil, err
	}
	value, ok := new(big.Int).SetString(ctx.String("value"), 10)
	if !ok || value.Sign() < 0 {
		return nil, errors.New("invalid --value")
	}
	data, err := decodeHex(ctx.String("data"))
	if err != nil {
		return nil, fmt.Errorf("invalid --data: %w", err)
	}
	tx := engine.EVMTransaction{Value: value, Data: data}
	if to := ctx.Generic("to").(*flags.EVMAddress); to.IsSet {
		tx.To = &to.Value
	} else if len(data) == 0 {
		return nil, errors.New("no --to and no contract code")
	}
	return c.SubmitEVMTransaction(gctx, key, tx)
}

// ReceiptResult is the printable form of a receipt outcome.
type ReceiptResult struct {
	ReceiptID    string   `json:"receipt_id" yaml:"receipt_id"`
	Intermediate []string `json:"intermediate,omitempty" yaml:"intermediate,omitempty"`
	Failure      string   `json:"failure,omitempty" yaml:"failure,omitempty"`
	EVMStatus    string   `json:"evm_status,omitempty" yaml:"evm_status,omitempty"`
	EVMOutput    string   `json:"evm_output,omitempty" yaml:"evm_output,omitempty"`
	EVMGasUsed   uint64   `json:"evm_gas_used,omitempty" yaml:"evm_gas_used,omitempty"`
}

func receiptOutcome(ctx *cli.Context) error {
	s, err := arg(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	id, err := util.CryptoHashDecodeString(s)
	if err != nil {
		return cli.NewExitError(fmt.Errorf("invalid receipt id: %w", err), 1)
	}
	env, ec := options.NewEnv(ctx)
	if ec != nil {
		return ec
	}
	defer env.Close()
	gctx, cancel := options.GetTimeoutContext(env.Config)
	defer cancel()

	r := engine.NewReader(nil, util.AccountID(env.Config.EngineAccountID))
	out, err := r.ReceiptOutcome(gctx, env.Client, id)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	res := ReceiptResult{ReceiptID: out.ReceiptID.String()}
	for _, h := range out.Intermediate {
		res.Intermediate = append(res.Intermediate, h.String())
	}
	if out.Failure != nil {
		res.Failure = out.Failure.Error()
	}
	if out.Result != nil {
		sr := newSubmitResult(options.TxResult{}, out.Result)
		res.EVMStatus, res.EVMOutput, res.EVMGasUsed = sr.EVMStatus, sr.EVMOutput, sr.EVMGasUsed
	}
	return options.PrintResult(ctx, res)
}
