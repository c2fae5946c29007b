package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/aurora-is-near/aurora-go/cli/flags"
	"github.com/aurora-is-near/aurora-go/cli/options"
	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/actor"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/engine"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/urfave/cli"
)

const whitelistKinds = "admin, evm-admin, account or address"

func adminCommands() []cli.Command {
	return []cli.Command{
		{
			Name:      "deploy-aurora",
			Usage:     "deploy engine code, the signer must be the engine account",
			ArgsUsage: "<wasm file>",
			Action:    call(deployAurora),
			Flags:     options.Write,
		},
		{
			Name:   "init",
			Usage:  "initialize the deployed engine and its ETH connector",
			Action: call(initEngine),
			Flags: append([]cli.Flag{
				cli.Uint64Flag{Name: "chain-id", Usage: "EVM chain ID (network default if not set)"},
				cli.StringFlag{Name: "owner", Usage: "engine owner (signer if not set)"},
				cli.StringFlag{Name: "bridge-prover", Usage: "bridge prover account (signer if not set)"},
				cli.Uint64Flag{Name: "upgrade-delay-blocks", Usage: "blocks between stage-upgrade and deploy-upgrade"},
				flags.EVMAddressFlag{Name: "custodian-address", Usage: "ETH custodian address"},
				cli.StringFlag{Name: "ft-metadata", Usage: "path to the JSON ETH token metadata"},
			}, options.Write...),
		},
		{Name: "pause-contract", Usage: "pause the engine", Action: call(pauseContract), Flags: options.Write},
		{Name: "resume-contract", Usage: "resume the paused engine", Action: call(resumeContract), Flags: options.Write},
		{Name: "stage-upgrade", Usage: "stage engine code upgrade", ArgsUsage: "<wasm file>", Action: call(stageUpgrade), Flags: options.Write},
		{Name: "deploy-upgrade", Usage: "deploy staged engine code", Action: call(deployUpgrade), Flags: options.Write},
		{Name: "upgrade", Usage: "upgrade engine code immediately", ArgsUsage: "<wasm file>", Action: call(upgrade), Flags: options.Write},
		{Name: "get-upgrade-delay-blocks", Usage: "print upgrade delay in blocks", Action: view(getUpgradeDelayBlocks), Flags: options.Read},
		{Name: "set-upgrade-delay-blocks", Usage: "change upgrade delay", ArgsUsage: "<blocks>", Action: call(setUpgradeDelayBlocks), Flags: options.Write},
		{Name: "get-fixed-gas", Usage: "print fixed EVM gas cost", Action: view(getFixedGas), Flags: options.Read},
		{Name: "set-fixed-gas", Usage: "set fixed EVM gas cost, unset if no gas given", ArgsUsage: "[gas]", Action: call(setFixedGas), Flags: options.Write},
		{Name: "get-paused-flags", Usage: "print ETH connector paused mask", Action: view(getPausedFlags), Flags: options.Read},
		{Name: "set-paused-flags", Usage: "set ETH connector paused mask", ArgsUsage: "<mask>", Action: call(setPausedFlags), Flags: options.Write},
		{
			Name:   "start-hashchain",
			Usage:  "start the engine hashchain",
			Action: call(startHashchain),
			Flags: append(flags.MarkRequired([]cli.Flag{
				cli.Uint64Flag{Name: "block-height", Usage: "height the hashchain starts at"},
				cli.StringFlag{Name: "hashchain", Usage: "32-byte hex hashchain value"},
			}, "block-height", "hashchain"), options.Write...),
		},
		{Name: "set-key-manager", Usage: "set relayer key manager, removed if no account given", ArgsUsage: "[account]", Action: call(setKeyManager), Flags: options.Write},
		{
			Name:      "add-relayer-key",
			Usage:     "add a relayer function call key to the engine account",
			ArgsUsage: "<public key>",
			Action:    call(addRelayerKey),
			Flags: append(flags.MarkRequired([]cli.Flag{
				cli.StringFlag{Name: "allowance", Usage: "key allowance in NEAR"},
			}, "allowance"), options.Write...),
		},
		{Name: "remove-relayer-key", Usage: "remove a relayer key", ArgsUsage: "<public key>", Action: call(removeRelayerKey), Flags: options.Write},
		{Name: "get-whitelist-status", Usage: "print whether the whitelist is active", ArgsUsage: "<kind>", Action: view(getWhitelistStatus), Flags: options.Read},
		{Name: "set-whitelist-status", Usage: "enable or disable the whitelist", ArgsUsage: "<kind> <true|false>", Action: call(setWhitelistStatus), Flags: options.Write},
		{Name: "add-whitelist-entry", Usage: "add an account or address to the whitelist", ArgsUsage: "<kind> <entry>", Action: call(addWhitelistEntry), Flags: options.Write},
		{Name: "remove-whitelist-entry", Usage: "remove an account or address from the whitelist", ArgsUsage: "<kind> <entry>", Action: call(removeWhitelistEntry), Flags: options.Write},
	}
}

func argsN(ctx *cli.Context, minN, maxN int) ([]string, error) {
	if a := ctx.Args(); len(a) >= minN && len(a) <= maxN {
		return a, nil
	}
	return nil, errors.New("unexpected number of arguments, see help")
}

func readCode(ctx *cli.Context) ([]byte, error) {
	s, err := arg(ctx)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(s)
}

func deployAurora(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	code, err := readCode(ctx)
	if err != nil {
		return nil, err
	}
	return c.DeployCode(gctx, code)
}

func initEngine(ctx *cli.Context, env *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	signer, err := options.GetSigner(env.Config)
	if err != nil {
		return nil, err
	}
	p := engine.InitParams{
		ChainID:            env.Config.ChainID(),
		Owner:              signer.AccountID,
		BridgeProver:       signer.AccountID,
		UpgradeDelayBlocks: ctx.Uint64("upgrade-delay-blocks"),
	}
	if ctx.IsSet("chain-id") {
		p.ChainID = ctx.Uint64("chain-id")
	}
	for flag, acc := range map[string]*util.AccountID{"owner": &p.Owner, "bridge-prover": &p.BridgeProver} {
		if s := ctx.String(flag); s != "" {
			if *acc, err = util.ParseAccountID(s); err != nil {
				return nil, fmt.Errorf("invalid --%s: %w", flag, err)
			}
		}
	}
	if a := ctx.Generic("custodian-address").(*flags.EVMAddress); a.IsSet {
		p.Custodian = a.Value
	}
	if path := ctx.String("ft-metadata"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		meta := new(engine.FungibleTokenMetadata)
		if err := json.Unmarshal(raw, meta); err != nil {
			return nil, fmt.Errorf("invalid token metadata: %w", err)
		}
		p.Metadata = meta
	}
	return c.Init(gctx, p)
}

func pauseContract(_ *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	return c.PauseContract(gctx)
}

func resumeContract(_ *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	return c.ResumeContract(gctx)
}

func stageUpgrade(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	code, err := readCode(ctx)
	if err != nil {
		return nil, err
	}
	return c.StageUpgrade(gctx, code)
}

func deployUpgrade(_ *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	return c.DeployUpgrade(gctx)
}

func upgrade(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	code, err := readCode(ctx)
	if err != nil {
		return nil, err
	}
	return c.Upgrade(gctx, code)
}

func getUpgradeDelayBlocks(_ *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	return r.UpgradeDelayBlocks(gctx)
}

func setUpgradeDelayBlocks(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	s, err := arg(ctx)
	if err != nil {
		return nil, err
	}
	blocks, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid blocks: %w", err)
	}
	return c.SetUpgradeDelayBlocks(gctx, blocks)
}

func getFixedGas(_ *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	gas, err := r.FixedGas(gctx)
	if err != nil {
		return nil, err
	}
	if gas == nil {
		return "none", nil
	}
	return *gas, nil
}

func setFixedGas(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	a, err := argsN(ctx, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(a) == 0 {
		return c.SetFixedGas(gctx, nil)
	}
	gas, err := strconv.ParseUint(a[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid gas: %w", err)
	}
	return c.SetFixedGas(gctx, &gas)
}

func getPausedFlags(_ *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	mask, err := r.PausedFlags(gctx)
	return uint32(mask), err
}

func setPausedFlags(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	s, err := arg(ctx)
	if err != nil {
		return nil, err
	}
	mask, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid mask: %w", err)
	}
	return c.SetPausedFlags(gctx, uint8(mask))
}

func startHashchain(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	hc, err := parseHash(ctx.String("hashchain"))
	if err != nil {
		return nil, fmt.Errorf("invalid --hashchain: %w", err)
	}
	return c.StartHashchain(gctx, ctx.Uint64("block-height"), hc)
}

func setKeyManager(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	a, err := argsN(ctx, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(a) == 0 {
		return c.SetKeyManager(gctx, nil)
	}
	acc, err := util.ParseAccountID(a[0])
	if err != nil {
		return nil, err
	}
	return c.SetKeyManager(gctx, &acc)
}

func publicKeyArg(ctx *cli.Context) (keys.PublicKey, error) {
	s, err := arg(ctx)
	if err != nil {
		return keys.PublicKey{}, err
	}
	return keys.NewPublicKeyFromString(s)
}

func addRelayerKey(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	key, err := publicKeyArg(ctx)
	if err != nil {
		return nil, err
	}
	allowance, err := util.ParseNEAR(ctx.String("allowance"))
	if err != nil {
		return nil, fmt.Errorf("invalid --allowance: %w", err)
	}
	return c.AddRelayerKey(gctx, key, allowance)
}

func removeRelayerKey(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	key, err := publicKeyArg(ctx)
	if err != nil {
		return nil, err
	}
	return c.RemoveRelayerKey(gctx, key)
}

func whitelistKind(s string) (engine.WhitelistKind, error) {
	k, err := engine.ParseWhitelistKind(s)
	if err != nil {
		return 0, fmt.Errorf("%w, use %s", err, whitelistKinds)
	}
	return k, nil
}

func getWhitelistStatus(ctx *cli.Context, r *engine.ContractReader, gctx context.Context) (any, error) {
	s, err := arg(ctx)
	if err != nil {
		return nil, err
	}
	kind, err := whitelistKind(s)
	if err != nil {
		return nil, err
	}
	return r.WhitelistStatus(gctx, kind)
}

func setWhitelistStatus(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	a, err := argsN(ctx, 2, 2)
	if err != nil {
		return nil, err
	}
	kind, err := whitelistKind(a[0])
	if err != nil {
		return nil, err
	}
	active, err := strconv.ParseBool(a[1])
	if err != nil {
		return nil, fmt.Errorf("invalid status: %w", err)
	}
	return c.SetWhitelistStatus(gctx, kind, active)
}

func addWhitelistEntry(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	a, err := argsN(ctx, 2, 2)
	if err != nil {
		return nil, err
	}
	kind, err := whitelistKind(a[0])
	if err != nil {
		return nil, err
	}
	return c.AddWhitelistEntry(gctx, kind, a[1])
}

func removeWhitelistEntry(ctx *cli.Context, _ *options.Env, c *engine.Contract, gctx context.Context) (*actor.Outcome, error) {
	a, err := argsN(ctx, 2, 2)
	if err != nil {
		return nil, err
	}
	kind, err := whitelistKind(a[0])
	if err != nil {
		return nil, err
	}
	return c.RemoveWhitelistEntry(gctx, kind, a[1])
}
