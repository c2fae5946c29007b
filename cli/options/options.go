/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aurora-is-near/aurora-go/pkg/config"
	"github.com/aurora-is-near/aurora-go/pkg/crypto/keys"
	"github.com/aurora-is-near/aurora-go/pkg/nearrpc"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/actor"
	"github.com/aurora-is-near/aurora-go/pkg/rpcclient/invoker"
	"github.com/aurora-is-near/aurora-go/pkg/services/metrics"
	"github.com/aurora-is-near/aurora-go/pkg/util"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultTimeout is the default timeout used for RPC requests.
const DefaultTimeout = config.DefaultRequestTimeout

// Flag names that are looked up by helpers.
const (
	RPCEndpointFlag = "rpc-endpoint"
	OutputFlag      = "output"
)

// Output formats.
const (
	OutputPlain = "plain"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Config is a set of flags for choosing the configuration and the network to
// operate on.
var Config = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "path to the YAML configuration file",
	},
	cli.StringFlag{
		Name:  "network, n",
		Usage: "network to use (mainnet, testnet, localnet), overrides configuration",
	},
	cli.StringFlag{
		Name:  "engine, e",
		Usage: "Aurora Engine account ID, overrides configuration",
	},
	cli.BoolFlag{
		Name:  "debug, d",
		Usage: "enable debug logging (overrides configuration)",
	},
	cli.StringFlag{
		Name:  "prometheus",
		Usage: "expose metrics on the given address while the command runs",
	},
}

// RPC is a set of flags used for RPC connections (endpoint and timeout).
var RPC = []cli.Flag{
	cli.StringFlag{
		Name:  RPCEndpointFlag + ", r",
		Usage: "NEAR RPC node address, overrides configuration",
	},
	cli.DurationFlag{
		Name:  "timeout, s",
		Usage: "Timeout for the operation (" + DefaultTimeout.String() + " by default)",
	},
}

// Output is a flag for choosing the result format.
var Output = cli.StringFlag{
	Name:  OutputFlag + ", o",
	Value: OutputPlain,
	Usage: "output format (plain, json, yaml)",
}

// Historic is a set of flags for commands that can read historic state.
var Historic = []cli.Flag{
	cli.Uint64Flag{
		Name:  "block-height",
		Usage: "use the state at the given block height",
	},
	cli.StringFlag{
		Name:  "block-hash",
		Usage: "use the state at the given block hash",
	},
}

// Signer is a set of flags for commands sending transactions.
var Signer = []cli.Flag{
	cli.StringFlag{
		Name:   "key-path, k",
		Usage:  "path to the NEAR key file of the signer",
		EnvVar: config.KeyPathEnv,
	},
	cli.Uint64Flag{
		Name:  "priority-fee",
		Usage: "transaction priority fee (V1 transactions if non-zero)",
	},
}

// Read is the full set of flags for read-only commands.
var Read = join(Config, RPC, Historic, []cli.Flag{Output})

// Write is the full set of flags for commands sending transactions.
var Write = join(Config, RPC, Signer, []cli.Flag{Output})

func join(sets ...[]cli.Flag) []cli.Flag {
	var res []cli.Flag
	for _, s := range sets {
		res = append(res, s...)
	}
	return res
}

var (
	errConflictingHistoric = errors.New("--block-height conflicts with --block-hash")
	errNoKey               = errors.New("no signer key, use '--key-path' flag, " + config.KeyPathEnv + " or NearKeyPath configuration")
	errBadOutput           = errors.New("unknown output format")
)

// GetConfigFromContext loads the configuration file (if any) and applies
// flag overrides to it.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	path := ctx.String("config")
	switch {
	case path != "":
		cfg, err = config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		if n := ctx.String("network"); n != "" && n != cfg.Network {
			return config.Config{}, fmt.Errorf("--network %s conflicts with the configuration (%s)", n, cfg.Network)
		}
	case ctx.String("network") != "":
		cfg = config.Default(ctx.String("network"))
	default:
		cfg, err = config.Load("")
		if err != nil {
			return config.Config{}, err
		}
	}
	if ep := ctx.String(RPCEndpointFlag); ep != "" {
		cfg.NearRPC = ep
	}
	if e := ctx.String("engine"); e != "" {
		cfg.EngineAccountID = e
	}
	if kp := ctx.String("key-path"); kp != "" {
		cfg.NearKeyPath = kp
	}
	if ctx.IsSet("priority-fee") {
		cfg.PriorityFee = ctx.Uint64("priority-fee")
	}
	if t := ctx.Duration("timeout"); t > 0 {
		cfg.RequestTimeout = t
	}
	if addr := ctx.String("prometheus"); addr != "" {
		cfg.Prometheus = config.BasicService{Enabled: true, Addresses: []string{addr}}
	}
	return cfg, cfg.Validate()
}

// GetTimeoutContext returns a context.Context with the configured timeout.
func GetTimeoutContext(cfg config.Config) (context.Context, func()) {
	dur := cfg.RequestTimeout
	if dur <= 0 {
		dur = DefaultTimeout
	}
	return context.WithTimeout(context.Background(), dur)
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.Logger) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	if cfg.LogEncoding != "" {
		cc.Encoding = cfg.LogEncoding
	}
	if cfg.LogTimestamp != nil && !*cfg.LogTimestamp {
		cc.EncoderConfig.TimeKey = ""
	}
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil
	// Results go to stdout, logs shouldn't mix with them.
	cc.OutputPaths = []string{"stderr"}

	if logPath := cfg.LogPath; logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("could not create dir for logger: %w", err)
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}

// GetRPCClient returns an RPC client instance for the given configuration.
func GetRPCClient(cfg config.Config, log *zap.Logger) (*rpcclient.Client, cli.ExitCoder) {
	c, err := rpcclient.New(cfg.NearRPC, rpcclient.Options{
		DialTimeout:    cfg.DialTimeout,
		RequestTimeout: cfg.RequestTimeout,
		Headers:        cfg.Headers,
		APIKey:         cfg.APIKey,
		Logger:         log,
	})
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return c, nil
}

// GetBlockReference parses "--block-height" and "--block-hash" flags, the
// final block is used by default.
func GetBlockReference(ctx *cli.Context) (nearrpc.BlockReference, error) {
	var (
		height = ctx.IsSet("block-height")
		hash   = ctx.String("block-hash")
	)
	switch {
	case height && hash != "":
		return nearrpc.BlockReference{}, errConflictingHistoric
	case height:
		return nearrpc.AtHeight(ctx.Uint64("block-height")), nil
	case hash != "":
		h, err := util.CryptoHashDecodeString(hash)
		if err != nil {
			return nearrpc.BlockReference{}, fmt.Errorf("invalid block hash: %w", err)
		}
		return nearrpc.AtHash(h), nil
	default:
		return nearrpc.Final(), nil
	}
}

// GetInvoker returns an invoker using the given RPC client and the block
// requested by the context flags.
func GetInvoker(c *rpcclient.Client, ctx *cli.Context) (*invoker.Invoker, cli.ExitCoder) {
	block, err := GetBlockReference(ctx)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	return invoker.New(c, block), nil
}

// GetSigner reads the signer key file from the configured path.
func GetSigner(cfg config.Config) (keys.Signer, error) {
	if cfg.NearKeyPath == "" {
		return keys.Signer{}, errNoKey
	}
	return keys.ReadKeyFile(cfg.NearKeyPath)
}

// GetActor returns an Actor signing with the configured key.
func GetActor(c *rpcclient.Client, cfg config.Config, log *zap.Logger) (*actor.Actor, cli.ExitCoder) {
	signer, err := GetSigner(cfg)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	a, err := actor.New(c, signer, actor.Options{
		NonceRetries: cfg.NonceRetries,
		PriorityFee:  cfg.PriorityFee,
		Logger:       log,
	})
	if err != nil {
		return nil, cli.NewExitError(fmt.Errorf("failed to create Actor: %w", err), 1)
	}
	return a, nil
}

// Env is everything a command needs to talk to the network.
type Env struct {
	Config config.Config
	Log    *zap.Logger
	Client *rpcclient.Client

	metrics *metrics.Service
}

// NewEnv handles configuration, logging and metrics flags and creates an RPC
// client. Close must be called when the command is done.
func NewEnv(ctx *cli.Context) (*Env, cli.ExitCoder) {
	cfg, err := GetConfigFromContext(ctx)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	log, _, err := HandleLoggingParams(ctx.Bool("debug"), cfg.Logger)
	if err != nil {
		return nil, cli.NewExitError(err, 1)
	}
	env := &Env{Config: cfg, Log: log}
	if cfg.Prometheus.Enabled {
		env.metrics = metrics.NewPrometheusService(cfg.Prometheus, log)
		if err := env.metrics.Start(); err != nil {
			return nil, cli.NewExitError(fmt.Errorf("failed to start metrics: %w", err), 1)
		}
	}
	c, ec := GetRPCClient(cfg, log)
	if ec != nil {
		env.Close()
		return nil, ec
	}
	env.Client = c
	return env, nil
}

// Close releases resources held by the environment.
func (e *Env) Close() {
	if e.Client != nil {
		e.Client.Close()
	}
	if e.metrics != nil {
		e.metrics.ShutDown()
	}
	_ = e.Log.Sync()
}

// PrintResult writes v to the application output in the format requested by
// the "--output" flag. Plain format prints strings, byte slices (as hex) and
// fmt.Stringer values as is, other values are printed as YAML.
func PrintResult(ctx *cli.Context, v any) error {
	w := ctx.App.Writer
	switch format := ctx.String(OutputFlag); format {
	case OutputJSON:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return cli.NewExitError(err, 1)
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case OutputYAML:
		return writeYAML(ctx, v)
	case OutputPlain, "":
		switch t := v.(type) {
		case string, fmt.Stringer, uint64, uint32, int, bool:
			_, err := fmt.Fprintln(w, t)
			return err
		case []byte:
			_, err := fmt.Fprintf(w, "0x%x\n", t)
			return err
		default:
			return writeYAML(ctx, v)
		}
	default:
		return cli.NewExitError(fmt.Errorf("%w: %s", errBadOutput, format), 1)
	}
}

func writeYAML(ctx *cli.Context, v any) error {
	enc := yaml.NewEncoder(ctx.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return cli.NewExitError(err, 1)
	}
	return enc.Close()
}
