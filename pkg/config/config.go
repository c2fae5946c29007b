package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/aurora-is-near/aurora-go/pkg/util"
	"gopkg.in/yaml.v3"
)

// Network names.
const (
	Mainnet  = "mainnet"
	Testnet  = "testnet"
	Localnet = "localnet"
	Custom   = "custom"
)

// Defaults.
const (
	DefaultEngineAccountID = "aurora"
	DefaultDialTimeout     = 20 * time.Second
	DefaultRequestTimeout  = 20 * time.Second

	// KeyPathEnv is the environment variable overriding NearKeyPath.
	KeyPathEnv = "NEAR_KEY_PATH"
)

// NetworkPreset holds well-known endpoints of a network.
type NetworkPreset struct {
	NearRPC   string
	AuroraRPC string
	// Registrar is the account creating top-level accounts.
	Registrar string
	ChainID   uint64
}

// Presets are the endpoints of well-known networks.
var Presets = map[string]NetworkPreset{
	Mainnet: {
		NearRPC:   "https://rpc.mainnet.near.org",
		AuroraRPC: "https://mainnet.aurora.dev",
		Registrar: "near",
		ChainID:   1313161554,
	},
	Testnet: {
		NearRPC:   "https://rpc.testnet.near.org",
		AuroraRPC: "https://testnet.aurora.dev",
		Registrar: "testnet",
		ChainID:   1313161555,
	},
	Localnet: {
		NearRPC:   "http://localhost:3030",
		AuroraRPC: "http://localhost:8545",
		ChainID:   1313161556,
	},
}

// Config is the top level struct representing the client configuration.
type Config struct {
	Network         string `yaml:"Network"`
	NearRPC         string `yaml:"NearRPC"`
	AuroraRPC       string `yaml:"AuroraRPC"`
	EngineAccountID string `yaml:"EngineAccountID"`
	// APIKey is passed to the RPC provider with every request.
	APIKey         string            `yaml:"APIKey"`
	Headers        map[string]string `yaml:"Headers"`
	NearKeyPath    string            `yaml:"NearKeyPath"`
	EVMSecretKey   string            `yaml:"EVMSecretKey"`
	DialTimeout    time.Duration     `yaml:"DialTimeout"`
	RequestTimeout time.Duration     `yaml:"RequestTimeout"`
	NonceRetries   int               `yaml:"NonceRetries"`
	// PriorityFee is added to every transaction sent, non-zero fee makes V1
	// transactions.
	PriorityFee uint64       `yaml:"PriorityFee"`
	Logger      Logger       `yaml:"Logger"`
	Prometheus  BasicService `yaml:"Prometheus"`
}

// Logger contains logger configuration.
type Logger struct {
	LogEncoding  string `yaml:"LogEncoding"`
	LogLevel     string `yaml:"LogLevel"`
	LogPath      string `yaml:"LogPath"`
	LogTimestamp *bool  `yaml:"LogTimestamp,omitempty"`
}

// Default returns the configuration of the given network with all defaults
// set.
func Default(network string) Config {
	cfg := Config{Network: network}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Network == "" {
		c.Network = Mainnet
	}
	if p, ok := Presets[c.Network]; ok {
		if c.NearRPC == "" {
			c.NearRPC = p.NearRPC
		}
		if c.AuroraRPC == "" {
			c.AuroraRPC = p.AuroraRPC
		}
	}
	if c.EngineAccountID == "" {
		c.EngineAccountID = DefaultEngineAccountID
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = "info"
	}
}

// Load attempts to load the config from the given file. Empty path means
// default mainnet configuration. Key path is overridden by KeyPathEnv if it's
// set.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("unable to read config: %w", err)
		}
		cfg, err = LoadBytes(data)
		if err != nil {
			return Config{}, err
		}
	} else {
		cfg = Default(Mainnet)
	}
	if p := os.Getenv(KeyPathEnv); p != "" {
		cfg.NearKeyPath = p
	}
	return cfg, nil
}

// LoadBytes parses YAML configuration, applies defaults and validates it.
// Unknown fields are not allowed.
func LoadBytes(data []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	if _, ok := Presets[c.Network]; !ok && c.Network != Custom {
		return fmt.Errorf("unknown network %q", c.Network)
	}
	if c.NearRPC == "" {
		return errors.New("NearRPC endpoint is required for custom network")
	}
	u, err := url.Parse(c.NearRPC)
	if err != nil {
		return fmt.Errorf("invalid NearRPC: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid NearRPC scheme %q", u.Scheme)
	}
	if _, err := util.ParseAccountID(c.EngineAccountID); err != nil {
		return fmt.Errorf("invalid EngineAccountID: %w", err)
	}
	if c.NonceRetries < 0 {
		return errors.New("negative NonceRetries")
	}
	if c.Prometheus.Enabled && len(c.Prometheus.Addresses) == 0 {
		return errors.New("no Prometheus addresses")
	}
	return nil
}

// ChainID returns the EVM chain id of the network, the local one for custom
// networks.
func (c Config) ChainID() uint64 {
	if p, ok := Presets[c.Network]; ok {
		return p.ChainID
	}
	return Presets[Localnet].ChainID
}

// Registrar returns the account creating top-level accounts in the network.
func (c Config) Registrar() (util.AccountID, error) {
	p, ok := Presets[c.Network]
	if !ok || p.Registrar == "" {
		return "", fmt.Errorf("account creation is not supported for %s network", c.Network)
	}
	return util.AccountID(p.Registrar), nil
}
