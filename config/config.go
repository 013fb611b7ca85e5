package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sisu-network/flashrace/types"
)

const (
	ClientTypeEthClient = "ethclient"
	ClientTypeJsonRpc   = "jsonrpc"

	RoleSlow = "slow"
	RoleFast = "fast"

	BlockTagLatest  = "latest"
	BlockTagPending = "pending"

	DefaultRequestTimeoutMs = 5_000
	// Race timeout in multiples of the slow cadence interval when race_timeout_ms is not set.
	DefaultRaceTimeoutFactor = 5

	MintServerUrlEnv = "FLASHRACE_MINT_SERVER_URL"
)

type Cadence struct {
	Label      string   `toml:"label"`
	Title      string   `toml:"title"`
	Role       string   `toml:"role"`
	IntervalMs int      `toml:"interval_ms"`
	Rpcs       []string `toml:"rpcs"`
	ClientType string   `toml:"client_type"`
	BlockTag   string   `toml:"block_tag"`
}

func (c Cadence) CadenceConfig() types.CadenceConfig {
	return types.CadenceConfig{
		Label:      c.Label,
		IntervalMs: c.IntervalMs,
	}
}

func (c Cadence) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

type FlashRace struct {
	ServerPort       int    `toml:"server_port"`
	MetricsEnabled   bool   `toml:"metrics_enabled"`
	MintServerUrl    string `toml:"mint_server_url"`
	RaceTimeoutMs    int    `toml:"race_timeout_ms"`
	RequestTimeoutMs int    `toml:"request_timeout_ms"`

	Cadences map[string]Cadence `toml:"cadences"`
}

// Default returns the reference deployment: Base Sepolia regular blocks every 2s and the
// flashblock-aware endpoint every 200ms.
func Default() *FlashRace {
	return &FlashRace{
		ServerPort:       25460,
		MetricsEnabled:   true,
		RequestTimeoutMs: DefaultRequestTimeoutMs,
		Cadences: map[string]Cadence{
			"regular": {
				Label:      "regular",
				Title:      "Regular",
				Role:       RoleSlow,
				IntervalMs: 2000,
				Rpcs:       []string{"https://sepolia.base.org"},
				ClientType: ClientTypeEthClient,
				BlockTag:   BlockTagLatest,
			},
			"flashblock": {
				Label:      "flashblock",
				Title:      "Flashblock",
				Role:       RoleFast,
				IntervalMs: 200,
				Rpcs:       []string{"https://sepolia-preconf.base.org"},
				ClientType: ClientTypeJsonRpc,
				BlockTag:   BlockTagPending,
			},
		},
	}
}

func Load(path string) (*FlashRace, error) {
	cfg := &FlashRace{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config file %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault loads the config at path, or the default deployment when path is empty.
func LoadOrDefault(path string) (*FlashRace, error) {
	if path != "" {
		return Load(path)
	}

	cfg := Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *FlashRace) applyEnv() {
	if url := os.Getenv(MintServerUrlEnv); url != "" {
		c.MintServerUrl = url
	}
}

func (c *FlashRace) fillDefaults() {
	if c.RequestTimeoutMs == 0 {
		c.RequestTimeoutMs = DefaultRequestTimeoutMs
	}

	for name, cadence := range c.Cadences {
		if cadence.Label == "" {
			cadence.Label = name
		}
		if cadence.Title == "" {
			cadence.Title = cadence.Label
		}
		if cadence.ClientType == "" {
			cadence.ClientType = ClientTypeEthClient
		}
		if cadence.BlockTag == "" {
			cadence.BlockTag = BlockTagLatest
		}
		c.Cadences[name] = cadence
	}
}

func (c *FlashRace) Validate() error {
	if len(c.Cadences) != 2 {
		return types.NewConfigError("cadences", "exactly 2 cadences are required, got %d", len(c.Cadences))
	}

	roles := make(map[string]string)
	labels := make(map[string]bool)
	for name, cadence := range c.Cadences {
		if err := cadence.CadenceConfig().Validate(); err != nil {
			return err
		}

		if labels[cadence.Label] {
			return types.NewConfigError("label", "duplicated cadence label %s", cadence.Label)
		}
		labels[cadence.Label] = true

		switch cadence.Role {
		case RoleSlow, RoleFast:
		default:
			return types.NewConfigError("role", "cadence %s has unknown role %q", name, cadence.Role)
		}
		if other, ok := roles[cadence.Role]; ok {
			return types.NewConfigError("role", "cadences %s and %s share role %s", other, name, cadence.Role)
		}
		roles[cadence.Role] = name

		if len(cadence.Rpcs) == 0 {
			return types.NewConfigError("rpcs", "cadence %s has no rpc endpoint", name)
		}

		switch cadence.ClientType {
		case ClientTypeEthClient, ClientTypeJsonRpc:
		default:
			return types.NewConfigError("client_type", "cadence %s has unknown client type %q", name, cadence.ClientType)
		}

		switch cadence.BlockTag {
		case BlockTagLatest, BlockTagPending:
		default:
			return types.NewConfigError("block_tag", "cadence %s has unknown block tag %q", name, cadence.BlockTag)
		}
	}

	if c.RaceTimeoutMs < 0 {
		return types.NewConfigError("race_timeout_ms", "race timeout cannot be negative")
	}
	if c.RequestTimeoutMs <= 0 {
		return types.NewConfigError("request_timeout_ms", "request timeout must be positive")
	}

	return nil
}

// Slow returns the cadence with the slow role. Only valid on a validated config.
func (c *FlashRace) Slow() Cadence {
	return c.byRole(RoleSlow)
}

// Fast returns the cadence with the fast role. Only valid on a validated config.
func (c *FlashRace) Fast() Cadence {
	return c.byRole(RoleFast)
}

func (c *FlashRace) byRole(role string) Cadence {
	for _, cadence := range c.Cadences {
		if cadence.Role == role {
			return cadence
		}
	}

	return Cadence{}
}

func (c *FlashRace) RaceTimeout() time.Duration {
	if c.RaceTimeoutMs > 0 {
		return time.Duration(c.RaceTimeoutMs) * time.Millisecond
	}

	return c.Slow().Interval() * DefaultRaceTimeoutFactor
}

func (c *FlashRace) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}
