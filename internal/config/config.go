// Package config loads the immutable backend configuration a
// hashchain is constructed from: defaults, a YAML file, then flag
// overrides, applied in that order before anything downstream ever
// sees a *Config.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MidstateCount is the ASIC-boost fan-out: how many header midstates
// each work assignment carries.
type MidstateCount int

const (
	Midstate1 MidstateCount = 1
	Midstate2 MidstateCount = 2
	Midstate4 MidstateCount = 4
)

func (m MidstateCount) valid() bool {
	return m == Midstate1 || m == Midstate2 || m == Midstate4
}

// PIDGains is the fan control loop's tuning as read from the YAML
// file. fan.NewTempControl does not take it: the fan controller always
// runs on its built-in default gains.
type PIDGains struct {
	KP     float64 `yaml:"kp"`
	KI     float64 `yaml:"ki"`
	KD     float64 `yaml:"kd"`
	Offset float64 `yaml:"offset"`
}

// ClientGroup describes one pool load-balancing group: a set of
// client descriptors sharing either a fixed share ratio or a quota
// strategy. The strategy fields are mutually exclusive; which one is
// active is a deployment choice recorded in the YAML, not enforced by
// this struct (the pool-client component owns that logic).
type ClientGroup struct {
	Descriptor       string   `yaml:"descriptor"`
	Clients          []string `yaml:"clients"`
	Quota            int      `yaml:"quota,omitempty"`
	FixedShareRatio  float64  `yaml:"fixed_share_ratio,omitempty"`
}

// Config is the immutable, fully-resolved backend configuration for
// one hashboard. Nothing downstream mutates it; a config change means
// building a new Config and restarting the affected hashchain.
type Config struct {
	MidstateCount         MidstateCount `yaml:"midstate_count"`
	ChipCount             int           `yaml:"chip_count"`
	AsicDifficulty        uint64        `yaml:"asic_difficulty"`
	JobTimeout            time.Duration `yaml:"job_timeout"`
	FrequencyMHz          int           `yaml:"frequency_mhz"`
	VoltageV              float64       `yaml:"voltage_v"`
	HashrateInterval      time.Duration `yaml:"hashrate_interval"`
	FanTargetTemperatureC float64       `yaml:"fan_target_temperature"`
	FanPID                PIDGains      `yaml:"fan_pid"`
	ClientGroups          []ClientGroup `yaml:"client_groups"`
	DisableAsicBoost      bool          `yaml:"-"`
}

// Default returns the built-in baseline configuration, matching the
// firmware's documented defaults.
func Default() Config {
	return Config{
		MidstateCount:         Midstate4,
		ChipCount:             63, // BM1387 chips per hashchain on an S9-class board
		AsicDifficulty:        256,
		JobTimeout:            5 * time.Second,
		FrequencyMHz:          650,
		VoltageV:              8.8,
		HashrateInterval:      60 * time.Second,
		FanTargetTemperatureC: 70.0,
		FanPID: PIDGains{
			KP:     -5.0,
			KI:     -0.03,
			KD:     -0.015,
			Offset: 70.0,
		},
	}
}

// Load reads a YAML file on top of Default(), then applies
// overrides. A missing path is not an error: the board runs on
// defaults alone.
func Load(path string, overrides ...Override) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	for _, o := range overrides {
		o(&cfg)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Override mutates a Config in place before it's validated and
// frozen; used to apply CLI flag overrides on top of a loaded file.
type Override func(*Config)

// WithDisableAsicBoost forces MidstateCount down to 1, overriding
// whatever the config file requested.
func WithDisableAsicBoost() Override {
	return func(c *Config) {
		c.DisableAsicBoost = true
		c.MidstateCount = Midstate1
	}
}

// WithFrequencyMHz overrides the per-chain clock frequency.
func WithFrequencyMHz(mhz int) Override {
	return func(c *Config) {
		c.FrequencyMHz = mhz
	}
}

func (c Config) validate() error {
	if !c.MidstateCount.valid() {
		return fmt.Errorf("config: midstate_count must be 1, 2, or 4, got %d", c.MidstateCount)
	}
	if c.ChipCount <= 0 {
		return fmt.Errorf("config: chip_count must be positive, got %d", c.ChipCount)
	}
	if c.AsicDifficulty == 0 {
		return fmt.Errorf("config: asic_difficulty must be nonzero")
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("config: job_timeout must be positive")
	}
	return nil
}
