// Copyright (c) 2026 Jeremy Hahn
// Copyright (c) 2026 Automate The Things, LLC
//
// This file is part of tegra-provision.
//
// tegra-provision is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the provisioning tool configuration from a YAML
// file with environment variable overrides. Flags set on the command line
// take precedence and are merged by the CLI layer after Load.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidMode is returned for a key source mode other than local
	// or hsm.
	ErrInvalidMode = errors.New("config: invalid key source mode")

	// ErrMissingSetting is returned when a required setting is absent.
	ErrMissingSetting = errors.New("config: missing required setting")
)

// Key source modes.
const (
	ModeLocal = "local"
	ModeHSM   = "hsm"
)

// EnvPrefix namespaces the environment variable overrides, e.g.
// TEGRA_PROVISION_HSM_PASSWORD overrides hsm.password.
const EnvPrefix = "TEGRA_PROVISION"

// Config is the complete tool configuration.
type Config struct {
	// Mode selects the key source: local or hsm.
	Mode string `mapstructure:"mode"`

	// OutputDir receives every generated artifact.
	OutputDir string `mapstructure:"output_dir"`

	// Force overwrites pre-existing output files.
	Force bool `mapstructure:"force"`

	// Chip is the chip identifier passed to the key blob builder.
	Chip string `mapstructure:"chip"`

	// Verbose enables debug logging.
	Verbose bool `mapstructure:"verbose"`

	HSM   HSMConfig   `mapstructure:"hsm"`
	Tools ToolsConfig `mapstructure:"tools"`
}

// HSMConfig contains the remote appliance connection settings.
type HSMConfig struct {
	Address       string        `mapstructure:"address"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	TransitPath   string        `mapstructure:"transit_path"`
	Timeout       time.Duration `mapstructure:"timeout"`
	TLSSkipVerify bool          `mapstructure:"tls_skip_verify"`
}

// ToolsConfig locates the external collaborator executables.
type ToolsConfig struct {
	// FuseHash is the signing tool that computes the fuse-format public
	// key hash.
	FuseHash string `mapstructure:"fuse_hash"`

	// HashMatch overrides the phrase that tags the hash line in the
	// signing tool's output. Empty uses the built-in default.
	HashMatch string `mapstructure:"hash_match"`

	// DTBGen is the UEFI key device-tree overlay generator.
	DTBGen string `mapstructure:"dtb_gen"`

	// EKBGen is the encrypted key blob builder.
	EKBGen string `mapstructure:"ekb_gen"`
}

// Load reads the configuration file at path (optional) and applies
// environment overrides. A missing file is only an error when a path was
// given explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("mode", ModeLocal)
	v.SetDefault("output_dir", "keys")
	v.SetDefault("chip", "t234")
	v.SetDefault("hsm.transit_path", "transit")
	v.SetDefault("hsm.timeout", 30*time.Second)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so bind every key
	// explicitly to make env-only overrides visible.
	for _, key := range []string{
		"mode", "output_dir", "force", "chip", "verbose",
		"hsm.address", "hsm.username", "hsm.password",
		"hsm.transit_path", "hsm.timeout", "hsm.tls_skip_verify",
		"tools.fuse_hash", "tools.hash_match", "tools.dtb_gen", "tools.ekb_gen",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("tegra-provision")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/tegra-provision")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	return &cfg, nil
}

// Validate checks settings the run cannot proceed without. The HSM
// connection settings are only required in hsm mode.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLocal, ModeHSM:
	default:
		return fmt.Errorf("%w: %q (expected %s or %s)", ErrInvalidMode, c.Mode, ModeLocal, ModeHSM)
	}

	if c.OutputDir == "" {
		return fmt.Errorf("%w: output_dir", ErrMissingSetting)
	}
	if c.Chip == "" {
		return fmt.Errorf("%w: chip", ErrMissingSetting)
	}

	if c.Mode == ModeHSM {
		for name, value := range map[string]string{
			"hsm.address":  c.HSM.Address,
			"hsm.username": c.HSM.Username,
			"hsm.password": c.HSM.Password,
		} {
			if value == "" {
				return fmt.Errorf("%w: %s", ErrMissingSetting, name)
			}
		}
	}

	for name, value := range map[string]string{
		"tools.fuse_hash": c.Tools.FuseHash,
		"tools.dtb_gen":   c.Tools.DTBGen,
		"tools.ekb_gen":   c.Tools.EKBGen,
	} {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, name)
		}
	}

	return nil
}
