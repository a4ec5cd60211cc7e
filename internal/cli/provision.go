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

package cli

import (
	"fmt"

	"github.com/jeremyhahn/tegra-provision/internal/config"
	"github.com/jeremyhahn/tegra-provision/pkg/artifact"
	"github.com/jeremyhahn/tegra-provision/pkg/keysource"
	"github.com/jeremyhahn/tegra-provision/pkg/keysource/hsm"
	"github.com/jeremyhahn/tegra-provision/pkg/keysource/local"
	"github.com/jeremyhahn/tegra-provision/pkg/logging"
	"github.com/jeremyhahn/tegra-provision/pkg/provision"
	"github.com/jeremyhahn/tegra-provision/pkg/uefi"
	"github.com/spf13/cobra"
)

// HSM connection flags. The password should normally come from the
// TEGRA_PROVISION_HSM_PASSWORD environment variable rather than argv.
var (
	flagHSMAddress  string
	flagHSMUsername string
	flagHSMPassword string
)

// provisionCmd represents the provision command
var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Generate the secure boot key hierarchy and artifacts",
	Long: `Generate the complete secure boot key hierarchy and write every
artifact to the output directory: per-key files, UEFI certificates and
signature lists, the device-tree key record, the encrypted key blob and
the fuse-programming descriptor.

The run is all-or-nothing: artifacts are only written after every key has
been generated, and any failure aborts the run without retries.`,
}

// provisionLocalCmd provisions from the local CSPRNG
var provisionLocalCmd = &cobra.Command{
	Use:   "local",
	Short: "Provision using the local software random source",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(config.ModeLocal)
		if err != nil {
			return err
		}
		return runProvision(cmd, cfg, local.NewSource())
	},
}

// provisionHSMCmd provisions from the remote HSM appliance
var provisionHSMCmd = &cobra.Command{
	Use:   "hsm",
	Short: "Provision using a remote HSM appliance",
	Long: `Provision using a remote HSM appliance. Keys are generated on the
appliance, exported over an authenticated session, and recorded in a key
inventory artifact alongside the usual outputs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(config.ModeHSM)
		if err != nil {
			return err
		}

		source, err := hsm.NewSource(cmd.Context(), &hsm.Config{
			Address:       cfg.HSM.Address,
			Username:      cfg.HSM.Username,
			Password:      cfg.HSM.Password,
			TransitPath:   cfg.HSM.TransitPath,
			Timeout:       cfg.HSM.Timeout,
			TLSSkipVerify: cfg.HSM.TLSSkipVerify,
		})
		if err != nil {
			return fmt.Errorf("hsm session: %w", err)
		}

		return runProvision(cmd, cfg, source)
	},
}

func init() {
	provisionHSMCmd.Flags().StringVar(&flagHSMAddress, "hsm-address", "",
		"HSM appliance URL")
	provisionHSMCmd.Flags().StringVar(&flagHSMUsername, "hsm-username", "",
		"HSM appliance username")
	provisionHSMCmd.Flags().StringVar(&flagHSMPassword, "hsm-password", "",
		"HSM appliance password (prefer TEGRA_PROVISION_HSM_PASSWORD)")

	provisionCmd.AddCommand(provisionLocalCmd)
	provisionCmd.AddCommand(provisionHSMCmd)
}

// loadConfig loads the config file and merges command-line flags over it.
func loadConfig(mode string) (*config.Config, error) {
	cfg, err := config.Load(flagConfigFile)
	if err != nil {
		return nil, err
	}

	cfg.Mode = mode
	if flagOutputDir != "" {
		cfg.OutputDir = flagOutputDir
	}
	if flagChip != "" {
		cfg.Chip = flagChip
	}
	if flagForce {
		cfg.Force = true
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	if flagHSMAddress != "" {
		cfg.HSM.Address = flagHSMAddress
	}
	if flagHSMUsername != "" {
		cfg.HSM.Username = flagHSMUsername
	}
	if flagHSMPassword != "" {
		cfg.HSM.Password = flagHSMPassword
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// runProvision wires the workflow from config and drives it to completion.
func runProvision(cmd *cobra.Command, cfg *config.Config, source keysource.Source) error {
	logger := logging.NewLogger(cfg.Verbose)

	defer func() {
		if err := source.Close(); err != nil {
			logger.Warnf("closing key source: %v", err)
		}
	}()

	writer, err := artifact.NewWriter(cfg.OutputDir, logger)
	if err != nil {
		return err
	}

	workflow, err := provision.New(provision.Params{
		Source: source,
		Writer: writer,
		Issuer: uefi.NewIssuer(),
		Hasher: &provision.FuseHashTool{
			Command:     cfg.Tools.FuseHash,
			MatchPhrase: cfg.Tools.HashMatch,
			OutputDir:   cfg.OutputDir,
		},
		DeviceTree: &provision.DeviceTreeTool{Command: cfg.Tools.DTBGen},
		EKB:        &provision.EKBTool{Command: cfg.Tools.EKBGen},
		Chip:       cfg.Chip,
		Force:      cfg.Force,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	return workflow.Run(cmd.Context())
}
