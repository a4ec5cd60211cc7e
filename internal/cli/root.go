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
	"github.com/spf13/cobra"
)

// Flags merged over the loaded config file.
var (
	flagConfigFile string
	flagOutputDir  string
	flagChip       string
	flagForce      bool
	flagVerbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tegra-provision",
	Short: "tegra-provision - secure boot key provisioning for Tegra SoCs",
	Long: `tegra-provision generates the complete secure boot key hierarchy for
a Tegra SoC: the bootloader signing keypair, the SBK and OEM fuse keys,
the encrypted key blob inputs and the UEFI Secure Boot certificate chain,
plus the fuse-programming descriptor that burns the hierarchy into the
device.

Key material comes from one of two sources:
  - local: the operating system CSPRNG
  - hsm:   a remote HSM appliance; keys are generated on the appliance
           and exported over an authenticated session`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "",
		"config file (default is ./tegra-provision.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagOutputDir, "output-dir", "d", "",
		"directory for generated artifacts")
	rootCmd.PersistentFlags().StringVar(&flagChip, "chip", "",
		"chip identifier for the key blob builder (default t234)")
	rootCmd.PersistentFlags().BoolVarP(&flagForce, "force", "f", false,
		"overwrite pre-existing output files")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"verbose output")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(provisionCmd)
}
