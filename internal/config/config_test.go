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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Mode:      ModeLocal,
		OutputDir: "keys",
		Chip:      "t234",
		Tools: ToolsConfig{
			FuseHash: "/opt/tools/sign.py",
			DTBGen:   "/opt/tools/gen_uefi_keys_dts.sh",
			EKBGen:   "/opt/tools/gen_ekb.py",
		},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModeLocal, cfg.Mode)
	assert.Equal(t, "keys", cfg.OutputDir)
	assert.Equal(t, "t234", cfg.Chip)
	assert.Equal(t, "transit", cfg.HSM.TransitPath)
	assert.Equal(t, 30*time.Second, cfg.HSM.Timeout)
	assert.False(t, cfg.Force)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tegra-provision.yaml")
	body := `
mode: hsm
output_dir: /var/lib/provision
chip: t234
hsm:
  address: https://hsm.example.com:8200
  username: provisioner
  password: secret
  tls_skip_verify: true
tools:
  fuse_hash: /opt/tools/sign.py
  hash_match: "fuse hash value"
  dtb_gen: /opt/tools/gen_uefi_keys_dts.sh
  ekb_gen: /opt/tools/gen_ekb.py
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ModeHSM, cfg.Mode)
	assert.Equal(t, "/var/lib/provision", cfg.OutputDir)
	assert.Equal(t, "https://hsm.example.com:8200", cfg.HSM.Address)
	assert.Equal(t, "provisioner", cfg.HSM.Username)
	assert.True(t, cfg.HSM.TLSSkipVerify)
	assert.Equal(t, "fuse hash value", cfg.Tools.HashMatch)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TEGRA_PROVISION_HSM_PASSWORD", "from-env")
	t.Setenv("TEGRA_PROVISION_CHIP", "t194")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.HSM.Password)
	assert.Equal(t, "t194", cfg.Chip)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	badMode := validConfig()
	badMode.Mode = "cloud"
	assert.ErrorIs(t, badMode.Validate(), ErrInvalidMode)

	noOutput := validConfig()
	noOutput.OutputDir = ""
	assert.ErrorIs(t, noOutput.Validate(), ErrMissingSetting)

	noChip := validConfig()
	noChip.Chip = ""
	assert.ErrorIs(t, noChip.Validate(), ErrMissingSetting)

	noTool := validConfig()
	noTool.Tools.EKBGen = ""
	err := noTool.Validate()
	assert.ErrorIs(t, err, ErrMissingSetting)
	assert.Contains(t, err.Error(), "tools.ekb_gen")
}

func TestValidate_HSMCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = ModeHSM
	cfg.HSM = HSMConfig{
		Address:  "https://hsm.example.com:8200",
		Username: "provisioner",
		Password: "secret",
	}
	require.NoError(t, cfg.Validate())

	cfg.HSM.Password = ""
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrMissingSetting)
	assert.Contains(t, err.Error(), "hsm.password")

	// Local mode never requires appliance credentials.
	local := validConfig()
	assert.NoError(t, local.Validate())
}
