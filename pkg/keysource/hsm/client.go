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

package hsm

import (
	"context"
	"encoding/base64"
	"fmt"

	vault "github.com/hashicorp/vault/api"
)

// ExportFormat selects the representation of exported key material.
type ExportFormat string

const (
	// FormatRaw exports symmetric keys as raw binary bytes.
	FormatRaw ExportFormat = "raw"

	// FormatPEM exports asymmetric keys as a PEM encoded private key.
	FormatPEM ExportFormat = "pem"
)

// Client is the appliance session protocol: authenticate once, then issue
// generate and export calls. The interface exists so tests can substitute a
// mock for the network client.
type Client interface {
	// Authenticate opens the session with operator credentials. Called once
	// per run.
	Authenticate(ctx context.Context, username, password string) error

	// Generate creates an exportable key of the given engine type under the
	// given identifier.
	Generate(ctx context.Context, id, keyType string) error

	// Export retrieves the key material for a previously generated key.
	Export(ctx context.Context, id string, format ExportFormat) ([]byte, error)
}

// vaultClient implements Client against a Vault Transit style appliance API.
type vaultClient struct {
	api         *vault.Client
	transitPath string
}

// newVaultClient builds the default network client for the configured
// appliance.
func newVaultClient(config *Config) (Client, error) {
	apiConfig := vault.DefaultConfig()
	apiConfig.Address = config.Address

	if config.TLSSkipVerify {
		if err := apiConfig.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	api, err := vault.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create appliance client: %w", err)
	}

	return &vaultClient{
		api:         api,
		transitPath: config.transitPath(),
	}, nil
}

func (c *vaultClient) Authenticate(ctx context.Context, username, password string) error {
	path := fmt.Sprintf("auth/userpass/login/%s", username)
	secret, err := c.api.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"password": password,
	})
	if err != nil {
		return err
	}
	if secret == nil || secret.Auth == nil || secret.Auth.ClientToken == "" {
		return fmt.Errorf("login response carried no session token")
	}

	c.api.SetToken(secret.Auth.ClientToken)

	return nil
}

func (c *vaultClient) Generate(ctx context.Context, id, keyType string) error {
	path := fmt.Sprintf("%s/keys/%s", c.transitPath, id)
	_, err := c.api.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"type":       keyType,
		"exportable": true,
	})

	return err
}

func (c *vaultClient) Export(ctx context.Context, id string, format ExportFormat) ([]byte, error) {
	exportType := "encryption-key"
	if format == FormatPEM {
		exportType = "signing-key"
	}

	path := fmt.Sprintf("%s/export/%s/%s/latest", c.transitPath, exportType, id)
	secret, err := c.api.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, err
	}
	if secret == nil {
		return nil, fmt.Errorf("%w: empty export response for %s", ErrExportFormat, id)
	}

	material, err := latestExportedKey(secret.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExportFormat, id, err)
	}

	if format == FormatRaw {
		raw, err := base64.StdEncoding.DecodeString(material)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrExportFormat, id, err)
		}
		return raw, nil
	}

	return []byte(material), nil
}

// latestExportedKey pulls the single key version out of an export response.
func latestExportedKey(data map[string]interface{}) (string, error) {
	keys, ok := data["keys"].(map[string]interface{})
	if !ok || len(keys) == 0 {
		return "", fmt.Errorf("export response carried no keys")
	}

	for _, v := range keys {
		material, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("exported key material is not a string")
		}
		return material, nil
	}

	return "", fmt.Errorf("export response carried no keys")
}
