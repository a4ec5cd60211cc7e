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
	"fmt"
	"time"
)

// DefaultTimeout bounds each appliance call. A stuck provisioning run
// blocking a factory line is worse than a clean abort.
const DefaultTimeout = 30 * time.Second

// DefaultTransitPath is the default mount path of the appliance key engine.
const DefaultTransitPath = "transit"

// Config holds the session parameters for the HSM appliance. Address,
// Username and Password are required and validated before any key
// generation begins.
type Config struct {
	// Address is the appliance URL, e.g. https://hsm.factory.local:8200.
	Address string

	// Username authenticates the provisioning operator.
	Username string

	// Password authenticates the provisioning operator.
	Password string

	// TransitPath is the mount path of the key engine. Defaults to
	// DefaultTransitPath when empty.
	TransitPath string

	// Timeout bounds each generate/export call. Defaults to DefaultTimeout
	// when zero.
	Timeout time.Duration

	// TLSSkipVerify disables TLS certificate verification. Test
	// environments only.
	TLSSkipVerify bool
}

// Validate checks that all required connection parameters are present.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil config", ErrMissingCredentials)
	}
	if c.Address == "" {
		return fmt.Errorf("%w: appliance address", ErrMissingCredentials)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: username", ErrMissingCredentials)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password", ErrMissingCredentials)
	}
	return nil
}

func (c *Config) transitPath() string {
	if c.TransitPath == "" {
		return DefaultTransitPath
	}
	return c.TransitPath
}

func (c *Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
