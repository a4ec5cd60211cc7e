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

import "errors"

var (
	// ErrMissingCredentials is returned when the appliance URL, username or
	// password is absent. This is a precondition failure raised before any
	// key generation is attempted.
	ErrMissingCredentials = errors.New("hsm: missing connection parameter")

	// ErrAuthentication is returned when the appliance rejects the
	// operator's credentials or is unreachable during login.
	ErrAuthentication = errors.New("hsm: authentication failed")

	// ErrExportFormat is returned when the appliance returns key material
	// in an unexpected shape.
	ErrExportFormat = errors.New("hsm: unexpected export format")
)
