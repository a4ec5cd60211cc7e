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

package keysource

import "errors"

var (
	// ErrInvalidKeySize is returned when a generation request asks for an
	// unsupported key size.
	ErrInvalidKeySize = errors.New("keysource: invalid key size")

	// ErrGeneration is returned when key generation fails in the backing
	// CSPRNG, crypto library, or appliance.
	ErrGeneration = errors.New("keysource: key generation failed")

	// ErrExport is returned when exported key material cannot be retrieved
	// or does not match the requested format or length.
	ErrExport = errors.New("keysource: key export failed")

	// ErrSessionClosed is returned when a generation request is made against
	// a closed source.
	ErrSessionClosed = errors.New("keysource: session closed")
)
