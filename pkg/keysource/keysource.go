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

// Package keysource abstracts where key material comes from: the local
// software CSPRNG or a networked HSM appliance. The provisioning workflow is
// written against this interface and never branches on the backing mode.
package keysource

import (
	"context"

	"github.com/jeremyhahn/tegra-provision/pkg/types"
)

// Source produces key material on request. Implementations must guarantee
// that two calls within the same run never return identical raw bytes and
// that exported raw lengths exactly match the requested bit length.
type Source interface {
	// GenerateSymmetric generates an AES key of the given size (128 or 256
	// bits) for the named role.
	GenerateSymmetric(ctx context.Context, bits int, role string) (*types.KeyMaterial, error)

	// GenerateAsymmetric generates an RSA key pair with the given modulus
	// size (2048 or 3072 bits) for the named role, returned PEM encoded.
	GenerateAsymmetric(ctx context.Context, bits int, role string) (*types.KeyMaterial, error)

	// Origin identifies the source mode for bookkeeping.
	Origin() types.Origin

	// Close releases any session held by the source.
	Close() error
}
