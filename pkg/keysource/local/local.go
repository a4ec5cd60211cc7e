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

// Package local implements keysource.Source using the operating system
// CSPRNG and standard RSA key pair generation. No network I/O; any crypto
// library failure aborts the run.
package local

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/jeremyhahn/tegra-provision/pkg/keysource"
	"github.com/jeremyhahn/tegra-provision/pkg/types"
)

// Source draws key material from the local software random source.
type Source struct {
	closed bool
}

// compile-time interface check
var _ keysource.Source = (*Source)(nil)

// NewSource creates a local software key source.
func NewSource() *Source {
	return &Source{}
}

// Origin returns types.OriginLocal.
func (s *Source) Origin() types.Origin {
	return types.OriginLocal
}

// GenerateSymmetric draws bits/8 random bytes for the named role.
func (s *Source) GenerateSymmetric(ctx context.Context, bits int, role string) (*types.KeyMaterial, error) {
	if s.closed {
		return nil, keysource.ErrSessionClosed
	}
	if bits != types.AESKeySize128 && bits != types.AESKeySize256 {
		return nil, fmt.Errorf("%w: %d bit symmetric key for role %s", keysource.ErrInvalidKeySize, bits, role)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: role %s: %v", keysource.ErrGeneration, role, err)
	}

	raw := make([]byte, bits/8)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("%w: role %s: %v", keysource.ErrGeneration, role, err)
	}

	kind := types.KindAES256
	if bits == types.AESKeySize128 {
		kind = types.KindAES128
	}

	material := &types.KeyMaterial{
		ID:     role,
		Kind:   kind,
		Bits:   bits,
		Raw:    raw,
		Origin: types.OriginLocal,
	}

	if err := material.Validate(); err != nil {
		return nil, fmt.Errorf("%w: role %s: %v", keysource.ErrGeneration, role, err)
	}

	return material, nil
}

// GenerateAsymmetric generates an RSA key pair with the given modulus size,
// returned as PKCS#8 private and PKIX public PEM.
func (s *Source) GenerateAsymmetric(ctx context.Context, bits int, role string) (*types.KeyMaterial, error) {
	if s.closed {
		return nil, keysource.ErrSessionClosed
	}
	if bits != types.RSAKeySize2048 && bits != types.RSAKeySize3072 {
		return nil, fmt.Errorf("%w: %d bit RSA key for role %s", keysource.ErrInvalidKeySize, bits, role)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: role %s: %v", keysource.ErrGeneration, role, err)
	}

	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("%w: role %s: %v", keysource.ErrGeneration, role, err)
	}

	privatePEM, publicPEM, err := encodeKeyPair(key)
	if err != nil {
		return nil, fmt.Errorf("%w: role %s: %v", keysource.ErrGeneration, role, err)
	}

	material := &types.KeyMaterial{
		ID:         role,
		Kind:       types.KindRSAKeyPair,
		Bits:       bits,
		PrivatePEM: privatePEM,
		PublicPEM:  publicPEM,
		Origin:     types.OriginLocal,
	}

	if err := material.Validate(); err != nil {
		return nil, fmt.Errorf("%w: role %s: %v", keysource.ErrGeneration, role, err)
	}

	return material, nil
}

// Close marks the source closed. There is no underlying session to release.
func (s *Source) Close() error {
	s.closed = true
	return nil
}

func encodeKeyPair(key *rsa.PrivateKey) (privatePEM, publicPEM []byte, err error) {
	privateDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateDER})
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	return privatePEM, publicPEM, nil
}
