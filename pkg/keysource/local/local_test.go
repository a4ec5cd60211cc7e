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

package local

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/jeremyhahn/tegra-provision/pkg/keysource"
	"github.com/jeremyhahn/tegra-provision/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSymmetric_Sizes(t *testing.T) {
	s := NewSource()
	defer s.Close()

	tests := []struct {
		bits     int
		kind     types.KeyKind
		rawBytes int
	}{
		{256, types.KindAES256, 32},
		{128, types.KindAES128, 16},
	}

	for _, tt := range tests {
		material, err := s.GenerateSymmetric(context.Background(), tt.bits, "SBK")
		require.NoError(t, err)
		assert.Equal(t, tt.kind, material.Kind)
		assert.Len(t, material.Raw, tt.rawBytes)
		assert.Equal(t, types.OriginLocal, material.Origin)
		assert.Equal(t, "SBK", material.ID)
	}
}

func TestGenerateSymmetric_InvalidSize(t *testing.T) {
	s := NewSource()
	defer s.Close()

	for _, bits := range []int{0, 64, 192, 512} {
		_, err := s.GenerateSymmetric(context.Background(), bits, "SBK")
		assert.ErrorIs(t, err, keysource.ErrInvalidKeySize)
	}
}

func TestGenerateSymmetric_Uniqueness(t *testing.T) {
	s := NewSource()
	defer s.Close()

	seen := make(map[string]bool)
	for trial := 0; trial < 100; trial++ {
		material, err := s.GenerateSymmetric(context.Background(), 256, "SBK")
		require.NoError(t, err)
		key := string(material.Raw)
		require.False(t, seen[key], "duplicate key material on trial %d", trial)
		seen[key] = true
	}
}

func TestGenerateAsymmetric_PEMRoundTrip(t *testing.T) {
	s := NewSource()
	defer s.Close()

	material, err := s.GenerateAsymmetric(context.Background(), 2048, "UEFI-PK")
	require.NoError(t, err)
	assert.Equal(t, types.KindRSAKeyPair, material.Kind)
	assert.Nil(t, material.Raw)

	block, _ := pem.Decode(material.PrivatePEM)
	require.NotNil(t, block)
	require.Equal(t, "PRIVATE KEY", block.Type)

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)
	rsaKey, ok := key.(*rsa.PrivateKey)
	require.True(t, ok)
	assert.Equal(t, 2048, rsaKey.N.BitLen())

	pubBlock, _ := pem.Decode(material.PublicPEM)
	require.NotNil(t, pubBlock)
	require.Equal(t, "PUBLIC KEY", pubBlock.Type)
	_, err = x509.ParsePKIXPublicKey(pubBlock.Bytes)
	require.NoError(t, err)
}

func TestGenerateAsymmetric_InvalidSize(t *testing.T) {
	s := NewSource()
	defer s.Close()

	for _, bits := range []int{1024, 4096} {
		_, err := s.GenerateAsymmetric(context.Background(), bits, "RSA")
		assert.ErrorIs(t, err, keysource.ErrInvalidKeySize)
	}
}

func TestClosedSource(t *testing.T) {
	s := NewSource()
	require.NoError(t, s.Close())

	_, err := s.GenerateSymmetric(context.Background(), 256, "SBK")
	assert.ErrorIs(t, err, keysource.ErrSessionClosed)

	_, err = s.GenerateAsymmetric(context.Background(), 2048, "RSA")
	assert.ErrorIs(t, err, keysource.ErrSessionClosed)
}
