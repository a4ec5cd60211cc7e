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

// Package hsm implements keysource.Source against a networked HSM
// appliance. Private key material is generated appliance-side under a
// role-scoped identifier marked exportable, then exported as raw bytes
// (symmetric) or PEM (asymmetric). Any generate or export failure aborts
// the entire run; downstream artifacts require the full key set.
package hsm

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/tegra-provision/pkg/keysource"
	"github.com/jeremyhahn/tegra-provision/pkg/types"
)

// Source is a keysource.Source backed by an authenticated appliance session.
type Source struct {
	config *Config
	client Client
	closed bool
}

var _ keysource.Source = (*Source)(nil)

// NewSource validates the session configuration, opens the appliance
// session and authenticates. Bad credentials or an unreachable appliance
// fail here, before any key generation is attempted.
func NewSource(ctx context.Context, config *Config) (*Source, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := newVaultClient(config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	return newSourceWithClient(ctx, config, client)
}

// NewSourceWithClient opens a source over a caller-supplied client. Used by
// tests to substitute a mock appliance.
func NewSourceWithClient(ctx context.Context, config *Config, client Client) (*Source, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return newSourceWithClient(ctx, config, client)
}

func newSourceWithClient(ctx context.Context, config *Config, client Client) (*Source, error) {
	loginCtx, cancel := context.WithTimeout(ctx, config.timeout())
	defer cancel()

	if err := client.Authenticate(loginCtx, config.Username, config.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	return &Source{
		config: config,
		client: client,
	}, nil
}

// Origin returns types.OriginRemote.
func (s *Source) Origin() types.Origin {
	return types.OriginRemote
}

// GenerateSymmetric generates an AES key on the appliance and exports its
// raw bytes.
func (s *Source) GenerateSymmetric(ctx context.Context, bits int, role string) (*types.KeyMaterial, error) {
	if s.closed {
		return nil, keysource.ErrSessionClosed
	}

	var keyType string
	var kind types.KeyKind
	switch bits {
	case types.AESKeySize128:
		keyType, kind = "aes128-gcm96", types.KindAES128
	case types.AESKeySize256:
		keyType, kind = "aes256-gcm96", types.KindAES256
	default:
		return nil, fmt.Errorf("%w: %d bit symmetric key for role %s", keysource.ErrInvalidKeySize, bits, role)
	}

	id := s.keyID(role)

	if err := s.generate(ctx, id, keyType); err != nil {
		return nil, fmt.Errorf("%w: role %s (%s): %v", keysource.ErrGeneration, role, id, err)
	}

	raw, err := s.export(ctx, id, FormatRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: role %s (%s): %v", keysource.ErrExport, role, id, err)
	}
	if len(raw) != bits/8 {
		return nil, fmt.Errorf("%w: role %s (%s): exported %d bytes, want %d",
			keysource.ErrExport, role, id, len(raw), bits/8)
	}

	return &types.KeyMaterial{
		ID:     id,
		Kind:   kind,
		Bits:   bits,
		Raw:    raw,
		Origin: types.OriginRemote,
	}, nil
}

// GenerateAsymmetric generates an RSA key pair on the appliance and exports
// it as PEM. The public half is derived locally from the exported private
// key.
func (s *Source) GenerateAsymmetric(ctx context.Context, bits int, role string) (*types.KeyMaterial, error) {
	if s.closed {
		return nil, keysource.ErrSessionClosed
	}

	var keyType string
	switch bits {
	case types.RSAKeySize2048:
		keyType = "rsa-2048"
	case types.RSAKeySize3072:
		keyType = "rsa-3072"
	default:
		return nil, fmt.Errorf("%w: %d bit RSA key for role %s", keysource.ErrInvalidKeySize, bits, role)
	}

	id := s.keyID(role)

	if err := s.generate(ctx, id, keyType); err != nil {
		return nil, fmt.Errorf("%w: role %s (%s): %v", keysource.ErrGeneration, role, id, err)
	}

	privatePEM, err := s.export(ctx, id, FormatPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: role %s (%s): %v", keysource.ErrExport, role, id, err)
	}

	publicPEM, modulusBits, err := derivePublicPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("%w: role %s (%s): %v", keysource.ErrExport, role, id, err)
	}
	if modulusBits != bits {
		return nil, fmt.Errorf("%w: role %s (%s): exported %d bit modulus, want %d",
			keysource.ErrExport, role, id, modulusBits, bits)
	}

	return &types.KeyMaterial{
		ID:         id,
		Kind:       types.KindRSAKeyPair,
		Bits:       bits,
		PrivatePEM: privatePEM,
		PublicPEM:  publicPEM,
		Origin:     types.OriginRemote,
	}, nil
}

// Close marks the session closed.
func (s *Source) Close() error {
	s.closed = true
	return nil
}

func (s *Source) generate(ctx context.Context, id, keyType string) error {
	callCtx, cancel := context.WithTimeout(ctx, s.config.timeout())
	defer cancel()

	return s.client.Generate(callCtx, id, keyType)
}

func (s *Source) export(ctx context.Context, id string, format ExportFormat) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.timeout())
	defer cancel()

	return s.client.Export(callCtx, id, format)
}

// keyID builds a role-scoped identifier. The random suffix guarantees
// uniqueness within a run even when two keys are generated in the same
// second.
func (s *Source) keyID(role string) string {
	sanitized := strings.ToLower(strings.ReplaceAll(role, " ", "-"))
	suffix := uuid.NewString()[:8]

	return fmt.Sprintf("%s_%d_%s", sanitized, time.Now().Unix(), suffix)
}

// derivePublicPEM parses an exported private key (PKCS#8 or PKCS#1 PEM) and
// returns the PKIX public PEM plus the modulus size.
func derivePublicPEM(privatePEM []byte) ([]byte, int, error) {
	block, _ := pem.Decode(privatePEM)
	if block == nil {
		return nil, 0, fmt.Errorf("%w: not PEM encoded", ErrExportFormat)
	}

	var rsaKey *rsa.PrivateKey

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		var ok bool
		rsaKey, ok = key.(*rsa.PrivateKey)
		if !ok {
			return nil, 0, fmt.Errorf("%w: not an RSA key", ErrExportFormat)
		}
	} else if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		rsaKey = key
	} else {
		return nil, 0, fmt.Errorf("%w: unparsable private key", ErrExportFormat)
	}

	publicDER, err := x509.MarshalPKIXPublicKey(&rsaKey.PublicKey)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal public key: %w", err)
	}

	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	return publicPEM, rsaKey.N.BitLen(), nil
}
