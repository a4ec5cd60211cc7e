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

// Package types defines the key material model shared by every component of
// the provisioning pipeline.
package types

import (
	"errors"
	"fmt"
)

// KeyKind identifies the class of key material.
type KeyKind string

const (
	// KindRSAKeyPair is an RSA private/public key pair, PEM encoded.
	KindRSAKeyPair KeyKind = "rsa-keypair"

	// KindAES256 is a 256-bit symmetric key held as raw bytes.
	KindAES256 KeyKind = "aes-256"

	// KindAES128 is a 128-bit symmetric key held as raw bytes.
	KindAES128 KeyKind = "aes-128"
)

// Origin identifies where key material was generated.
type Origin string

const (
	// OriginLocal marks keys drawn from the local software CSPRNG.
	OriginLocal Origin = "local"

	// OriginRemote marks keys generated on a networked HSM appliance and
	// exported to the local host.
	OriginRemote Origin = "remote"
)

// RSA modulus sizes used by the key hierarchy.
const (
	RSAKeySize2048 = 2048
	RSAKeySize3072 = 3072
)

// Symmetric key sizes used by the key hierarchy.
const (
	AESKeySize128 = 128
	AESKeySize256 = 256
)

var (
	// ErrInvalidKeyKind is returned when a KeyKind is unknown or does not
	// match the requested operation.
	ErrInvalidKeyKind = errors.New("types: invalid key kind")

	// ErrKeyLengthMismatch is returned when raw key material does not match
	// the declared bit length.
	ErrKeyLengthMismatch = errors.New("types: key length does not match declared bit length")

	// ErrMissingKeyMaterial is returned when a KeyMaterial carries neither
	// raw bytes nor a PEM key pair.
	ErrMissingKeyMaterial = errors.New("types: missing key material")
)

// IsSymmetric returns true for the AES kinds.
func (k KeyKind) IsSymmetric() bool {
	return k == KindAES256 || k == KindAES128
}

// Bits returns the key size in bits for symmetric kinds, zero otherwise.
// RSA key pairs carry their modulus size on the KeyMaterial instead.
func (k KeyKind) Bits() int {
	switch k {
	case KindAES256:
		return 256
	case KindAES128:
		return 128
	default:
		return 0
	}
}

// String returns the string representation of the KeyKind.
func (k KeyKind) String() string {
	return string(k)
}

// KeyMaterial is a single generated key. Symmetric keys carry Raw;
// asymmetric keys carry the PEM encoded pair. The struct is owned by the
// caller that requested generation and is never persisted except through the
// artifact writer.
type KeyMaterial struct {
	// ID is the generator-assigned identifier. For local keys this is the
	// role name; for remote keys it is the HSM-assigned key identifier.
	ID string

	// Kind is the class of key material.
	Kind KeyKind

	// Bits is the key size in bits (modulus size for RSA).
	Bits int

	// Raw holds symmetric key bytes. Nil for asymmetric keys.
	Raw []byte

	// PrivatePEM holds the PEM encoded private key for asymmetric keys.
	PrivatePEM []byte

	// PublicPEM holds the PEM encoded public key for asymmetric keys.
	PublicPEM []byte

	// Origin records which key source produced the material.
	Origin Origin
}

// Validate enforces the key material invariants: raw byte length matches the
// declared bit length for symmetric keys, and RSA pairs carry both PEM
// halves with a supported modulus size.
func (m *KeyMaterial) Validate() error {
	switch m.Kind {
	case KindAES256, KindAES128:
		if m.Bits != m.Kind.Bits() {
			return fmt.Errorf("%w: kind %s declares %d bits", ErrInvalidKeyKind, m.Kind, m.Bits)
		}
		if len(m.Raw) == 0 {
			return fmt.Errorf("%w: %s", ErrMissingKeyMaterial, m.ID)
		}
		if len(m.Raw) != m.Bits/8 {
			return fmt.Errorf("%w: %s has %d bytes, want %d", ErrKeyLengthMismatch, m.ID, len(m.Raw), m.Bits/8)
		}
	case KindRSAKeyPair:
		if m.Bits != RSAKeySize2048 && m.Bits != RSAKeySize3072 {
			return fmt.Errorf("%w: unsupported RSA modulus %d", ErrInvalidKeyKind, m.Bits)
		}
		if len(m.PrivatePEM) == 0 || len(m.PublicPEM) == 0 {
			return fmt.Errorf("%w: %s", ErrMissingKeyMaterial, m.ID)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKeyKind, m.Kind)
	}
	return nil
}
