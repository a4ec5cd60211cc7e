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

// Package uefi issues the self-signed certificates for the UEFI Secure Boot
// key hierarchy and converts each into an EFI signature list. All four
// signature lists of a run share one owner GUID, marking them as one
// key-exchange generation.
package uefi

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jeremyhahn/tegra-provision/pkg/types"
)

// CertValidity is the lifetime of every issued certificate.
const CertValidity = 3650 * 24 * time.Hour

// Role names, matching the hierarchy's logical names for the UEFI slots.
const (
	RolePK  = "UEFI-PK"
	RoleKEK = "UEFI-KEK"
	RoleDB1 = "UEFI-DB-1"
	RoleDB2 = "UEFI-DB-2"
)

// SubjectCommonNames maps each UEFI role to its fixed certificate subject.
var SubjectCommonNames = map[string]string{
	RolePK:  "Platform Key",
	RoleKEK: "Key Exchange Key",
	RoleDB1: "Signature Database key",
	RoleDB2: "another Signature Database key",
}

var (
	// ErrUnknownRole is returned for a role with no subject mapping.
	ErrUnknownRole = errors.New("uefi: unknown role")

	// ErrInvalidSigningKey is returned when the key material cannot be
	// parsed as an RSA private key.
	ErrInvalidSigningKey = errors.New("uefi: invalid signing key")

	// ErrSignatureList is returned when signature list construction fails.
	ErrSignatureList = errors.New("uefi: signature list generation failed")
)

// Certificate is a CertificateRecord: one self-signed certificate for a
// UEFI role. Never mutated after creation.
type Certificate struct {
	Role       string
	CommonName string
	DER        []byte
	PEM        []byte
}

// Issuer issues certificates and signature lists for one run. The owner
// GUID is generated exactly once per Issuer and reused for every list.
type Issuer struct {
	guid  uuid.UUID
	lists ListBuilder
	now   func() time.Time
}

// NewIssuer creates an issuer with a fresh run-scoped GUID.
func NewIssuer() *Issuer {
	return &Issuer{
		guid:  uuid.New(),
		lists: &efiListBuilder{},
		now:   time.Now,
	}
}

// NewIssuerWithListBuilder substitutes the signature list collaborator.
// Used by tests.
func NewIssuerWithListBuilder(lists ListBuilder) *Issuer {
	issuer := NewIssuer()
	issuer.lists = lists
	return issuer
}

// GUID returns the run-scoped owner GUID.
func (i *Issuer) GUID() uuid.UUID {
	return i.guid
}

// Issue produces the self-signed certificate for a UEFI role: fixed subject
// per role, valid for 3650 days, SHA-256 signed.
func (i *Issuer) Issue(role string, material *types.KeyMaterial) (*Certificate, error) {
	cn, ok := SubjectCommonNames[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}

	key, err := parseRSAPrivateKey(material.PrivatePEM)
	if err != nil {
		return nil, fmt.Errorf("%w: role %s: %v", ErrInvalidSigningKey, role, err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("%w: role %s: %v", ErrInvalidSigningKey, role, err)
	}

	notBefore := i.now()
	template := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(CertValidity),
		SignatureAlgorithm:    x509.SHA256WithRSA,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("%w: role %s: %v", ErrInvalidSigningKey, role, err)
	}

	return &Certificate{
		Role:       role,
		CommonName: cn,
		DER:        der,
		PEM:        pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
	}, nil
}

// SignatureList wraps a certificate into an EFI signature list with the run
// GUID as owner identifier.
func (i *Issuer) SignatureList(cert *Certificate) ([]byte, error) {
	esl, err := i.lists.Build(i.guid, cert.DER)
	if err != nil {
		return nil, fmt.Errorf("%w: role %s: %v", ErrSignatureList, cert.Role, err)
	}
	return esl, nil
}

func parseRSAPrivateKey(privatePEM []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(privatePEM)
	if block == nil {
		return nil, fmt.Errorf("not PEM encoded")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("not an RSA key")
		}
		return rsaKey, nil
	}

	return x509.ParsePKCS1PrivateKey(block.Bytes)
}
