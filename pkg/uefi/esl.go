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

package uefi

import (
	"github.com/foxboron/go-uefi/efi/signature"
	"github.com/foxboron/go-uefi/efi/util"
	"github.com/google/uuid"
)

// ListBuilder converts a DER certificate plus owner GUID into a binary EFI
// signature list. The contract point exists so tests can substitute the
// conversion step.
type ListBuilder interface {
	Build(owner uuid.UUID, certDER []byte) ([]byte, error)
}

// efiListBuilder builds signature lists with go-uefi.
type efiListBuilder struct{}

func (b *efiListBuilder) Build(owner uuid.UUID, certDER []byte) ([]byte, error) {
	efiGUID := util.StringToGUID(owner.String())

	db := signature.NewSignatureDatabase()
	if err := db.Append(signature.CERT_X509_GUID, *efiGUID, certDER); err != nil {
		return nil, err
	}

	return db.Bytes(), nil
}
