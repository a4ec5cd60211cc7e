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

package hierarchy

import "github.com/jeremyhahn/tegra-provision/pkg/types"

// Logical role names. These identify keys in logs, errors and the remote
// key inventory.
const (
	RoleRSA     = "RSA"
	RoleSBK     = "SBK"
	RoleKEK     = "KEK"
	RoleEKB     = "EKB"
	RoleEKB2    = "EKB-2"
	RoleEKBAuth = "EKB-AUTH"
	RoleUEFIPK  = "UEFI-PK"
	RoleUEFIKEK = "UEFI-KEK"
	RoleUEFIDB1 = "UEFI-DB-1"
	RoleUEFIDB2 = "UEFI-DB-2"
)

// Role describes one slot in the key hierarchy.
type Role struct {
	// Name is the logical role name.
	Name string

	// File is the base name used for this role's artifact files.
	File string

	// Kind is the class of key to generate.
	Kind types.KeyKind

	// Bits is the key size (modulus size for RSA).
	Bits int
}

// Order is the fixed generation sequence. The order matters for the key
// inventory record and identifier uniqueness, not for any cryptographic
// dependency.
var Order = []Role{
	{Name: RoleRSA, File: "rsa", Kind: types.KindRSAKeyPair, Bits: types.RSAKeySize3072},
	{Name: RoleSBK, File: "sbk", Kind: types.KindAES256, Bits: types.AESKeySize256},
	{Name: RoleKEK, File: "oem_k1", Kind: types.KindAES256, Bits: types.AESKeySize256},
	{Name: RoleEKB, File: "sym", Kind: types.KindAES256, Bits: types.AESKeySize256},
	{Name: RoleEKB2, File: "sym2", Kind: types.KindAES128, Bits: types.AESKeySize128},
	{Name: RoleEKBAuth, File: "auth", Kind: types.KindAES128, Bits: types.AESKeySize128},
	{Name: RoleUEFIPK, File: "PK", Kind: types.KindRSAKeyPair, Bits: types.RSAKeySize2048},
	{Name: RoleUEFIKEK, File: "KEK", Kind: types.KindRSAKeyPair, Bits: types.RSAKeySize2048},
	{Name: RoleUEFIDB1, File: "db_1", Kind: types.KindRSAKeyPair, Bits: types.RSAKeySize2048},
	{Name: RoleUEFIDB2, File: "db_2", Kind: types.KindRSAKeyPair, Bits: types.RSAKeySize2048},
}

// UEFIRoles lists the roles that receive a certificate and signature list.
var UEFIRoles = []string{RoleUEFIPK, RoleUEFIKEK, RoleUEFIDB1, RoleUEFIDB2}

// RoleByName looks up a role definition by its logical name.
func RoleByName(name string) (Role, bool) {
	for _, role := range Order {
		if role.Name == name {
			return role, true
		}
	}
	return Role{}, false
}
