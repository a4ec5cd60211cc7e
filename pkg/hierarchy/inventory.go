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

import "time"

// InventoryEntry records one appliance-generated key: the logical role, the
// HSM-assigned identifier and when it was generated.
type InventoryEntry struct {
	Role        string    `yaml:"role"`
	KeyID       string    `yaml:"key_id"`
	GeneratedAt time.Time `yaml:"generated_at"`
}

// Inventory is the ordered record of appliance-generated keys. It is
// accumulated during a remote run and serialized once at the end; local
// runs never create one.
type Inventory struct {
	Entries []InventoryEntry `yaml:"keys"`
}

// Add appends an entry, preserving generation order.
func (i *Inventory) Add(role, keyID string) {
	i.Entries = append(i.Entries, InventoryEntry{
		Role:        role,
		KeyID:       keyID,
		GeneratedAt: time.Now().UTC(),
	})
}
