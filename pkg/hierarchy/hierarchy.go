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

// Package hierarchy materializes the full Tegra key hierarchy in a fixed
// order through a keysource.Source, deriving every textual encoding each
// downstream consumer needs as soon as a symmetric key is generated.
package hierarchy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeremyhahn/tegra-provision/pkg/encode"
	"github.com/jeremyhahn/tegra-provision/pkg/keysource"
	"github.com/jeremyhahn/tegra-provision/pkg/logging"
	"github.com/jeremyhahn/tegra-provision/pkg/types"
)

// ErrUnknownRole is returned when a Set lookup names a role that is not
// part of the hierarchy.
var ErrUnknownRole = errors.New("hierarchy: unknown role")

// Key is one materialized slot of the hierarchy: the generated material
// plus, for symmetric keys, the three encodings.
type Key struct {
	Role     Role
	Material *types.KeyMaterial

	// WordList, Prefixed and Bare are the three encodings of a symmetric
	// key. Empty for RSA key pairs.
	WordList string
	Prefixed string
	Bare     string
}

// Set is the complete, internally consistent key hierarchy for one run.
type Set struct {
	Keys []*Key

	// Inventory records appliance key identifiers. Nil for local runs.
	Inventory *Inventory

	byRole map[string]*Key
}

// Get returns the key for a logical role name.
func (s *Set) Get(role string) (*Key, error) {
	key, ok := s.byRole[role]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	return key, nil
}

// Builder drives generation of the hierarchy in the fixed Order.
type Builder struct {
	source keysource.Source
	logger *logging.Logger
}

// NewBuilder creates a hierarchy builder over the given key source.
func NewBuilder(source keysource.Source, logger *logging.Logger) *Builder {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Builder{
		source: source,
		logger: logger,
	}
}

// Build generates every key of the hierarchy, in order, short-circuiting on
// the first failure. No partial key set is returned; downstream artifacts
// require the full set to be internally consistent.
func (b *Builder) Build(ctx context.Context) (*Set, error) {
	set := &Set{
		byRole: make(map[string]*Key, len(Order)),
	}
	if b.source.Origin() == types.OriginRemote {
		set.Inventory = &Inventory{}
	}

	for _, role := range Order {
		key, err := b.build(ctx, role)
		if err != nil {
			return nil, err
		}

		set.Keys = append(set.Keys, key)
		set.byRole[role.Name] = key

		if set.Inventory != nil {
			set.Inventory.Add(role.Name, key.Material.ID)
		}

		b.logger.Debug("generated key", "role", role.Name, "id", key.Material.ID, "bits", role.Bits)
	}

	return set, nil
}

func (b *Builder) build(ctx context.Context, role Role) (*Key, error) {
	if role.Kind.IsSymmetric() {
		material, err := b.source.GenerateSymmetric(ctx, role.Bits, role.Name)
		if err != nil {
			return nil, err
		}
		if err := material.Validate(); err != nil {
			return nil, fmt.Errorf("role %s: %w", role.Name, err)
		}

		key := &Key{Role: role, Material: material}

		// Different consumers need different forms, so all three encodings
		// are derived immediately.
		if key.WordList, err = encode.WordList(material.Raw); err != nil {
			return nil, fmt.Errorf("role %s: %w", role.Name, err)
		}
		if key.Prefixed, err = encode.ContinuousPrefixed(material.Raw); err != nil {
			return nil, fmt.Errorf("role %s: %w", role.Name, err)
		}
		if key.Bare, err = encode.ContinuousBare(material.Raw); err != nil {
			return nil, fmt.Errorf("role %s: %w", role.Name, err)
		}

		return key, nil
	}

	material, err := b.source.GenerateAsymmetric(ctx, role.Bits, role.Name)
	if err != nil {
		return nil, err
	}
	if err := material.Validate(); err != nil {
		return nil, fmt.Errorf("role %s: %w", role.Name, err)
	}

	return &Key{Role: role, Material: material}, nil
}
