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

// Package fuse models the fuse-programming XML descriptor. The descriptor
// defines values burned into one-time-programmable fuses; entry order and
// the two constant security fields are fixed.
package fuse

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// Fixed values burned alongside the key material.
const (
	// BootSecurityInfoValue enables PKC boot authentication with SBK
	// encryption on t234-class fuses.
	BootSecurityInfoValue = "0x209"

	// SecurityModeValue locks the fuse configuration.
	SecurityModeValue = "0x1"

	// MagicID identifies a generic fuse descriptor to the burning tool.
	MagicID = "0x45535546"

	descriptorVersion = "1.0.0"
)

var (
	// ErrMissingValue is returned when one of the three key-derived fuse
	// values is empty.
	ErrMissingValue = errors.New("fuse: missing fuse value")

	// ErrMalformedValue is returned when a key-derived fuse value is not a
	// 0x-prefixed hex string.
	ErrMalformedValue = errors.New("fuse: malformed fuse value")
)

// Entry is a single fuse in the descriptor.
type Entry struct {
	XMLName xml.Name `xml:"fuse"`
	Name    string   `xml:"name,attr"`
	Size    int      `xml:"size,attr"`
	Value   string   `xml:"value,attr"`
}

// Descriptor holds the three key-derived fuse values, each in
// continuous-prefixed encoding.
type Descriptor struct {
	PublicKeyHash string
	SecureBootKey string
	OemK1         string
}

type descriptorXML struct {
	XMLName xml.Name `xml:"genericfuse"`
	MagicID string   `xml:"MagicId,attr"`
	Version string   `xml:"version,attr"`
	Fuses   []Entry  `xml:"fuse"`
}

// NewDescriptor validates the three key-derived values. The descriptor is
// not valid if any of them is empty or malformed.
func NewDescriptor(publicKeyHash, secureBootKey, oemK1 string) (*Descriptor, error) {
	values := []struct {
		name  string
		value string
	}{
		{"PublicKeyHash", publicKeyHash},
		{"SecureBootKey", secureBootKey},
		{"OemK1", oemK1},
	}

	for _, v := range values {
		if v.value == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingValue, v.name)
		}
		if err := checkHexValue(v.value); err != nil {
			return nil, fmt.Errorf("%w: %s %q", ErrMalformedValue, v.name, v.value)
		}
	}

	return &Descriptor{
		PublicKeyHash: publicKeyHash,
		SecureBootKey: secureBootKey,
		OemK1:         oemK1,
	}, nil
}

// Entries returns the fuse entries in their fixed order.
func (d *Descriptor) Entries() []Entry {
	return []Entry{
		{Name: "PublicKeyHash", Size: 64, Value: d.PublicKeyHash},
		{Name: "SecureBootKey", Size: 32, Value: d.SecureBootKey},
		{Name: "OemK1", Size: 32, Value: d.OemK1},
		{Name: "BootSecurityInfo", Size: 4, Value: BootSecurityInfoValue},
		{Name: "SecurityMode", Size: 4, Value: SecurityModeValue},
	}
}

// XML renders the descriptor as the fuse-programming XML document.
func (d *Descriptor) XML() ([]byte, error) {
	doc := descriptorXML{
		MagicID: MagicID,
		Version: descriptorVersion,
		Fuses:   d.Entries(),
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("fuse: failed to render descriptor: %w", err)
	}

	return append([]byte(xml.Header), append(body, '\n')...), nil
}

func checkHexValue(v string) error {
	if !strings.HasPrefix(v, "0x") || len(v) == 2 {
		return ErrMalformedValue
	}
	for _, r := range v[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return ErrMalformedValue
		}
	}
	return nil
}
