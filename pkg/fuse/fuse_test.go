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

package fuse

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testHash = "0x" + "00112233445566778899aabbccddeeff" +
		"00112233445566778899aabbccddeeff" +
		"00112233445566778899aabbccddeeff" +
		"00112233445566778899aabbccddeeff"
	testSBK = "0x00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	testKEK = "0xffeeddccbbaa99887766554433221100ffeeddccbbaa99887766554433221100"
)

func TestEntries_FixedOrderAndConstants(t *testing.T) {
	d, err := NewDescriptor(testHash, testSBK, testKEK)
	require.NoError(t, err)

	entries := d.Entries()
	require.Len(t, entries, 5)

	assert.Equal(t, "PublicKeyHash", entries[0].Name)
	assert.Equal(t, 64, entries[0].Size)
	assert.Equal(t, testHash, entries[0].Value)

	assert.Equal(t, "SecureBootKey", entries[1].Name)
	assert.Equal(t, 32, entries[1].Size)
	assert.Equal(t, testSBK, entries[1].Value)

	assert.Equal(t, "OemK1", entries[2].Name)
	assert.Equal(t, 32, entries[2].Size)
	assert.Equal(t, testKEK, entries[2].Value)

	assert.Equal(t, "BootSecurityInfo", entries[3].Name)
	assert.Equal(t, 4, entries[3].Size)
	assert.Equal(t, "0x209", entries[3].Value)

	assert.Equal(t, "SecurityMode", entries[4].Name)
	assert.Equal(t, 4, entries[4].Size)
	assert.Equal(t, "0x1", entries[4].Value)
}

func TestNewDescriptor_MissingValues(t *testing.T) {
	tests := []struct {
		name string
		hash string
		sbk  string
		kek  string
	}{
		{"empty hash", "", testSBK, testKEK},
		{"empty sbk", testHash, "", testKEK},
		{"empty kek", testHash, testSBK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDescriptor(tt.hash, tt.sbk, tt.kek)
			assert.ErrorIs(t, err, ErrMissingValue)
		})
	}
}

func TestNewDescriptor_MalformedValues(t *testing.T) {
	tests := []struct {
		name string
		hash string
		sbk  string
		kek  string
	}{
		{"no prefix", strings.TrimPrefix(testHash, "0x"), testSBK, testKEK},
		{"bare prefix", "0x", testSBK, testKEK},
		{"non hex", testHash, "0xzz112233", testKEK},
		{"uppercase hex", testHash, testSBK, "0xFFEE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDescriptor(tt.hash, tt.sbk, tt.kek)
			assert.ErrorIs(t, err, ErrMalformedValue)
		})
	}
}

func TestXML_Structure(t *testing.T) {
	d, err := NewDescriptor(testHash, testSBK, testKEK)
	require.NoError(t, err)

	out, err := d.XML()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(out), xml.Header))
	assert.Contains(t, string(out), `<genericfuse MagicId="0x45535546" version="1.0.0">`)

	var doc struct {
		MagicID string  `xml:"MagicId,attr"`
		Fuses   []Entry `xml:"fuse"`
	}
	require.NoError(t, xml.Unmarshal(out, &doc))
	assert.Equal(t, MagicID, doc.MagicID)
	require.Len(t, doc.Fuses, 5)
	assert.Equal(t, d.Entries(), normalize(doc.Fuses))
}

// normalize clears the XMLName set by unmarshalling so the slices compare.
func normalize(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.XMLName = xml.Name{}
		out[i] = e
	}
	return out
}
