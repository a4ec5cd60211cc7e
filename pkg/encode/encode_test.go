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

package encode

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	raw, err := hex.DecodeString(s)
	require.NoError(t, err)
	return raw
}

func TestWordList_KnownVector(t *testing.T) {
	raw := mustHex(t, "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")

	got, err := WordList(raw)
	require.NoError(t, err)
	assert.Equal(t,
		"0x00112233 0x44556677 0x8899aabb 0xccddeeff 0x00112233 0x44556677 0x8899aabb 0xccddeeff",
		got)
}

func TestContinuousPrefixed_KnownVector(t *testing.T) {
	raw := mustHex(t, "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff")

	got, err := ContinuousPrefixed(raw)
	require.NoError(t, err)
	assert.Equal(t, "0x00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff", got)
}

func TestContinuousBare_KnownVector(t *testing.T) {
	raw := mustHex(t, "f0e1d2c3b4a5968778695a4b3c2d1e0f")

	got, err := ContinuousBare(raw)
	require.NoError(t, err)
	assert.Equal(t, "f0e1d2c3b4a5968778695a4b3c2d1e0f", got)
}

func TestWordList_Shape256(t *testing.T) {
	raw := make([]byte, 32)
	_, err := rand.Read(raw)
	require.NoError(t, err)

	got, err := WordList(raw)
	require.NoError(t, err)

	tokens := strings.Split(got, " ")
	require.Len(t, tokens, 8)
	for _, token := range tokens {
		assert.Len(t, token, 10)
		assert.True(t, strings.HasPrefix(token, "0x"))
		assert.Equal(t, strings.ToLower(token), token)
	}
}

func TestWordList_Shape128(t *testing.T) {
	raw := make([]byte, 16)
	_, err := rand.Read(raw)
	require.NoError(t, err)

	got, err := WordList(raw)
	require.NoError(t, err)
	require.Len(t, strings.Split(got, " "), 4)
}

func TestRoundTrip_AllEncodings(t *testing.T) {
	for _, size := range []int{16, 32} {
		for trial := 0; trial < 256; trial++ {
			raw := make([]byte, size)
			_, err := rand.Read(raw)
			require.NoError(t, err)

			wl, err := WordList(raw)
			require.NoError(t, err)
			cp, err := ContinuousPrefixed(raw)
			require.NoError(t, err)
			cb, err := ContinuousBare(raw)
			require.NoError(t, err)

			for _, enc := range []string{wl, cp, cb} {
				decoded, err := Decode(enc)
				require.NoError(t, err)
				require.True(t, bytes.Equal(raw, decoded),
					"encoding %q did not round-trip for %x", enc, raw)
			}
		}
	}
}

func TestRoundTrip_EdgePatterns(t *testing.T) {
	patterns := [][]byte{
		make([]byte, 32),
		bytes.Repeat([]byte{0xff}, 32),
		bytes.Repeat([]byte{0x00, 0xff}, 16),
		mustHex(t, "0000000000000000000000000000000000000000000000000000000000000001"),
		mustHex(t, "8000000000000000000000000000000000000000000000000000000000000000"),
		make([]byte, 16),
		bytes.Repeat([]byte{0xff}, 16),
	}

	for _, raw := range patterns {
		wl, err := WordList(raw)
		require.NoError(t, err)
		decoded, err := Decode(wl)
		require.NoError(t, err)
		assert.Equal(t, raw, decoded)
	}
}

func TestInvalidLengths(t *testing.T) {
	for _, size := range []int{0, 1, 15, 17, 24, 31, 33, 64} {
		raw := make([]byte, size)

		_, err := WordList(raw)
		assert.ErrorIs(t, err, ErrInvalidLength, "WordList size %d", size)

		_, err = ContinuousPrefixed(raw)
		assert.ErrorIs(t, err, ErrInvalidLength, "ContinuousPrefixed size %d", size)

		_, err = ContinuousBare(raw)
		assert.ErrorIs(t, err, ErrInvalidLength, "ContinuousBare size %d", size)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []string{
		"",
		"0x",
		"zzzz",
		"0x0011223",
		"0x00112233 0xgg556677",
	}

	for _, input := range tests {
		_, err := Decode(input)
		assert.ErrorIs(t, err, ErrMalformedEncoding, "input %q", input)
	}
}
