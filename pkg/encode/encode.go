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

// Package encode renders raw symmetric key bytes into the textual encodings
// consumed by the fuse burning and key blob tooling. A formatting bug here
// produces a wrong fuse value that bricks hardware once burned, so the
// round-trip invariant (Decode of any encoding reproduces the input) is the
// primary contract of this package.
package encode

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const wordBytes = 4

var (
	// ErrInvalidLength is returned when the input is not a 128-bit or
	// 256-bit key.
	ErrInvalidLength = errors.New("encode: raw key must be 16 or 32 bytes")

	// ErrMalformedEncoding is returned when a string cannot be decoded back
	// to raw bytes.
	ErrMalformedEncoding = errors.New("encode: malformed key encoding")
)

func checkLength(raw []byte) error {
	if len(raw) != 16 && len(raw) != 32 {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidLength, len(raw))
	}
	return nil
}

// WordList renders raw bytes as space-separated 4-byte groups in original
// byte order, each group prefixed with "0x". A 256-bit key always yields
// exactly 8 groups of 8 lowercase hex characters.
func WordList(raw []byte) (string, error) {
	if err := checkLength(raw); err != nil {
		return "", err
	}

	words := make([]string, 0, len(raw)/wordBytes)
	for i := 0; i < len(raw); i += wordBytes {
		words = append(words, "0x"+hex.EncodeToString(raw[i:i+wordBytes]))
	}

	return strings.Join(words, " "), nil
}

// ContinuousPrefixed renders raw bytes as a single "0x"-prefixed lowercase
// hex string.
func ContinuousPrefixed(raw []byte) (string, error) {
	if err := checkLength(raw); err != nil {
		return "", err
	}

	return "0x" + hex.EncodeToString(raw), nil
}

// ContinuousBare renders raw bytes as a lowercase hex string with no prefix.
func ContinuousBare(raw []byte) (string, error) {
	if err := checkLength(raw); err != nil {
		return "", err
	}

	return hex.EncodeToString(raw), nil
}

// Decode reverses any of the three encodings by stripping "0x" prefixes and
// whitespace before hex decoding.
func Decode(s string) ([]byte, error) {
	var b strings.Builder

	for _, token := range strings.Fields(s) {
		b.WriteString(strings.TrimPrefix(token, "0x"))
	}

	raw, err := hex.DecodeString(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformedEncoding)
	}

	return raw, nil
}
