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

package provision

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultHashMatchPhrase tags the fuse-format hash line in the signing
// tool's output. The phrase is a contract point, not a hard assumption; a
// tool update that changes it fails loudly as a collaborator error.
const DefaultHashMatchPhrase = "tegra-fuse format"

// PublicKeyHasher computes the fuse-format public key hash for the
// bootloader signing key.
type PublicKeyHasher interface {
	PublicKeyHash(ctx context.Context, privateKeyPath string) (string, error)
}

// DeviceTreeGenerator produces the UEFI key device-tree overlay from the
// role-mapping record. Only success or failure is consumed.
type DeviceTreeGenerator interface {
	Generate(ctx context.Context, configPath string) error
}

// EKBInputs are the arguments to the encrypted key blob builder.
type EKBInputs struct {
	Chip        string
	OEMKeyPath  string
	SymKeyPath  string
	Sym2KeyPath string
	AuthKeyPath string
	OutputPath  string
}

// EKBBuilder produces the encrypted key blob image consumed by the trusted
// OS at boot.
type EKBBuilder interface {
	Build(ctx context.Context, inputs EKBInputs) error
}

// FuseHashTool shells out to the signing tool to compute the public key
// hash. The tool writes the public key and hash files and prints a line
// containing MatchPhrase whose trailing token is the hash value.
type FuseHashTool struct {
	// Command is the signing tool executable.
	Command string

	// MatchPhrase selects the output line carrying the hash. Defaults to
	// DefaultHashMatchPhrase when empty.
	MatchPhrase string

	// OutputDir receives the tool's public key and hash files.
	OutputDir string
}

func (t *FuseHashTool) matchPhrase() string {
	if t.MatchPhrase == "" {
		return DefaultHashMatchPhrase
	}
	return t.MatchPhrase
}

// PublicKeyHash runs the signing tool and extracts the fuse-format hash
// from its output.
func (t *FuseHashTool) PublicKeyHash(ctx context.Context, privateKeyPath string) (string, error) {
	pubOut := filepath.Join(t.OutputDir, "rsa_pub.key")
	hashOut := filepath.Join(t.OutputDir, "rsa_hash.key")

	cmd := exec.CommandContext(ctx, t.Command,
		"--key", privateKeyPath,
		"--pubkeyhash", pubOut, hashOut)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v: %s", ErrCollaborator, t.Command, err, firstLine(out))
	}

	hash, err := trailingToken(string(out), t.matchPhrase())
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrCollaborator, t.Command, err)
	}

	return hash, nil
}

// DeviceTreeTool shells out to the UEFI device-tree generator.
type DeviceTreeTool struct {
	Command string
}

// Generate runs the generator against the role-mapping record.
func (t *DeviceTreeTool) Generate(ctx context.Context, configPath string) error {
	cmd := exec.CommandContext(ctx, t.Command, configPath)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrCollaborator, t.Command, err, firstLine(out))
	}

	return nil
}

// EKBTool shells out to the encrypted key blob builder.
type EKBTool struct {
	Command string
}

// Build runs the blob builder with the chip id, OEM wrapping key and the
// three symmetric key files.
func (t *EKBTool) Build(ctx context.Context, inputs EKBInputs) error {
	cmd := exec.CommandContext(ctx, t.Command,
		"-chip", inputs.Chip,
		"-oem_k1_key", inputs.OEMKeyPath,
		"-in_sym_key", inputs.SymKeyPath,
		"-in_sym_key2", inputs.Sym2KeyPath,
		"-in_auth_key", inputs.AuthKeyPath,
		"-out", inputs.OutputPath)

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrCollaborator, t.Command, err, firstLine(out))
	}

	return nil
}

// trailingToken returns the last whitespace-separated token of the first
// line containing phrase. Text scraping of tool output is a fragility
// hotspot, so every malformed case is an explicit error.
func trailingToken(output, phrase string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, phrase) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return "", fmt.Errorf("matched line %q carries no tokens", line)
		}
		token := fields[len(fields)-1]
		if strings.HasSuffix(token, ":") || token == phrase {
			return "", fmt.Errorf("matched line %q carries no value after the tag", line)
		}
		return token, nil
	}

	return "", fmt.Errorf("no output line contains %q", phrase)
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
