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

// Package artifact persists the provisioning outputs. Every write is a
// whole-file replacement through a temporary path plus rename, so a failed
// run never leaves a half-written artifact that looks complete.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeremyhahn/tegra-provision/pkg/fuse"
	"github.com/jeremyhahn/tegra-provision/pkg/hierarchy"
	"github.com/jeremyhahn/tegra-provision/pkg/logging"
	"github.com/jeremyhahn/tegra-provision/pkg/uefi"
	"gopkg.in/yaml.v3"
)

// Fixed artifact file names.
const (
	UEFIConfigName = "uefi_keys.conf"
	FuseXMLName    = "fuse.xml"
	InventoryName  = "hsm_key_inventory.yaml"
)

// Suffixes for the per-key encoded files.
const (
	suffixWordList = ".key"
	suffixBare     = "_hex.key"
	suffixPrefixed = "_0x.key"
)

// ErrWrite is returned when an artifact cannot be persisted.
var ErrWrite = errors.New("artifact: write failed")

// Writer persists artifacts under a single output directory.
type Writer struct {
	dir    string
	logger *logging.Logger
}

// NewWriter creates a writer rooted at dir, creating it if necessary.
func NewWriter(dir string, logger *logging.Logger) (*Writer, error) {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return &Writer{dir: dir, logger: logger}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns the absolute path of a named artifact.
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// KeyFileNames returns every file name WriteKeySet would produce for the
// hierarchy, used for the pre-run overwrite check.
func KeyFileNames() []string {
	var names []string
	for _, role := range hierarchy.Order {
		if role.Kind.IsSymmetric() {
			names = append(names,
				role.File+suffixWordList,
				role.File+suffixBare,
				role.File+suffixPrefixed)
			continue
		}
		if role.Name == hierarchy.RoleRSA {
			names = append(names, role.File+"_priv.pem", role.File+"_pub.pem")
			continue
		}
		names = append(names, role.File+".key", role.File+".crt", role.File+".esl")
	}
	return append(names, UEFIConfigName, FuseXMLName)
}

// Existing returns the subset of names already present in the output
// directory.
func (w *Writer) Existing(names []string) []string {
	var found []string
	for _, name := range names {
		if _, err := os.Stat(w.Path(name)); err == nil {
			found = append(found, name)
		}
	}
	return found
}

// WriteKeySet persists the per-key files: for each symmetric key one file
// per encoding, for the bootloader signing key the PEM pair, and for the
// UEFI keys the private key PEM under the name the role-mapping record
// references.
func (w *Writer) WriteKeySet(set *hierarchy.Set) error {
	for _, key := range set.Keys {
		switch {
		case key.Role.Kind.IsSymmetric():
			files := map[string]string{
				key.Role.File + suffixWordList: key.WordList + "\n",
				key.Role.File + suffixBare:     key.Bare + "\n",
				key.Role.File + suffixPrefixed: key.Prefixed + "\n",
			}
			for name, contents := range files {
				if err := w.write(name, []byte(contents)); err != nil {
					return err
				}
			}
		case key.Role.Name == hierarchy.RoleRSA:
			if err := w.write(key.Role.File+"_priv.pem", key.Material.PrivatePEM); err != nil {
				return err
			}
			if err := w.write(key.Role.File+"_pub.pem", key.Material.PublicPEM); err != nil {
				return err
			}
		default:
			if err := w.write(key.Role.File+".key", key.Material.PrivatePEM); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteUEFI persists the certificate and signature list for each UEFI role.
// Certificates and lists are keyed by logical role name.
func (w *Writer) WriteUEFI(certs map[string]*uefi.Certificate, lists map[string][]byte) error {
	for _, name := range hierarchy.UEFIRoles {
		role, ok := hierarchy.RoleByName(name)
		if !ok {
			return fmt.Errorf("%w: unknown role %s", ErrWrite, name)
		}

		cert, ok := certs[name]
		if !ok {
			return fmt.Errorf("%w: missing certificate for %s", ErrWrite, name)
		}
		if err := w.write(role.File+".crt", cert.PEM); err != nil {
			return err
		}

		esl, ok := lists[name]
		if !ok {
			return fmt.Errorf("%w: missing signature list for %s", ErrWrite, name)
		}
		if err := w.write(role.File+".esl", esl); err != nil {
			return err
		}
	}
	return nil
}

// WriteUEFIConfig renders the role-mapping record consumed by the
// device-tree generator: which key, certificate and signature list files
// fill which UEFI role slots.
func (w *Writer) WriteUEFIConfig() error {
	var b strings.Builder

	b.WriteString("UEFI_DB_1_KEY_FILE=\"db_1.key\";\n")
	b.WriteString("UEFI_DB_1_CERT_FILE=\"db_1.crt\";\n")
	b.WriteString("UEFI_DEFAULT_PK_ESL_FILE=\"PK.esl\";\n")
	b.WriteString("UEFI_DEFAULT_KEK_ESL_0_FILE=\"KEK.esl\";\n")
	b.WriteString("UEFI_DEFAULT_DB_ESL_0_FILE=\"db_1.esl\";\n")
	b.WriteString("UEFI_DEFAULT_DB_ESL_1_FILE=\"db_2.esl\";\n")

	return w.write(UEFIConfigName, []byte(b.String()))
}

// WriteFuseXML renders and persists the fuse-programming descriptor.
func (w *Writer) WriteFuseXML(descriptor *fuse.Descriptor) error {
	body, err := descriptor.XML()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return w.write(FuseXMLName, body)
}

// WriteInventory persists the remote key inventory record.
func (w *Writer) WriteInventory(inventory *hierarchy.Inventory) error {
	body, err := yaml.Marshal(inventory)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return w.write(InventoryName, body)
}

// write persists data to a temporary file in the output directory and
// atomically renames it into place.
func (w *Writer) write(name string, data []byte) error {
	target := w.Path(name)

	tmp, err := os.CreateTemp(w.dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrWrite, name, err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrWrite, name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrWrite, name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %v", ErrWrite, name, err)
	}

	w.logger.Debug("wrote artifact", "path", target, "bytes", len(data))

	return nil
}
