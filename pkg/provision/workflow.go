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

// Package provision drives the end-to-end key provisioning run: generate
// the hierarchy, issue the UEFI certificates, persist artifacts and invoke
// the external signing, device-tree and key-blob tools. The run is a single
// linear pipeline that aborts on first failure; external calls are treated
// as non-idempotent, so nothing is retried.
package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeremyhahn/tegra-provision/pkg/artifact"
	"github.com/jeremyhahn/tegra-provision/pkg/fuse"
	"github.com/jeremyhahn/tegra-provision/pkg/hierarchy"
	"github.com/jeremyhahn/tegra-provision/pkg/keysource"
	"github.com/jeremyhahn/tegra-provision/pkg/logging"
	"github.com/jeremyhahn/tegra-provision/pkg/uefi"
)

// State tracks workflow progress for error reporting.
type State string

const (
	StateInit                   State = "init"
	StateSourceReady            State = "source-ready"
	StateKeysGenerated          State = "keys-generated"
	StateCertificatesIssued     State = "certificates-issued"
	StateExternalArtifactsBuilt State = "external-artifacts-built"
	StateDone                   State = "done"
	StateAborted                State = "aborted"
)

// DefaultChip is the chip identifier passed to the key blob builder.
const DefaultChip = "t234"

// Params wires the workflow's collaborators.
type Params struct {
	// Source provides key material. The session must already be open.
	Source keysource.Source

	// Writer persists artifacts.
	Writer *artifact.Writer

	// Issuer issues UEFI certificates and signature lists.
	Issuer *uefi.Issuer

	// Hasher computes the fuse-format public key hash.
	Hasher PublicKeyHasher

	// DeviceTree generates the UEFI key overlay.
	DeviceTree DeviceTreeGenerator

	// EKB builds the encrypted key blob image.
	EKB EKBBuilder

	// Chip is the chip identifier. Defaults to DefaultChip.
	Chip string

	// Force overwrites pre-existing output files.
	Force bool

	Logger *logging.Logger
}

// Workflow is the run state machine. One instance drives exactly one run.
type Workflow struct {
	params Params
	state  State
}

// New validates the wiring and returns a workflow in the Init state.
func New(params Params) (*Workflow, error) {
	if params.Source == nil || params.Writer == nil || params.Issuer == nil ||
		params.Hasher == nil || params.DeviceTree == nil || params.EKB == nil {
		return nil, fmt.Errorf("%w: incomplete workflow wiring", ErrPrecondition)
	}
	if params.Chip == "" {
		params.Chip = DefaultChip
	}
	if params.Logger == nil {
		params.Logger = logging.DefaultLogger()
	}

	return &Workflow{
		params: params,
		state:  StateInit,
	}, nil
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	return w.state
}

// Run executes the provisioning pipeline. On failure the workflow aborts
// immediately without cleaning up already-written files; the operator must
// clear state explicitly before retrying.
func (w *Workflow) Run(ctx context.Context) error {
	p := w.params

	if !p.Force {
		if existing := p.Writer.Existing(artifact.KeyFileNames()); len(existing) > 0 {
			return w.abort("precondition", "",
				fmt.Errorf("%w: output files already exist in %s: %s (re-run with force to overwrite)",
					ErrPrecondition, p.Writer.Dir(), strings.Join(existing, ", ")))
		}
	}

	w.transition(StateSourceReady)

	set, err := hierarchy.NewBuilder(p.Source, p.Logger).Build(ctx)
	if err != nil {
		return w.abort("key-generation", "", err)
	}
	w.transition(StateKeysGenerated)

	certs := make(map[string]*uefi.Certificate, len(hierarchy.UEFIRoles))
	lists := make(map[string][]byte, len(hierarchy.UEFIRoles))
	for _, role := range hierarchy.UEFIRoles {
		key, err := set.Get(role)
		if err != nil {
			return w.abort("certificate-issuance", role, err)
		}

		cert, err := p.Issuer.Issue(role, key.Material)
		if err != nil {
			return w.abort("certificate-issuance", role, err)
		}
		certs[role] = cert

		esl, err := p.Issuer.SignatureList(cert)
		if err != nil {
			return w.abort("signature-list", role, err)
		}
		lists[role] = esl
	}
	w.transition(StateCertificatesIssued)

	if err := p.Writer.WriteKeySet(set); err != nil {
		return w.abort("artifact-write", "", err)
	}
	if err := p.Writer.WriteUEFI(certs, lists); err != nil {
		return w.abort("artifact-write", "", err)
	}
	if err := p.Writer.WriteUEFIConfig(); err != nil {
		return w.abort("artifact-write", "", err)
	}

	hash, err := p.Hasher.PublicKeyHash(ctx, p.Writer.Path("rsa_priv.pem"))
	if err != nil {
		return w.abort("public-key-hash", hierarchy.RoleRSA, err)
	}

	if err := p.DeviceTree.Generate(ctx, p.Writer.Path(artifact.UEFIConfigName)); err != nil {
		return w.abort("device-tree", "", err)
	}

	if err := p.EKB.Build(ctx, EKBInputs{
		Chip:        p.Chip,
		OEMKeyPath:  p.Writer.Path("oem_k1_hex.key"),
		SymKeyPath:  p.Writer.Path("sym_hex.key"),
		Sym2KeyPath: p.Writer.Path("sym2_hex.key"),
		AuthKeyPath: p.Writer.Path("auth_hex.key"),
		OutputPath:  p.Writer.Path("eks_" + p.Chip + ".img"),
	}); err != nil {
		return w.abort("ekb-build", "", err)
	}
	w.transition(StateExternalArtifactsBuilt)

	sbk, err := set.Get(hierarchy.RoleSBK)
	if err != nil {
		return w.abort("fuse-descriptor", hierarchy.RoleSBK, err)
	}
	kek, err := set.Get(hierarchy.RoleKEK)
	if err != nil {
		return w.abort("fuse-descriptor", hierarchy.RoleKEK, err)
	}

	descriptor, err := fuse.NewDescriptor(hash, sbk.Prefixed, kek.Prefixed)
	if err != nil {
		return w.abort("fuse-descriptor", "", err)
	}
	if err := p.Writer.WriteFuseXML(descriptor); err != nil {
		return w.abort("artifact-write", "", err)
	}

	if set.Inventory != nil {
		if err := p.Writer.WriteInventory(set.Inventory); err != nil {
			return w.abort("artifact-write", "", err)
		}
	}

	w.transition(StateDone)
	p.Logger.Info("provisioning complete", "dir", p.Writer.Dir(), "guid", p.Issuer.GUID().String())

	return nil
}

func (w *Workflow) transition(next State) {
	w.params.Logger.Debug("workflow state", "from", string(w.state), "to", string(next))
	w.state = next
}

// abort moves the workflow to the terminal Aborted state and wraps the
// failure with the stage and role so the operator knows exactly what to
// inspect before re-running.
func (w *Workflow) abort(stage, role string, err error) error {
	w.state = StateAborted

	if role != "" {
		err = fmt.Errorf("stage %s, role %s: %w", stage, role, err)
	} else {
		err = fmt.Errorf("stage %s: %w", stage, err)
	}

	w.params.Logger.Error(err)

	return err
}
