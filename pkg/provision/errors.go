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

import "errors"

var (
	// ErrPrecondition is returned when a run cannot start: missing remote
	// credentials or pre-existing output files without the force flag.
	ErrPrecondition = errors.New("provision: precondition failed")

	// ErrCollaborator is returned when an external tool exits non-zero or
	// produces output the workflow cannot parse.
	ErrCollaborator = errors.New("provision: external tool failed")
)
