// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import "errors"

// Sentinel errors for graph lifecycle violations.
//
// These errors can be checked with errors.Is(). Lifecycle violations
// indicate an orchestration bug, not bad input: a correct run merges
// everything first, freezes once, then exports.
var (
	// ErrGraphFrozen indicates a Merge after Freeze.
	ErrGraphFrozen = errors.New("graph is frozen")

	// ErrNotFrozen indicates an export on a graph still accepting merges.
	ErrNotFrozen = errors.New("graph is not frozen")

	// ErrNilResult indicates a nil FileResult passed to Merge.
	ErrNilResult = errors.New("nil file result")

	// ErrInvalidSchema indicates a serialized graph with a missing or
	// unsupported schema version.
	ErrInvalidSchema = errors.New("invalid schema version")
)
