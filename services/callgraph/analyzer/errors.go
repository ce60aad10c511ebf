// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import "errors"

// Sentinel errors for terminal run failures.
//
// Per-file parse failures are never terminal; the run as a whole fails
// only when it produced nothing usable or its output cannot be written.
var (
	// ErrNoFiles indicates discovery found no Java sources under the root.
	ErrNoFiles = errors.New("no java files found")

	// ErrNoFilesParsed indicates every input file failed to parse.
	ErrNoFilesParsed = errors.New("no files could be parsed")

	// ErrExportFailed indicates the graph output could not be written.
	ErrExportFailed = errors.New("export failed")
)
