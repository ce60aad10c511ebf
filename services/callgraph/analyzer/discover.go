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

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FindJavaFiles walks root and returns every .java file as a
// forward-slash path relative to root, sorted, honoring exclude globs.
//
// Description:
//
//	A file is excluded when its whole relative path matches a pattern,
//	or when any path segment matches a non-** segment of a pattern.
//	"**/target/**" therefore skips anything under a target directory
//	at any depth. Root may also name a single .java file directly; the
//	returned path is then its base name and the caller should use the
//	file's directory as the analysis root.
//
// Outputs:
//   - []string: Relative paths, sorted for stable processing order.
//   - error: ErrNoFiles when nothing matched, or a walk error.
func FindJavaFiles(root string, exclude []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		if strings.HasSuffix(root, ".java") {
			return []string{filepath.Base(root)}, nil
		}
		return nil, fmt.Errorf("%w: %s is not a directory or .java file", ErrNoFiles, root)
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && isExcluded(rel, exclude) {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(rel, ".java") || isExcluded(rel, exclude) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w: under %s", ErrNoFiles, root)
	}

	sort.Strings(files)
	return files, nil
}

// isExcluded reports whether a relative path matches any exclude glob.
func isExcluded(rel string, patterns []string) bool {
	segments := strings.Split(rel, "/")

	for _, pattern := range patterns {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		for _, part := range strings.Split(pattern, "/") {
			if part == "" || part == "**" {
				continue
			}
			for _, seg := range segments {
				if ok, _ := path.Match(part, seg); ok {
					return true
				}
			}
		}
	}
	return false
}
