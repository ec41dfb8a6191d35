// ComicShelf Core
// Copyright (c) 2026 The ComicShelf Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of ComicShelf Core.
//
// ComicShelf Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// ComicShelf Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with ComicShelf Core.  If not, see <http://www.gnu.org/licenses/>.

package catalog

import "errors"

// Sentinel errors for the failure taxonomy. Callers discriminate with
// errors.Is instead of inspecting error types or strings.
var (
	// Registry mutation failures.
	ErrInvalidDirectory = errors.New("path is not an existing directory")
	ErrDuplicatePath    = errors.New("library path already registered")
	ErrPersistFailed    = errors.New("failed to persist registry")

	// Per-entry filesystem failures, recovered locally during a scan.
	ErrNotFound         = errors.New("path not found")
	ErrPermissionDenied = errors.New("permission denied")

	// Archive and cover failures, degraded to a missing cover.
	ErrCoverExtraction   = errors.New("cover extraction failed")
	ErrNoImageEntries    = errors.New("archive contains no image entries")
	ErrUnsupportedFormat = errors.New("unsupported archive format")

	// Record document failures.
	ErrRecordParse = errors.New("record file is not a valid record document")

	// Root-level scan failure: the library directory itself is gone or
	// unreadable. The previous record is left untouched.
	ErrRootUnreachable = errors.New("library root unreachable")
)

// ScanWarning is a recovered per-entry problem attached to a scan result.
type ScanWarning struct {
	Err  error
	Path string
}

func (w ScanWarning) Error() string {
	return w.Path + ": " + w.Err.Error()
}

func (w ScanWarning) Unwrap() error { return w.Err }
