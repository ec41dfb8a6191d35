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

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	// RecordFilename is the per-library record document inside a root.
	RecordFilename = "record.json"
	// CoverDirName is the cover cache subdirectory inside a root. The
	// scanner excludes it so thumbnails are never indexed as content.
	CoverDirName = "cover"
)

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".tiff": {},
	".webp": {},
}

var archiveExts = map[string]struct{}{
	".zip": {},
	".rar": {},
	".7z":  {},
	".cbz": {},
	".cbr": {},
}

// Classify maps a path to its catalog kind by extension. It never touches
// the filesystem.
func Classify(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := imageExts[ext]; ok {
		return KindImage
	}
	if _, ok := archiveExts[ext]; ok {
		return KindArchive
	}
	return KindUnsupported
}

// IsImageExt reports whether a filename carries an image extension. Used for
// selecting page candidates inside archives as well as loose files.
func IsImageExt(name string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FileInfo is the subset of stat data the scanner compares between runs.
type FileInfo struct {
	ModTime time.Time
	Size    int64
}

// Stat returns size and modification time for a path. A path that vanished
// between listing and stat surfaces as ErrNotFound, which callers treat as a
// per-entry warning rather than a scan failure.
func Stat(fsys afero.Fs, path string) (FileInfo, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		if os.IsPermission(err) {
			return FileInfo{}, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return FileInfo{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return FileInfo{Size: info.Size(), ModTime: info.ModTime()}, nil
}
