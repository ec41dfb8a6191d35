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

// Package covers materializes one representative thumbnail per catalog
// entry. Archive covers come from the lexicographically first image entry;
// loose images are their own cover. Cover files are named after the entry
// id so re-extraction overwrites instead of accumulating.
package covers

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Extractor writes covers through an afero filesystem.
type Extractor struct {
	fs afero.Fs
}

// NewExtractor returns an extractor backed by fsys.
func NewExtractor(fsys afero.Fs) *Extractor {
	return &Extractor{fs: fsys}
}

// CoverDir returns the cover cache directory for a library root.
func CoverDir(root string) string {
	return filepath.Join(root, catalog.CoverDirName)
}

// Extract materializes the cover for one entry into coverDir and returns
// the written path. On any failure it returns an error wrapping
// catalog.ErrCoverExtraction and writes nothing; callers degrade the entry
// to no cover and continue the scan.
func (e *Extractor) Extract(sourcePath string, kind catalog.Kind, coverDir, entryID string) (string, error) {
	var (
		name string
		rc   io.ReadCloser
		err  error
	)

	switch kind {
	case catalog.KindImage:
		name = sourcePath
		rc, err = e.fs.Open(sourcePath)
	case catalog.KindArchive:
		name, rc, err = e.openFirstImage(sourcePath)
	default:
		return "", fmt.Errorf("%w: no cover for kind %q", catalog.ErrCoverExtraction, kind)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", catalog.ErrCoverExtraction, sourcePath, err)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			log.Warn().Err(cerr).Str("path", sourcePath).Msg("close cover source failed")
		}
	}()

	if err := e.fs.MkdirAll(coverDir, 0o750); err != nil {
		return "", fmt.Errorf("%w: %s: %w", catalog.ErrCoverExtraction, sourcePath, err)
	}

	coverPath := filepath.Join(coverDir, entryID+strings.ToLower(filepath.Ext(name)))
	if err := e.writeAtomic(coverPath, rc); err != nil {
		return "", fmt.Errorf("%w: %s: %w", catalog.ErrCoverExtraction, sourcePath, err)
	}

	e.pruneStale(coverDir, entryID, coverPath)
	return coverPath, nil
}

// writeAtomic streams the cover to a temp file and renames it into place,
// so a failed extraction never leaves a partial cover behind.
func (e *Extractor) writeAtomic(coverPath string, r io.Reader) error {
	tmp := coverPath + ".tmp"
	out, err := e.fs.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		_ = e.fs.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = e.fs.Remove(tmp)
		return err
	}
	if err := e.fs.Rename(tmp, coverPath); err != nil {
		_ = e.fs.Remove(tmp)
		return err
	}
	return nil
}

// pruneStale removes other cover files for the same entry id, e.g. a .png
// left over after the archive's first page became a .jpg.
func (e *Extractor) pruneStale(coverDir, entryID, keep string) {
	matches, err := afero.Glob(e.fs, filepath.Join(coverDir, entryID+".*"))
	if err != nil {
		return
	}
	for _, m := range matches {
		if m == keep {
			continue
		}
		if err := e.fs.Remove(m); err != nil {
			log.Warn().Err(err).Str("path", m).Msg("failed to remove stale cover")
		}
	}
}
