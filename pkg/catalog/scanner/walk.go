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

package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog"
	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog/recordstore"
	"github.com/ComicShelfProject/comicshelf-core/pkg/helpers/syncutil"
	"github.com/charlievieth/fastwalk"
	"github.com/spf13/afero"
)

// collect walks a library root and builds the observed set for
// reconciliation. The cover cache and the record document itself are
// excluded; unsupported files are ignored; per-file stat and permission
// problems become warnings. Only a vanished/unreadable root or cancellation
// aborts the walk.
func (s *Scanner) collect(ctx context.Context, root string) ([]recordstore.Observation, []catalog.ScanWarning, error) {
	coverDir := filepath.Join(root, catalog.CoverDirName)
	recordPath := filepath.Join(root, catalog.RecordFilename)

	var (
		mu       syncutil.Mutex
		observed []recordstore.Observation
		warnings []catalog.ScanWarning
	)

	// visit is shared by both walkers. fastwalk runs it concurrently, so
	// every append is under the mutex.
	visit := func(path string, isDir bool, walkErr error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		if walkErr != nil {
			if path == root {
				return fmt.Errorf("%w: %s: %w", catalog.ErrRootUnreachable, root, walkErr)
			}
			mu.Lock()
			warnings = append(warnings, catalog.ScanWarning{Path: path, Err: walkErr})
			mu.Unlock()
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}

		if isDir {
			if path == coverDir {
				return filepath.SkipDir
			}
			return nil
		}

		if path == recordPath || strings.HasSuffix(path, ".tmp") {
			return nil
		}

		kind := catalog.Classify(path)
		if kind == catalog.KindUnsupported {
			return nil
		}

		fi, err := catalog.Stat(s.fs, path)
		if err != nil {
			// The file vanished (or became unreadable) between listing and
			// stat. Skip it; the next scan settles the record.
			mu.Lock()
			warnings = append(warnings, catalog.ScanWarning{Path: path, Err: err})
			mu.Unlock()
			return nil
		}

		mu.Lock()
		observed = append(observed, recordstore.Observation{
			Path:    catalog.CanonicalPath(path),
			Kind:    kind,
			Size:    fi.Size,
			ModTime: fi.ModTime,
		})
		mu.Unlock()
		return nil
	}

	err := s.walk(root, visit)
	if err != nil && errors.Is(err, filepath.SkipDir) {
		err = nil
	}
	return observed, warnings, err
}

// walk dispatches to fastwalk on the real filesystem (parallel directory
// traversal for large libraries) and to afero.Walk for any other Fs, such
// as the in-memory one used in tests. fastwalk only knows the OS
// filesystem.
func (s *Scanner) walk(root string, visit func(path string, isDir bool, err error) error) error {
	if _, ok := s.fs.(*afero.OsFs); ok {
		conf := fastwalk.Config{Follow: true}
		return fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
			isDir := d != nil && d.IsDir()
			return visit(path, isDir, err)
		})
	}
	return afero.Walk(s.fs, root, func(path string, info os.FileInfo, err error) error {
		isDir := info != nil && info.IsDir()
		return visit(path, isDir, err)
	})
}
