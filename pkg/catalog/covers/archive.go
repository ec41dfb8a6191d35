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

package covers

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog"
	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode"
	"github.com/spf13/afero"
)

// openFirstImage opens an archive read-only and returns the name of its
// lexicographically smallest image entry together with a reader for that
// entry's bytes. Ties are broken by full entry name ordering, which gives a
// deterministic "first page" across scans.
func (e *Extractor) openFirstImage(path string) (string, io.ReadCloser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".cbz":
		return e.openFirstImageZip(path)
	case ".7z":
		return e.openFirstImage7z(path)
	case ".rar", ".cbr":
		return e.openFirstImageRar(path)
	default:
		return "", nil, fmt.Errorf("%w: %s", catalog.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// multiCloser bundles an entry reader with the underlying archive handle.
type multiCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiCloser) Close() error {
	var errs []error
	for _, c := range m.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Extractor) openFirstImageZip(path string) (string, io.ReadCloser, error) {
	f, size, err := e.openSized(path)
	if err != nil {
		return "", nil, err
	}

	zr, err := zip.NewReader(f, size)
	if err != nil {
		_ = f.Close()
		return "", nil, fmt.Errorf("failed to open zip: %w", err)
	}

	var best *zip.File
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || !catalog.IsImageExt(entry.Name) {
			continue
		}
		if best == nil || entry.Name < best.Name {
			best = entry
		}
	}
	if best == nil {
		_ = f.Close()
		return "", nil, catalog.ErrNoImageEntries
	}

	rc, err := best.Open()
	if err != nil {
		_ = f.Close()
		return "", nil, fmt.Errorf("failed to open zip entry %s: %w", best.Name, err)
	}
	return best.Name, &multiCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
}

func (e *Extractor) openFirstImage7z(path string) (string, io.ReadCloser, error) {
	f, size, err := e.openSized(path)
	if err != nil {
		return "", nil, err
	}

	zr, err := sevenzip.NewReader(f, size)
	if err != nil {
		_ = f.Close()
		return "", nil, fmt.Errorf("failed to open 7z: %w", err)
	}

	var best *sevenzip.File
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || !catalog.IsImageExt(entry.Name) {
			continue
		}
		if best == nil || entry.Name < best.Name {
			best = entry
		}
	}
	if best == nil {
		_ = f.Close()
		return "", nil, catalog.ErrNoImageEntries
	}

	rc, err := best.Open()
	if err != nil {
		_ = f.Close()
		return "", nil, fmt.Errorf("failed to open 7z entry %s: %w", best.Name, err)
	}
	return best.Name, &multiCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
}

// openFirstImageRar works in two passes because rar archives only stream:
// one pass to find the smallest image entry name, one to position a reader
// on it.
func (e *Extractor) openFirstImageRar(path string) (string, io.ReadCloser, error) {
	best, err := e.firstImageNameRar(path)
	if err != nil {
		return "", nil, err
	}

	f, err := e.fs.Open(path)
	if err != nil {
		return "", nil, err
	}
	rr, err := rardecode.NewReader(f, "")
	if err != nil {
		_ = f.Close()
		return "", nil, fmt.Errorf("failed to open rar: %w", err)
	}
	for {
		hdr, err := rr.Next()
		if err != nil {
			_ = f.Close()
			return "", nil, fmt.Errorf("rar entry %s disappeared between passes: %w", best, err)
		}
		if hdr.Name == best {
			return best, &multiCloser{Reader: rr, closers: []io.Closer{f}}, nil
		}
	}
}

func (e *Extractor) firstImageNameRar(path string) (string, error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	rr, err := rardecode.NewReader(f, "")
	if err != nil {
		return "", fmt.Errorf("failed to open rar: %w", err)
	}

	best := ""
	for {
		hdr, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read rar entry: %w", err)
		}
		if hdr.IsDir || !catalog.IsImageExt(hdr.Name) {
			continue
		}
		if best == "" || hdr.Name < best {
			best = hdr.Name
		}
	}
	if best == "" {
		return "", catalog.ErrNoImageEntries
	}
	return best, nil
}

// openSized opens a file and returns it with its size, for the ReaderAt
// based archive readers.
func (e *Extractor) openSized(path string) (afero.File, int64, error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, err
	}
	return f, info.Size(), nil
}
