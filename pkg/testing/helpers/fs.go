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

// Package helpers provides filesystem fixtures for tests: an in-memory
// afero filesystem plus builders for library trees and comic archives.
package helpers

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
)

// FSHelper provides utilities for filesystem mocking in tests.
type FSHelper struct {
	Fs afero.Fs
}

// NewMemoryFS creates a new in-memory filesystem for testing.
func NewMemoryFS() *FSHelper {
	return &FSHelper{Fs: afero.NewMemMapFs()}
}

// NewOSFS creates a filesystem helper using the real filesystem (for
// integration tests).
func NewOSFS() *FSHelper {
	return &FSHelper{Fs: afero.NewOsFs()}
}

// CreateLibrary creates a directory tree of files with fixed content and a
// deterministic modification time.
func (h *FSHelper) CreateLibrary(root string, files map[string][]byte) error {
	if err := h.Fs.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("failed to create library root: %w", err)
	}

	// Deterministic creation order keeps mod times stable across runs.
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(root, name)
		if err := h.Fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", name, err)
		}
		if err := afero.WriteFile(h.Fs, path, files[name], 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

// CreateZipArchive writes a zip (or cbz) file containing the given entries.
func (h *FSHelper) CreateZipArchive(path string, entries map[string][]byte) error {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f, err := w.Create(name)
		if err != nil {
			return fmt.Errorf("failed to create zip entry %s: %w", name, err)
		}
		if _, err := f.Write(entries[name]); err != nil {
			return fmt.Errorf("failed to write zip entry %s: %w", name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize zip: %w", err)
	}

	if err := h.Fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(h.Fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write archive %s: %w", path, err)
	}
	return nil
}

// Touch moves a file's modification time forward by the given amount.
func (h *FSHelper) Touch(path string, forward time.Duration) error {
	info, err := h.Fs.Stat(path)
	if err != nil {
		return err
	}
	next := info.ModTime().Add(forward)
	return h.Fs.Chtimes(path, next, next)
}
