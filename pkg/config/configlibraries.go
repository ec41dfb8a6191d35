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

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog"
	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog/recordstore"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Libraries returns a copy of the registered library roots.
func (c *Instance) Libraries() []Library {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Library, len(c.libraries))
	copy(out, c.libraries)
	return out
}

// Library looks up a registered root by id.
func (c *Instance) Library(id string) (Library, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, lib := range c.libraries {
		if lib.ID == id {
			return lib, true
		}
	}
	return Library{}, false
}

// AddLibrary registers a directory as a new library root. The display name
// defaults to the directory base name. The root is provisioned with an
// empty record.json (only if absent) and a cover subdirectory. Fails with
// catalog.ErrInvalidDirectory, catalog.ErrDuplicatePath or
// catalog.ErrPersistFailed; on persist failure the in-memory registry is
// rolled back so memory and disk never diverge.
func (c *Instance) AddLibrary(path string) (Library, error) {
	canonical := catalog.CanonicalPath(path)

	info, err := c.fs.Stat(canonical)
	if err != nil || !info.IsDir() {
		return Library{}, fmt.Errorf("%w: %s", catalog.ErrInvalidDirectory, path)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, lib := range c.libraries {
		if lib.Path == canonical {
			return Library{}, fmt.Errorf("%w: %s", catalog.ErrDuplicatePath, canonical)
		}
	}

	if err := c.provisionRoot(canonical); err != nil {
		return Library{}, fmt.Errorf("%w: %w", catalog.ErrPersistFailed, err)
	}

	lib := Library{
		ID:   uuid.NewString(),
		Name: filepath.Base(canonical),
		Path: canonical,
	}
	c.libraries = append(c.libraries, lib)

	if err := c.saveLocked(); err != nil {
		c.libraries = c.libraries[:len(c.libraries)-1]
		return Library{}, fmt.Errorf("%w: %w", catalog.ErrPersistFailed, err)
	}

	log.Info().Str("id", lib.ID).Str("path", lib.Path).Msg("registered library")
	return lib, nil
}

// provisionRoot makes sure a new root carries the record document and cover
// cache the scanner expects. An existing record.json is left alone so
// re-adding a previously known library keeps its history.
func (c *Instance) provisionRoot(root string) error {
	if err := c.fs.MkdirAll(filepath.Join(root, catalog.CoverDirName), 0o750); err != nil {
		return fmt.Errorf("failed to create cover directory: %w", err)
	}
	recordPath := filepath.Join(root, catalog.RecordFilename)
	if _, err := c.fs.Stat(recordPath); os.IsNotExist(err) {
		store := recordstore.New(c.fs)
		if err := store.Save(root, nil); err != nil {
			return fmt.Errorf("failed to create record file: %w", err)
		}
	}
	return nil
}

// RemoveLibrary deletes a registration by id. Returns false if the id is
// unknown. Files inside the root (records, covers, content) are not touched.
func (c *Instance) RemoveLibrary(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, lib := range c.libraries {
		if lib.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	removed := c.libraries[idx]
	c.libraries = append(c.libraries[:idx], c.libraries[idx+1:]...)

	if err := c.saveLocked(); err != nil {
		c.libraries = append(c.libraries[:idx], append([]Library{removed}, c.libraries[idx:]...)...)
		return false, fmt.Errorf("%w: %w", catalog.ErrPersistFailed, err)
	}

	log.Info().Str("id", id).Str("path", removed.Path).Msg("removed library")
	return true, nil
}

// RenameLibrary updates a registration's display name. Returns false if the
// id is unknown.
func (c *Instance) RenameLibrary(id, newName string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, lib := range c.libraries {
		if lib.ID != id {
			continue
		}
		old := c.libraries[i].Name
		c.libraries[i].Name = newName
		if err := c.saveLocked(); err != nil {
			c.libraries[i].Name = old
			return false, fmt.Errorf("%w: %w", catalog.ErrPersistFailed, err)
		}
		return true, nil
	}
	return false, nil
}

// TouchLibraryLastScan stamps a library's last_scan time. Scanning is the
// observable event, so this runs whether or not content changed.
func (c *Instance) TouchLibraryLastScan(id string, t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, lib := range c.libraries {
		if lib.ID != id {
			continue
		}
		old := c.libraries[i].LastScan
		stamp := t
		c.libraries[i].LastScan = &stamp
		if err := c.saveLocked(); err != nil {
			c.libraries[i].LastScan = old
			return fmt.Errorf("%w: %w", catalog.ErrPersistFailed, err)
		}
		return nil
	}
	return fmt.Errorf("unknown library id: %s", id)
}
