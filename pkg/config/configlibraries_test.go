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
	"errors"
	"testing"
	"time"

	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failRenameFs fails every Rename once armed, which makes the atomic
// settings write fail after the registry mutation.
type failRenameFs struct {
	afero.Fs
	armed bool
}

func (f *failRenameFs) Rename(oldname, newname string) error {
	if f.armed {
		return errors.New("rename refused")
	}
	return f.Fs.Rename(oldname, newname)
}

func TestAddLibrary(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/comics/manga", 0o755))
	cfg := newTestConfig(t, fsys)

	lib, err := cfg.AddLibrary("/comics/manga")
	require.NoError(t, err)
	assert.NotEmpty(t, lib.ID)
	assert.Equal(t, "manga", lib.Name, "display name defaults to the base name")
	assert.Equal(t, "/comics/manga", lib.Path)
	assert.Nil(t, lib.LastScan)

	// The root is provisioned for scanning.
	exists, err := afero.DirExists(fsys, "/comics/manga/cover")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = afero.Exists(fsys, "/comics/manga/record.json")
	require.NoError(t, err)
	assert.True(t, exists)

	got, ok := cfg.Library(lib.ID)
	assert.True(t, ok)
	assert.Equal(t, lib, got)
}

func TestAddLibraryKeepsExistingRecord(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/comics", 0o755))
	record := []byte(`{"version":1,"entries":[]}`)
	require.NoError(t, afero.WriteFile(fsys, "/comics/record.json", record, 0o600))
	cfg := newTestConfig(t, fsys)

	_, err := cfg.AddLibrary("/comics")
	require.NoError(t, err)

	data, err := afero.ReadFile(fsys, "/comics/record.json")
	require.NoError(t, err)
	assert.Equal(t, record, data, "re-adding a known root keeps its history")
}

func TestAddLibraryInvalidDirectory(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/comics/file.cbz", []byte("x"), 0o644))
	cfg := newTestConfig(t, fsys)

	_, err := cfg.AddLibrary("/nonexistent")
	assert.ErrorIs(t, err, catalog.ErrInvalidDirectory)

	_, err = cfg.AddLibrary("/comics/file.cbz")
	assert.ErrorIs(t, err, catalog.ErrInvalidDirectory)

	assert.Empty(t, cfg.Libraries())
}

func TestAddLibraryDuplicatePath(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/comics", 0o755))
	cfg := newTestConfig(t, fsys)

	_, err := cfg.AddLibrary("/comics")
	require.NoError(t, err)

	// Same location under a different spelling is still a duplicate.
	_, err = cfg.AddLibrary("/comics/./")
	assert.ErrorIs(t, err, catalog.ErrDuplicatePath)
	assert.Len(t, cfg.Libraries(), 1)
}

func TestAddLibraryRollsBackOnPersistFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/comics", 0o755))
	fsys := &failRenameFs{Fs: base}
	cfg := newTestConfig(t, fsys)

	fsys.armed = true
	_, err := cfg.AddLibrary("/comics")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrPersistFailed)
	assert.Empty(t, cfg.Libraries(), "memory rolls back when disk refuses")

	// A later attempt succeeds cleanly.
	fsys.armed = false
	_, err = cfg.AddLibrary("/comics")
	require.NoError(t, err)
	assert.Len(t, cfg.Libraries(), 1)
}

func TestRemoveLibrary(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/comics", 0o755))
	require.NoError(t, afero.WriteFile(fsys, "/comics/a.cbz", []byte("x"), 0o644))
	cfg := newTestConfig(t, fsys)

	lib, err := cfg.AddLibrary("/comics")
	require.NoError(t, err)

	ok, err := cfg.RemoveLibrary("unknown-id")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = cfg.RemoveLibrary(lib.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, cfg.Libraries())

	// Removal only forgets the registration; content stays put.
	exists, err := afero.Exists(fsys, "/comics/a.cbz")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = afero.Exists(fsys, "/comics/record.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRemoveLibraryRollsBackOnPersistFailure(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/comics", 0o755))
	fsys := &failRenameFs{Fs: base}
	cfg := newTestConfig(t, fsys)

	lib, err := cfg.AddLibrary("/comics")
	require.NoError(t, err)

	fsys.armed = true
	_, err = cfg.RemoveLibrary(lib.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrPersistFailed)
	assert.Len(t, cfg.Libraries(), 1, "registration survives a failed removal")
}

func TestRenameLibrary(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/comics", 0o755))
	cfg := newTestConfig(t, fsys)

	lib, err := cfg.AddLibrary("/comics")
	require.NoError(t, err)

	ok, err := cfg.RenameLibrary(lib.ID, "Weeklies")
	require.NoError(t, err)
	assert.True(t, ok)

	got, found := cfg.Library(lib.ID)
	require.True(t, found)
	assert.Equal(t, "Weeklies", got.Name)
	assert.Equal(t, lib.Path, got.Path, "rename never touches the path")

	ok, err = cfg.RenameLibrary("unknown-id", "x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTouchLibraryLastScan(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/comics", 0o755))
	cfg := newTestConfig(t, fsys)

	lib, err := cfg.AddLibrary("/comics")
	require.NoError(t, err)

	stamp := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, cfg.TouchLibraryLastScan(lib.ID, stamp))

	got, found := cfg.Library(lib.ID)
	require.True(t, found)
	require.NotNil(t, got.LastScan)
	assert.True(t, got.LastScan.Equal(stamp))

	assert.Error(t, cfg.TouchLibraryLastScan("unknown-id", stamp))
}
