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
	"path/filepath"
	"testing"

	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog"
	testhelpers "github.com/ComicShelfProject/comicshelf-core/pkg/testing/helpers"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArchivePicksFirstImage(t *testing.T) {
	t.Parallel()

	h := testhelpers.NewMemoryFS()
	require.NoError(t, h.CreateZipArchive("/lib/book.cbz", map[string][]byte{
		"page2.jpg":  []byte("second"),
		"page1.jpg":  []byte("first"),
		"covers.txt": []byte("not an image"),
	}))

	ex := NewExtractor(h.Fs)
	id := catalog.EntryID("/lib/book.cbz")
	coverPath, err := ex.Extract("/lib/book.cbz", catalog.KindArchive, CoverDir("/lib"), id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/lib", "cover", id+".jpg"), coverPath)

	data, err := afero.ReadFile(h.Fs, coverPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), data, "lexicographically smallest entry wins")
}

func TestExtractArchiveNoImages(t *testing.T) {
	t.Parallel()

	h := testhelpers.NewMemoryFS()
	require.NoError(t, h.CreateZipArchive("/lib/empty.zip", map[string][]byte{
		"readme.txt": []byte("hello"),
	}))

	ex := NewExtractor(h.Fs)
	_, err := ex.Extract("/lib/empty.zip", catalog.KindArchive, CoverDir("/lib"), "id1")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrCoverExtraction)
	assert.ErrorIs(t, err, catalog.ErrNoImageEntries)
}

func TestExtractCorruptArchiveWritesNothing(t *testing.T) {
	t.Parallel()

	h := testhelpers.NewMemoryFS()
	require.NoError(t, afero.WriteFile(h.Fs, "/lib/bad.cbz", []byte("not a zip"), 0o644))

	ex := NewExtractor(h.Fs)
	_, err := ex.Extract("/lib/bad.cbz", catalog.KindArchive, CoverDir("/lib"), "id1")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrCoverExtraction)

	matches, err := afero.Glob(h.Fs, filepath.Join(CoverDir("/lib"), "*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "failed extraction leaves no cover or temp file")
}

func TestExtractLooseImage(t *testing.T) {
	t.Parallel()

	h := testhelpers.NewMemoryFS()
	require.NoError(t, afero.WriteFile(h.Fs, "/lib/pinup.PNG", []byte("pixels"), 0o644))

	ex := NewExtractor(h.Fs)
	id := catalog.EntryID("/lib/pinup.PNG")
	coverPath, err := ex.Extract("/lib/pinup.PNG", catalog.KindImage, CoverDir("/lib"), id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/lib", "cover", id+".png"), coverPath,
		"cover extension is lowercased")

	data, err := afero.ReadFile(h.Fs, coverPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("pixels"), data)
}

func TestExtractPrunesStaleCover(t *testing.T) {
	t.Parallel()

	h := testhelpers.NewMemoryFS()
	require.NoError(t, h.CreateZipArchive("/lib/book.cbz", map[string][]byte{
		"page1.jpg": []byte("first"),
	}))

	id := catalog.EntryID("/lib/book.cbz")
	stale := filepath.Join(CoverDir("/lib"), id+".png")
	require.NoError(t, afero.WriteFile(h.Fs, stale, []byte("old"), 0o644))

	ex := NewExtractor(h.Fs)
	coverPath, err := ex.Extract("/lib/book.cbz", catalog.KindArchive, CoverDir("/lib"), id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(CoverDir("/lib"), id+".jpg"), coverPath)

	exists, err := afero.Exists(h.Fs, stale)
	require.NoError(t, err)
	assert.False(t, exists, "old extension variant is pruned")
}

func TestExtractUnsupportedKind(t *testing.T) {
	t.Parallel()

	ex := NewExtractor(afero.NewMemMapFs())
	_, err := ex.Extract("/lib/notes.txt", catalog.KindUnsupported, CoverDir("/lib"), "id1")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrCoverExtraction)
}

func TestExtractUnsupportedArchiveExtension(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/lib/book.tar", []byte("tar"), 0o644))

	ex := NewExtractor(fsys)
	_, err := ex.Extract("/lib/book.tar", catalog.KindArchive, CoverDir("/lib"), "id1")
	require.Error(t, err)
	assert.ErrorIs(t, err, catalog.ErrUnsupportedFormat)
}
