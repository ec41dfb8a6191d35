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
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want Kind
	}{
		{"/lib/page.jpg", KindImage},
		{"/lib/page.JPEG", KindImage},
		{"/lib/page.png", KindImage},
		{"/lib/page.gif", KindImage},
		{"/lib/page.bmp", KindImage},
		{"/lib/page.tiff", KindImage},
		{"/lib/page.webp", KindImage},
		{"/lib/book.zip", KindArchive},
		{"/lib/book.CBZ", KindArchive},
		{"/lib/book.cbr", KindArchive},
		{"/lib/book.rar", KindArchive},
		{"/lib/book.7z", KindArchive},
		{"/lib/notes.txt", KindUnsupported},
		{"/lib/book.pdf", KindUnsupported},
		{"/lib/noext", KindUnsupported},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.path), "path %s", tt.path)
	}
}

func TestStat(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/lib/a.jpg", []byte("xx"), 0o644))

	fi, err := Stat(fsys, "/lib/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(2), fi.Size)
	assert.False(t, fi.ModTime.IsZero())
}

func TestStatVanished(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	_, err := Stat(fsys, "/lib/gone.jpg")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}
