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

// Package catalog defines the comic catalog data model: entries, their
// stable identities and the classification of filesystem paths into
// browsable kinds.
package catalog

import (
	"crypto/sha1" //nolint:gosec // entry ids are content-addressed names, not security material
	"encoding/hex"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Kind classifies a filesystem entry as catalog content.
type Kind string

const (
	// KindImage is a loose image file browsed as a single page.
	KindImage Kind = "image"
	// KindArchive is a compressed archive treated as one browsable unit.
	KindArchive Kind = "archive"
	// KindUnsupported is anything the catalog ignores.
	KindUnsupported Kind = "unsupported"
)

// Metadata holds user-editable state attached to an entry. It survives
// rescans as long as the underlying file keeps its path.
type Metadata struct {
	LastRead *time.Time        `json:"last_read,omitempty"`
	Custom   map[string]string `json:"custom,omitempty"`
	Tags     []string          `json:"tags,omitempty"`
	Rating   int               `json:"rating,omitempty"`
	Favorite bool              `json:"favorite,omitempty"`
}

// Entry is one catalog item: a loose image or an archive inside a library
// root. Entries are created and removed only by scans; metadata is the one
// part a user can touch.
type Entry struct {
	ModTime   time.Time `json:"modified_time"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Kind      Kind      `json:"kind"`
	CoverPath string    `json:"cover_path,omitempty"`
	LibraryID string    `json:"library_id,omitempty"`
	Metadata  Metadata  `json:"metadata"`
	Size      int64     `json:"size"`
}

// CanonicalPath normalizes a path so that different spellings of the same
// location produce the same string. Relative paths are resolved against the
// working directory.
func CanonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// EntryID derives the stable identifier for a path. It is a pure function of
// the canonical path: the same file keeps its identity across scans, and two
// distinct live paths never collide in practice. Random ids would break
// reconciliation, so they are deliberately not used here.
func EntryID(path string) string {
	sum := sha1.Sum([]byte(CanonicalPath(path))) //nolint:gosec // see import note
	return hex.EncodeToString(sum[:])
}

// NewEntry builds an entry for a freshly observed file.
func NewEntry(path string, kind Kind, size int64, modTime time.Time) Entry {
	canonical := CanonicalPath(path)
	return Entry{
		ID:      EntryID(canonical),
		Name:    filepath.Base(canonical),
		Path:    canonical,
		Kind:    kind,
		Size:    size,
		ModTime: modTime,
	}
}

// SortEntries orders entries deterministically by library then path so that
// repeated scans serialize byte-identically.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LibraryID != entries[j].LibraryID {
			return entries[i].LibraryID < entries[j].LibraryID
		}
		return entries[i].Path < entries[j].Path
	})
}

// Favorites returns the entries flagged as favorite, preserving order.
// Favorites are a derived view, not a separate persisted list.
func Favorites(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Metadata.Favorite {
			out = append(out, e)
		}
	}
	return out
}

// RecentlyRead returns entries with a read timestamp, most recent first.
func RecentlyRead(entries []Entry) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Metadata.LastRead != nil {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Metadata.LastRead.After(*out[j].Metadata.LastRead)
	})
	return out
}

// FilterByTag returns entries carrying the given tag.
func FilterByTag(entries []Entry, tag string) []Entry {
	var out []Entry
	for _, e := range entries {
		for _, t := range e.Metadata.Tags {
			if strings.EqualFold(t, tag) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
