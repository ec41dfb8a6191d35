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

// Package recordstore owns the per-library record.json document: loading
// with soft failure, atomic saving and reconciliation of observed
// filesystem state against previously stored entries.
package recordstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// SchemaVersion is the record document schema this build reads and writes.
// Older revisions wrote bare arrays or differently keyed documents; those
// are rejected explicitly rather than guessed at from shape.
const SchemaVersion = 1

type document struct {
	Version int             `json:"version"`
	Entries []catalog.Entry `json:"entries"`
}

// Store reads and writes record documents through an afero filesystem.
type Store struct {
	fs afero.Fs
}

// New returns a store backed by fsys.
func New(fsys afero.Fs) *Store {
	return &Store{fs: fsys}
}

// RecordPath returns the record document location for a library root.
func (s *Store) RecordPath(root string) string {
	return filepath.Join(root, catalog.RecordFilename)
}

// Load returns the stored entries for a library root. An absent file is an
// empty record. A file that does not parse as the declared schema returns
// the empty set together with an error wrapping catalog.ErrRecordParse; the
// corrupt file itself is left in place so it survives until a successful
// reconciliation actually saves over it.
func (s *Store) Load(root string) ([]catalog.Entry, error) {
	path := s.RecordPath(root)

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read record file %s: %w", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", catalog.ErrRecordParse, path, err)
	}
	if doc.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: %s: version %d, expecting %d",
			catalog.ErrRecordParse, path, doc.Version, SchemaVersion)
	}

	return doc.Entries, nil
}

// Save writes the full entry set atomically: the document goes to a
// temporary file first and is renamed over record.json, so a crash mid-write
// never leaves a half-written record.
func (s *Store) Save(root string, entries []catalog.Entry) error {
	path := s.RecordPath(root)

	if entries == nil {
		entries = []catalog.Entry{}
	}
	catalog.SortEntries(entries)

	data, err := json.MarshalIndent(document{Version: SchemaVersion, Entries: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to replace record file: %w", err)
	}
	return nil
}

// UpdateMetadata applies fn to the metadata of one entry and saves the
// record. Intended for user edits (favorite, rating, tags, read stamps)
// between scans; entry membership itself is only ever changed by a scan.
func (s *Store) UpdateMetadata(root, entryID string, fn func(*catalog.Metadata)) error {
	entries, err := s.Load(root)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == entryID {
			fn(&entries[i].Metadata)
			return s.Save(root, entries)
		}
	}
	return fmt.Errorf("no entry with id %s in %s", entryID, root)
}

// Observation is one filesystem fact gathered during a walk.
type Observation struct {
	ModTime time.Time
	Path    string
	Kind    catalog.Kind
	Size    int64
}

// Delta is the outcome of reconciling observed state with a prior record.
// Pending holds indexes into Entries that need cover extraction (new or
// modified files). Changed is true iff Entries differs from the previous
// record in membership or any mutable field; callers use it to skip a
// redundant save.
type Delta struct {
	Entries []catalog.Entry
	Pending []int
	Changed bool
	Dropped int
}

// Reconcile merges freshly observed filesystem state with previously stored
// entries:
//
//   - observed but not stored: new entry, cover pending
//   - stored and observed with a moved modification time: updated in place,
//     metadata kept, cover pending
//   - stored and observed, unchanged: carried over verbatim, no extraction
//   - stored but not observed: dropped (file deleted externally)
func Reconcile(previous []catalog.Entry, observed []Observation) Delta {
	prevByPath := make(map[string]catalog.Entry, len(previous))
	for _, e := range previous {
		prevByPath[e.Path] = e
	}

	// Deterministic merge order keeps the serialized record stable and
	// keeps Pending indexes valid.
	sort.Slice(observed, func(i, j int) bool { return observed[i].Path < observed[j].Path })

	delta := Delta{Entries: make([]catalog.Entry, 0, len(observed))}

	for _, obs := range observed {
		prev, known := prevByPath[obs.Path]
		if !known {
			entry := catalog.NewEntry(obs.Path, obs.Kind, obs.Size, obs.ModTime)
			delta.Entries = append(delta.Entries, entry)
			delta.Pending = append(delta.Pending, len(delta.Entries)-1)
			delta.Changed = true
			continue
		}
		delete(prevByPath, obs.Path)

		if prev.ModTime.Equal(obs.ModTime) && prev.Size == obs.Size && prev.Kind == obs.Kind {
			delta.Entries = append(delta.Entries, prev)
			continue
		}

		// Any movement of the modification time counts as a change, not
		// just a strict advance: a restored backup moves it backwards.
		updated := prev
		updated.Kind = obs.Kind
		updated.Size = obs.Size
		updated.ModTime = obs.ModTime
		delta.Entries = append(delta.Entries, updated)
		delta.Pending = append(delta.Pending, len(delta.Entries)-1)
		delta.Changed = true
	}

	if len(prevByPath) > 0 {
		delta.Changed = true
		delta.Dropped = len(prevByPath)
		for path := range prevByPath {
			log.Debug().Str("path", path).Msg("entry no longer on disk, dropping from record")
		}
	}

	return delta
}
