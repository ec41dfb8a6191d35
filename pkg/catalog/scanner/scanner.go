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

// Package scanner orchestrates library scans: walk a root, classify
// entries, reconcile against the stored record, extract covers for deltas
// and persist the merged record. The aggregator runs scans across every
// registered library.
package scanner

import (
	"context"
	"errors"
	"fmt"

	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog"
	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog/covers"
	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog/recordstore"
	"github.com/ComicShelfProject/comicshelf-core/pkg/config"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

// Status summarizes one library scan.
type Status string

const (
	// StatusUnchanged means the scan observed no membership or field changes.
	StatusUnchanged Status = "unchanged"
	// StatusUpdated means the record was reconciled and saved.
	StatusUpdated Status = "updated"
	// StatusFailed means a root-level failure aborted the scan; the
	// previously stored record is untouched.
	StatusFailed Status = "failed"
)

// Result is the outcome of scanning one library root. Warnings hold
// recovered per-entry problems; Err is set only when Status is failed.
type Result struct {
	Err      error
	Status   Status
	Entries  []catalog.Entry
	Warnings []catalog.ScanWarning
}

// Scanner reconciles library roots against their record documents. Scans of
// the same root are single-flighted: a second caller joins the in-flight
// scan instead of racing it on record.json.
type Scanner struct {
	fs      afero.Fs
	cfg     *config.Instance
	records *recordstore.Store
	covers  *covers.Extractor
	clock   clockwork.Clock
	flight  singleflight.Group
}

// New returns a scanner over fsys. The registry is used to stamp last_scan
// times with the injected clock.
func New(fsys afero.Fs, cfg *config.Instance, clock clockwork.Clock) *Scanner {
	return &Scanner{
		fs:      fsys,
		cfg:     cfg,
		records: recordstore.New(fsys),
		covers:  covers.NewExtractor(fsys),
		clock:   clock,
	}
}

// Scan reconciles one library root. Cancellation is cooperative between
// per-file steps; a cancelled scan returns failed and leaves the on-disk
// record exactly as it was. Concurrent calls for the same root share one
// execution (and therefore the first caller's context).
func (s *Scanner) Scan(ctx context.Context, lib config.Library) Result {
	v, _, _ := s.flight.Do(catalog.CanonicalPath(lib.Path), func() (any, error) {
		return s.scan(ctx, lib), nil
	})
	res, ok := v.(Result)
	if !ok {
		return Result{Status: StatusFailed, Err: errors.New("unexpected scan result type")}
	}
	return res
}

func (s *Scanner) scan(ctx context.Context, lib config.Library) Result {
	root := catalog.CanonicalPath(lib.Path)

	info, err := s.fs.Stat(root)
	if err != nil || !info.IsDir() {
		log.Error().Str("library", lib.ID).Str("path", root).Msg("library root unreachable")
		return Result{Status: StatusFailed, Err: fmt.Errorf("%w: %s", catalog.ErrRootUnreachable, root)}
	}

	observed, warnings, err := s.collect(ctx, root)
	if err != nil {
		return Result{Status: StatusFailed, Err: err, Warnings: warnings}
	}

	previous, err := s.records.Load(root)
	if err != nil {
		if !errors.Is(err, catalog.ErrRecordParse) {
			// Unreadable record file is a root-level failure: reconciling
			// against a record we cannot read would resurface every entry
			// as new.
			return Result{Status: StatusFailed, Err: err, Warnings: warnings}
		}
		// Corrupt record: warn and rebuild from scratch. The file stays on
		// disk until a successful reconciliation saves over it.
		log.Warn().Err(err).Str("library", lib.ID).Msg("record file corrupt, rebuilding")
		warnings = append(warnings, catalog.ScanWarning{Path: s.records.RecordPath(root), Err: err})
		previous = nil
	}

	delta := recordstore.Reconcile(previous, observed)

	coverDir := covers.CoverDir(root)
	for _, idx := range delta.Pending {
		if cerr := ctx.Err(); cerr != nil {
			// Persist nothing on cancellation; the previous record stays
			// valid.
			return Result{Status: StatusFailed, Err: cerr, Warnings: warnings}
		}
		entry := &delta.Entries[idx]
		coverPath, err := s.covers.Extract(entry.Path, entry.Kind, coverDir, entry.ID)
		if err != nil {
			log.Warn().Err(err).Str("path", entry.Path).Msg("cover extraction failed")
			warnings = append(warnings, catalog.ScanWarning{Path: entry.Path, Err: err})
			entry.CoverPath = ""
			continue
		}
		entry.CoverPath = coverPath
	}

	for i := range delta.Entries {
		delta.Entries[i].LibraryID = lib.ID
	}

	if delta.Changed {
		if err := s.records.Save(root, delta.Entries); err != nil {
			return Result{Status: StatusFailed, Err: err, Warnings: warnings}
		}
	}

	// The scan itself is the observable event, so the stamp moves even when
	// nothing changed.
	if err := s.cfg.TouchLibraryLastScan(lib.ID, s.clock.Now()); err != nil {
		log.Warn().Err(err).Str("library", lib.ID).Msg("failed to stamp last_scan")
	}

	status := StatusUnchanged
	if delta.Changed {
		status = StatusUpdated
	}
	log.Info().
		Str("library", lib.ID).
		Str("status", string(status)).
		Int("entries", len(delta.Entries)).
		Int("dropped", delta.Dropped).
		Int("warnings", len(warnings)).
		Msg("library scan complete")

	return Result{Status: status, Entries: delta.Entries, Warnings: warnings}
}

// UpdateEntryMetadata applies a metadata edit to one entry in a library's
// record. Callers must not run this concurrently with a scan of the same
// root.
func (s *Scanner) UpdateEntryMetadata(root, entryID string, fn func(*catalog.Metadata)) error {
	return s.records.UpdateMetadata(catalog.CanonicalPath(root), entryID, fn)
}

// Clock exposes the scanner's clock for callers stamping metadata.
func (s *Scanner) Clock() clockwork.Clock {
	return s.clock
}
