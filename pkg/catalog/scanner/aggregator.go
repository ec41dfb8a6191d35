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
	"fmt"

	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog"
	"github.com/ComicShelfProject/comicshelf-core/pkg/config"
	"github.com/ComicShelfProject/comicshelf-core/pkg/helpers/syncutil"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentScans bounds parallel library scans. Different roots share
// no mutable state, so they can overlap freely; the catalog merge is the
// only serialized step.
const maxConcurrentScans = 4

// Aggregator runs the scanner over every registered library and merges the
// per-library records into one catalog.
type Aggregator struct {
	cfg     *config.Instance
	scanner *Scanner
	mu      syncutil.Mutex
}

// NewAggregator wires the registry to the scanner.
func NewAggregator(cfg *config.Instance, sc *Scanner) *Aggregator {
	return &Aggregator{cfg: cfg, scanner: sc}
}

// ScanAll scans every registered library and returns the merged catalog
// plus a per-library result map keyed by library id. A failed library is
// reported in the map and does not stop the others.
func (a *Aggregator) ScanAll(ctx context.Context) ([]catalog.Entry, map[string]Result) {
	libs := a.cfg.Libraries()
	results := make(map[string]Result, len(libs))

	var entries []catalog.Entry

	g := errgroup.Group{}
	g.SetLimit(maxConcurrentScans)

	for _, lib := range libs {
		g.Go(func() error {
			res := a.scanner.Scan(ctx, lib)
			a.mu.Lock()
			results[lib.ID] = res
			entries = append(entries, res.Entries...)
			a.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	catalog.SortEntries(entries)
	return entries, results
}

// MarkRead stamps an entry's last_read time in its library's record. Feeds
// the "recently read" view.
func (a *Aggregator) MarkRead(libraryID, entryID string) error {
	lib, ok := a.cfg.Library(libraryID)
	if !ok {
		return fmt.Errorf("unknown library id: %s", libraryID)
	}
	return a.scanner.UpdateEntryMetadata(lib.Path, entryID, func(m *catalog.Metadata) {
		now := a.scanner.Clock().Now()
		m.LastRead = &now
	})
}

// SetFavorite flips an entry's favorite flag in its library's record.
func (a *Aggregator) SetFavorite(libraryID, entryID string, favorite bool) error {
	lib, ok := a.cfg.Library(libraryID)
	if !ok {
		return fmt.Errorf("unknown library id: %s", libraryID)
	}
	return a.scanner.UpdateEntryMetadata(lib.Path, entryID, func(m *catalog.Metadata) {
		m.Favorite = favorite
	})
}
