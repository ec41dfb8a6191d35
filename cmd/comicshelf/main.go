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

// comicshelf is the command line frontend for the library engine: it
// manages the registry and runs scans. The graphical browser consumes the
// same packages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog/scanner"
	"github.com/ComicShelfProject/comicshelf-core/pkg/config"
	"github.com/ComicShelfProject/comicshelf-core/pkg/helpers"
	"github.com/adrg/xdg"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const appName = "comicshelf"

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func usage() string {
	return `usage:
  comicshelf add <path>            register a directory as a library
  comicshelf remove <id>           remove a library registration
  comicshelf rename <id> <name>    rename a library
  comicshelf list                  list registered libraries
  comicshelf scan                  scan all libraries and print the catalog`
}

func run() error {
	if err := helpers.InitLogging(filepath.Join(xdg.StateHome, appName)); err != nil {
		return fmt.Errorf("failed to init logging: %w", err)
	}

	fsys := afero.NewOsFs()
	cfg, err := config.NewConfig(fsys, filepath.Join(xdg.ConfigHome, appName))
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if len(os.Args) < 2 {
		fmt.Println(usage())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "add":
		if len(os.Args) != 3 {
			return fmt.Errorf("add needs a path\n%s", usage())
		}
		lib, err := cfg.AddLibrary(os.Args[2])
		if err != nil {
			return err
		}
		fmt.Printf("added library %s (%s)\n", lib.Name, lib.ID)
		return nil

	case "remove":
		if len(os.Args) != 3 {
			return fmt.Errorf("remove needs a library id\n%s", usage())
		}
		ok, err := cfg.RemoveLibrary(os.Args[2])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no library with id %s", os.Args[2])
		}
		fmt.Println("removed")
		return nil

	case "rename":
		if len(os.Args) != 4 {
			return fmt.Errorf("rename needs a library id and a new name\n%s", usage())
		}
		ok, err := cfg.RenameLibrary(os.Args[2], os.Args[3])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no library with id %s", os.Args[2])
		}
		fmt.Println("renamed")
		return nil

	case "list":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "ID\tNAME\tPATH\tLAST SCAN")
		for _, lib := range cfg.Libraries() {
			last := "never"
			if lib.LastScan != nil {
				last = lib.LastScan.Format("2006-01-02 15:04:05")
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", lib.ID, lib.Name, lib.Path, last)
		}
		return w.Flush()

	case "scan":
		sc := scanner.New(fsys, cfg, clockwork.NewRealClock())
		agg := scanner.NewAggregator(cfg, sc)

		entries, results := agg.ScanAll(ctx)

		for id, res := range results {
			if res.Status == scanner.StatusFailed {
				log.Error().Err(res.Err).Str("library", id).Msg("library scan failed")
				fmt.Printf("library %s: FAILED: %s\n", id, res.Err)
				continue
			}
			fmt.Printf("library %s: %s (%d entries, %d warnings)\n",
				id, res.Status, len(res.Entries), len(res.Warnings))
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "NAME\tKIND\tSIZE\tCOVER")
		for _, e := range entries {
			cover := e.CoverPath
			if cover == "" {
				cover = "-"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Kind, helpers.FormatFileSize(e.Size), cover)
		}
		return w.Flush()

	default:
		return fmt.Errorf("unknown command %q\n%s", os.Args[1], usage())
	}
}
