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

// Package config owns the process-wide settings.json document and the
// library registry stored under its "libraries" key. The file is shared
// with the UI layer (language, theme), so loading and saving is
// read-merge-write: keys the core does not own are carried through
// untouched.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ComicShelfProject/comicshelf-core/pkg/catalog"
	"github.com/ComicShelfProject/comicshelf-core/pkg/helpers/syncutil"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	// SchemaVersion is the settings document schema this build writes.
	SchemaVersion = 1
	// CfgEnv overrides the settings.json location.
	CfgEnv = "COMICSHELF_CFG"
	// SettingsFile is the settings document filename.
	SettingsFile = "settings.json"

	schemaKey    = "schema_version"
	librariesKey = "libraries"
)

// Library is one registered library root. The id is opaque and stable for
// the lifetime of the registration; the path is the unique key.
type Library struct {
	LastScan *time.Time `json:"last_scan,omitempty"`
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Path     string     `json:"path"`
}

// Instance owns settings.json. Constructed once per process and passed by
// reference; there is no ambient singleton.
type Instance struct {
	fs        afero.Fs
	extra     map[string]json.RawMessage
	cfgPath   string
	libraries []Library
	mu        syncutil.RWMutex
}

// NewConfig loads (or creates) settings.json under configDir. The CfgEnv
// environment variable overrides the full file path.
func NewConfig(fsys afero.Fs, configDir string) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, SettingsFile)
	}

	cfg := Instance{
		fs:      fsys,
		cfgPath: cfgPath,
		extra:   make(map[string]json.RawMessage),
	}

	if _, err := fsys.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Str("path", cfgPath).Msg("saving new default settings to disk")
		if err := fsys.MkdirAll(filepath.Dir(cfgPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		cfg.mu.Lock()
		err = cfg.saveLocked()
		cfg.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.Load(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Path returns the settings.json location.
func (c *Instance) Path() string {
	return c.cfgPath
}

// Load reads settings.json, replacing in-memory state. Registry entries
// written by older frontends without ids are assigned one and persisted
// immediately so ids stay stable across runs.
func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := afero.ReadFile(c.fs, c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	// A missing schema key means a legacy document; anything else must
	// match exactly.
	if raw, ok := doc[schemaKey]; ok {
		var schema int
		if err := json.Unmarshal(raw, &schema); err != nil {
			return fmt.Errorf("failed to unmarshal schema version: %w", err)
		}
		if schema != SchemaVersion {
			log.Error().Msgf("schema version mismatch: got %d, expecting %d", schema, SchemaVersion)
			return errors.New("schema version mismatch")
		}
	}

	var libs []Library
	if raw, ok := doc[librariesKey]; ok {
		if err := json.Unmarshal(raw, &libs); err != nil {
			return fmt.Errorf("failed to unmarshal libraries: %w", err)
		}
	}

	migrated := false
	for i := range libs {
		libs[i].Path = catalog.CanonicalPath(libs[i].Path)
		if libs[i].ID == "" {
			libs[i].ID = uuid.NewString()
			migrated = true
		}
	}

	delete(doc, schemaKey)
	delete(doc, librariesKey)

	c.extra = doc
	c.libraries = libs

	if migrated {
		log.Info().Msg("assigned ids to legacy library entries")
		return c.saveLocked()
	}

	return nil
}

// Save persists the full document.
func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

// saveLocked writes settings.json atomically, merging owned keys over the
// preserved unknown ones. Callers must hold the write lock.
func (c *Instance) saveLocked() error {
	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	doc := make(map[string]json.RawMessage, len(c.extra)+2)
	for k, v := range c.extra {
		doc[k] = v
	}

	schema, err := json.Marshal(SchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to marshal schema version: %w", err)
	}
	doc[schemaKey] = schema

	libs, err := json.Marshal(c.libraries)
	if err != nil {
		return fmt.Errorf("failed to marshal libraries: %w", err)
	}
	doc[librariesKey] = libs

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	tmp := c.cfgPath + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := c.fs.Rename(tmp, c.cfgPath); err != nil {
		_ = c.fs.Remove(tmp)
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
