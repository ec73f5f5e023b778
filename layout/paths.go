// Copyright 2026 The Talaria Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package layout defines the on-disk directory structure (spec §6): the
// versioned sequence tree, the current taxonomy snapshot, the file-backed
// chunk layout, and resumable-download workspaces.
package layout

import (
	"path/filepath"
	"time"

	"github.com/talaria-bio/talaria/hash"
)

// ReservedAliases names version aliases that are never user-assignable
// (spec §6: "current, latest, stable are reserved").
var ReservedAliases = map[string]bool{
	"current": true,
	"latest":  true,
	"stable":  true,
}

// Root describes a Talaria data directory, rooted at Base.
type Root struct {
	Base string
}

func NewRoot(base string) Root {
	return Root{Base: base}
}

// SequenceDatasetDir is sequences/<source>/<dataset>.
func (r Root) SequenceDatasetDir(source, dataset string) string {
	return filepath.Join(r.Base, "sequences", source, dataset)
}

// VersionsDir is sequences/<source>/<dataset>/versions.
func (r Root) VersionsDir(source, dataset string) string {
	return filepath.Join(r.SequenceDatasetDir(source, dataset), "versions")
}

// VersionDir is sequences/<source>/<dataset>/versions/<timestamp>.
func (r Root) VersionDir(source, dataset, timestamp string) string {
	return filepath.Join(r.VersionsDir(source, dataset), timestamp)
}

// VersionManifestPath is .../versions/<timestamp>/version.json.
func (r Root) VersionManifestPath(source, dataset, timestamp string) string {
	return filepath.Join(r.VersionDir(source, dataset, timestamp), "version.json")
}

// CurrentAliasPath is the versions/current symlink path.
func (r Root) CurrentAliasPath(source, dataset string) string {
	return filepath.Join(r.VersionsDir(source, dataset), "current")
}

// AliasPath is the symlink path for an arbitrary alias (current, latest,
// stable, or a user/upstream alias like "paper-2024"/"2024_04").
func (r Root) AliasPath(source, dataset, alias string) string {
	return filepath.Join(r.VersionsDir(source, dataset), alias)
}

// TaxonomyCurrentDir is taxonomy/current.
func (r Root) TaxonomyCurrentDir() string {
	return filepath.Join(r.Base, "taxonomy", "current")
}

// TaxonomyTreeDir is taxonomy/current/tree.
func (r Root) TaxonomyTreeDir() string {
	return filepath.Join(r.TaxonomyCurrentDir(), "tree")
}

// TaxonomyMappingsDir is taxonomy/current/mappings.
func (r Root) TaxonomyMappingsDir() string {
	return filepath.Join(r.TaxonomyCurrentDir(), "mappings")
}

// ChunksDir is the optional file-backed chunk layout root.
func (r Root) ChunksDir() string {
	return filepath.Join(r.Base, "chunks")
}

// ChunkPath is chunks/<F_hex>.
func (r Root) ChunkPath(f hash.F) string {
	return filepath.Join(r.ChunksDir(), f.String())
}

// WorkspacesDir is the root of all in-progress download workspaces.
func (r Root) WorkspacesDir() string {
	return filepath.Join(r.Base, "workspaces")
}

// WorkspaceDir is workspaces/<downloadID>.
func (r Root) WorkspaceDir(downloadID string) string {
	return filepath.Join(r.WorkspacesDir(), downloadID)
}

// WorkspaceStatePath is workspaces/<downloadID>/state.json.
func (r Root) WorkspaceStatePath(downloadID string) string {
	return filepath.Join(r.WorkspaceDir(downloadID), "state.json")
}

// VersionDirName renders t as the strict YYYYMMDD_HHMMSS format version
// directory names must use (spec §6).
func VersionDirName(t time.Time) string {
	return t.UTC().Format("20060102_150405")
}

// IsValidVersionDirName reports whether name matches the strict timestamp
// format, as opposed to being an alias.
func IsValidVersionDirName(name string) bool {
	_, err := time.Parse("20060102_150405", name)
	return err == nil
}

// IsReservedAlias reports whether alias is one of the names the layout
// reserves for itself.
func IsReservedAlias(alias string) bool {
	return ReservedAliases[alias]
}
