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

package taxonomy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talaria-bio/talaria/chunker"
	"github.com/talaria-bio/talaria/manifest"
)

func TestNCBIExtractorParsesReadmeDate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("Taxonomy dump released 2024-03-15\n"), 0o644))

	v, err := NCBIExtractor{}.Extract(dir, "taxonomy")
	require.NoError(t, err)
	require.Equal(t, "2024-03-15", v.VersionStr)
	require.Equal(t, "ncbi", v.Source)
}

func TestNCBIExtractorFallsBackToMtime(t *testing.T) {
	dir := t.TempDir()

	v, err := NCBIExtractor{}.Extract(dir, "taxonomy")
	require.NoError(t, err)
	require.Len(t, v.VersionStr, len("2024-03-15"))
}

func TestUniProtExtractorParsesReleaseNotes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "releasenotes.txt"), []byte("UniProt Release 2024_04\nRelease: 2024_04\n"), 0o644))

	v, err := UniProtExtractor{}.Extract(dir, "sequences")
	require.NoError(t, err)
	require.Equal(t, "2024_04", v.VersionStr)
	require.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), v.ReleaseDate)
}

func TestUniProtExtractorFallsBackToMtimeMonthly(t *testing.T) {
	dir := t.TempDir()

	v, err := UniProtExtractor{}.Extract(dir, "sequences")
	require.NoError(t, err)
	require.True(t, strings.Contains(v.VersionStr, "_"))
	require.Equal(t, 1, v.ReleaseDate.Day())
	require.Equal(t, 0, v.ReleaseDate.Hour())
}

func TestCustomExtractorReadsVersionFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "VERSION"), []byte("20250915_053033\n"), 0o644))

	v, err := CustomExtractor{Name: "paper-db"}.Extract(dir, "custom")
	require.NoError(t, err)
	require.Equal(t, "20250915_053033", v.VersionStr)
	require.Equal(t, "paper-db", v.Source)
}

func TestRegistryDispatchesBySourceTag(t *testing.T) {
	reg := NewRegistry()
	ncbiDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(ncbiDir, "readme.txt"), []byte("Release 2023-11-01\n"), 0o644))

	v, err := reg.Extract("ncbi", ncbiDir, "taxonomy")
	require.NoError(t, err)
	require.Equal(t, "2023-11-01", v.VersionStr)

	customDir := t.TempDir()
	v2, err := reg.Extract("my-custom-source", customDir, "custom")
	require.NoError(t, err)
	require.Equal(t, "my-custom-source", v2.Source)
}

func TestParseNodesAndNamesDump(t *testing.T) {
	nodes := strings.NewReader(
		"9606\t|\t9605\t|\tspecies\t|\n" +
			"9605\t|\t9604\t|\tgenus\t|\n")
	names := strings.NewReader(
		"9606\t|\tHomo sapiens\t|\t\t|\tscientific name\t|\n" +
			"9606\t|\tHuman\t|\t\t|\tcommon name\t|\n" +
			"9605\t|\tHomo\t|\t\t|\tscientific name\t|\n")

	snap := NewSnapshot()
	require.NoError(t, ParseNodesDump(nodes, snap))
	require.NoError(t, ParseNamesDump(names, snap))

	require.Equal(t, "Homo sapiens", snap.Nodes[chunker.TaxonID(9606)].Name)
	require.Equal(t, chunker.TaxonID(9605), snap.Nodes[chunker.TaxonID(9606)].ParentID)
	require.Equal(t, "species", snap.Nodes[chunker.TaxonID(9606)].Rank)
	require.Equal(t, "Homo", snap.Nodes[chunker.TaxonID(9605)].Name)
}

func TestSnapshotHashesAreDeterministicAndFeedTaxonomyRoot(t *testing.T) {
	snap := NewSnapshot()
	snap.Nodes[1] = Node{ID: 1, ParentID: 0, Rank: "root", Name: "root"}
	snap.Nodes[2] = Node{ID: 2, ParentID: 1, Rank: "species", Name: "A"}

	h1 := snap.Hashes()
	h2 := snap.Hashes()
	require.Equal(t, h1, h2)

	root := manifest.TaxonomyRootOf(h1)
	require.NotEqual(t, manifest.EmptyTaxonomyRoot(), root)
}

func TestSnapshotDiffDetectsAddRemoveRename(t *testing.T) {
	a := NewSnapshot()
	a.Nodes[1] = Node{ID: 1, Name: "Alpha", ParentID: 0}
	a.Nodes[2] = Node{ID: 2, Name: "Beta", ParentID: 1}

	b := NewSnapshot()
	b.Nodes[1] = Node{ID: 1, Name: "Alpha", ParentID: 0}
	b.Nodes[2] = Node{ID: 2, Name: "Beta Renamed", ParentID: 1}
	b.Nodes[3] = Node{ID: 3, Name: "Gamma", ParentID: 1}

	d := Diff(a, b)
	require.Equal(t, []chunker.TaxonID{3}, d.AddedTaxa)
	require.Empty(t, d.RemovedTaxa)
	require.Equal(t, []chunker.TaxonID{2}, d.RenamedTaxa)
}

func TestEmptySnapshotUsesEmptyTaxonomyRoot(t *testing.T) {
	snap := NewSnapshot()
	require.Equal(t, manifest.EmptyTaxonomyRoot(), manifest.TaxonomyRootOf(snap.Hashes()))
}
