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

package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talaria-bio/talaria/hash"
)

func newTestLayer(t *testing.T) *Layer {
	t.Helper()
	l, err := NewLayer(NewMemoryMetaStore(), NewMemoryMetaStore(), nil)
	require.NoError(t, err)
	return l
}

// TestCrossDatabaseDedup implements scenario S1: three identical
// byte-strings arriving from UniProt, NCBI, and RefSeq headers must collapse
// into one canonical sequence with three distinct representations.
func TestCrossDatabaseDedup(t *testing.T) {
	l := newTestLayer(t)
	now := time.Unix(1_700_000_000, 0).UTC()
	body := []byte("MKTAYIAKQRQISFVKSHFSRQLEERLGLIEVQAPILSRVGDGTQDNLSGAEKAVQVKVKALPDAQFEVVHSLAKWKRQTLGQHDFSAGEGLYTHMKALRPDEDRLSPLHSVYVDQWDWELVMGDGERQFSTLKSTVEAIWAGIKATEAAVSEEFGLAPFLPDQIHFVHSQELLSRYPDLDAKGRERAIAKDLGAVFLVGIGGKLSDGHRHDVRAPDYDDWSTPSELGHAGLNGDILVWNPVLEDAFELSSMGIRVDADTLKHQLALTGDEDRLELEWHQALLRGEMPQTIGGGIGQSRLTMLLLQLPHIGQVQAGVWPAAVRESVPSLL")

	uniprotF, err := l.StoreSequence(body, "sp|P12345|TEST_HUMAN Test protein", "UniProt", []string{"P12345"}, now)
	require.NoError(t, err)

	ncbiF, err := l.StoreSequence(body, ">NP_000001.1 test protein [Homo sapiens]", "NCBI", []string{"NP_000001.1"}, now)
	require.NoError(t, err)

	refseqF, err := l.StoreSequence(body, ">XP_000001.1 test protein isoform X1", "RefSeq", []string{"XP_000001.1"}, now)
	require.NoError(t, err)

	require.Equal(t, uniprotF, ncbiF)
	require.Equal(t, uniprotF, refseqF)

	canon, err := l.LoadCanonical(uniprotF)
	require.NoError(t, err)
	require.Equal(t, len(body), canon.Length)

	reps, err := l.LoadRepresentations(uniprotF)
	require.NoError(t, err)
	require.Len(t, reps.Reps, 3)

	sources := map[string]bool{}
	for _, r := range reps.Slice() {
		sources[r.Source] = true
	}
	require.True(t, sources["UniProt"])
	require.True(t, sources["NCBI"])
	require.True(t, sources["RefSeq"])
}

// TestDeduplicationProperty implements property P2: storing the same
// sequence bytes N times, regardless of case or whitespace noise, always
// yields a single F_seq and the canonical record is persisted exactly once.
func TestDeduplicationProperty(t *testing.T) {
	l := newTestLayer(t)
	now := time.Now().UTC()

	variants := [][]byte{
		[]byte("ACDEFGHIKLMNPQRSTVWY"),
		[]byte("acdefghiklmnpqrstvwy"),
		[]byte("ACDE FGHI\tKLMN\nPQRS TVWY"),
	}

	var want hash.F
	for i, v := range variants {
		f, err := l.StoreSequence(v, "header", "src", nil, now)
		require.NoError(t, err)
		if i == 0 {
			want = f
		} else {
			require.Equal(t, want, f)
		}
	}

	canon, err := l.LoadCanonical(want)
	require.NoError(t, err)
	require.Equal(t, "ACDEFGHIKLMNPQRSTVWY", string(canon.Bytes))
}

func TestStoreBatchDedupesWithinBatch(t *testing.T) {
	l := newTestLayer(t)
	now := time.Now().UTC()

	items := []Item{
		{Bytes: []byte("ACGT"), Header: "h1", Source: "UniProt"},
		{Bytes: []byte("acgt"), Header: "h2", Source: "NCBI"},
		{Bytes: []byte("TTTT"), Header: "h3", Source: "RefSeq"},
	}
	hashes, err := l.StoreBatch(items, now)
	require.NoError(t, err)
	require.Len(t, hashes, 3)
	require.Equal(t, hashes[0], hashes[1])
	require.NotEqual(t, hashes[0], hashes[2])

	reps, err := l.LoadRepresentations(hashes[0])
	require.NoError(t, err)
	require.Len(t, reps.Reps, 2)
}

func TestLoadCanonicalMissing(t *testing.T) {
	l := newTestLayer(t)
	var absent hash.F
	absent[0] = 0xAB
	_, err := l.LoadCanonical(absent)
	require.Error(t, err)
}

func TestSequenceExists(t *testing.T) {
	l := newTestLayer(t)
	now := time.Now().UTC()

	f, err := l.StoreSequence([]byte("MSEQ"), "h", "src", nil, now)
	require.NoError(t, err)

	ok, err := l.SequenceExists(f)
	require.NoError(t, err)
	require.True(t, ok)

	var absent hash.F
	absent[0] = 0xFF
	ok, err = l.SequenceExists(absent)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestListAllHashes(t *testing.T) {
	l := newTestLayer(t)
	now := time.Now().UTC()

	f1, err := l.StoreSequence([]byte("AAAA"), "h1", "src", nil, now)
	require.NoError(t, err)
	f2, err := l.StoreSequence([]byte("CCCC"), "h2", "src", nil, now)
	require.NoError(t, err)

	seen := map[hash.F]bool{}
	require.NoError(t, l.ListAllHashes(func(f hash.F) bool {
		seen[f] = true
		return true
	}))
	require.True(t, seen[f1])
	require.True(t, seen[f2])
}

func TestLoadRepresentationsUnknownIsEmpty(t *testing.T) {
	l := newTestLayer(t)
	var absent hash.F
	reps, err := l.LoadRepresentations(absent)
	require.NoError(t, err)
	require.Empty(t, reps.Reps)
}
