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

package chunkstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/talaria-bio/talaria/errkind"
	"github.com/talaria-bio/talaria/hash"
)

// factory builds fresh Store instances so one conformance suite can run
// against every backend, parameterized by a store-constructing closure.
type factory func() Store

// ChunkStoreSuite is the conformance suite every Store implementation must
// pass.
type ChunkStoreSuite struct {
	suite.Suite
	New factory
}

func TestMemoryStoreConformance(t *testing.T) {
	suite.Run(t, &ChunkStoreSuite{New: func() Store { return NewMemoryStore() }})
}

func TestBoltStoreConformance(t *testing.T) {
	dir := t.TempDir()
	i := 0
	suite.Run(t, &ChunkStoreSuite{New: func() Store {
		i++
		s, err := OpenBoltStore(filepath.Join(dir, "store"+string(rune('0'+i))+".db"), nil)
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	}})
}

func (s *ChunkStoreSuite) TestPutGetRoundTrip() {
	ctx := context.Background()
	store := s.New()
	c := NewChunk([]byte("ACGTACGT"))

	s.Require().NoError(store.Put(ctx, c))
	got, err := store.Get(ctx, c.Hash())
	s.Require().NoError(err)
	s.Equal(c.Data(), got.Data())
}

func (s *ChunkStoreSuite) TestPutIsIdempotent() {
	ctx := context.Background()
	store := s.New()
	c := NewChunk([]byte("ACGTACGT"))

	s.Require().NoError(store.Put(ctx, c))
	s.Require().NoError(store.Put(ctx, c))
	s.Equal(uint64(1), store.Stats().Count)
}

func (s *ChunkStoreSuite) TestGetMissingFailsWithChunkNotFound() {
	ctx := context.Background()
	store := s.New()
	_, err := store.Get(ctx, hash.Of([]byte("nope")))
	s.ErrorIs(err, errkind.ChunkNotFound)
}

func (s *ChunkStoreSuite) TestExistsAfterPut() {
	ctx := context.Background()
	store := s.New()
	c := NewChunk([]byte("ACGT"))

	ok, err := store.Exists(ctx, c.Hash())
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(store.Put(ctx, c))

	ok, err = store.Exists(ctx, c.Hash())
	s.Require().NoError(err)
	s.True(ok)
}

func (s *ChunkStoreSuite) TestExistsBatch() {
	ctx := context.Background()
	store := s.New()
	c1 := NewChunk([]byte("one"))
	c2 := NewChunk([]byte("two"))
	s.Require().NoError(store.Put(ctx, c1))

	got, err := store.ExistsBatch(ctx, []hash.F{c1.Hash(), c2.Hash()})
	s.Require().NoError(err)
	s.Equal([]bool{true, false}, got)
}

func (s *ChunkStoreSuite) TestEnumerateReturnsAllPutChunks() {
	ctx := context.Background()
	store := s.New()
	want := hash.NewSet()
	for _, data := range []string{"a", "b", "c"} {
		c := NewChunk([]byte(data))
		s.Require().NoError(store.Put(ctx, c))
		want.Insert(c.Hash())
	}

	ch, err := store.Enumerate(ctx)
	s.Require().NoError(err)
	got := hash.NewSet()
	for f := range ch {
		got.Insert(f)
	}
	s.Equal(want.Slice(), got.Slice())
}

func (s *ChunkStoreSuite) TestRemove() {
	ctx := context.Background()
	store := s.New()
	c := NewChunk([]byte("gone"))
	s.Require().NoError(store.Put(ctx, c))
	s.Require().NoError(store.Remove(ctx, c.Hash()))

	ok, err := store.Exists(ctx, c.Hash())
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ChunkStoreSuite) TestFlushDoesNotError() {
	s.Require().NoError(s.New().Flush(context.Background()))
}

// TestContentAddressingRoundTrip is property P1: for all bytes b,
// get(put(b)) == b and hash(b) == F such that exists(F).
func TestContentAddressingRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []Store{NewMemoryStore()} {
		for _, payload := range [][]byte{[]byte("MKT..."), []byte(""), []byte("A")} {
			c := NewChunk(payload)
			if err := backend.Put(ctx, c); err != nil {
				t.Fatal(err)
			}
			got, err := backend.Get(ctx, hash.Of(payload))
			if err != nil {
				t.Fatal(err)
			}
			if string(got.Data()) != string(payload) {
				t.Fatalf("round trip mismatch: got %q want %q", got.Data(), payload)
			}
			ok, err := backend.Exists(ctx, hash.Of(payload))
			if err != nil || !ok {
				t.Fatalf("exists(hash(b)) should be true after put: ok=%v err=%v", ok, err)
			}
		}
	}
}
