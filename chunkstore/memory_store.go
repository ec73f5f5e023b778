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
	"sync"

	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/errkind"
	"github.com/talaria-bio/talaria/hash"
)

// MemoryStore is an in-memory Store implementation, used by tests and by
// callers that want a disposable scratch store (spec C2: "the test suite
// also supplies an in-memory backend implementing the same contract").
type MemoryStore struct {
	mu sync.RWMutex
	m  map[hash.F][]byte

	putCalls   uint64
	uniquePuts uint64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[hash.F][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, c Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putCalls++
	if _, ok := s.m[c.Hash()]; ok {
		return nil // idempotent
	}
	s.m[c.Hash()] = c.Data()
	s.uniquePuts++
	return nil
}

func (s *MemoryStore) Get(_ context.Context, f hash.F) (Chunk, error) {
	s.mu.RLock()
	data, ok := s.m[f]
	s.mu.RUnlock()

	if !ok {
		return EmptyChunk, errors.Wrapf(errkind.ChunkNotFound, "%s", f)
	}
	if hash.Of(data) != f {
		return EmptyChunk, errors.Wrapf(errkind.HashMismatch, "%s", f)
	}
	return NewChunkWithHash(f, data), nil
}

func (s *MemoryStore) Exists(_ context.Context, f hash.F) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[f]
	return ok, nil
}

func (s *MemoryStore) ExistsBatch(ctx context.Context, fs []hash.F) ([]bool, error) {
	out := make([]bool, len(fs))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, f := range fs {
		_, out[i] = s.m[f]
	}
	return out, nil
}

func (s *MemoryStore) Enumerate(ctx context.Context) (<-chan hash.F, error) {
	s.mu.RLock()
	fs := make([]hash.F, 0, len(s.m))
	for f := range s.m {
		fs = append(fs, f)
	}
	s.mu.RUnlock()

	out := make(chan hash.F)
	go func() {
		defer close(out)
		for _, f := range fs {
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *MemoryStore) Remove(_ context.Context, f hash.F) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, f)
	return nil
}

func (s *MemoryStore) Flush(context.Context) error { return nil }

// Corrupt flips a byte of the blob stored under f, simulating on-disk bit
// rot for verifier tests (spec scenario S6: "overwrite a stored blob with a
// byte flip"). It is a test-only escape hatch; production code never calls
// it.
func (s *MemoryStore) Corrupt(f hash.F) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.m[f]
	if !ok || len(data) == 0 {
		return
	}
	corrupted := append([]byte(nil), data...)
	corrupted[0] ^= 0xFF
	s.m[f] = corrupted
}

func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bytes uint64
	for _, d := range s.m {
		bytes += uint64(len(d))
	}

	ratio := 1.0
	if s.uniquePuts > 0 {
		ratio = float64(s.putCalls) / float64(s.uniquePuts)
	}

	return Stats{
		Count:      uint64(len(s.m)),
		Bytes:      bytes,
		DedupRatio: ratio,
	}
}
