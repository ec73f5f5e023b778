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
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/holiman/bloomfilter/v2"

	"github.com/talaria-bio/talaria/hash"
)

// DefaultBloomCapacity and DefaultBloomFPRate size the front-line existence
// index per spec C3: "a bloom filter sized for >= 10^9 entries at <= 1%
// FPR".
const (
	DefaultBloomCapacity = 1_000_000_000
	DefaultBloomFPRate   = 0.01
)

type fingerprintHashable hash.F

// Sum64 feeds bloomfilter.Filter a fast, non-cryptographic hash of the
// content fingerprint; xxhash is already a teacher dependency used
// elsewhere for this exact purpose (fast, non-crypto indexing hashes).
func (f fingerprintHashable) Sum64() uint64 {
	return xxhash.Sum64(f[:])
}

// SequenceIndex is the probabilistic front line for sequence_exists: reads
// never block (bare RLock around an otherwise lock-free Contains check),
// and a resize swaps in a freshly built filter behind a brief exclusive
// lock, exactly as spec §5's "Shared resources" describes.
type SequenceIndex struct {
	mu     sync.RWMutex
	filter *bloomfilter.Filter
	count  uint64
	cap    uint64
}

// NewSequenceIndex builds an index sized for capacity entries at the given
// false-positive rate.
func NewSequenceIndex(capacity uint64, fpRate float64) (*SequenceIndex, error) {
	f, err := bloomfilter.NewOptimal(capacity, fpRate)
	if err != nil {
		return nil, err
	}
	return &SequenceIndex{filter: f, cap: capacity}, nil
}

// Add records f as present. A false negative never occurs; Contains may
// return a false positive (bounded by the configured rate).
func (s *SequenceIndex) Add(f hash.F) {
	s.mu.RLock()
	s.filter.Add(fingerprintHashable(f))
	s.mu.RUnlock()
	atomic.AddUint64(&s.count, 1)
}

// MayContain reports whether f has possibly been Added. False means
// definitely absent; true means probably present.
func (s *SequenceIndex) MayContain(f hash.F) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter.Contains(fingerprintHashable(f))
}

// NeedsResize reports whether the index has grown past a safe fill ratio for
// its configured capacity and false-positive rate, and should be rebuilt
// from the source of truth (list_all_hashes) at double the capacity.
func (s *SequenceIndex) NeedsResize() bool {
	return atomic.LoadUint64(&s.count) >= s.cap*8/10
}

// Rebuild replaces the filter with a fresh one at newCapacity, repopulated
// from every fingerprint produced by all. This is the "brief stop-the-world
// write lock" spec §5 calls for: readers block only for the duration of the
// swap, not the repopulation, because the new filter is built before the
// lock is acquired.
func (s *SequenceIndex) Rebuild(newCapacity uint64, fpRate float64, all func(func(hash.F) bool)) error {
	fresh, err := bloomfilter.NewOptimal(newCapacity, fpRate)
	if err != nil {
		return err
	}

	var n uint64
	all(func(f hash.F) bool {
		fresh.Add(fingerprintHashable(f))
		n++
		return true
	})

	s.mu.Lock()
	s.filter = fresh
	s.cap = newCapacity
	s.mu.Unlock()
	atomic.StoreUint64(&s.count, n)
	return nil
}
