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

	bolt "go.etcd.io/bbolt"

	"github.com/talaria-bio/talaria/hash"
)

// MetaStore is a small keyed-by-fingerprint persistence abstraction the
// dedup layer's two logical maps (canon, reps) are built on, sharing the
// same embedded-KV family as chunkstore.BoltStore (spec C3: "Built on C2").
type MetaStore interface {
	Get(f hash.F) ([]byte, bool, error)
	Put(f hash.F, value []byte) error
	ForEach(fn func(f hash.F, value []byte) error) error
}

// MemoryMetaStore is an in-memory MetaStore for tests.
type MemoryMetaStore struct {
	mu sync.RWMutex
	m  map[hash.F][]byte
}

func NewMemoryMetaStore() *MemoryMetaStore {
	return &MemoryMetaStore{m: make(map[hash.F][]byte)}
}

func (s *MemoryMetaStore) Get(f hash.F) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[f]
	return v, ok, nil
}

func (s *MemoryMetaStore) Put(f hash.F, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[f] = value
	return nil
}

func (s *MemoryMetaStore) ForEach(fn func(f hash.F, value []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for f, v := range s.m {
		if err := fn(f, v); err != nil {
			return err
		}
	}
	return nil
}

// BoltMetaStore is the persistent MetaStore backend, one bbolt bucket per
// logical map.
type BoltMetaStore struct {
	db     *bolt.DB
	bucket []byte
}

func NewBoltMetaStore(db *bolt.DB, bucket string) (*BoltMetaStore, error) {
	b := []byte(bucket)
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(b)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &BoltMetaStore{db: db, bucket: b}, nil
}

func (s *BoltMetaStore) Get(f hash.F) ([]byte, bool, error) {
	var v []byte
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get(f[:])
		if raw != nil {
			v = append(v, raw...)
			ok = true
		}
		return nil
	})
	return v, ok, err
}

func (s *BoltMetaStore) Put(f hash.F, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(f[:], value)
	})
}

func (s *BoltMetaStore) ForEach(fn func(f hash.F, value []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, v []byte) error {
			var f hash.F
			copy(f[:], k)
			return fn(f, v)
		})
	})
}
