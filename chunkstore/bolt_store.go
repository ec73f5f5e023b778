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
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/talaria-bio/talaria/errkind"
	"github.com/talaria-bio/talaria/hash"
)

var chunksBucket = []byte("chunks")

// BoltStore is the default Store backend: an embedded, crash-safe,
// single-file key-value store (go.etcd.io/bbolt).
type BoltStore struct {
	db  *bolt.DB
	log *zap.Logger

	putCalls   uint64
	uniquePuts uint64
}

var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens (creating if necessary) a BoltStore at path.
func OpenBoltStore(path string, log *zap.Logger) (*BoltStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(errkind.IOError, "open bolt store %s: %v", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(chunksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(errkind.IOError, "init bolt store %s: %v", path, err)
	}
	return &BoltStore{db: db, log: log}, nil
}

func (s *BoltStore) Put(_ context.Context, c Chunk) error {
	atomic.AddUint64(&s.putCalls, 1)

	var isNew bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(chunksBucket)
		key := c.Hash()
		if b.Get(key[:]) != nil {
			return nil // idempotent
		}
		isNew = true
		return b.Put(key[:], c.Data())
	})
	if err != nil {
		return errors.Wrapf(errkind.IOError, "put %s: %v", c.Hash(), err)
	}
	if isNew {
		atomic.AddUint64(&s.uniquePuts, 1)
	}
	return nil
}

func (s *BoltStore) Get(_ context.Context, f hash.F) (Chunk, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(chunksBucket)
		v := b.Get(f[:])
		if v == nil {
			return errors.Wrapf(errkind.ChunkNotFound, "%s", f)
		}
		data = append(data, v...) // copy out of the mmap'd page before the tx closes
		return nil
	})
	if err != nil {
		return EmptyChunk, err
	}
	if hash.Of(data) != f {
		s.log.Error("chunk corrupted at read", zap.String("fingerprint", f.String()))
		return EmptyChunk, errors.Wrapf(errkind.HashMismatch, "%s", f)
	}
	return NewChunkWithHash(f, data), nil
}

func (s *BoltStore) Exists(_ context.Context, f hash.F) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(chunksBucket).Get(f[:]) != nil
		return nil
	})
	return ok, err
}

func (s *BoltStore) ExistsBatch(_ context.Context, fs []hash.F) ([]bool, error) {
	out := make([]bool, len(fs))
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(chunksBucket)
		for i, f := range fs {
			out[i] = b.Get(f[:]) != nil
		}
		return nil
	})
	return out, err
}

func (s *BoltStore) Enumerate(ctx context.Context) (<-chan hash.F, error) {
	var fs []hash.F
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(chunksBucket).ForEach(func(k, _ []byte) error {
			var f hash.F
			copy(f[:], k)
			fs = append(fs, f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

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

func (s *BoltStore) Remove(_ context.Context, f hash.F) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chunksBucket).Delete(f[:])
	})
}

// Flush is a no-op: bbolt commits each Update transaction durably (fsync by
// default) so there is nothing buffered to force out.
func (s *BoltStore) Flush(context.Context) error { return nil }

func (s *BoltStore) Stats() Stats {
	var count, totalBytes uint64
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(chunksBucket)
		stats := b.Stats()
		count = uint64(stats.KeyN)
		return b.ForEach(func(_, v []byte) error {
			totalBytes += uint64(len(v))
			return nil
		})
	})

	puts := atomic.LoadUint64(&s.putCalls)
	unique := atomic.LoadUint64(&s.uniquePuts)
	ratio := 1.0
	if unique > 0 {
		ratio = float64(puts) / float64(unique)
	}

	return Stats{Count: count, Bytes: totalBytes, DedupRatio: ratio}
}

// Close releases the underlying file handle.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
