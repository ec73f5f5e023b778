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
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/talaria-bio/talaria/errkind"
	"github.com/talaria-bio/talaria/hash"
)

// stripes bounds the number of per-key locks the layer holds open at once,
// serializing writes to a given F_seq without paying for a full lock-per-key
// map (spec §5: "internal write-lock held briefly around the (canonical,
// representations) pair per F_seq").
const stripes = 256

// Layer is the sequence dedup layer (spec C3). Writes are ordered
// canonical-first so a crash between the two writes never leaves a
// representation without its canonical.
type Layer struct {
	canon MetaStore
	reps  MetaStore
	bloom *SequenceIndex
	log   *zap.Logger

	locks [stripes]sync.Mutex
}

// NewLayer builds a Layer over the given canonical/representation
// MetaStores, fronted by a bloom filter sized per spec C3's default.
func NewLayer(canon, reps MetaStore, log *zap.Logger) (*Layer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	bloom, err := NewSequenceIndex(DefaultBloomCapacity, DefaultBloomFPRate)
	if err != nil {
		return nil, errors.Wrap(err, "build sequence index")
	}
	return &Layer{canon: canon, reps: reps, bloom: bloom, log: log}, nil
}

func (l *Layer) lockFor(f hash.F) *sync.Mutex {
	return &l.locks[f[0]%stripes]
}

// detectSequenceType makes a best-effort guess at DNA vs Protein from the
// canonicalized alphabet: a sequence using only A, C, G, T, N and U is
// treated as DNA, anything wider as Protein.
func detectSequenceType(canonical []byte) SequenceType {
	for _, b := range canonical {
		switch b {
		case 'A', 'C', 'G', 'T', 'N', 'U':
		default:
			return Protein
		}
	}
	return DNA
}

// StoreSequence computes F_seq from bytes, stores the canonical record if
// new, and appends a representation deduplicated by (source, header,
// accessions).
func (l *Layer) StoreSequence(bytes []byte, header, source string, accessions []string, now time.Time) (hash.F, error) {
	canonical := Canonicalize(bytes)
	f := hash.Of(canonical)

	mu := l.lockFor(f)
	mu.Lock()
	defer mu.Unlock()

	if err := l.ensureCanonical(f, canonical, now); err != nil {
		return hash.F{}, err
	}
	if err := l.appendRepresentation(f, Representation{
		Source:     source,
		Header:     header,
		Accessions: accessions,
		LastSeen:   now,
	}); err != nil {
		return hash.F{}, err
	}

	l.bloom.Add(f)
	return f, nil
}

// StoreBatch is the batched variant of StoreSequence: amortizes persistence
// by holding each item's stripe lock only once and skipping redundant
// re-encodes of a canonical already seen earlier in the same batch.
func (l *Layer) StoreBatch(items []Item, now time.Time) ([]hash.F, error) {
	out := make([]hash.F, len(items))
	seenThisBatch := make(map[hash.F]bool, len(items))

	for i, item := range items {
		canonical := Canonicalize(item.Bytes)
		f := hash.Of(canonical)
		out[i] = f

		mu := l.lockFor(f)
		mu.Lock()
		if !seenThisBatch[f] {
			if err := l.ensureCanonical(f, canonical, now); err != nil {
				mu.Unlock()
				return nil, err
			}
			seenThisBatch[f] = true
		}
		err := l.appendRepresentation(f, Representation{
			Source:   item.Source,
			Header:   item.Header,
			LastSeen: now,
		})
		mu.Unlock()
		if err != nil {
			return nil, err
		}
		l.bloom.Add(f)
	}
	return out, nil
}

func (l *Layer) ensureCanonical(f hash.F, canonical []byte, now time.Time) error {
	_, ok, err := l.canon.Get(f)
	if err != nil {
		return errors.Wrap(err, "read canonical")
	}
	if ok {
		return l.touchLastSeen(f, now)
	}

	rec := CanonicalSequence{
		FSeq:         f,
		Bytes:        canonical,
		Length:       len(canonical),
		SequenceType: detectSequenceType(canonical),
		FirstSeen:    now,
		LastSeen:     now,
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encode canonical")
	}
	return l.canon.Put(f, buf)
}

func (l *Layer) touchLastSeen(f hash.F, now time.Time) error {
	buf, ok, err := l.canon.Get(f)
	if err != nil || !ok {
		return err
	}
	var rec CanonicalSequence
	if err := json.Unmarshal(buf, &rec); err != nil {
		return errors.Wrap(err, "decode canonical")
	}
	rec.LastSeen = now
	out, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return l.canon.Put(f, out)
}

func (l *Layer) appendRepresentation(f hash.F, r Representation) error {
	buf, ok, err := l.reps.Get(f)
	if err != nil {
		return errors.Wrap(err, "read representations")
	}

	sr := NewSequenceRepresentations(f)
	if ok {
		if err := json.Unmarshal(buf, &sr); err != nil {
			return errors.Wrap(err, "decode representations")
		}
	}
	sr.Add(r)

	out, err := json.Marshal(sr)
	if err != nil {
		return errors.Wrap(err, "encode representations")
	}
	return l.reps.Put(f, out)
}

// LoadCanonical fails with errkind.CanonicalNotFound if f is unknown.
func (l *Layer) LoadCanonical(f hash.F) (CanonicalSequence, error) {
	buf, ok, err := l.canon.Get(f)
	if err != nil {
		return CanonicalSequence{}, err
	}
	if !ok {
		return CanonicalSequence{}, errors.Wrapf(errkind.CanonicalNotFound, "%s", f)
	}
	var rec CanonicalSequence
	if err := json.Unmarshal(buf, &rec); err != nil {
		return CanonicalSequence{}, errors.Wrap(err, "decode canonical")
	}
	return rec, nil
}

// LoadRepresentations never fails with NotFound: an unknown F_seq yields an
// empty set.
func (l *Layer) LoadRepresentations(f hash.F) (SequenceRepresentations, error) {
	buf, ok, err := l.reps.Get(f)
	if err != nil {
		return SequenceRepresentations{}, err
	}
	if !ok {
		return NewSequenceRepresentations(f), nil
	}
	var sr SequenceRepresentations
	if err := json.Unmarshal(buf, &sr); err != nil {
		return SequenceRepresentations{}, errors.Wrap(err, "decode representations")
	}
	return sr, nil
}

// SequenceExists is the O(1)-expected existence check: the bloom filter
// short-circuits true negatives; a positive is confirmed against the
// canonical map to filter out the filter's false-positive rate.
func (l *Layer) SequenceExists(f hash.F) (bool, error) {
	if !l.bloom.MayContain(f) {
		return false, nil
	}
	_, ok, err := l.canon.Get(f)
	return ok, err
}

// ListAllHashes iterates every known F_seq, order unspecified. Returning
// false from fn stops iteration early without surfacing an error.
func (l *Layer) ListAllHashes(fn func(hash.F) bool) error {
	err := l.canon.ForEach(func(f hash.F, _ []byte) error {
		if !fn(f) {
			return errStopIteration
		}
		return nil
	})
	if errors.Is(err, errStopIteration) {
		return nil
	}
	return err
}

var errStopIteration = errors.New("stop iteration")

// RebuildIndex repopulates the bloom filter from the canonical map, for use
// after a crash recovery or when SequenceIndex.NeedsResize reports true.
func (l *Layer) RebuildIndex(newCapacity uint64, fpRate float64) error {
	return l.bloom.Rebuild(newCapacity, fpRate, func(visit func(hash.F) bool) {
		l.ListAllHashes(visit)
	})
}
