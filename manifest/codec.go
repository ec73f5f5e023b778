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

package manifest

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/chunker"
	"github.com/talaria-bio/talaria/errkind"
	"github.com/talaria-bio/talaria/hash"
)

// BinaryMagic is the 4-byte header identifying a binary .tal manifest (spec
// §4.5.4 / §6: "T A L 0x01").
var BinaryMagic = [4]byte{'T', 'A', 'L', 0x01}

// EncodeJSON renders tm as pretty-printed UTF-8 JSON.
func EncodeJSON(tm TemporalManifest) ([]byte, error) {
	return json.MarshalIndent(jsonManifest(tm), "", "  ")
}

// DecodeJSON parses a JSON-encoded TemporalManifest.
func DecodeJSON(b []byte) (TemporalManifest, error) {
	var j jsonManifestDoc
	if err := json.Unmarshal(b, &j); err != nil {
		return TemporalManifest{}, errors.Wrapf(errkind.ParseError, "decode json manifest: %v", err)
	}
	tm, err := j.toManifest()
	if err != nil {
		return TemporalManifest{}, errors.Wrapf(errkind.ParseError, "decode json manifest: %v", err)
	}
	return tm, nil
}

// jsonManifestDoc mirrors TemporalManifest with JSON-friendly field
// encodings (hex fingerprints, RFC3339 timestamps).
type jsonManifestDoc struct {
	VersionID            string              `json:"version_id"`
	CreatedAt            time.Time           `json:"created_at"`
	SequenceVersion      string              `json:"sequence_version"`
	TaxonomyVersion      string              `json:"taxonomy_version"`
	SequenceTime         time.Time           `json:"sequence_time"`
	TaxonomyTime         time.Time           `json:"taxonomy_time"`
	SequenceRoot         string              `json:"sequence_root"`
	TaxonomyRoot         string              `json:"taxonomy_root"`
	ChunkIndex           []jsonChunkMeta     `json:"chunk_index"`
	TaxonomyManifestHash string              `json:"taxonomy_manifest_hash"`
	Discrepancies        []jsonDiscrepancy   `json:"discrepancies,omitempty"`
	ETag                 string              `json:"etag"`
	PreviousVersion      string              `json:"previous_version,omitempty"`
}

type jsonChunkMeta struct {
	FChunk        string   `json:"f_chunk"`
	TaxonIDs      []uint32 `json:"taxon_ids"`
	Size          int      `json:"size"`
	SequenceCount int      `json:"sequence_count"`
	ClassKind     int      `json:"class_kind"`
}

type jsonDiscrepancy struct {
	FChunk      string `json:"f_chunk"`
	TaxonID     uint32 `json:"taxon_id"`
	Description string `json:"description"`
}

func jsonManifest(tm TemporalManifest) jsonManifestDoc {
	j := jsonManifestDoc{
		VersionID:            tm.VersionID,
		CreatedAt:            tm.CreatedAt,
		SequenceVersion:      tm.SequenceVersion,
		TaxonomyVersion:      tm.TaxonomyVersion,
		SequenceTime:         tm.Coord.SequenceTime,
		TaxonomyTime:         tm.Coord.TaxonomyTime,
		SequenceRoot:         tm.SequenceRoot.String(),
		TaxonomyRoot:         tm.TaxonomyRoot.String(),
		TaxonomyManifestHash: tm.TaxonomyManifestHash.String(),
		ETag:                 tm.ETag,
		PreviousVersion:      tm.PreviousVersion,
	}
	for _, c := range tm.ChunkIndex {
		jc := jsonChunkMeta{FChunk: c.FChunk.String(), Size: c.Size, SequenceCount: c.SequenceCount, ClassKind: int(c.ClassKind)}
		for _, t := range c.TaxonIDs {
			jc.TaxonIDs = append(jc.TaxonIDs, uint32(t))
		}
		j.ChunkIndex = append(j.ChunkIndex, jc)
	}
	for _, d := range tm.Discrepancies {
		j.Discrepancies = append(j.Discrepancies, jsonDiscrepancy{FChunk: d.FChunk.String(), TaxonID: uint32(d.TaxonID), Description: d.Description})
	}
	return j
}

func (j jsonManifestDoc) toManifest() (TemporalManifest, error) {
	var firstErr error
	fromHex := func(s string) hash.F {
		f, err := hash.FromHex(s)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return f
	}
	tm := TemporalManifest{
		VersionID:            j.VersionID,
		CreatedAt:            j.CreatedAt,
		SequenceVersion:      j.SequenceVersion,
		TaxonomyVersion:      j.TaxonomyVersion,
		Coord:                TemporalCoordinate{SequenceTime: j.SequenceTime, TaxonomyTime: j.TaxonomyTime},
		SequenceRoot:         fromHex(j.SequenceRoot),
		TaxonomyRoot:         fromHex(j.TaxonomyRoot),
		TaxonomyManifestHash: fromHex(j.TaxonomyManifestHash),
		ETag:                 j.ETag,
		PreviousVersion:      j.PreviousVersion,
	}
	for _, jc := range j.ChunkIndex {
		cm := ChunkMeta{FChunk: fromHex(jc.FChunk), Size: jc.Size, SequenceCount: jc.SequenceCount, ClassKind: chunker.ChunkClassKind(jc.ClassKind)}
		for _, t := range jc.TaxonIDs {
			cm.TaxonIDs = append(cm.TaxonIDs, chunker.TaxonID(t))
		}
		tm.ChunkIndex = append(tm.ChunkIndex, cm)
	}
	for _, jd := range j.Discrepancies {
		tm.Discrepancies = append(tm.Discrepancies, TaxonomicDiscrepancy{FChunk: fromHex(jd.FChunk), TaxonID: chunker.TaxonID(jd.TaxonID), Description: jd.Description})
	}
	return tm, firstErr
}

// EncodeBinary renders tm in the compact binary .tal encoding: magic
// header followed by a self-describing field stream (length-prefixed
// strings/slices, little-endian integers, timestamps as little-endian
// Unix nanoseconds).
func EncodeBinary(tm TemporalManifest) []byte {
	var buf bytes.Buffer
	buf.Write(BinaryMagic[:])

	w := hash.NewCanonWriter()
	w.String(tm.VersionID)
	putTime(w, tm.CreatedAt)
	w.String(tm.SequenceVersion)
	w.String(tm.TaxonomyVersion)
	putTime(w, tm.Coord.SequenceTime)
	putTime(w, tm.Coord.TaxonomyTime)
	w.Fingerprint(tm.SequenceRoot)
	w.Fingerprint(tm.TaxonomyRoot)
	w.Fingerprint(tm.TaxonomyManifestHash)
	w.String(tm.ETag)
	w.String(tm.PreviousVersion)

	w.Uint64(uint64(len(tm.ChunkIndex)))
	for _, c := range tm.ChunkIndex {
		w.Fingerprint(c.FChunk)
		w.Uint64(uint64(c.Size))
		w.Uint64(uint64(c.SequenceCount))
		w.Byte(byte(c.ClassKind))
		w.Uint64(uint64(len(c.TaxonIDs)))
		for _, t := range c.TaxonIDs {
			w.Uint32(uint32(t))
		}
	}

	w.Uint64(uint64(len(tm.Discrepancies)))
	for _, d := range tm.Discrepancies {
		w.Fingerprint(d.FChunk)
		w.Uint32(uint32(d.TaxonID))
		w.String(d.Description)
	}

	buf.Write(w.Bytes())
	return buf.Bytes()
}

func putTime(w *hash.CanonWriter, t time.Time) {
	w.Uint64(uint64(t.UnixNano()))
}

// binReader walks a byte stream with the same layout EncodeBinary emits.
type binReader struct {
	b   []byte
	pos int
	err error
}

func (r *binReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *binReader) uint64() uint64 {
	if r.err != nil || r.pos+8 > len(r.b) {
		r.fail(errors.Wrap(errkind.ParseError, "truncated binary manifest"))
		return 0
	}
	v := binary.LittleEndian.Uint64(r.b[r.pos:])
	r.pos += 8
	return v
}

func (r *binReader) uint32() uint32 {
	if r.err != nil || r.pos+4 > len(r.b) {
		r.fail(errors.Wrap(errkind.ParseError, "truncated binary manifest"))
		return 0
	}
	v := binary.LittleEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v
}

func (r *binReader) byte() byte {
	if r.err != nil || r.pos+1 > len(r.b) {
		r.fail(errors.Wrap(errkind.ParseError, "truncated binary manifest"))
		return 0
	}
	v := r.b[r.pos]
	r.pos++
	return v
}

func (r *binReader) fingerprint() hash.F {
	var f hash.F
	if r.err != nil || r.pos+hash.ByteLen > len(r.b) {
		r.fail(errors.Wrap(errkind.ParseError, "truncated binary manifest"))
		return f
	}
	copy(f[:], r.b[r.pos:])
	r.pos += hash.ByteLen
	return f
}

func (r *binReader) bytesN() []byte {
	n := r.uint64()
	if r.err != nil || r.pos+int(n) > len(r.b) {
		r.fail(errors.Wrap(errkind.ParseError, "truncated binary manifest"))
		return nil
	}
	v := r.b[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return v
}

func (r *binReader) string() string {
	return string(r.bytesN())
}

func (r *binReader) time() time.Time {
	return time.Unix(0, int64(r.uint64())).UTC()
}

// DecodeBinary parses the binary .tal encoding. A magic header that does
// not match BinaryMagic is a hard parse error, never a silent JSON
// fallback (spec §6).
func DecodeBinary(b []byte) (TemporalManifest, error) {
	if len(b) < 4 {
		return TemporalManifest{}, errors.Wrap(errkind.CorruptedMagicHeader, "manifest too short for magic header")
	}
	if !bytes.Equal(b[:4], BinaryMagic[:]) {
		return TemporalManifest{}, errors.Wrapf(errkind.CorruptedMagicHeader, "got %x", b[:4])
	}

	r := &binReader{b: b[4:]}
	var tm TemporalManifest
	tm.VersionID = r.string()
	tm.CreatedAt = r.time()
	tm.SequenceVersion = r.string()
	tm.TaxonomyVersion = r.string()
	tm.Coord.SequenceTime = r.time()
	tm.Coord.TaxonomyTime = r.time()
	tm.SequenceRoot = r.fingerprint()
	tm.TaxonomyRoot = r.fingerprint()
	tm.TaxonomyManifestHash = r.fingerprint()
	tm.ETag = r.string()
	tm.PreviousVersion = r.string()

	nChunks := r.uint64()
	tm.ChunkIndex = make([]ChunkMeta, 0, nChunks)
	for i := uint64(0); i < nChunks; i++ {
		var c ChunkMeta
		c.FChunk = r.fingerprint()
		c.Size = int(r.uint64())
		c.SequenceCount = int(r.uint64())
		c.ClassKind = chunker.ChunkClassKind(r.byte())
		nTaxa := r.uint64()
		for j := uint64(0); j < nTaxa; j++ {
			c.TaxonIDs = append(c.TaxonIDs, chunker.TaxonID(r.uint32()))
		}
		tm.ChunkIndex = append(tm.ChunkIndex, c)
	}

	nDisc := r.uint64()
	for i := uint64(0); i < nDisc; i++ {
		var d TaxonomicDiscrepancy
		d.FChunk = r.fingerprint()
		d.TaxonID = chunker.TaxonID(r.uint32())
		d.Description = r.string()
		tm.Discrepancies = append(tm.Discrepancies, d)
	}

	if r.err != nil {
		return TemporalManifest{}, r.err
	}
	return tm, nil
}
