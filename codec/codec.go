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

// Package codec implements the optional compression envelope around stored
// blobs (spec C1). The fingerprint is always computed over the raw,
// uncompressed bytes; compression is an on-disk storage optimization and
// never changes a blob's address.
package codec

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/dolthub/gozstd"
	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/errkind"
)

// Algorithm identifies the compressor used for an envelope.
type Algorithm byte

const (
	None Algorithm = iota
	Gzip
	Zstd
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// Envelope wraps compressed (or uncompressed) bytes alongside the sizes
// needed to report dedup/compression statistics.
type Envelope struct {
	Algorithm      Algorithm
	RawSize        uint64
	CompressedSize uint64
	Payload        []byte // the bytes as they should be persisted
}

// Encode compresses raw with algo. Passing None stores raw bytes unchanged.
func Encode(raw []byte, algo Algorithm) (Envelope, error) {
	switch algo {
	case None:
		return Envelope{Algorithm: None, RawSize: uint64(len(raw)), CompressedSize: uint64(len(raw)), Payload: raw}, nil
	case Gzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return Envelope{}, errors.Wrap(err, "gzip compress")
		}
		if err := w.Close(); err != nil {
			return Envelope{}, errors.Wrap(err, "gzip close")
		}
		return Envelope{Algorithm: Gzip, RawSize: uint64(len(raw)), CompressedSize: uint64(buf.Len()), Payload: buf.Bytes()}, nil
	case Zstd:
		compressed := gozstd.Compress(nil, raw)
		return Envelope{Algorithm: Zstd, RawSize: uint64(len(raw)), CompressedSize: uint64(len(compressed)), Payload: compressed}, nil
	default:
		return Envelope{}, errors.Wrapf(errkind.ConfigError, "unknown compression algorithm %d", algo)
	}
}

// Decode recovers the raw bytes from an envelope.
func Decode(env Envelope) ([]byte, error) {
	switch env.Algorithm {
	case None:
		return env.Payload, nil
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(env.Payload))
		if err != nil {
			return nil, errors.Wrap(err, "gzip reader")
		}
		defer r.Close()
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, "gzip decompress")
		}
		return raw, nil
	case Zstd:
		raw, err := gozstd.Decompress(nil, env.Payload)
		if err != nil {
			return nil, errors.Wrap(err, "zstd decompress")
		}
		return raw, nil
	default:
		return nil, errors.Wrapf(errkind.ConfigError, "unknown compression algorithm %d", env.Algorithm)
	}
}

// Ratio returns CompressedSize/RawSize, or 1.0 for an empty envelope.
func (e Envelope) Ratio() float64 {
	if e.RawSize == 0 {
		return 1.0
	}
	return float64(e.CompressedSize) / float64(e.RawSize)
}

// PickSmaller compresses raw with algo and falls back to an uncompressed
// envelope when compression doesn't actually shrink the payload — mirrors
// spec C1's "if a general-purpose compressor reduces the ... blob, use it".
func PickSmaller(raw []byte, algo Algorithm) (Envelope, error) {
	if algo == None {
		return Encode(raw, None)
	}
	env, err := Encode(raw, algo)
	if err != nil {
		return Envelope{}, err
	}
	if env.CompressedSize >= env.RawSize {
		return Encode(raw, None)
	}
	return env, nil
}
