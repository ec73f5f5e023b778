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

package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeatingPayload() []byte {
	return bytes.Repeat([]byte("ACGTACGTACGTACGTACGTACGTACGTACGT"), 256)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, algo := range []Algorithm{None, Gzip, Zstd} {
		raw := repeatingPayload()
		env, err := Encode(raw, algo)
		require.NoError(t, err)
		assert.Equal(t, uint64(len(raw)), env.RawSize)

		got, err := Decode(env)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	}
}

func TestCompressionShrinksRepetitiveData(t *testing.T) {
	raw := repeatingPayload()
	gz, err := Encode(raw, Gzip)
	require.NoError(t, err)
	assert.Less(t, gz.CompressedSize, gz.RawSize)

	zs, err := Encode(raw, Zstd)
	require.NoError(t, err)
	assert.Less(t, zs.CompressedSize, zs.RawSize)
}

func TestPickSmallerFallsBackForIncompressibleData(t *testing.T) {
	raw := []byte(strings.Repeat("x", 3)) // too small for gzip to help
	env, err := PickSmaller(raw, Gzip)
	require.NoError(t, err)
	assert.Equal(t, None, env.Algorithm)
	assert.Equal(t, raw, env.Payload)
}

func TestRatio(t *testing.T) {
	env := Envelope{RawSize: 100, CompressedSize: 40}
	assert.InDelta(t, 0.4, env.Ratio(), 1e-9)

	empty := Envelope{}
	assert.Equal(t, 1.0, empty.Ratio())
}
