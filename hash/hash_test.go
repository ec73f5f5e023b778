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

package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromHexError(t *testing.T) {
	assertParseError := func(s string) {
		_, err := FromHex(s)
		assert.Error(t, err)
	}

	assertParseError("foo")
	// too few digits
	assertParseError("0000000000000000000000000000000000000000000000000000000000000")
}

func TestFromHexTooShort(t *testing.T) {
	_, err := FromHex("00")
	assert.Error(t, err)
}

func TestFromHexTooLong(t *testing.T) {
	_, err := FromHex("00000000000000000000000000000000000000000000000000000000000000000000")
	assert.Error(t, err)
}

func TestFromHexBadChar(t *testing.T) {
	s := make([]byte, StringLen)
	for i := range s {
		s[i] = '0'
	}
	s[StringLen-1] = 'z'
	_, err := FromHex(string(s))
	assert.Error(t, err)
}

func TestFromHexRoundTrip(t *testing.T) {
	s := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	f, err := FromHex(s)
	assert.NoError(t, err)
	assert.Equal(t, s, f.String())
}

func TestOf(t *testing.T) {
	f := Of([]byte("abc"))
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", f.String())
}

func TestEquals(t *testing.T) {
	f0 := Of([]byte("abc"))
	f1 := Of([]byte("abc"))
	f2 := Of([]byte("xyz"))

	assert.Equal(t, f0, f1)
	assert.NotEqual(t, f0, f2)
}

func TestIsEmpty(t *testing.T) {
	var f F
	assert.True(t, f.IsEmpty())
	assert.False(t, Of([]byte("abc")).IsEmpty())
}

func TestLessAndCompare(t *testing.T) {
	lo := F{0: 0x00}
	hi := F{0: 0x01}

	assert.True(t, lo.Less(hi))
	assert.False(t, hi.Less(lo))
	assert.False(t, lo.Less(lo))

	assert.True(t, lo.Compare(hi) < 0)
	assert.True(t, hi.Compare(lo) > 0)
	assert.Equal(t, 0, lo.Compare(lo))
}

func TestSortIsCanonicalAscending(t *testing.T) {
	a := F{0: 0x03}
	b := F{0: 0x01}
	c := F{0: 0x02}

	fs := []F{a, b, c}
	Sort(fs)

	assert.Equal(t, []F{b, c, a}, fs)
}

func TestSetSliceIsSorted(t *testing.T) {
	a := F{0: 0x03}
	b := F{0: 0x01}
	c := F{0: 0x02}

	s := NewSet(a, b, c)
	assert.Equal(t, []F{b, c, a}, s.Slice())
}

func TestCanonWriterDeterministic(t *testing.T) {
	build := func() F {
		return NewCanonWriter().
			String("seq").
			Uint64(42).
			Byte(1).
			Fingerprint(Of([]byte("x"))).
			Sum()
	}

	assert.Equal(t, build(), build())
}

func TestCanonWriterFieldOrderMatters(t *testing.T) {
	f1 := NewCanonWriter().String("a").String("bc").Sum()
	f2 := NewCanonWriter().String("ab").String("c").Sum()
	assert.NotEqual(t, f1, f2)
}
