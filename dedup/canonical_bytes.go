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
	"strings"
	"unicode"
)

// Canonicalize derives the bytes a sequence is fingerprinted on: uppercase
// ASCII, whitespace stripped (spec C3).
func Canonicalize(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		out = append(out, byte(unicode.ToUpper(rune(b))))
	}
	return out
}

// RecoverEmbeddedSequence implements the header-embedded-sequence heuristic:
// a trailing "SV=1XXXXX"-style pattern in a description, where XXXXX is a
// run of uppercase letters, is residue that a naive FASTA splitter attached
// to the description instead of the sequence body. Returns the trimmed
// description and the recovered residues (empty if nothing was found).
//
// Grounded on the bleed-detection logic in the original Rust FASTA parser
// (talaria-bio/src/formats/fasta.rs, parse_metadata_bleeding): find "SV=",
// skip the run of version digits that follows, and treat a further run of
// uppercase letters as sequence that bled into the description field.
func RecoverEmbeddedSequence(description string) (trimmed string, embedded []byte) {
	svPos := strings.Index(description, "SV=")
	if svPos < 0 {
		return description, nil
	}

	afterSV := description[svPos+3:]
	digitEnd := 0
	for digitEnd < len(afterSV) && afterSV[digitEnd] >= '0' && afterSV[digitEnd] <= '9' {
		digitEnd++
	}
	if digitEnd == 0 || digitEnd >= len(afterSV) {
		return description, nil
	}

	candidate := afterSV[digitEnd:]
	if !isAllUppercaseLetters(candidate) {
		return description, nil
	}

	return description[:svPos+3+digitEnd], []byte(candidate)
}

func isAllUppercaseLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
