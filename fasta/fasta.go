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

// Package fasta reads FASTA-formatted sequence input (spec §6): headers
// verbatim, a taxon id extracted by priority pattern, and an optional
// boundary-parallel scanning mode for plain (non-gzipped) files.
package fasta

import (
	"bufio"
	"compress/gzip"
	"io"
	"strconv"
	"strings"
)

// Record is one parsed FASTA entry.
type Record struct {
	Header   string // verbatim text after '>', trimmed of trailing newline
	Sequence []byte
	TaxonID  uint32
	HasTaxon bool
}

// Parser reads FASTA records from r, transparently gunzipping when magic
// bytes indicate gzip.
type Parser struct {
	scanner *bufio.Scanner
	pending string
	done    bool
}

// NewParser wraps r. Pass an io.Reader already positioned at the start of
// the file; gzip is detected by sniffing the first two bytes.
func NewParser(r io.Reader) (*Parser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil && len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		r = gz
	} else {
		r = br
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Parser{scanner: scanner}, nil
}

// Next returns the next Record, or io.EOF when exhausted.
func (p *Parser) Next() (Record, error) {
	var header string
	var seq strings.Builder

	if p.pending != "" {
		header = p.pending
		p.pending = ""
	} else {
		for p.scanner.Scan() {
			line := p.scanner.Text()
			if strings.HasPrefix(line, ">") {
				header = line[1:]
				break
			}
		}
		if header == "" {
			return Record{}, io.EOF
		}
	}

	for p.scanner.Scan() {
		line := p.scanner.Text()
		if strings.HasPrefix(line, ">") {
			p.pending = line[1:]
			break
		}
		seq.WriteString(line)
	}

	taxon, has := ExtractTaxonID(header)
	return Record{Header: header, Sequence: []byte(seq.String()), TaxonID: taxon, HasTaxon: has}, nil
}

// ExtractTaxonID implements the priority chain (spec §6 / grounded on the
// original FASTA parser's extract_taxon_id): TaxID=N (nonzero) first,
// falling through to OX=N, then taxon:N, then tax_id=N. TaxID=0 is treated
// as absent and the chain continues past it.
func ExtractTaxonID(description string) (uint32, bool) {
	if n, ok := extractNumberAfter(description, "TaxID="); ok && n != 0 {
		return n, true
	}
	if n, ok := extractNumberAfter(description, "OX="); ok {
		return n, true
	}
	if n, ok := extractNumberAfter(description, "taxon:"); ok {
		return n, true
	}
	if n, ok := extractNumberAfter(description, "tax_id="); ok {
		return n, true
	}
	return 0, false
}

func extractNumberAfter(s, prefix string) (uint32, bool) {
	pos := strings.Index(s, prefix)
	if pos < 0 {
		return 0, false
	}
	start := pos + len(prefix)
	end := start
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.ParseUint(s[start:end], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}
