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

package taxonomy

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/chunker"
	"github.com/talaria-bio/talaria/errkind"
)

// the NCBI dump format separates fields with "\t|\t" and terminates each
// record with "\t|".
const ncbiFieldSep = "\t|\t"

func splitNCBIFields(line string) []string {
	line = strings.TrimSuffix(line, "\t|")
	line = strings.TrimSuffix(line, "|")
	return strings.Split(line, ncbiFieldSep)
}

// ParseNodesDump reads NCBI's nodes.dmp (taxon id, parent id, rank, ...) and
// populates Snapshot with each taxon's lineage and rank.
func ParseNodesDump(r io.Reader, snap *Snapshot) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		fields := splitNCBIFields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		id, err := parseTaxonID(fields[0])
		if err != nil {
			return err
		}
		parent, err := parseTaxonID(fields[1])
		if err != nil {
			return err
		}
		rank := strings.TrimSpace(fields[2])

		n := snap.Nodes[id]
		n.ID = id
		n.ParentID = parent
		n.Rank = rank
		snap.Nodes[id] = n
	}
	return scanner.Err()
}

// ParseNamesDump reads NCBI's names.dmp and fills in each taxon's
// scientific name (the "scientific name" class; other classes such as
// synonym/common name are ignored).
func ParseNamesDump(r io.Reader, snap *Snapshot) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		fields := splitNCBIFields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		class := strings.TrimSpace(fields[3])
		if class != "scientific name" {
			continue
		}
		id, err := parseTaxonID(fields[0])
		if err != nil {
			return err
		}
		name := strings.TrimSpace(fields[1])

		n, ok := snap.Nodes[id]
		if !ok {
			n = Node{ID: id}
		}
		n.Name = name
		snap.Nodes[id] = n
	}
	return scanner.Err()
}

func parseTaxonID(s string) (chunker.TaxonID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, errors.Wrapf(errkind.ParseError, "taxon id %q: %v", s, err)
	}
	return chunker.TaxonID(n), nil
}
