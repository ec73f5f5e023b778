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

package delta

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/errkind"
	"github.com/talaria-bio/talaria/hash"
)

// escapeChars are the characters the wire form backslash-hex-escapes in
// ids and substitution bytes (spec §4.6.3).
const escapeChars = "\\\t\n\r,>"

func escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if strings.IndexByte(escapeChars, c) >= 0 {
			fmt.Fprintf(&b, "\\x%02x", c)
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}

func unescape(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		if i+3 >= len(s) || s[i+1] != 'x' {
			return "", errors.Wrap(errkind.ParseError, "malformed escape sequence")
		}
		v, err := strconv.ParseUint(s[i+2:i+4], 16, 8)
		if err != nil {
			return "", errors.Wrap(errkind.ParseError, "malformed escape hex digits")
		}
		b.WriteByte(byte(v))
		i += 3
	}
	return b.String(), nil
}

// EncodeWire renders op in the tab-separated wire form:
// child_id \t reference_id \t [taxon:N \t] (range_op \t)*
func EncodeWire(op DeltaOperation) string {
	fields := []string{escape(op.ChildID.String()), escape(op.RefID.String())}
	if op.HasTaxon {
		fields = append(fields, fmt.Sprintf("taxon:%d", op.TaxonID))
	}
	for _, r := range op.Ops {
		fields = append(fields, encodeRangeOp(r))
	}
	return strings.Join(fields, "\t")
}

func encodeRangeOp(r RangeOp) string {
	if r.End == r.Start+1 {
		return fmt.Sprintf("%d,%s", r.Start, escape(string(r.Bytes)))
	}
	return fmt.Sprintf("%d>%d,%s", r.Start, r.End, escape(string(r.Bytes)))
}

// isRangeOpField reports whether a field parses as a range_op
// (start[,>end],bytes), used by the format auto-detector to distinguish the
// legacy (no reference_id) wire form from the current one (spec §4.6.3:
// "the parser detects the format by inspecting whether field 2 is a
// range_op").
func isRangeOpField(field string) bool {
	comma := strings.IndexByte(field, ',')
	if comma < 0 {
		return false
	}
	head := field[:comma]
	if gt := strings.IndexByte(head, '>'); gt >= 0 {
		_, err1 := strconv.Atoi(head[:gt])
		_, err2 := strconv.Atoi(head[gt+1:])
		return err1 == nil && err2 == nil
	}
	_, err := strconv.Atoi(head)
	return err == nil
}

func parseRangeOp(field string) (RangeOp, error) {
	comma := strings.IndexByte(field, ',')
	if comma < 0 {
		return RangeOp{}, errors.Wrap(errkind.ParseError, "range op missing comma")
	}
	head, tail := field[:comma], field[comma+1:]

	bytesStr, err := unescape(tail)
	if err != nil {
		return RangeOp{}, err
	}

	if gt := strings.IndexByte(head, '>'); gt >= 0 {
		start, err1 := strconv.Atoi(head[:gt])
		end, err2 := strconv.Atoi(head[gt+1:])
		if err1 != nil || err2 != nil {
			return RangeOp{}, errors.Wrap(errkind.ParseError, "malformed range bounds")
		}
		return RangeOp{Start: start, End: end, Bytes: []byte(bytesStr)}, nil
	}

	start, err := strconv.Atoi(head)
	if err != nil {
		return RangeOp{}, errors.Wrap(errkind.ParseError, "malformed range start")
	}
	return RangeOp{Start: start, End: start + 1, Bytes: []byte(bytesStr)}, nil
}

// DecodeWire parses a line in either the legacy (no reference_id) or
// current wire form, auto-detecting by inspecting field 2.
func DecodeWire(line string) (DeltaOperation, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return DeltaOperation{}, errors.Wrap(errkind.ParseError, "wire line has fewer than 2 fields")
	}

	childField, err := unescape(fields[0])
	if err != nil {
		return DeltaOperation{}, err
	}

	var op DeltaOperation
	rest := fields[1:]

	if isRangeOpField(fields[1]) {
		// Legacy format: no reference_id field; field[0] is the child id and
		// the reference is implied by out-of-band context (left empty here;
		// callers supplying a known reference should set RefID post-parse).
		op.ChildID, err = hash.FromHex(childField)
		if err != nil {
			return DeltaOperation{}, err
		}
	} else {
		refField, err := unescape(fields[1])
		if err != nil {
			return DeltaOperation{}, err
		}
		op.ChildID, err = hash.FromHex(childField)
		if err != nil {
			return DeltaOperation{}, err
		}
		op.RefID, err = hash.FromHex(refField)
		if err != nil {
			return DeltaOperation{}, err
		}
		rest = fields[2:]
	}

	for _, f := range rest {
		if strings.HasPrefix(f, "taxon:") {
			n, err := strconv.ParseUint(strings.TrimPrefix(f, "taxon:"), 10, 32)
			if err != nil {
				return DeltaOperation{}, errors.Wrap(errkind.ParseError, "malformed taxon field")
			}
			op.TaxonID = uint32(n)
			op.HasTaxon = true
			continue
		}
		r, err := parseRangeOp(f)
		if err != nil {
			return DeltaOperation{}, err
		}
		op.Ops = append(op.Ops, r)
	}
	return op, nil
}
