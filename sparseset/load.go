// Copyright 2015 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparseset

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
)

// Load reads a sparse labeled dataset from r.
//
// Each line is: an optional leading whitespace, a signed integer target,
// then zero or more "F:V" tokens separated by whitespace. "#" starts a
// comment that runs to end of line; lines that are blank or
// comment-only are skipped.
//
// rng drives the pivot choice of the randomized quicksort used to order
// the column store (§4.1); pass a seeded generator for reproducible
// loads.
//
// Loading proceeds in two passes: collect every non-zero (feature,
// example, value) triple into a flat buffer, then sort that buffer
// lexicographically by (feature, value, example) and partition it into
// per-feature slices.
func Load(r io.Reader, rng *rand.Rand) (*Dataset, error) {
	var (
		buf    []triple
		target []uint8
		nfeat  int
		lineno int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		lineno++

		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)

		rawTarget, e := strconv.ParseInt(fields[0], 10, 64)
		if e != nil {
			return nil, fmt.Errorf("sparseset: line %d: invalid target %q: %w",
				lineno, fields[0], e)
		}

		example := int32(len(target))
		if rawTarget <= 0 {
			target = append(target, 0)
		} else {
			target = append(target, 1)
		}

		for _, tok := range fields[1:] {
			fv := strings.SplitN(tok, ":", 2)
			if len(fv) != 2 {
				return nil, fmt.Errorf("sparseset: line %d: malformed token %q",
					lineno, tok)
			}

			f, e := strconv.ParseInt(fv[0], 10, 32)
			if e != nil {
				return nil, fmt.Errorf("sparseset: line %d: invalid feature id %q: %w",
					lineno, fv[0], e)
			}

			v, e := strconv.ParseFloat(fv[1], 32)
			if e != nil {
				return nil, fmt.Errorf("sparseset: line %d: invalid value %q: %w",
					lineno, fv[1], e)
			}

			if v == 0 {
				continue
			}

			feat := int32(f)
			if int(feat)+1 > nfeat {
				nfeat = int(feat) + 1
			}

			buf = append(buf, triple{
				Feature: feat,
				Example: example,
				Value:   float32(v),
			})
		}
	}
	if e := scanner.Err(); e != nil {
		return nil, fmt.Errorf("sparseset: read error: %w", e)
	}

	nex := len(target)

	d := NewDataset(nex, nfeat)
	copy(d.Target, target)

	if len(buf) == 0 {
		return d, nil
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	sortTriples(buf, rng)

	start := 0
	for start < len(buf) {
		f := buf[start].Feature
		end := start
		for end < len(buf) && buf[end].Feature == f {
			end++
		}

		pairs := make([]Pair, 0, end-start)
		cont := false
		for _, t := range buf[start:end] {
			pairs = append(pairs, Pair{Example: t.Example, Value: t.Value})
			if t.Value != 1 {
				cont = true
			}
		}

		d.Feature[f] = pairs
		d.Cont[f] = cont

		start = end
	}

	return d, nil
}

func stripComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		return s[:i]
	}
	return s
}
