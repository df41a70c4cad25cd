// Copyright 2015-2016 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package model implements the ASCII persistence format for a grown
ensemble (§6): a small header of key/value lines followed by one
preorder-traversal line per tree.
*/
package model

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/shuLhan/ensembletree/committee"
	"github.com/shuLhan/ensembletree/grow"
)

// Write persists ens to w in the format documented in §6:
//
//	committee: <k> (<Name>)
//	trees: <ntrees_grown>
//	features: <nfeat>
//	maxdepth: <maxdepth>
//	fpnfactor: <factor>
//
// followed by one line per tree, each a space-separated preorder
// traversal.
func Write(w io.Writer, ens *committee.Ensemble) error {
	bw := bufio.NewWriter(w)

	if _, e := fmt.Fprintf(bw, "committee: %d (%s)\n", ens.Kind, ens.Kind.Name()); e != nil {
		return e
	}
	if _, e := fmt.Fprintf(bw, "trees: %d\n", ens.NTreesGrown); e != nil {
		return e
	}
	if _, e := fmt.Fprintf(bw, "features: %d\n", ens.NFeat); e != nil {
		return e
	}
	if _, e := fmt.Fprintf(bw, "maxdepth: %d\n", ens.MaxDepth); e != nil {
		return e
	}
	if _, e := fmt.Fprintf(bw, "fpnfactor: %g\n", ens.FPNFactor); e != nil {
		return e
	}

	for _, tree := range ens.Trees {
		var toks []string
		preorderTokens(tree, &toks)
		if _, e := fmt.Fprintln(bw, strings.Join(toks, " ")); e != nil {
			return e
		}
	}

	return bw.Flush()
}

func preorderTokens(n *grow.Node, toks *[]string) {
	if n.IsLeaf() {
		*toks = append(*toks,
			strconv.Itoa(grow.LeafFeature),
			strconv.FormatFloat(float64(n.Pos), 'g', -1, 32),
			strconv.FormatFloat(float64(n.Neg), 'g', -1, 32))
		return
	}

	*toks = append(*toks,
		strconv.Itoa(int(n.SplitFeature)),
		strconv.FormatFloat(float64(n.Threshold), 'g', -1, 32))

	preorderTokens(n.Left, toks)
	preorderTokens(n.Right, toks)
}

// Read parses an ensemble previously written by Write. Trailing
// non-whitespace after the last tree line is logged as a warning, not a
// failure, per §7.
func Read(r io.Reader) (*committee.Ensemble, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	header := map[string]string{}
	want := []string{"committee", "trees", "features", "maxdepth", "fpnfactor"}

	for _, key := range want {
		if !scanner.Scan() {
			return nil, fmt.Errorf("model: truncated header, missing %q", key)
		}
		line := scanner.Text()
		k, v, e := splitHeaderLine(line)
		if e != nil {
			return nil, fmt.Errorf("model: %w", e)
		}
		if k != key {
			return nil, fmt.Errorf("model: expected header %q, got %q", key, k)
		}
		header[k] = v
	}

	kindCode, committeeName, e := parseCommitteeLine(header["committee"])
	if e != nil {
		return nil, fmt.Errorf("model: %w", e)
	}
	_ = committeeName

	ntrees, e := strconv.Atoi(strings.TrimSpace(header["trees"]))
	if e != nil {
		return nil, fmt.Errorf("model: bad trees count %q: %w", header["trees"], e)
	}
	nfeat, e := strconv.Atoi(strings.TrimSpace(header["features"]))
	if e != nil {
		return nil, fmt.Errorf("model: bad features count %q: %w", header["features"], e)
	}
	maxdepth, e := strconv.Atoi(strings.TrimSpace(header["maxdepth"]))
	if e != nil {
		return nil, fmt.Errorf("model: bad maxdepth %q: %w", header["maxdepth"], e)
	}
	fpnfactor, e := strconv.ParseFloat(strings.TrimSpace(header["fpnfactor"]), 64)
	if e != nil {
		return nil, fmt.Errorf("model: bad fpnfactor %q: %w", header["fpnfactor"], e)
	}

	ens := &committee.Ensemble{
		Kind:          committee.Kind(kindCode),
		NFeat:         nfeat,
		MaxDepth:      maxdepth,
		FPNFactor:     fpnfactor,
		NTreesPlanned: ntrees,
	}

	for i := 0; i < ntrees; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("model: truncated at tree %d of %d", i, ntrees)
		}
		toks := strings.Fields(scanner.Text())
		pos := 0
		tree, e := parsePreorder(toks, &pos)
		if e != nil {
			return nil, fmt.Errorf("model: tree %d: %w", i, e)
		}
		if pos != len(toks) {
			return nil, fmt.Errorf("model: tree %d: %d trailing tokens", i, len(toks)-pos)
		}
		ens.Trees = append(ens.Trees, tree)
		ens.NTreesGrown++
	}

	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			glog.Warning("model: trailing non-whitespace after last tree, ignoring")
			break
		}
	}
	if e := scanner.Err(); e != nil {
		return nil, fmt.Errorf("model: read error: %w", e)
	}

	return ens, nil
}

func splitHeaderLine(line string) (key, value string, e error) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", fmt.Errorf("malformed header line %q", line)
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), nil
}

func parseCommitteeLine(v string) (code int, name string, e error) {
	// v looks like "2 (Boosting)".
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return 0, "", fmt.Errorf("empty committee field")
	}
	code, e = strconv.Atoi(fields[0])
	if e != nil {
		return 0, "", fmt.Errorf("bad committee code %q: %w", fields[0], e)
	}
	if len(fields) > 1 {
		name = strings.Trim(strings.Join(fields[1:], " "), "()")
	}
	return code, name, nil
}

func parsePreorder(toks []string, pos *int) (*grow.Node, error) {
	if *pos >= len(toks) {
		return nil, fmt.Errorf("unexpected end of tree line")
	}

	feat, e := strconv.Atoi(toks[*pos])
	if e != nil {
		return nil, fmt.Errorf("bad split feature %q: %w", toks[*pos], e)
	}
	*pos++

	if feat == grow.LeafFeature {
		if *pos+1 >= len(toks) {
			return nil, fmt.Errorf("truncated leaf")
		}
		pos64, e := strconv.ParseFloat(toks[*pos], 32)
		if e != nil {
			return nil, fmt.Errorf("bad leaf pos %q: %w", toks[*pos], e)
		}
		*pos++
		neg64, e := strconv.ParseFloat(toks[*pos], 32)
		if e != nil {
			return nil, fmt.Errorf("bad leaf neg %q: %w", toks[*pos], e)
		}
		*pos++

		return &grow.Node{
			SplitFeature: int32(grow.LeafFeature),
			Pos:          float32(pos64),
			Neg:          float32(neg64),
		}, nil
	}

	if *pos >= len(toks) {
		return nil, fmt.Errorf("truncated split node")
	}
	threshold, e := strconv.ParseFloat(toks[*pos], 32)
	if e != nil {
		return nil, fmt.Errorf("bad threshold %q: %w", toks[*pos], e)
	}
	*pos++

	left, e := parsePreorder(toks, pos)
	if e != nil {
		return nil, e
	}
	right, e := parsePreorder(toks, pos)
	if e != nil {
		return nil, e
	}

	return &grow.Node{
		SplitFeature: int32(feat),
		Threshold:    float32(threshold),
		Left:         left,
		Right:        right,
	}, nil
}
