// Copyright 2015-2016 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shuLhan/dsv/util/assert"

	"github.com/shuLhan/ensembletree/committee"
	"github.com/shuLhan/ensembletree/grow"
)

func sampleEnsemble() *committee.Ensemble {
	tree := &grow.Node{
		SplitFeature: 0,
		Threshold:    0.5,
		Left:         &grow.Node{SplitFeature: grow.LeafFeature, Pos: 0, Neg: 4},
		Right: &grow.Node{
			SplitFeature: 1,
			Threshold:    1.5,
			Left:         &grow.Node{SplitFeature: grow.LeafFeature, Pos: 3, Neg: 1},
			Right:        &grow.Node{SplitFeature: grow.LeafFeature, Pos: 5, Neg: 0},
		},
	}

	return &committee.Ensemble{
		Kind:          committee.Boosting,
		NFeat:         2,
		MaxDepth:      10,
		FPNFactor:     1,
		NTreesPlanned: 1,
		NTreesGrown:   1,
		Trees:         []*grow.Node{tree},
	}
}

// TestWriteReadRoundTrip checks the §6 persistence round trip (scenario
// S5): writing an ensemble and reading it back reproduces the committee
// kind, feature count, max depth and tree count, and the full preorder
// structure of each tree.
func TestWriteReadRoundTrip(t *testing.T) {
	ens := sampleEnsemble()

	var buf bytes.Buffer
	if e := Write(&buf, ens); e != nil {
		t.Fatal(e)
	}

	got, e := Read(&buf)
	if e != nil {
		t.Fatal(e)
	}

	assert.Equal(t, ens.Kind, got.Kind)
	assert.Equal(t, ens.NFeat, got.NFeat)
	assert.Equal(t, ens.MaxDepth, got.MaxDepth)
	assert.Equal(t, ens.NTreesGrown, got.NTreesGrown)

	assertSameTree(t, ens.Trees[0], got.Trees[0])
}

func assertSameTree(t *testing.T, want, got *grow.Node) {
	t.Helper()
	if want.IsLeaf() != got.IsLeaf() {
		t.Fatalf("leaf mismatch: want %v got %v", want.IsLeaf(), got.IsLeaf())
	}
	if want.IsLeaf() {
		assert.Equal(t, want.Pos, got.Pos)
		assert.Equal(t, want.Neg, got.Neg)
		return
	}
	assert.Equal(t, want.SplitFeature, got.SplitFeature)
	assert.Equal(t, want.Threshold, got.Threshold)
	assertSameTree(t, want.Left, got.Left)
	assertSameTree(t, want.Right, got.Right)
}

func TestReadTruncatedHeader(t *testing.T) {
	_, e := Read(strings.NewReader("committee: 1 (Bagging)\n"))
	if e == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestReadTrailingTokensRejected(t *testing.T) {
	data := "committee: 2 (Boosting)\ntrees: 1\nfeatures: 1\nmaxdepth: 1\nfpnfactor: 1\n-1 1 0 99\n"
	_, e := Read(strings.NewReader(data))
	if e == nil {
		t.Fatal("expected error for trailing tokens on a tree line")
	}
}

func TestReadToleratesTrailingGarbage(t *testing.T) {
	var buf bytes.Buffer
	if e := Write(&buf, sampleEnsemble()); e != nil {
		t.Fatal(e)
	}
	buf.WriteString("unexpected trailer\n")

	_, e := Read(&buf)
	if e != nil {
		t.Fatalf("trailing garbage should only warn, not fail: %v", e)
	}
}
