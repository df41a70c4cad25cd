// Copyright 2015 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grow

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/shuLhan/dsv/util/assert"

	"github.com/shuLhan/ensembletree/sparseset"
	"github.com/shuLhan/ensembletree/split"
)

func loadFixture(t *testing.T, data string) *sparseset.Dataset {
	t.Helper()
	ds, e := sparseset.Load(strings.NewReader(data), rand.New(rand.NewSource(1)))
	if e != nil {
		t.Fatal(e)
	}
	for i := range ds.Weight {
		ds.Weight[i] = 1
	}
	return ds
}

// TestTreeSeparable checks that a perfectly separable, single-feature
// dataset grows a tree whose every leaf is pure, i.e. one class's mass is
// at most the split.Epsilon smoothing floor (testable property §8,
// scenario S1).
func TestTreeSeparable(t *testing.T) {
	data := "1 0:1\n1 0:1\n0 1:1\n0 1:1\n"
	ds := loadFixture(t, data)

	valid := []int32{1, 1, 1, 1}
	feats := []int32{0, 1}
	used := make([]bool, 2)

	root := Tree(ds, valid, feats, used, ds.NFeat, 10, rand.New(rand.NewSource(1)))

	if root.IsLeaf() {
		t.Fatal("expected a split root for a separable dataset")
	}

	checkPureLeaves(t, root)
}

func checkPureLeaves(t *testing.T, n *Node) {
	t.Helper()
	if n.IsLeaf() {
		if n.Pos > split.Epsilon && n.Neg > split.Epsilon {
			t.Fatalf("leaf not pure: pos=%g neg=%g", n.Pos, n.Neg)
		}
		return
	}
	checkPureLeaves(t, n.Left)
	checkPureLeaves(t, n.Right)
}

// TestTreeValidRestored checks the validity-marker invariant (§8.3): Tree
// must restore valid to its pre-call state.
func TestTreeValidRestored(t *testing.T) {
	data := "1 0:1\n1 0:2\n0 1:1\n0 0:3\n1 1:1\n"
	ds := loadFixture(t, data)

	valid := []int32{1, 1, 1, 1, 1}
	before := append([]int32(nil), valid...)

	feats := []int32{0, 1}
	used := make([]bool, 2)

	Tree(ds, valid, feats, used, ds.NFeat, 10, rand.New(rand.NewSource(3)))

	assert.Equal(t, before, valid)
}

// TestTreeMassConservation checks that the total mass carried by the
// tree's leaves always equals the root's total mass (§8.1): growing
// never creates or destroys class mass.
func TestTreeMassConservation(t *testing.T) {
	data := "1 0:1\n1 0:2\n0 1:1\n0 0:3\n1 1:1\n0 0:5\n"
	ds := loadFixture(t, data)

	valid := []int32{1, 1, 1, 1, 1, 1}
	feats := []int32{0, 1}
	used := make([]bool, 2)

	root := Tree(ds, valid, feats, used, ds.NFeat, 10, rand.New(rand.NewSource(5)))

	var P, N float32
	for e := range valid {
		if ds.Target[e] == 1 {
			P += ds.Weight[e]
		} else {
			N += ds.Weight[e]
		}
	}

	var leafPos, leafNeg float32
	sumLeaves(root, &leafPos, &leafNeg)

	if diff := leafPos - P; diff > 1e-3 || diff < -1e-3 {
		t.Fatalf("leaf pos sum mismatch: got %g want %g", leafPos, P)
	}
	if diff := leafNeg - N; diff > 1e-3 || diff < -1e-3 {
		t.Fatalf("leaf neg sum mismatch: got %g want %g", leafNeg, N)
	}
}

func sumLeaves(n *Node, pos, neg *float32) {
	if n.IsLeaf() {
		*pos += n.Pos
		*neg += n.Neg
		return
	}
	sumLeaves(n.Left, pos, neg)
	sumLeaves(n.Right, pos, neg)
}

// TestTreeMaxDepthStops checks that maxDepth 0 always returns a leaf,
// regardless of separability.
func TestTreeMaxDepthStops(t *testing.T) {
	data := "1 0:1\n0 1:1\n"
	ds := loadFixture(t, data)

	valid := []int32{1, 1}
	feats := []int32{0, 1}
	used := make([]bool, 2)

	root := Tree(ds, valid, feats, used, ds.NFeat, 0, rand.New(rand.NewSource(1)))

	assert.Equal(t, true, root.IsLeaf())
}

func TestPickFeaturesSubset(t *testing.T) {
	ctx := &context{
		feats: []int32{0, 1, 2, 3, 4},
		fpn:   2,
		rng:   rand.New(rand.NewSource(9)),
	}

	picked := ctx.pickFeatures()
	assert.Equal(t, 2, len(picked))
}

func TestPickFeaturesAll(t *testing.T) {
	ctx := &context{
		feats: []int32{0, 1, 2},
		fpn:   5,
	}

	picked := ctx.pickFeatures()
	assert.Equal(t, 3, len(picked))
}
