// Copyright 2015 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eval

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/shuLhan/dsv/util/assert"

	"github.com/shuLhan/ensembletree/grow"
	"github.com/shuLhan/ensembletree/sparseset"
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

func TestBagMonotone(t *testing.T) {
	n := &grow.Node{
		SplitFeature: 0,
		Threshold:    0.5,
		Left:         &grow.Node{SplitFeature: grow.LeafFeature, Pos: 0, Neg: 10},
		Right:        &grow.Node{SplitFeature: grow.LeafFeature, Pos: 10, Neg: 0},
	}

	left := Bag(n, Probe{0: 0})
	right := Bag(n, Probe{0: 1})

	assert.Equal(t, float64(0), left)
	assert.Equal(t, float64(1), right)
}

func TestBoostSignMatchesClass(t *testing.T) {
	leafPos := &grow.Node{SplitFeature: grow.LeafFeature, Pos: 9, Neg: 1}
	leafNeg := &grow.Node{SplitFeature: grow.LeafFeature, Pos: 1, Neg: 9}

	if Boost(leafPos, Probe{}) <= 0 {
		t.Fatalf("expected positive logit for a positive-dominant leaf")
	}
	if Boost(leafNeg, Probe{}) >= 0 {
		t.Fatalf("expected negative logit for a negative-dominant leaf")
	}
}

// TestTrainWalkRestoresValid checks that TrainWalk's internal use of the
// validity-marker scheme leaves valid untouched (§8.3, mirrored from the
// grower's own invariant).
func TestTrainWalkRestoresValid(t *testing.T) {
	data := "1 0:1\n0 1:1\n1 0:2\n0 0:3\n"
	ds := loadFixture(t, data)

	valid := []int32{1, 1, 1, 1}
	before := append([]int32(nil), valid...)

	tree := grow.Tree(ds, valid, []int32{0, 1}, make([]bool, 2), ds.NFeat, 10, rand.New(rand.NewSource(2)))

	pred := make([]float32, ds.NEx)
	TrainWalk(ds, tree, valid, pred, ModeBag)

	assert.Equal(t, before, valid)
}

// TestEnsembleBagAverages checks EnsembleBag is the arithmetic mean of
// per-tree Bag scores.
func TestEnsembleBagAverages(t *testing.T) {
	allPos := &grow.Node{SplitFeature: grow.LeafFeature, Pos: 1, Neg: 0}
	allNeg := &grow.Node{SplitFeature: grow.LeafFeature, Pos: 0, Neg: 1}

	got := EnsembleBag([]*grow.Node{allPos, allNeg}, Probe{})
	assert.Equal(t, 0.5, got)
}

func TestEnsembleBagEmpty(t *testing.T) {
	assert.Equal(t, float64(0), EnsembleBag(nil, Probe{}))
}

// TestEnsembleVoteMajority checks the majority hard label across an
// ensemble where two of three trees agree.
func TestEnsembleVoteMajority(t *testing.T) {
	pos := &grow.Node{SplitFeature: grow.LeafFeature, Pos: 10, Neg: 0}
	neg := &grow.Node{SplitFeature: grow.LeafFeature, Pos: 0, Neg: 10}

	vote := EnsembleVote([]*grow.Node{pos, pos, neg}, Probe{}, ModeBag)
	assert.Equal(t, int64(1), vote)
}
