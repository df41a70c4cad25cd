// Copyright 2015 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package eval implements the three tree evaluation modes described in
§4.6: bagging-average and boosting-logit scoring of a single probed
example, and the out-of-bag/boosting training-data walk that scores
every currently valid example of the column store in one traversal.
*/
package eval

import (
	"math"

	"github.com/shuLhan/tekstus"

	"github.com/shuLhan/ensembletree/grow"
	"github.com/shuLhan/ensembletree/sparseset"
	"github.com/shuLhan/ensembletree/split"
)

// boostEpsilon is the smoothing constant used at a boosting leaf, per
// §4.6 (distinct from the split search's Epsilon).
const boostEpsilon = 1e-6

// Probe is a dense example: feature id to value. Features absent from
// the map are treated as zero, matching the sparse storage convention.
type Probe map[int32]float32

func (p Probe) at(f int32) float32 {
	return p[f]
}

// Bag walks the tree against a probed example and returns the leaf's
// class-1 fraction, clamped to {0, 1} when either side of the leaf mass
// is at or below the split-search smoothing constant.
func Bag(n *grow.Node, x Probe) float64 {
	for !n.IsLeaf() {
		if x.at(n.SplitFeature) <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return bagLeaf(n)
}

// Boost walks the tree against a probed example and returns the leaf's
// confidence-rated logit, 0.5*ln((pos+eps)/(neg+eps)).
func Boost(n *grow.Node, x Probe) float64 {
	for !n.IsLeaf() {
		if x.at(n.SplitFeature) <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return boostLeaf(n)
}

func bagLeaf(n *grow.Node) float64 {
	if n.Pos <= split.Epsilon {
		return 0
	}
	if n.Neg <= split.Epsilon {
		return 1
	}
	return float64(n.Pos) / float64(n.Pos+n.Neg)
}

func boostLeaf(n *grow.Node) float64 {
	return 0.5 * math.Log((float64(n.Pos)+boostEpsilon)/(float64(n.Neg)+boostEpsilon))
}

// Mode selects which leaf formula TrainWalk assigns.
type Mode int

const (
	// ModeBag assigns the bagging leaf fraction (used for OOB voting).
	ModeBag Mode = iota
	// ModeBoost assigns the confidence-rated boosting logit.
	ModeBoost
)

// TrainWalk traverses the tree against the training column store using
// the §4.2 validity-marker scheme, and at every leaf assigns pred[e] for
// each currently valid example. valid is restored to its pre-call state
// before TrainWalk returns.
func TrainWalk(ds *sparseset.Dataset, n *grow.Node, valid []int32, pred []float32, mode Mode) {
	present := make([]bool, ds.NEx)
	walk(ds, n, valid, pred, mode, present)
}

func walk(ds *sparseset.Dataset, n *grow.Node, valid []int32, pred []float32, mode Mode, present []bool) {
	if n.IsLeaf() {
		var v float32
		switch mode {
		case ModeBoost:
			v = float32(boostLeaf(n))
		default:
			v = float32(bagLeaf(n))
		}
		for e := 0; e < len(valid); e++ {
			if valid[e] > 0 {
				pred[e] = v
			}
		}
		return
	}

	pairs := ds.Feature[n.SplitFeature]
	idx := firstAbove(pairs, n.Threshold)

	var x []int32
	if n.Threshold < 0 {
		for _, p := range pairs {
			present[p.Example] = true
		}
		for e := 0; e < len(valid); e++ {
			if !present[e] {
				x = append(x, int32(e))
			}
		}
		for _, p := range pairs {
			present[p.Example] = false
		}
	}
	for _, p := range pairs[idx:] {
		x = append(x, p.Example)
	}

	for _, e := range x {
		valid[e]--
	}
	walk(ds, n.Left, valid, pred, mode, present)

	for _, e := range x {
		valid[e] += 2
	}
	for e := range valid {
		valid[e]--
	}
	walk(ds, n.Right, valid, pred, mode, present)

	for _, e := range x {
		valid[e]--
	}
	for e := range valid {
		valid[e]++
	}
}

// EnsembleBag returns the arithmetic mean of Bag over trees, the
// bagging/random-forest ensemble prediction for a probed example.
func EnsembleBag(trees []*grow.Node, x Probe) float64 {
	if len(trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range trees {
		sum += Bag(t, x)
	}
	return sum / float64(len(trees))
}

// EnsembleBoost returns the arithmetic mean of Boost over trees, the
// boosting ensemble prediction for a probed example.
func EnsembleBoost(trees []*grow.Node, x Probe) float64 {
	if len(trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range trees {
		sum += Boost(t, x)
	}
	return sum / float64(len(trees))
}

// EnsembleVote returns the majority hard label (0 or 1) across trees for
// a probed example, thresholding each tree's own score at 0.5. This is
// a supplementary, vote-based reading alongside the ensemble mean
// (§4.6); ties resolve to whichever label tekstus.Int64MaxCountOf
// returns first.
func EnsembleVote(trees []*grow.Node, x Probe, mode Mode) int64 {
	votes := make([]int64, len(trees))
	for i, t := range trees {
		var score float64
		if mode == ModeBoost {
			score = Boost(t, x)
			if score > 0 {
				votes[i] = 1
			}
		} else {
			score = Bag(t, x)
			if score > 0.5 {
				votes[i] = 1
			}
		}
	}
	return tekstus.Int64MaxCountOf(votes, []int64{0, 1})
}

func firstAbove(pairs []sparseset.Pair, threshold float32) int {
	lo, hi := 0, len(pairs)
	for lo < hi {
		mid := (lo + hi) / 2
		if pairs[mid].Value > threshold {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
