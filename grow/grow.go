// Copyright 2015 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package grow

import (
	"math/rand"
	"os"

	"github.com/shuLhan/ensembletree/sparseset"
	"github.com/shuLhan/ensembletree/split"
)

var (
	// DEBUG level, can be set from environment variable.
	DEBUG = 0
)

func init() {
	if os.Getenv("GROW_DEBUG") != "" {
		DEBUG = 1
	}
}

// context carries the per-grow transient buffers described in §3's "Tree
// context": the shared validity buffer, the feature permutation scratch,
// the per-feature reuse guard, and the scratch presence map used while
// locating the implicit-zero examples of a negative-threshold split.
type context struct {
	valid []int32
	feats []int32
	used  []bool

	fpn      int
	maxDepth int

	rng *rand.Rand

	present []bool
}

// Tree grows one binary decision tree over ds, starting from the
// examples currently marked valid (valid[e] > 0) and the per-example
// weights in ds.Weight. valid, feats and used are scratch buffers owned
// by the caller (the committee controller) and reused across trees in
// one committee.Run call; Tree restores valid to its pre-call state before
// returning (testable property §8.3).
//
// feats must be a permutation-ready buffer of length ds.NFeat (e.g.
// 0..NFeat-1); used must be a bool slice of length ds.NFeat, all false.
// fpn is the number of features considered at each node (nfeat for
// bagging/boosting, floor(fpnFactor*sqrt(nfeat)) for random forests).
func Tree(ds *sparseset.Dataset, valid []int32, feats []int32, used []bool, fpn, maxDepth int, rng *rand.Rand) *Node {
	ctx := &context{
		valid:    valid,
		feats:    feats,
		used:     used,
		fpn:      fpn,
		maxDepth: maxDepth,
		rng:      rng,
		present:  make([]bool, ds.NEx),
	}

	P, N := massOf(ds, valid)

	return growNode(ds, ctx, P, N, 0)
}

func massOf(ds *sparseset.Dataset, valid []int32) (P, N float32) {
	for e := 0; e < ds.NEx; e++ {
		if valid[e] > 0 {
			if ds.Target[e] == 1 {
				P += ds.Weight[e]
			} else {
				N += ds.Weight[e]
			}
		}
	}
	return P, N
}

func growNode(ds *sparseset.Dataset, ctx *context, P, N float32, depth int) *Node {
	if depth >= ctx.maxDepth || P <= split.Epsilon || N <= split.Epsilon {
		return leaf(P, N)
	}

	feats := ctx.pickFeatures()

	cand, found := split.Best(ds, ctx.valid, feats, ctx.used, P, N)
	if !found {
		return leaf(P, N)
	}

	massL := cand.PL + cand.NL
	massR := cand.PR + cand.NR
	if massL <= split.Epsilon || massR <= split.Epsilon {
		return leaf(P, N)
	}

	markedBinary := false
	if !ds.Cont[cand.Feature] {
		ctx.used[cand.Feature] = true
		markedBinary = true
	}

	x := secondSideSet(ds, cand.Feature, cand.Threshold, ctx)

	for _, e := range x {
		ctx.valid[e]--
	}
	left := growNode(ds, ctx, cand.PL, cand.NL, depth+1)

	for _, e := range x {
		ctx.valid[e] += 2
	}
	for e := range ctx.valid {
		ctx.valid[e]--
	}
	right := growNode(ds, ctx, cand.PR, cand.NR, depth+1)

	for _, e := range x {
		ctx.valid[e]--
	}
	for e := range ctx.valid {
		ctx.valid[e]++
	}

	if markedBinary {
		ctx.used[cand.Feature] = false
	}

	return &Node{
		SplitFeature: cand.Feature,
		Threshold:    cand.Threshold,
		Left:         left,
		Right:        right,
	}
}

// pickFeatures selects ctx.fpn distinct feature indices via a partial
// Fisher-Yates shuffle of the shared feats buffer, reseeded from ctx.rng
// at every node. When fpn covers every feature (bagging, boosting) the
// whole buffer is returned unshuffled.
func (ctx *context) pickFeatures() []int32 {
	n := len(ctx.feats)
	if ctx.fpn >= n {
		return ctx.feats
	}

	for i := 0; i < ctx.fpn; i++ {
		j := i + ctx.rng.Intn(n-i)
		ctx.feats[i], ctx.feats[j] = ctx.feats[j], ctx.feats[i]
	}

	return ctx.feats[:ctx.fpn]
}

// secondSideSet returns the examples on the "second" (value > threshold)
// side of a chosen split, found via binary search over the feature's
// sorted pairs for the explicit stored occurrences, plus every example
// with no stored occurrence at all when threshold < 0 (their implicit
// zero value then also lies to the right of the threshold).
func secondSideSet(ds *sparseset.Dataset, f int32, threshold float32, ctx *context) []int32 {
	pairs := ds.Feature[f]

	idx := firstAbove(pairs, threshold)

	var x []int32

	if threshold < 0 {
		for _, p := range pairs {
			ctx.present[p.Example] = true
		}
		for e := 0; e < ds.NEx; e++ {
			if !ctx.present[e] {
				x = append(x, int32(e))
			}
		}
		for _, p := range pairs {
			ctx.present[p.Example] = false
		}
	}

	for _, p := range pairs[idx:] {
		x = append(x, p.Example)
	}

	return x
}

// firstAbove returns the index of the first pair whose value exceeds
// threshold, via binary search over pairs (sorted ascending by value).
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
