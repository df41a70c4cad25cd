// Copyright 2015 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package split implements the entropy-driven split search over sparse
continuous and binary features described in §4.3: for a node's positive
and negative mass, walk a feature's stored non-zero occurrences and the
implicit zero-valued mass to find the threshold with the largest
information gain.
*/
package split

import (
	"math"

	"github.com/shuLhan/ensembletree/sparseset"
)

// Epsilon is the smoothing constant applied to mass values before they
// are used in a ratio or a logarithm, keeping entropy well defined at
// the extremes. It mirrors C's FLT_EPSILON.
const Epsilon = 1.1920929e-07

// Candidate is one evaluated split: a feature/threshold pair together
// with its gain and the mass it would send to each child.
type Candidate struct {
	Feature   int32
	Threshold float32
	Gain      float64
	PL, NL    float32
	PR, NR    float32
}

// Best searches feats (skipping any feature already marked used) for the
// split with the largest gain strictly exceeding the parent's own
// entropy baseline. found is false when no feature improves on the
// parent.
func Best(ds *sparseset.Dataset, valid []int32, feats []int32, used []bool, P, N float32) (best Candidate, found bool) {
	baseline := parentBaseline(P, N)
	bestGain := baseline

	for _, f := range feats {
		if used[f] {
			continue
		}

		pairs := ds.Feature[f]
		if len(pairs) == 0 {
			continue
		}

		var cands []Candidate
		if ds.Cont[f] {
			cands = evalContinuous(pairs, valid, ds.Weight, ds.Target, P, N)
		} else {
			cands = []Candidate{evalBinary(pairs, valid, ds.Weight, ds.Target, P, N)}
		}

		for _, c := range cands {
			if c.Gain > bestGain {
				bestGain = c.Gain
				c.Feature = f
				best = c
				found = true
			}
		}
	}

	return best, found
}

func parentBaseline(P, N float32) float64 {
	T := float64(smooth(P) + smooth(N))
	if T <= 0 {
		return math.Inf(-1)
	}
	return -entropy(float64(smooth(P)) / T)
}

func entropy(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return -p*math.Log(p) - (1-p)*math.Log(1-p)
}

func smooth(x float32) float32 {
	if x < Epsilon {
		return Epsilon
	}
	return x
}

func gain(pl, nl, pr, nr float32) float64 {
	pl, nl, pr, nr = smooth(pl), smooth(nl), smooth(pr), smooth(nr)

	sL := float64(pl + nl)
	sR := float64(pr + nr)
	T := sL + sR
	if T <= 0 {
		return math.Inf(-1)
	}

	return -(sL/T*entropy(float64(pl)/sL) + sR/T*entropy(float64(pr)/sR))
}

func mkCandidate(threshold, leftPos, leftNeg, P, N float32) Candidate {
	pl := leftPos
	nl := leftNeg
	pr := P - leftPos
	nr := N - leftNeg

	return Candidate{
		Threshold: threshold,
		PL:        smooth(pl),
		NL:        smooth(nl),
		PR:        smooth(pr),
		NR:        smooth(nr),
		Gain:      gain(pl, nl, pr, nr),
	}
}

type valueGroup struct {
	value    float32
	pos, neg float32
}

// evalContinuous walks the stored pairs for one continuous feature in
// ascending value order, grouping equal values together, and evaluates a
// candidate threshold at every distinct-value boundary per §4.3.
func evalContinuous(pairs []sparseset.Pair, valid []int32, weight []float32, target []uint8, P, N float32) []Candidate {
	groups := groupByValue(pairs, valid, weight, target)
	if len(groups) == 0 {
		return nil
	}

	var posNonzero, negNonzero float32
	for _, g := range groups {
		posNonzero += g.pos
		negNonzero += g.neg
	}
	posZero := smooth(P - posNonzero)
	negZero := smooth(N - negNonzero)

	var candidates []Candidate
	var leftPos, leftNeg float32
	zeroAdded := false

	if groups[0].value > 0 {
		candidates = append(candidates, mkCandidate(groups[0].value/2, posZero, negZero, P, N))
		leftPos, leftNeg = posZero, negZero
		zeroAdded = true
	}

	for i, g := range groups {
		if i > 0 {
			prev := groups[i-1]
			if prev.value < 0 && g.value > 0 && !zeroAdded {
				candidates = append(candidates, mkCandidate(prev.value/2, leftPos, leftNeg, P, N))

				leftPos += posZero
				leftNeg += negZero
				zeroAdded = true

				candidates = append(candidates, mkCandidate(g.value/2, leftPos, leftNeg, P, N))
			} else {
				mid := (prev.value + g.value) / 2
				candidates = append(candidates, mkCandidate(mid, leftPos, leftNeg, P, N))
			}
		}

		leftPos += g.pos
		leftNeg += g.neg
	}

	return candidates
}

// groupByValue collects, for each distinct stored value of a feature,
// the summed weight of valid examples landing on it, split by class.
// Groups with no valid mass (every example touching that value is
// currently invalid) are dropped.
func groupByValue(pairs []sparseset.Pair, valid []int32, weight []float32, target []uint8) []valueGroup {
	var groups []valueGroup

	i := 0
	for i < len(pairs) {
		v := pairs[i].Value

		var pos, neg float32
		j := i
		for j < len(pairs) && pairs[j].Value == v {
			e := pairs[j].Example
			if valid[e] > 0 {
				w := weight[e]
				if target[e] == 1 {
					pos += w
				} else {
					neg += w
				}
			}
			j++
		}

		if pos > 0 || neg > 0 {
			groups = append(groups, valueGroup{value: v, pos: pos, neg: neg})
		}

		i = j
	}

	return groups
}

// evalBinary evaluates the single candidate threshold (0.5) for a binary
// feature: mass at value 1 goes right, everything else (the implicit
// zero mass) goes left.
func evalBinary(pairs []sparseset.Pair, valid []int32, weight []float32, target []uint8, P, N float32) Candidate {
	var rpos, rneg float32
	for _, p := range pairs {
		e := p.Example
		if valid[e] > 0 {
			w := weight[e]
			if target[e] == 1 {
				rpos += w
			} else {
				rneg += w
			}
		}
	}

	pl := P - rpos
	nl := N - rneg

	return Candidate{
		Threshold: 0.5,
		PL:        smooth(pl),
		NL:        smooth(nl),
		PR:        smooth(rpos),
		NR:        smooth(rneg),
		Gain:      gain(pl, nl, rpos, rneg),
	}
}
