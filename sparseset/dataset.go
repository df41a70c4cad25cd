// Copyright 2015 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package sparseset implements the column-store representation of a labeled
sparse binary-classification dataset.

Each feature is stored as an ordered list of the non-zero (example, value)
occurrences of that feature only; the implicit zero-valued mass for an
example that never appears under a feature is never materialized and must
be accounted for separately by callers (see package split).
*/
package sparseset

import "os"

var (
	// DEBUG level, can be set from environment variable.
	DEBUG = 0
)

func init() {
	if os.Getenv("SPARSESET_DEBUG") != "" {
		DEBUG = 1
	}
}

// Pair is a single non-zero occurrence of a feature: which example it
// belongs to and the stored value.
type Pair struct {
	Example int32
	Value   float32
}

// Dataset is the immutable column-store of a labeled sparse dataset, plus
// the two mutable per-example vectors (Weight, OOBVotes) that the committee
// controller owns between trees.
type Dataset struct {
	// NEx is the number of examples.
	NEx int
	// NFeat is the number of features, derived as one plus the maximum
	// stored feature index seen while loading.
	NFeat int

	// Feature holds, per feature, the ordered non-zero occurrences:
	// sorted ascending by value, then by example id.
	Feature [][]Pair
	// Cont is true for feature f iff any stored value for f is not
	// exactly 1 (a continuous feature); otherwise f is treated as
	// binary in {0, 1}.
	Cont []bool

	// Target holds the 0/1 class label of every example.
	Target []uint8

	// Weight is the per-example, per-tree weight used by the grower
	// and by boosting's reweighting step. Owned by the committee
	// controller between trees, by the grower during a tree.
	Weight []float32
	// OOBVotes accumulates +-1 per tree when an example is used for
	// out-of-bag evaluation. Only populated when OOB reporting is
	// requested; left nil otherwise.
	OOBVotes []int32
}

// NewDataset allocates a column-store for nex examples and nfeat features.
// Feature, Target, Weight are sized but not populated; callers (the
// loader) fill them in.
func NewDataset(nex, nfeat int) *Dataset {
	return &Dataset{
		NEx:     nex,
		NFeat:   nfeat,
		Feature: make([][]Pair, nfeat),
		Cont:    make([]bool, nfeat),
		Target:  make([]uint8, nex),
		Weight:  make([]float32, nex),
	}
}

// EnableOOB allocates the OOBVotes vector, zeroed. Calling it more than
// once resets the accumulated votes.
func (d *Dataset) EnableOOB() {
	d.OOBVotes = make([]int32, d.NEx)
}

// CountClass returns the number of examples with Target == 0 and the
// number with Target == 1.
func (d *Dataset) CountClass() (c0, c1 int) {
	for _, t := range d.Target {
		if t == 0 {
			c0++
		} else {
			c1++
		}
	}
	return c0, c1
}
