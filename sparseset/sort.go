// Copyright 2015 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparseset

import "math/rand"

// insertionThreshold is the run length below which the sort bails out of
// quicksort partitioning and finishes with a plain insertion pass, per the
// construction algorithm in §4.1.
const insertionThreshold = 8

// triple is one non-zero occurrence tagged by feature, used only while
// building the column store. It sorts lexicographically by (Feature,
// Value, Example) so that, once sorted, slicing by feature boundary
// yields each feature[f] already in ascending-value, ascending-example-id
// order.
type triple struct {
	Feature int32
	Example int32
	Value   float32
}

func less(a, b triple) bool {
	if a.Feature != b.Feature {
		return a.Feature < b.Feature
	}
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return a.Example < b.Example
}

// sortTriples sorts buf in place using a randomized quicksort with a
// Lomuto-style partition, falling back to insertion sort on runs shorter
// than insertionThreshold, with a final insertion pass to mop up any
// nearly-sorted tail left by the recursive bailouts.
func sortTriples(buf []triple, rng *rand.Rand) {
	quicksort(buf, 0, len(buf)-1, rng)
	insertionSort(buf)
}

func quicksort(buf []triple, lo, hi int, rng *rand.Rand) {
	for lo < hi {
		if hi-lo+1 < insertionThreshold {
			insertionSortRange(buf, lo, hi)
			return
		}

		p := lomutoPartition(buf, lo, hi, rng)

		// Recurse into the smaller side, loop over the larger one,
		// to keep stack depth logarithmic.
		if p-lo < hi-p {
			quicksort(buf, lo, p-1, rng)
			lo = p + 1
		} else {
			quicksort(buf, p+1, hi, rng)
			hi = p - 1
		}
	}
}

func lomutoPartition(buf []triple, lo, hi int, rng *rand.Rand) int {
	pivotIdx := lo + rng.Intn(hi-lo+1)
	buf[pivotIdx], buf[hi] = buf[hi], buf[pivotIdx]

	pivot := buf[hi]
	store := lo

	for i := lo; i < hi; i++ {
		if less(buf[i], pivot) {
			buf[i], buf[store] = buf[store], buf[i]
			store++
		}
	}

	buf[store], buf[hi] = buf[hi], buf[store]

	return store
}

// insertionSort runs a single insertion pass over the whole buffer, to
// stabilize whatever nearly-sorted tails the bailed-out quicksort runs
// left behind.
func insertionSort(buf []triple) {
	insertionSortRange(buf, 0, len(buf)-1)
}

func insertionSortRange(buf []triple, lo, hi int) {
	for i := lo + 1; i <= hi; i++ {
		v := buf[i]
		j := i - 1
		for j >= lo && less(v, buf[j]) {
			buf[j+1] = buf[j]
			j--
		}
		buf[j+1] = v
	}
}
