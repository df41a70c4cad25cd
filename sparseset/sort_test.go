// Copyright 2015 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sparseset

import (
	"math/rand"
	"testing"

	"github.com/shuLhan/dsv/util/assert"
)

func isSorted(buf []triple) bool {
	for i := 1; i < len(buf); i++ {
		if less(buf[i], buf[i-1]) {
			return false
		}
	}
	return true
}

func TestSortTriplesSmall(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	buf := []triple{
		{Feature: 1, Example: 3, Value: 2},
		{Feature: 0, Example: 1, Value: 1},
		{Feature: 0, Example: 0, Value: 1},
		{Feature: 2, Example: 2, Value: 0.5},
	}

	sortTriples(buf, rng)

	assert.Equal(t, true, isSorted(buf))
}

// TestSortTriplesLarge exercises both the quicksort partitioning path and
// the insertionThreshold bailout on a buffer well above the cutoff, with
// duplicate (feature, value) pairs to check the example tiebreak.
func TestSortTriplesLarge(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	const n = 500
	buf := make([]triple, n)
	for i := range buf {
		buf[i] = triple{
			Feature: int32(rng.Intn(5)),
			Example: int32(n - i),
			Value:   float32(rng.Intn(10)),
		}
	}

	sortTriples(buf, rng)

	assert.Equal(t, true, isSorted(buf))
	assert.Equal(t, n, len(buf))
}

func TestInsertionSortRange(t *testing.T) {
	buf := []triple{
		{Feature: 0, Value: 3},
		{Feature: 0, Value: 1},
		{Feature: 0, Value: 2},
	}

	insertionSortRange(buf, 0, len(buf)-1)

	assert.Equal(t, true, isSorted(buf))
}
