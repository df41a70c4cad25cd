// Copyright 2015 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package grow implements the recursive binary decision-tree induction
engine: split search over a node's valid examples, the in-place
validity-marker bookkeeping that avoids copying the active example set
down the recursion, and the stopping rules that terminate a branch as a
leaf.
*/
package grow

import "fmt"

// LeafFeature is the sentinel SplitFeature value that marks a Node as a
// leaf rather than a split.
const LeafFeature = -1

// Node is either a split node (SplitFeature >= 0, Threshold, Left,
// Right populated) or a leaf (SplitFeature == LeafFeature, Pos/Neg
// populated).
type Node struct {
	SplitFeature int32
	Threshold    float32
	Left, Right  *Node

	// Pos, Neg hold the leaf's class mass. Meaningless on a split node.
	Pos, Neg float32
}

func leaf(pos, neg float32) *Node {
	return &Node{SplitFeature: LeafFeature, Pos: pos, Neg: neg}
}

// IsLeaf reports whether n is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.SplitFeature == LeafFeature
}

// String renders the node and its subtree in preorder, one token group
// per line, for quick debugging (not the on-disk model format, which
// lives in package model).
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	if n.IsLeaf() {
		return fmt.Sprintf("leaf(pos=%g, neg=%g)", n.Pos, n.Neg)
	}
	return fmt.Sprintf("split(f=%d, t=%g)\n  %s\n  %s",
		n.SplitFeature, n.Threshold, n.Left, n.Right)
}
