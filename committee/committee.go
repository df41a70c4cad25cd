// Copyright 2015-2016 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package committee drives N iterations of tree growing over a dataset:
prepare weights and validity for the iteration, grow one tree, then
either reweight the examples (boosting) or record out-of-bag votes
(bagging, random forest). It collapses the three separate growers the
original implementation kept into one Kind-agnostic grower (grow.Tree),
per the redesign note in §9: Run alone varies the per-iteration
preparation and post-tree step by Kind.
*/
package committee

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/glog"
	"github.com/shuLhan/numerus"

	"github.com/shuLhan/ensembletree/eval"
	"github.com/shuLhan/ensembletree/grow"
	"github.com/shuLhan/ensembletree/sparseset"
)

// Kind selects the reweighting/resampling discipline driving the
// committee, and doubles as the model-format committee code (§6).
type Kind int

const (
	// Bagging trains each tree on an independent bootstrap sample.
	Bagging Kind = 1
	// Boosting grows one tree, then reweights examples by the tree's
	// confidence-rated logit.
	Boosting Kind = 2
	// RandomForest is bagging plus a random per-node feature subset.
	RandomForest Kind = 3
)

// Name returns the model-format committee name (§6).
func (k Kind) Name() string {
	switch k {
	case Bagging:
		return "Bagging"
	case Boosting:
		return "Boosting"
	case RandomForest:
		return "RandomForest"
	default:
		return "Unknown"
	}
}

var (
	// DEBUG level, can be set from environment variable.
	DEBUG = 0
)

// Config configures one committee run.
type Config struct {
	Kind Kind

	NTrees    int
	MaxDepth  int
	FPNFactor float64 // random forests only
	NegWeight float64 // w-, class-balance knob
	ReportOOB bool

	// OOBReportPath, when set together with ReportOOB, receives one
	// row of accuracy/specificity/sensitivity percentages per grown
	// tree.
	OOBReportPath string

	// Rand drives every random decision (bootstrap draws, feature
	// subsets); seed it once at the top level for a reproducible run.
	Rand *rand.Rand
}

// Ensemble is an ordered list of grown trees plus the metadata needed to
// reproduce and persist the committee run (§3, §6).
type Ensemble struct {
	Kind      Kind
	NFeat     int
	MaxDepth  int
	FPNFactor float64
	NegWeight float64
	ReportOOB bool

	NTreesPlanned int
	NTreesGrown   int

	Trees []*grow.Node

	// OOBReports holds one entry per grown tree when ReportOOB is set,
	// the running accuracy/specificity/sensitivity error rates (§4.6).
	OOBReports []OOBReport
}

// OOBReport is one iteration's out-of-bag error reading.
type OOBReport struct {
	Tree           int
	ErrAccuracy    float64
	ErrSpecificity float64
	ErrSensitivity float64
}

// Run drives cfg.NTrees iterations over ds and returns the resulting
// ensemble. A partially completed ensemble (NTreesGrown < NTreesPlanned)
// is never returned by this implementation since grow never fails, but
// the field is always populated so a future fallible variant stays
// source compatible.
func Run(ds *sparseset.Dataset, cfg Config) *Ensemble {
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	fpn := ds.NFeat
	if cfg.Kind == RandomForest {
		fpn = int(cfg.FPNFactor * math.Sqrt(float64(ds.NFeat)))
		if fpn < 1 {
			fpn = 1
		}
	}

	w0, w1 := classWeights(ds, cfg.NegWeight)

	ens := &Ensemble{
		Kind:          cfg.Kind,
		NFeat:         ds.NFeat,
		MaxDepth:      cfg.MaxDepth,
		FPNFactor:     cfg.FPNFactor,
		NegWeight:     cfg.NegWeight,
		ReportOOB:     cfg.ReportOOB,
		NTreesPlanned: cfg.NTrees,
	}

	if cfg.ReportOOB {
		ds.EnableOOB()
	}

	valid := make([]int32, ds.NEx)
	feats := int32Seq(numerus.IntCreateSeq(0, ds.NFeat-1))
	used := make([]bool, ds.NFeat)
	pred := make([]float32, ds.NEx)

	var report *ReportWriter
	if cfg.ReportOOB && cfg.OOBReportPath != "" {
		var e error
		report, e = OpenReportWriter(cfg.OOBReportPath)
		if e != nil {
			glog.Warningf("committee: cannot open OOB report %q: %v", cfg.OOBReportPath, e)
		} else {
			defer report.Close()
		}
	}

	for t := 0; t < cfg.NTrees; t++ {
		switch cfg.Kind {
		case Bagging, RandomForest:
			prepareBagged(ds, valid, w0, w1, rng)
		case Boosting:
			if t == 0 {
				prepareBoostFirst(ds, valid, w0, w1)
			}
		}

		for i := range used {
			used[i] = false
		}

		tree := grow.Tree(ds, valid, feats, used, fpn, cfg.MaxDepth, rng)
		ens.Trees = append(ens.Trees, tree)
		ens.NTreesGrown++

		switch cfg.Kind {
		case Bagging, RandomForest:
			if cfg.ReportOOB {
				oobReport := runOOB(ds, tree, valid, pred, t)
				ens.OOBReports = append(ens.OOBReports, oobReport)
				if glog.V(1) {
					glog.Infof("committee: tree %d oob err accuracy=%.4f specificity=%.4f sensitivity=%.4f",
						t, oobReport.ErrAccuracy, oobReport.ErrSpecificity, oobReport.ErrSensitivity)
				}
				if report != nil {
					if e := report.Write(oobReport); e != nil {
						glog.Warningf("committee: write OOB report: %v", e)
					}
				}
			}
		case Boosting:
			reweightBoost(ds, tree, valid, pred)
			if glog.V(2) {
				glog.Infof("committee: tree %d boosting weights renormalized", t)
			}
		}
	}

	return ens
}

// classWeights derives the per-class weight factors once, per §4.5:
// w0 = negWeight / (negWeight*C0 + C1), w1 = 1 / (negWeight*C0 + C1).
func classWeights(ds *sparseset.Dataset, negWeight float64) (w0, w1 float32) {
	c0, c1 := ds.CountClass()
	denom := negWeight*float64(c0) + float64(c1)
	if denom <= 0 {
		return 0, 0
	}
	return float32(negWeight / denom), float32(1 / denom)
}

// prepareBagged clears valid and weight, draws NEx bootstrap indices
// uniformly with replacement, and accumulates per-class weight on every
// drawn example (§4.5).
func prepareBagged(ds *sparseset.Dataset, valid []int32, w0, w1 float32, rng *rand.Rand) {
	for e := range valid {
		valid[e] = 0
		ds.Weight[e] = 0
	}

	for i := 0; i < ds.NEx; i++ {
		r := rng.Intn(ds.NEx)
		valid[r] = 1
		if ds.Target[r] == 1 {
			ds.Weight[r] += w1
		} else {
			ds.Weight[r] += w0
		}
	}
}

// prepareBoostFirst sets up the first boosting iteration: every example
// is valid and carries its class weight (§4.5).
func prepareBoostFirst(ds *sparseset.Dataset, valid []int32, w0, w1 float32) {
	for e := range valid {
		valid[e] = 1
		if ds.Target[e] == 1 {
			ds.Weight[e] = w1
		} else {
			ds.Weight[e] = w0
		}
	}
}

// reweightBoost runs the training-data boosting walk to fill pred, then
// updates and renormalizes the per-example weights so they sum to 1
// (§4.5, testable property §8.4).
func reweightBoost(ds *sparseset.Dataset, tree *grow.Node, valid []int32, pred []float32) {
	allValid := make([]int32, len(valid))
	for i := range allValid {
		allValid[i] = 1
	}
	eval.TrainWalk(ds, tree, allValid, pred, eval.ModeBoost)

	var sum float64
	for e := 0; e < ds.NEx; e++ {
		y := float64(2*int(ds.Target[e]) - 1)
		ds.Weight[e] = float32(float64(ds.Weight[e]) * math.Exp(-y*float64(pred[e])))
		sum += float64(ds.Weight[e])
	}

	if sum <= 0 {
		return
	}
	for e := range ds.Weight {
		ds.Weight[e] = float32(float64(ds.Weight[e]) / sum)
	}
}

// runOOB sets every example valid, runs the bagging training-data walk,
// and updates ds.OOBVotes for every originally out-of-bag example
// (weight was 0 when this tree was drawn) by +1/-1 depending on whether
// its bag prediction exceeds 0.5.
func runOOB(ds *sparseset.Dataset, tree *grow.Node, drawnValid []int32, pred []float32, iter int) OOBReport {
	wasOOB := make([]bool, ds.NEx)
	allValid := make([]int32, ds.NEx)
	for e := 0; e < ds.NEx; e++ {
		allValid[e] = 1
		wasOOB[e] = ds.Weight[e] == 0
	}

	eval.TrainWalk(ds, tree, allValid, pred, eval.ModeBag)

	if ds.OOBVotes == nil {
		ds.EnableOOB()
	}

	for e := 0; e < ds.NEx; e++ {
		if !wasOOB[e] {
			continue
		}
		if pred[e] > 0.5 {
			ds.OOBVotes[e]++
		} else {
			ds.OOBVotes[e]--
		}
	}

	return computeOOBReport(ds, iter)
}

// computeOOBReport computes 1-accuracy, 1-specificity, 1-sensitivity
// over the current sign of ds.OOBVotes, excluding examples with a zero
// vote tally (§4.6).
func computeOOBReport(ds *sparseset.Dataset, iter int) OOBReport {
	var tp, tn, fp, fn int64

	for e := 0; e < ds.NEx; e++ {
		v := ds.OOBVotes[e]
		if v == 0 {
			continue
		}
		predicted1 := v > 0
		actual1 := ds.Target[e] == 1

		switch {
		case predicted1 && actual1:
			tp++
		case !predicted1 && !actual1:
			tn++
		case predicted1 && !actual1:
			fp++
		case !predicted1 && actual1:
			fn++
		}
	}

	acc := rate(tp+tn, tp+tn+fp+fn)
	spec := rate(tn, tn+fp)
	sens := rate(tp, tp+fn)

	return OOBReport{
		Tree:           iter,
		ErrAccuracy:    1 - acc,
		ErrSpecificity: 1 - spec,
		ErrSensitivity: 1 - sens,
	}
}

// int32Seq narrows numerus's []int sequence down to the []int32 feature
// index type used throughout this module.
func int32Seq(seq []int) []int32 {
	out := make([]int32, len(seq))
	for i, v := range seq {
		out[i] = int32(v)
	}
	return out
}

func rate(num, denom int64) float64 {
	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}

// String renders the ensemble's header fields, for quick debugging.
func (e *Ensemble) String() string {
	return fmt.Sprintf("committee: %d (%s), trees: %d/%d, features: %d, maxdepth: %d",
		e.Kind, e.Kind.Name(), e.NTreesGrown, e.NTreesPlanned, e.NFeat, e.MaxDepth)
}
