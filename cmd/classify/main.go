// Copyright 2015-2016 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Command classify scores a sparse dataset against a previously trained
ensemble and writes one prediction per example.
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/shuLhan/ensembletree/committee"
	"github.com/shuLhan/ensembletree/eval"
	"github.com/shuLhan/ensembletree/model"
	"github.com/shuLhan/ensembletree/sparseset"
)

var flagNTrees = 0

var usage = func() {
	cmd := os.Args[0]
	fmt.Fprintf(os.Stderr, "Usage of %s:\n"+
		"%s [-t trees] data-path model-path predictions-path\n", cmd, cmd)
	flag.PrintDefaults()
}

func init() {
	flag.IntVar(&flagNTrees, "t", 0, "number of trees to use (0 = all)")
}

func trace(s string) (string, time.Time) {
	fmt.Println("[START]", s)
	return s, time.Now()
}

func un(s string, startTime time.Time) {
	fmt.Println("[END]", s, "with elapsed time", time.Since(startTime))
}

func run() error {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 3 {
		usage()
		return fmt.Errorf("expecting data-path, model-path and predictions-path")
	}

	dataPath := flag.Arg(0)
	modelPath := flag.Arg(1)
	predPath := flag.Arg(2)

	mf, e := os.Open(modelPath)
	if e != nil {
		return fmt.Errorf("cannot open model-path: %w", e)
	}
	defer mf.Close()

	ens, e := model.Read(mf)
	if e != nil {
		return fmt.Errorf("reading model: %w", e)
	}

	ntrees := flagNTrees
	if ntrees <= 0 || ntrees > ens.NTreesGrown {
		ntrees = ens.NTreesGrown
	}
	trees := ens.Trees[:ntrees]

	df, e := os.Open(dataPath)
	if e != nil {
		return fmt.Errorf("cannot open data-path: %w", e)
	}
	defer df.Close()

	ds, e := sparseset.Load(df, rand.New(rand.NewSource(1)))
	if e != nil {
		return fmt.Errorf("loading dataset: %w", e)
	}

	probes, e := probesFromDataset(ds)
	if e != nil {
		return fmt.Errorf("building probes: %w", e)
	}

	mode := eval.ModeBag
	if ens.Kind == committee.Boosting {
		mode = eval.ModeBoost
	}

	out, e := os.Create(predPath)
	if e != nil {
		return fmt.Errorf("cannot create predictions-path: %w", e)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	for _, p := range probes {
		var score float64
		if mode == eval.ModeBoost {
			score = eval.EnsembleBoost(trees, p)
		} else {
			score = eval.EnsembleBag(trees, p)
		}
		vote := eval.EnsembleVote(trees, p, mode)

		if _, e := fmt.Fprintf(w, "%.6f %d\n", score, vote); e != nil {
			return fmt.Errorf("writing prediction: %w", e)
		}
	}

	return w.Flush()
}

// probesFromDataset reconstructs one dense Probe per example from the
// column store, for feeding eval.Bag/eval.Boost.
func probesFromDataset(ds *sparseset.Dataset) ([]eval.Probe, error) {
	probes := make([]eval.Probe, ds.NEx)
	for i := range probes {
		probes[i] = eval.Probe{}
	}

	for f, pairs := range ds.Feature {
		for _, p := range pairs {
			probes[p.Example][int32(f)] = p.Value
		}
	}

	return probes, nil
}

func main() {
	defer un(trace("classify"))

	if e := run(); e != nil {
		fmt.Fprintln(os.Stderr, "classify:", e)
		os.Exit(1)
	}
}

