// Copyright 2015-2016 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Command learn trains a tree-committee ensemble (bagging, confidence-rated
boosting, or random forest) over a sparse labeled dataset and writes it
to the ASCII model format described in §6.
*/
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/shuLhan/ensembletree/committee"
	"github.com/shuLhan/ensembletree/model"
	"github.com/shuLhan/ensembletree/sparseset"
)

var (
	// DEBUG level, can be set from environment variable.
	DEBUG = 0

	flagCommittee = 2
	flagMaxDepth  = 1000
	flagReportOOB = false
	flagNegWeight = 1.0
	flagFPNFactor = 1.0
	flagNumTrees  = 100
	flagOOBReport = ""
)

var usage = func() {
	cmd := os.Args[0]
	fmt.Fprintf(os.Stderr, "Usage of %s:\n"+
		"%s [flags] data-path model-path\n", cmd, cmd)
	flag.PrintDefaults()
}

func init() {
	if v := os.Getenv("LEARN_DEBUG"); v != "" {
		DEBUG, _ = strconv.Atoi(v)
	}

	flag.IntVar(&flagCommittee, "c", 2, "committee: 1=Bagging 2=Boosting 3=RandomForest")
	flag.IntVar(&flagMaxDepth, "d", 1000, "max tree depth")
	flag.BoolVar(&flagReportOOB, "e", false, "report out-of-bag error per iteration")
	flag.Float64Var(&flagNegWeight, "n", 1.0, "negative-class weight (w-)")
	flag.Float64Var(&flagFPNFactor, "p", 1.0, "features-per-node factor (random forest only)")
	flag.IntVar(&flagNumTrees, "t", 100, "number of trees")
	flag.StringVar(&flagOOBReport, "oobreport", "", "optional path to write per-iteration OOB percentages")
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

	if flag.NArg() != 2 {
		usage()
		return fmt.Errorf("expecting data-path and model-path")
	}

	kind := committee.Kind(flagCommittee)
	switch kind {
	case committee.Bagging, committee.Boosting, committee.RandomForest:
	default:
		return fmt.Errorf("invalid committee %d", flagCommittee)
	}

	dataPath := flag.Arg(0)
	modelPath := flag.Arg(1)

	in, e := os.Open(dataPath)
	if e != nil {
		return fmt.Errorf("cannot open data-path: %w", e)
	}
	defer in.Close()

	rng := rand.New(rand.NewSource(1))

	ds, e := sparseset.Load(in, rng)
	if e != nil {
		return fmt.Errorf("loading dataset: %w", e)
	}

	if DEBUG >= 1 {
		fmt.Printf("[learn] loaded %d examples, %d features\n", ds.NEx, ds.NFeat)
	}

	cfg := committee.Config{
		Kind:          kind,
		NTrees:        flagNumTrees,
		MaxDepth:      flagMaxDepth,
		FPNFactor:     flagFPNFactor,
		NegWeight:     flagNegWeight,
		ReportOOB:     flagReportOOB,
		OOBReportPath: flagOOBReport,
		Rand:          rng,
	}

	ens := committee.Run(ds, cfg)

	out, e := os.Create(modelPath)
	if e != nil {
		return fmt.Errorf("cannot create model-path: %w", e)
	}
	defer out.Close()

	if e := model.Write(out, ens); e != nil {
		return fmt.Errorf("writing model: %w", e)
	}

	fmt.Println("[learn]", ens)

	return nil
}

func main() {
	defer un(trace("learn"))

	if e := run(); e != nil {
		fmt.Fprintln(os.Stderr, "learn:", e)
		os.Exit(1)
	}
}
