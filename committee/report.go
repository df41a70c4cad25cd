// Copyright 2015-2016 Mhd Sulhan <ms@kilabit.info>. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package committee

import (
	"github.com/shuLhan/dsv"
	"github.com/shuLhan/tabula"
)

// ReportWriter persists one OOBReport per grown tree as a row of
// percentages, mirroring the open-once/write-per-iteration/close-at-end
// shape of classifier/runtime.go's oobWriter.
type ReportWriter struct {
	w *dsv.Writer
}

// OpenReportWriter opens path for the OOB-report output.
func OpenReportWriter(path string) (*ReportWriter, error) {
	w := &dsv.Writer{}
	if e := w.OpenOutput(path); e != nil {
		return nil, e
	}
	return &ReportWriter{w: w}, nil
}

// Write appends one iteration's accuracy/specificity/sensitivity
// percentages, built as a *tabula.Row the way classifier/runtime.go's
// Stat.ToRow does.
func (rw *ReportWriter) Write(r OOBReport) error {
	row := &tabula.Row{}
	row.PushBack(tabula.NewRecordInt(int64(r.Tree)))
	row.PushBack(tabula.NewRecordReal((1 - r.ErrAccuracy) * 100))
	row.PushBack(tabula.NewRecordReal((1 - r.ErrSpecificity) * 100))
	row.PushBack(tabula.NewRecordReal((1 - r.ErrSensitivity) * 100))
	return rw.w.WriteRawRow(row, nil, nil)
}

// Close closes the underlying output file.
func (rw *ReportWriter) Close() error {
	return rw.w.Close()
}
