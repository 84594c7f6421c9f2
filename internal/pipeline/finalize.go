package pipeline

import (
	"errors"
	"math"

	"github.com/AbdallahIsmaili/DeepBTC/internal/domain"
	"github.com/AbdallahIsmaili/DeepBTC/internal/frame"
)

// ErrEmptyResult means cleaning removed every row; nothing is written.
var ErrEmptyResult = errors.New("finalized feature table has no rows")

// finalize applies the tiered cleaning policy. The order is load-bearing:
// infinity replacement, critical-column drops, technical gap fills, label
// drops, then the residual sweep. Reordering changes the retained row count.
func finalize(in *frame.Frame, report *domain.RetentionReport) (*frame.Frame, error) {
	out := in.Clone()

	// 1. Infinities become the absence value everywhere.
	for _, name := range out.Names() {
		replaceInf(out.Values(name))
	}

	// 2. Rows without a critical value are unrecoverable.
	out, dropped := dropRowsMissing(out, presentColumns(out, domain.CriticalColumns))
	report.DroppedCritical = dropped

	// 3. Technical-indicator warm-up gaps are filled, not dropped. The same
	// treatment covers cross-source derived columns: their warm-up windows
	// (up to 30 days for the rolling correlations) run over already-imputed
	// merged data, and dropping those rows would make merging an extra
	// source shrink the output.
	for _, role := range []frame.Role{frame.RoleTechnical, frame.RoleDerived} {
		for _, name := range out.NamesWithRole(role) {
			values := out.Values(name)
			frame.FillForward(values)
			frame.FillBackward(values)
		}
	}

	// 4. A row without a label cannot train a model and is never imputed.
	out, dropped = dropRowsMissing(out, out.NamesWithRole(frame.RoleLabel))
	report.DroppedMissingLabel = dropped

	// 5. Residual sweep over all feature columns. Forward-return columns are
	// exempt: they are label-only inputs and legitimately undefined at the
	// tail beyond the 1-step horizon.
	var residual []string
	for _, name := range out.Names() {
		if c, _ := out.Column(name); c.Role != frame.RoleForward {
			residual = append(residual, name)
		}
	}
	out, dropped = dropRowsMissing(out, residual)
	report.DroppedResidual = dropped

	report.FinalRows = out.Len()
	report.Columns = out.NumCols()
	if report.InitialRows > 0 {
		report.RetentionPct = 100 * float64(report.FinalRows) / float64(report.InitialRows)
	}
	if out.Len() == 0 {
		return nil, ErrEmptyResult
	}
	return out, nil
}

func dropRowsMissing(f *frame.Frame, columns []string) (*frame.Frame, int) {
	if len(columns) == 0 {
		return f, 0
	}
	keep := make([]bool, f.Len())
	for i := range keep {
		keep[i] = true
	}
	dropped := 0
	for _, name := range columns {
		values := f.Values(name)
		for i, v := range values {
			if keep[i] && math.IsNaN(v) {
				keep[i] = false
				dropped++
			}
		}
	}
	if dropped == 0 {
		return f, 0
	}
	return f.SelectRows(keep), dropped
}

func presentColumns(f *frame.Frame, names []string) []string {
	var out []string
	for _, name := range names {
		if f.Has(name) {
			out = append(out, name)
		}
	}
	return out
}
