package pipeline

import (
	"log"
	"math"

	"github.com/AbdallahIsmaili/DeepBTC/internal/dataset"
	"github.com/AbdallahIsmaili/DeepBTC/internal/domain"
	"github.com/AbdallahIsmaili/DeepBTC/internal/frame"
)

// mergeSource joins one lower-frequency optional source onto the hourly
// table. The fill order is load-bearing: step-upsample, left join, forward
// fill, backward fill, then median imputation as the last resort for columns
// whose coverage starts after the hourly range. No hourly row is ever dropped
// here.
func mergeSource(f *frame.Frame, kind domain.SourceKind, res dataset.Result, report *domain.RetentionReport) *frame.Frame {
	if res.Status != domain.LoadOK || res.Frame == nil || res.Frame.Len() == 0 {
		report.SkippedSources = append(report.SkippedSources, kind)
		log.Printf("skipping %s merge (%s)", kind, res.Status)
		return f
	}

	out := f.Clone()
	aligned := res.Frame.AlignTo(out.Index())

	merged := 0
	for _, name := range aligned.Names() {
		if out.Has(name) {
			log.Printf("%s column %s collides with an existing column, skipping", kind, name)
			continue
		}
		values := aligned.Values(name)
		frame.FillForward(values)
		frame.FillBackward(values)

		if gaps := countNaN(values); gaps > 0 {
			median := frame.Median(values)
			if math.IsNaN(median) {
				log.Printf("%s column %s has no values at all, dropping it", kind, name)
				continue
			}
			for i, v := range values {
				if math.IsNaN(v) {
					values[i] = median
				}
			}
			report.ImputedCells[name] += gaps
			log.Printf("%s column %s: imputed %d cells with median %.6g", kind, name, gaps, median)
		}

		if err := out.AddColumn(name, frame.RoleMerged, values); err != nil {
			log.Printf("%s column %s not merged: %v", kind, name, err)
			continue
		}
		merged++
	}

	report.MergedSources = append(report.MergedSources, kind)
	log.Printf("merged %s: %d columns onto %d hourly rows", kind, merged, out.Len())
	return out
}

func countNaN(values []float64) int {
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}
