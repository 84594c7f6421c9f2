package pipeline

import (
	"fmt"
	"math"

	"github.com/AbdallahIsmaili/DeepBTC/internal/frame"
)

// multiclassBounds partition the 1-step forward return into five ordinal
// classes. Bins are right-closed: a return of exactly -0.01 is class 0.
var multiclassBounds = []float64{-0.01, -0.002, 0.002, 0.01}

// labelFeatures derives the three training targets from the stored forward
// return, never from raw price, so labels and features cannot drift apart.
func labelFeatures(in *frame.Frame) (*frame.Frame, error) {
	if !in.Has("future_return_1h") {
		return nil, fmt.Errorf("future_return_1h missing; labels require the forward-return stage")
	}
	out := in.Clone()
	fr := out.Values("future_return_1h")
	n := out.Len()

	direction := make([]float64, n)
	multiclass := make([]float64, n)
	regression := make([]float64, n)
	for i, v := range fr {
		regression[i] = v
		if math.IsNaN(v) {
			direction[i] = math.NaN()
			multiclass[i] = math.NaN()
			continue
		}
		if v > 0 {
			direction[i] = 1
		} else {
			direction[i] = 0
		}
		multiclass[i] = classify(v)
	}

	a := &adder{f: out}
	a.add("target_direction_1h", frame.RoleLabel, direction)
	a.add("target_multiclass_1h", frame.RoleLabel, multiclass)
	a.add("target_return_1h", frame.RoleLabel, regression)
	if a.err != nil {
		return nil, a.err
	}
	return out, nil
}

func classify(v float64) float64 {
	for class, bound := range multiclassBounds {
		if v <= bound {
			return float64(class)
		}
	}
	return float64(len(multiclassBounds))
}
