package pipeline

import (
	"math"
	"testing"

	"github.com/AbdallahIsmaili/DeepBTC/internal/frame"
)

func withReturns(t *testing.T, f *frame.Frame) *frame.Frame {
	t.Helper()
	closes := f.Values("Close")
	if err := f.AddColumn("returns", frame.RoleMomentum, frame.PctChange(closes)); err != nil {
		t.Fatal(err)
	}
	return f
}

func addConst(t *testing.T, f *frame.Frame, name string, v float64) {
	t.Helper()
	values := make([]float64, f.Len())
	for i := range values {
		values[i] = v
	}
	if err := f.AddColumn(name, frame.RoleMerged, values); err != nil {
		t.Fatal(err)
	}
}

func TestDerivedSkipsFeaturesWithoutSources(t *testing.T) {
	f := withReturns(t, hourlyFrame(t, 48))
	out, err := derivedFeatures(f)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"nvt_ratio", "fear_greed_ma_7d", "btc_sp500_correlation", "hash_rate_change_7d"} {
		if out.Has(name) {
			t.Fatalf("%s must not exist without its source columns", name)
		}
	}
	if out.Len() != f.Len() {
		t.Fatalf("row count changed: %d -> %d", f.Len(), out.Len())
	}
}

func TestDerivedNVTRatio(t *testing.T) {
	f := withReturns(t, hourlyFrame(t, 24))
	addConst(t, f, "tx_count_daily", 400000)
	addConst(t, f, "total_btc_supply", 19000000)
	addConst(t, f, "market_price_usd", 50000)

	out, err := derivedFeatures(f)
	if err != nil {
		t.Fatal(err)
	}
	nvt := out.Values("nvt_ratio")
	want := 50000.0 * 19000000 / (400000 * nvtDivisor)
	for i, v := range nvt {
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("nvt_ratio[%d] = %f, want %f", i, v, want)
		}
	}
}

func TestDerivedNVTFallsBackToClose(t *testing.T) {
	f := withReturns(t, hourlyFrame(t, 24))
	addConst(t, f, "tx_count_daily", 400000)
	addConst(t, f, "total_btc_supply", 19000000)

	out, err := derivedFeatures(f)
	if err != nil {
		t.Fatal(err)
	}
	closes := out.Values("Close")
	nvt := out.Values("nvt_ratio")
	want := closes[5] * 19000000 / (400000 * nvtDivisor)
	if math.Abs(nvt[5]-want) > 1e-9 {
		t.Fatalf("nvt without market price must use close: got %f, want %f", nvt[5], want)
	}
}

func TestDerivedSentimentExtremes(t *testing.T) {
	f := withReturns(t, hourlyFrame(t, 6))
	fg := []float64{10, 24, 25, 50, 75, 90}
	if err := f.AddColumn("fear_greed_value", frame.RoleMerged, fg); err != nil {
		t.Fatal(err)
	}

	out, err := derivedFeatures(f)
	if err != nil {
		t.Fatal(err)
	}
	fear := out.Values("extreme_fear")
	greed := out.Values("extreme_greed")
	wantFear := []float64{1, 1, 0, 0, 0, 0}
	wantGreed := []float64{0, 0, 0, 0, 0, 1}
	for i := range fg {
		if fear[i] != wantFear[i] {
			t.Fatalf("extreme_fear[%d] = %f, want %f", i, fear[i], wantFear[i])
		}
		if greed[i] != wantGreed[i] {
			t.Fatalf("extreme_greed[%d] = %f, want %f", i, greed[i], wantGreed[i])
		}
	}
}

func TestDerivedMacroColumns(t *testing.T) {
	f := withReturns(t, hourlyFrame(t, 800))
	sp := make([]float64, f.Len())
	for i := range sp {
		sp[i] = 4000 + float64(i)*0.5
	}
	if err := f.AddColumn("SP500", frame.RoleMerged, sp); err != nil {
		t.Fatal(err)
	}

	out, err := derivedFeatures(f)
	if err != nil {
		t.Fatal(err)
	}
	if !out.HasAll("sp500_returns", "btc_sp500_correlation") {
		t.Fatal("macro returns and correlation columns missing")
	}
	corr := out.Values("btc_sp500_correlation")
	if !math.IsNaN(corr[100]) {
		t.Fatal("correlation must be undefined before the 30d window fills")
	}
	if math.IsNaN(corr[len(corr)-1]) {
		t.Fatal("correlation must be defined once the window fills")
	}
	if v := corr[len(corr)-1]; v < -1.0000001 || v > 1.0000001 {
		t.Fatalf("correlation out of range: %f", v)
	}
	// Only the SP500 trio exists; the other macro columns were not provided.
	if out.Has("btc_vix_correlation") || out.Has("btc_gold_correlation") {
		t.Fatal("correlations for absent macro columns must not exist")
	}
}

func TestDerivedChangeNames(t *testing.T) {
	f := withReturns(t, hourlyFrame(t, 800))
	addConst(t, f, "hash_rate_th_s", 500)
	addConst(t, f, "tx_count_daily", 400000)
	addConst(t, f, "difficulty", 7e13)

	out, err := derivedFeatures(f)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"hash_rate_change_7d", "hash_rate_change_30d",
		"tx_count_change_7d", "tx_count_change_30d",
		"difficulty_change_7d", "difficulty_change_30d",
	} {
		if !out.Has(name) {
			t.Fatalf("%s missing", name)
		}
	}
	// Constant series: the change is zero once the lag window fills.
	v := out.Values("hash_rate_change_30d")
	if v[hoursPerMonth] != 0 {
		t.Fatalf("constant series must show zero change, got %f", v[hoursPerMonth])
	}
	if !math.IsNaN(v[hoursPerMonth-1]) {
		t.Fatal("change must be undefined during the lag warm-up")
	}
}
