package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/AbdallahIsmaili/DeepBTC/internal/frame"
)

func makeOHLCV(t *testing.T, n int) *frame.Frame {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	index := make([]time.Time, n)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	closes := make([]float64, n)
	volume := make([]float64, n)
	for i := 0; i < n; i++ {
		index[i] = start.Add(time.Duration(i) * time.Hour)
		price := 100 + 5*math.Sin(float64(i)/9) + float64(i)*0.01
		open[i] = price - 0.2
		high[i] = price + 0.6
		low[i] = price - 0.7
		closes[i] = price
		volume[i] = 1000 + 80*math.Sin(float64(i)/7) + float64(i%13)
	}
	f, err := frame.New(index)
	if err != nil {
		t.Fatal(err)
	}
	for name, vals := range map[string][]float64{
		"Open": open, "High": high, "Low": low, "Close": closes, "Volume": volume,
	} {
		if err := f.AddColumn(name, frame.RoleRaw, vals); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func TestPriceFeaturesForwardReturns(t *testing.T) {
	in := makeOHLCV(t, 300)
	out, err := priceFeatures(in)
	if err != nil {
		t.Fatal(err)
	}

	closes := out.Values("Close")
	for _, h := range forwardHorizons {
		name := map[int]string{1: "future_return_1h", 6: "future_return_6h", 24: "future_return_24h"}[h]
		fr := out.Values(name)
		for i := 0; i < out.Len()-h; i++ {
			want := closes[i+h]/closes[i] - 1
			if math.Abs(fr[i]-want) > 1e-12 {
				t.Fatalf("%s[%d] = %f, want %f", name, i, fr[i], want)
			}
		}
		for i := out.Len() - h; i < out.Len(); i++ {
			if !math.IsNaN(fr[i]) {
				t.Fatalf("%s must be undefined in the last %d rows, got %f at %d", name, h, fr[i], i)
			}
		}
		if c, _ := out.Column(name); c.Role != frame.RoleForward {
			t.Fatalf("%s must carry the forward role, got %s", name, c.Role)
		}
	}
}

func TestPriceFeaturesWarmUps(t *testing.T) {
	out, err := priceFeatures(makeOHLCV(t, 300))
	if err != nil {
		t.Fatal(err)
	}

	if !math.IsNaN(out.Values("returns")[0]) {
		t.Fatal("first return must be undefined")
	}
	vol := out.Values("volatility_7d")
	if !math.IsNaN(vol[167]) {
		t.Fatal("7d volatility must be undefined during warm-up")
	}
	if math.IsNaN(vol[168]) {
		t.Fatal("7d volatility must be defined once the window fills")
	}
	sma := out.Values("sma_200")
	if !math.IsNaN(sma[198]) || math.IsNaN(sma[199]) {
		t.Fatalf("sma_200 warm-up boundary wrong: %f %f", sma[198], sma[199])
	}
}

func TestPriceFeaturesDoesNotMutateInput(t *testing.T) {
	in := makeOHLCV(t, 250)
	cols := in.NumCols()
	if _, err := priceFeatures(in); err != nil {
		t.Fatal(err)
	}
	if in.NumCols() != cols {
		t.Fatalf("input table grew from %d to %d columns", cols, in.NumCols())
	}
}

func TestPriceFeaturesMissingColumn(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f, _ := frame.New([]time.Time{start, start.Add(time.Hour)})
	if err := f.AddColumn("Close", frame.RoleRaw, []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := priceFeatures(f); err == nil {
		t.Fatal("expected error for incomplete ohlcv table")
	}
}

func TestPriceFeaturesDeterministic(t *testing.T) {
	in := makeOHLCV(t, 280)
	a, err := priceFeatures(in)
	if err != nil {
		t.Fatal(err)
	}
	b, err := priceFeatures(in)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"returns", "rsi_14", "macd", "vwap", "obv"} {
		va, vb := a.Values(name), b.Values(name)
		for i := range va {
			if va[i] != vb[i] && !(math.IsNaN(va[i]) && math.IsNaN(vb[i])) {
				t.Fatalf("%s differs between runs at %d: %f vs %f", name, i, va[i], vb[i])
			}
		}
	}
}
