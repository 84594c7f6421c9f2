package pipeline

import (
	"fmt"
	"math"

	"github.com/AbdallahIsmaili/DeepBTC/internal/frame"
)

// nvtDivisor scales daily transaction counts into the conventional
// network-value-to-transactions denominator.
const nvtDivisor = 1e6

// derivedFeatures computes cross-source composites once every available
// source is merged. Each feature is gated on its prerequisite columns, so a
// missing optional source silently skips only the features that need it.
func derivedFeatures(in *frame.Frame) (*frame.Frame, error) {
	out := in.Clone()
	a := &adder{f: out}

	for _, base := range []string{"hash_rate_th_s", "difficulty", "tx_count_daily"} {
		if !out.Has(base) {
			continue
		}
		v := out.Values(base)
		a.add(changeName(base, "7d"), frame.RoleDerived, frame.Ratio(v, frame.Shift(v, hoursPerWeek)))
		a.add(changeName(base, "30d"), frame.RoleDerived, frame.Ratio(v, frame.Shift(v, hoursPerMonth)))
	}

	if out.HasAll("tx_count_daily", "total_btc_supply") {
		price := out.Values("Close")
		if out.Has("market_price_usd") {
			price = out.Values("market_price_usd")
		}
		supply := out.Values("total_btc_supply")
		txCount := out.Values("tx_count_daily")
		nvt := make([]float64, out.Len())
		for i := range nvt {
			denom := txCount[i] * nvtDivisor
			if math.IsNaN(price[i]) || math.IsNaN(supply[i]) || math.IsNaN(txCount[i]) || denom == 0 {
				nvt[i] = math.NaN()
				continue
			}
			nvt[i] = price[i] * supply[i] / denom
		}
		replaceInf(nvt)
		frame.FillForward(nvt)
		frame.FillBackward(nvt)
		a.add("nvt_ratio", frame.RoleDerived, nvt)
	}

	if out.HasAll("tx_fees_btc", "market_price_usd") {
		fees := out.Values("tx_fees_btc")
		price := out.Values("market_price_usd")
		revenue := make([]float64, out.Len())
		for i := range revenue {
			revenue[i] = fees[i] * price[i]
		}
		a.add("miner_revenue_usd", frame.RoleDerived, revenue)
	}

	if out.Has("fear_greed_value") {
		fg := out.Values("fear_greed_value")
		lagged := frame.Shift(fg, hoursPerWeek)
		delta := make([]float64, out.Len())
		for i := range delta {
			delta[i] = fg[i] - lagged[i]
		}
		a.add("fear_greed_change_7d", frame.RoleDerived, delta)
		a.add("fear_greed_ma_7d", frame.RoleDerived, frame.RollingMean(fg, hoursPerWeek))
		a.add("extreme_fear", frame.RoleDerived, threshold(fg, func(v float64) bool { return v < 25 }))
		a.add("extreme_greed", frame.RoleDerived, threshold(fg, func(v float64) bool { return v > 75 }))
	}

	if err := macroFeatures(out, a); err != nil {
		return nil, err
	}

	if a.err != nil {
		return nil, a.err
	}
	return out, nil
}

// macroSeries maps each macro column to the name of its own-returns column.
var macroSeries = []struct {
	column  string
	returns string
	corr    string
}{
	{"SP500", "sp500_returns", "btc_sp500_correlation"},
	{"VIX", "vix_change", "btc_vix_correlation"},
	{"DXY", "dxy_change", "btc_dxy_correlation"},
	{"GOLD", "gold_returns", "btc_gold_correlation"},
}

func macroFeatures(out *frame.Frame, a *adder) error {
	if !out.Has("returns") {
		return fmt.Errorf("returns column missing before macro correlation stage")
	}
	btcReturns := out.Values("returns")
	for _, m := range macroSeries {
		if !out.Has(m.column) {
			continue
		}
		ret := frame.PctChange(out.Values(m.column))
		a.add(m.returns, frame.RoleDerived, ret)
		a.add(m.corr, frame.RoleDerived, frame.RollingCorr(btcReturns, ret, hoursPerMonth))
	}
	return nil
}

func changeName(base, window string) string {
	switch base {
	case "hash_rate_th_s":
		return "hash_rate_change_" + window
	case "tx_count_daily":
		return "tx_count_change_" + window
	default:
		return base + "_change_" + window
	}
}

func threshold(values []float64, pred func(float64) bool) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		switch {
		case math.IsNaN(v):
			out[i] = math.NaN()
		case pred(v):
			out[i] = 1
		default:
			out[i] = 0
		}
	}
	return out
}

func replaceInf(values []float64) {
	for i, v := range values {
		if math.IsInf(v, 0) {
			values[i] = math.NaN()
		}
	}
}
