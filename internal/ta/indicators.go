package ta

import (
	"math"
	"time"
)

func MeanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func SMASeries(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		mean, _ := MeanStd(values[i-period+1 : i+1])
		out[i] = mean
	}
	return out
}

func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	if period <= 1 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	alpha := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

func RSISeries(closes []float64, period int) []float64 {
	if len(closes) <= period {
		return nil
	}
	series := nanSeries(len(closes))

	var gainSum float64
	var lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	series[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		series[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return series
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

func MACDSeries(values []float64, fast, slow, signal int) ([]float64, []float64) {
	if len(values) == 0 {
		return nil, nil
	}
	fastEMA := EMASeries(values, fast)
	slowEMA := EMASeries(values, slow)
	macdLine := make([]float64, len(values))
	for i := range values {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine := EMASeries(macdLine, signal)
	return macdLine, signalLine
}

func BollingerSeries(values []float64, period int, stdDevs float64) ([]float64, []float64, []float64) {
	if len(values) == 0 {
		return nil, nil, nil
	}
	middle := nanSeries(len(values))
	upper := nanSeries(len(values))
	lower := nanSeries(len(values))
	if period <= 0 {
		return middle, upper, lower
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		mean, std := MeanStd(window)
		middle[i] = mean
		upper[i] = mean + stdDevs*std
		lower[i] = mean - stdDevs*std
	}
	return middle, upper, lower
}

// StochSeries returns %K and %D with the classic 14/3 smoothing.
func StochSeries(high, low, close []float64, period, smooth int) ([]float64, []float64) {
	fastK := nanSeries(len(close))
	for i := period - 1; i < len(close); i++ {
		hh := math.Inf(-1)
		ll := math.Inf(1)
		for j := i - period + 1; j <= i; j++ {
			hh = math.Max(hh, high[j])
			ll = math.Min(ll, low[j])
		}
		if hh == ll {
			continue
		}
		fastK[i] = 100 * (close[i] - ll) / (hh - ll)
	}
	k := smoothNaN(fastK, smooth)
	d := smoothNaN(k, smooth)
	return k, d
}

// smoothNaN is an SMA that stays NaN until its window holds defined values.
func smoothNaN(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period <= 1 {
		copy(out, values)
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

func trueRange(high, low, close []float64, i int) float64 {
	if i == 0 {
		return high[i] - low[i]
	}
	return math.Max(high[i]-low[i],
		math.Max(math.Abs(high[i]-close[i-1]), math.Abs(low[i]-close[i-1])))
}

// ATRSeries uses Wilder smoothing seeded with the simple average of the first
// period true ranges.
func ATRSeries(high, low, close []float64, period int) []float64 {
	out := nanSeries(len(close))
	if period <= 0 || len(close) < period {
		return out
	}
	var sum float64
	for i := 0; i < period; i++ {
		sum += trueRange(high, low, close, i)
	}
	atr := sum / float64(period)
	out[period-1] = atr
	for i := period; i < len(close); i++ {
		atr = (atr*float64(period-1) + trueRange(high, low, close, i)) / float64(period)
		out[i] = atr
	}
	return out
}

// ADXSeries returns ADX plus the positive and negative directional indexes.
func ADXSeries(high, low, close []float64, period int) ([]float64, []float64, []float64) {
	n := len(close)
	adx := nanSeries(n)
	plusDI := nanSeries(n)
	minusDI := nanSeries(n)
	if period <= 0 || n <= period*2 {
		return adx, plusDI, minusDI
	}

	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]
		if upMove > downMove && upMove > 0 {
			smPlus += upMove
		}
		if downMove > upMove && downMove > 0 {
			smMinus += downMove
		}
		smTR += trueRange(high, low, close, i)
	}

	dx := nanSeries(n)
	setDI := func(i int) {
		if smTR == 0 {
			return
		}
		plusDI[i] = 100 * smPlus / smTR
		minusDI[i] = 100 * smMinus / smTR
		if plusDI[i]+minusDI[i] != 0 {
			dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / (plusDI[i] + minusDI[i])
		}
	}
	setDI(period)

	for i := period + 1; i < n; i++ {
		upMove := high[i] - high[i-1]
		downMove := low[i-1] - low[i]
		plusDM := 0.0
		minusDM := 0.0
		if upMove > downMove && upMove > 0 {
			plusDM = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM = downMove
		}
		smPlus = smPlus - smPlus/float64(period) + plusDM
		smMinus = smMinus - smMinus/float64(period) + minusDM
		smTR = smTR - smTR/float64(period) + trueRange(high, low, close, i)
		setDI(i)
	}

	var dxSum float64
	for i := period; i < period*2; i++ {
		dxSum += dx[i]
	}
	val := dxSum / float64(period)
	adx[period*2-1] = val
	for i := period * 2; i < n; i++ {
		val = (val*float64(period-1) + dx[i]) / float64(period)
		adx[i] = val
	}
	return adx, plusDI, minusDI
}

func CCISeries(high, low, close []float64, period int) []float64 {
	out := nanSeries(len(close))
	if period <= 0 {
		return out
	}
	tp := make([]float64, len(close))
	for i := range close {
		tp[i] = (high[i] + low[i] + close[i]) / 3
	}
	for i := period - 1; i < len(close); i++ {
		window := tp[i-period+1 : i+1]
		mean, _ := MeanStd(window)
		var dev float64
		for _, v := range window {
			dev += math.Abs(v - mean)
		}
		dev /= float64(period)
		if dev == 0 {
			continue
		}
		out[i] = (tp[i] - mean) / (0.015 * dev)
	}
	return out
}

func WillRSeries(high, low, close []float64, period int) []float64 {
	out := nanSeries(len(close))
	for i := period - 1; i < len(close); i++ {
		hh := math.Inf(-1)
		ll := math.Inf(1)
		for j := i - period + 1; j <= i; j++ {
			hh = math.Max(hh, high[j])
			ll = math.Min(ll, low[j])
		}
		if hh == ll {
			continue
		}
		out[i] = -100 * (hh - close[i]) / (hh - ll)
	}
	return out
}

func MFISeries(high, low, close, volume []float64, period int) []float64 {
	out := nanSeries(len(close))
	if period <= 0 || len(close) <= period {
		return out
	}
	posFlow := make([]float64, len(close))
	negFlow := make([]float64, len(close))
	for i := 1; i < len(close); i++ {
		tp := (high[i] + low[i] + close[i]) / 3
		prevTP := (high[i-1] + low[i-1] + close[i-1]) / 3
		flow := tp * volume[i]
		if tp > prevTP {
			posFlow[i] = flow
		} else if tp < prevTP {
			negFlow[i] = flow
		}
	}
	for i := period; i < len(close); i++ {
		var pos, neg float64
		for j := i - period + 1; j <= i; j++ {
			pos += posFlow[j]
			neg += negFlow[j]
		}
		if neg == 0 {
			out[i] = 100
			continue
		}
		out[i] = 100 - 100/(1+pos/neg)
	}
	return out
}

func OBVSeries(close, volume []float64) []float64 {
	out := make([]float64, len(close))
	for i := 1; i < len(close); i++ {
		out[i] = out[i-1]
		switch {
		case close[i] > close[i-1]:
			out[i] += volume[i]
		case close[i] < close[i-1]:
			out[i] -= volume[i]
		}
	}
	return out
}

// VWAPSeries anchors at each UTC day boundary, the conventional intraday form.
func VWAPSeries(times []time.Time, high, low, close, volume []float64) []float64 {
	out := nanSeries(len(close))
	var cumPV, cumV float64
	var day int
	for i := range close {
		d := times[i].UTC().YearDay() + times[i].UTC().Year()*1000
		if i == 0 || d != day {
			day = d
			cumPV = 0
			cumV = 0
		}
		tp := (high[i] + low[i] + close[i]) / 3
		cumPV += tp * volume[i]
		cumV += volume[i]
		if cumV != 0 {
			out[i] = cumPV / cumV
		}
	}
	return out
}
