package pipeline

import (
	"fmt"
	"math"

	"github.com/AbdallahIsmaili/DeepBTC/internal/frame"
	"github.com/AbdallahIsmaili/DeepBTC/internal/ta"
)

const (
	hoursPerDay   = 24
	hoursPerWeek  = 24 * 7
	hoursPerMonth = 24 * 30

	rsiShortPeriod = 14
	rsiLongPeriod  = 21
	macdFast       = 12
	macdSlow       = 26
	macdSignal     = 9
	bbPeriod       = 20
	bbStdDevs      = 2.0
	stochPeriod    = 14
	stochSmooth    = 3
	atrPeriod      = 14
	adxPeriod      = 14
	cciPeriod      = 20
	willrPeriod    = 14
	mfiPeriod      = 14
)

// forwardHorizons are the look-ahead return windows. They are computed before
// any row truncation so horizon windows at the series tail are legitimately
// undefined rather than silently stale.
var forwardHorizons = []int{1, 6, 24}

type adder struct {
	f   *frame.Frame
	err error
}

func (a *adder) add(name string, role frame.Role, values []float64) {
	if a.err != nil {
		return
	}
	a.err = a.f.AddColumn(name, role, values)
}

// priceFeatures extends the OHLCV table with return, momentum, volatility,
// volume, and technical-indicator columns. Only the future_return_* columns
// look ahead; everything else uses data up to and including each timestamp.
func priceFeatures(in *frame.Frame) (*frame.Frame, error) {
	for _, name := range []string{"Open", "High", "Low", "Close", "Volume"} {
		if !in.Has(name) {
			return nil, fmt.Errorf("ohlcv table missing column %s", name)
		}
	}

	out := in.Clone()
	n := out.Len()
	closes := out.Values("Close")
	high := out.Values("High")
	low := out.Values("Low")
	volume := out.Values("Volume")

	a := &adder{f: out}

	returns := frame.PctChange(closes)
	a.add("returns", frame.RoleMomentum, returns)
	a.add("log_returns", frame.RoleMomentum, logReturns(closes))

	for _, h := range forwardHorizons {
		a.add(fmt.Sprintf("future_return_%dh", h), frame.RoleForward,
			frame.Ratio(frame.Shift(closes, -h), closes))
	}

	a.add("price_momentum_24h", frame.RoleMomentum, frame.Ratio(closes, frame.Shift(closes, hoursPerDay)))
	a.add("price_momentum_7d", frame.RoleMomentum, frame.Ratio(closes, frame.Shift(closes, hoursPerWeek)))
	a.add("volatility_24h", frame.RoleMomentum, frame.RollingStd(returns, hoursPerDay))
	a.add("volatility_7d", frame.RoleMomentum, frame.RollingStd(returns, hoursPerWeek))

	volumeMA := frame.RollingMean(volume, hoursPerDay)
	a.add("volume_ma_24h", frame.RoleMomentum, volumeMA)
	a.add("volume_ratio", frame.RoleMomentum, frame.Div(volume, volumeMA))
	a.add("volume_momentum", frame.RoleMomentum, frame.Ratio(volume, frame.Shift(volume, hoursPerDay)))

	a.add("vwap", frame.RoleTechnical, ta.VWAPSeries(out.Index(), high, low, closes, volume))

	sma20 := ta.SMASeries(closes, 20)
	sma50 := ta.SMASeries(closes, 50)
	sma200 := ta.SMASeries(closes, 200)
	a.add("sma_20", frame.RoleTechnical, sma20)
	a.add("sma_50", frame.RoleTechnical, sma50)
	a.add("sma_200", frame.RoleTechnical, sma200)
	a.add("ema_12", frame.RoleTechnical, ta.EMASeries(closes, macdFast))
	a.add("ema_26", frame.RoleTechnical, ta.EMASeries(closes, macdSlow))

	macdLine, macdSig := ta.MACDSeries(closes, macdFast, macdSlow, macdSignal)
	macdHist := make([]float64, n)
	for i := range macdHist {
		macdHist[i] = macdLine[i] - macdSig[i]
	}
	a.add("macd", frame.RoleTechnical, macdLine)
	a.add("macd_signal", frame.RoleTechnical, macdSig)
	a.add("macd_hist", frame.RoleTechnical, macdHist)

	a.add("rsi_14", frame.RoleTechnical, orNaN(ta.RSISeries(closes, rsiShortPeriod), n))
	a.add("rsi_21", frame.RoleTechnical, orNaN(ta.RSISeries(closes, rsiLongPeriod), n))

	stochK, stochD := ta.StochSeries(high, low, closes, stochPeriod, stochSmooth)
	a.add("stoch_k", frame.RoleTechnical, stochK)
	a.add("stoch_d", frame.RoleTechnical, stochD)

	a.add("atr_14", frame.RoleTechnical, ta.ATRSeries(high, low, closes, atrPeriod))

	bbMiddle, bbUpper, bbLower := ta.BollingerSeries(closes, bbPeriod, bbStdDevs)
	a.add("bb_lower", frame.RoleTechnical, bbLower)
	a.add("bb_middle", frame.RoleTechnical, bbMiddle)
	a.add("bb_upper", frame.RoleTechnical, bbUpper)
	a.add("bb_width", frame.RoleTechnical, bollingerWidth(bbLower, bbMiddle, bbUpper))
	a.add("bb_pos", frame.RoleTechnical, bollingerPos(closes, bbLower, bbUpper))

	adx, plusDI, minusDI := ta.ADXSeries(high, low, closes, adxPeriod)
	a.add("adx_14", frame.RoleTechnical, adx)
	a.add("dmp_14", frame.RoleTechnical, plusDI)
	a.add("dmn_14", frame.RoleTechnical, minusDI)

	a.add("cci_20", frame.RoleTechnical, ta.CCISeries(high, low, closes, cciPeriod))
	a.add("willr_14", frame.RoleTechnical, ta.WillRSeries(high, low, closes, willrPeriod))
	a.add("mfi_14", frame.RoleTechnical, ta.MFISeries(high, low, closes, volume, mfiPeriod))
	a.add("obv", frame.RoleTechnical, ta.OBVSeries(closes, volume))

	a.add("price_to_sma20", frame.RoleTechnical, frame.Ratio(closes, sma20))
	a.add("price_to_sma50", frame.RoleTechnical, frame.Ratio(closes, sma50))
	a.add("price_to_sma200", frame.RoleTechnical, frame.Ratio(closes, sma200))
	a.add("sma50_to_sma200", frame.RoleTechnical, frame.Ratio(sma50, sma200))

	if a.err != nil {
		return nil, a.err
	}
	return out, nil
}

func logReturns(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if i == 0 || math.IsNaN(closes[i]) || math.IsNaN(closes[i-1]) ||
			closes[i] <= 0 || closes[i-1] <= 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Log(closes[i] / closes[i-1])
	}
	return out
}

func bollingerWidth(lower, middle, upper []float64) []float64 {
	out := make([]float64, len(middle))
	for i := range middle {
		if math.IsNaN(middle[i]) || middle[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (upper[i] - lower[i]) / middle[i]
	}
	return out
}

func bollingerPos(closes, lower, upper []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if math.IsNaN(lower[i]) || math.IsNaN(upper[i]) || upper[i] == lower[i] {
			out[i] = math.NaN()
			continue
		}
		out[i] = (closes[i] - lower[i]) / (upper[i] - lower[i])
	}
	return out
}

func orNaN(values []float64, n int) []float64 {
	if values != nil {
		return values
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
