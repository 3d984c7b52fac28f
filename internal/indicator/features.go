// Package indicator computes the technical feature vector consumed by
// signal models from a window of recent price bars.
package indicator

import (
	"math"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
)

// Standard periods for the feature vector.
const (
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	BollingerPeriod = 20
	BollingerMult   = 2.0
	StochKPeriod    = 14
	StochDPeriod    = 3
	ADXPeriod       = 14
	WilliamsPeriod  = 14
)

// Compute derives the full feature vector from the given bars. Features
// whose indicator cannot be computed from the available history come back
// as NaN; callers check Features.Missing before using the vector.
func Compute(bars []model.OHLCV) *model.Features {
	closes := model.Closes(bars)
	f := &model.Features{}

	f.RSI = orNaN(RSI(closes, RSIPeriod))

	macd, sig, hist, err := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	f.MACD, f.MACDSignal, f.MACDHist = macd, sig, hist
	if err != nil {
		f.MACD, f.MACDSignal, f.MACDHist = math.NaN(), math.NaN(), math.NaN()
	}

	lower, middle, upper, err := Bollinger(closes, BollingerPeriod, BollingerMult)
	f.BBLower, f.BBMiddle, f.BBUpper = lower, middle, upper
	if err != nil {
		f.BBLower, f.BBMiddle, f.BBUpper = math.NaN(), math.NaN(), math.NaN()
	}

	f.MA10 = orNaN(SMA(closes, 10))
	f.MA20 = orNaN(SMA(closes, 20))
	f.MA50 = orNaN(SMA(closes, 50))
	f.MACross1020 = cross(f.MA10, f.MA20)
	f.MACross2050 = cross(f.MA20, f.MA50)

	k, d, err := Stochastic(bars, StochKPeriod, StochDPeriod)
	f.StochK, f.StochD = k, d
	if err != nil {
		f.StochK, f.StochD = math.NaN(), math.NaN()
	}

	f.ADX = orNaN(ADX(bars, ADXPeriod))
	f.WilliamsR = orNaN(WilliamsR(bars, WilliamsPeriod))

	return f
}

func orNaN(v float64, err error) float64 {
	if err != nil {
		return math.NaN()
	}
	return v
}

func cross(fast, slow float64) float64 {
	if math.IsNaN(fast) || math.IsNaN(slow) {
		return math.NaN()
	}
	if fast > slow {
		return 1
	}
	return 0
}
