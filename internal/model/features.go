package model

import "math"

// Features is the fixed technical-indicator vector fed to a signal model.
// A NaN field means the indicator could not be computed from the
// available history.
type Features struct {
	RSI         float64
	MACD        float64
	MACDSignal  float64
	MACDHist    float64
	BBLower     float64
	BBMiddle    float64
	BBUpper     float64
	MA10        float64
	MA20        float64
	MA50        float64
	MACross1020 float64
	MACross2050 float64
	StochK      float64
	StochD      float64
	ADX         float64
	WilliamsR   float64
}

// featureNames is ordered to match Vector.
var featureNames = []string{
	"rsi", "macd", "macd_signal", "macd_hist",
	"bb_lower", "bb_middle", "bb_upper",
	"ma10", "ma20", "ma50",
	"ma_cross_10_20", "ma_cross_20_50",
	"stoch_k", "stoch_d", "adx", "willr",
}

// Vector returns the feature values in canonical order.
func (f *Features) Vector() []float64 {
	return []float64{
		f.RSI, f.MACD, f.MACDSignal, f.MACDHist,
		f.BBLower, f.BBMiddle, f.BBUpper,
		f.MA10, f.MA20, f.MA50,
		f.MACross1020, f.MACross2050,
		f.StochK, f.StochD, f.ADX, f.WilliamsR,
	}
}

// Missing lists the names of features that are undefined (NaN).
func (f *Features) Missing() []string {
	var missing []string
	for i, v := range f.Vector() {
		if math.IsNaN(v) {
			missing = append(missing, featureNames[i])
		}
	}
	return missing
}
