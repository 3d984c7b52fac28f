// Package strategy provides the built-in signal model: a deterministic
// weighted scorer over the technical feature vector, squashed to a
// probability. It stands in wherever the host does not inject an
// externally trained model.
package strategy

import (
	"math"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
)

// Factor weights for the scorer. Momentum factors dominate; moving-average
// alignment breaks ties.
const (
	weightRSI      = 0.25
	weightMACD     = 0.20
	weightStoch    = 0.15
	weightWilliams = 0.10
	weightBB       = 0.15
	weightMACross  = 0.15
)

// Scorer scores oversold/overbought pressure on each factor in [-2, 2]
// and maps the weighted sum through a logistic curve. Steepness controls
// how quickly scores saturate toward 0/1.
type Scorer struct {
	Steepness float64
}

// NewScorer returns a Scorer with the default steepness.
func NewScorer() *Scorer {
	return &Scorer{Steepness: 1.6}
}

// Predict returns P(price increases) for the given features.
func (s *Scorer) Predict(f *model.Features) (float64, error) {
	score := weightRSI*scoreRSI(f.RSI) +
		weightMACD*scoreMACD(f) +
		weightStoch*scoreStochastic(f.StochK, f.StochD) +
		weightWilliams*scoreWilliams(f.WilliamsR) +
		weightBB*scoreBollinger(f) +
		weightMACross*scoreMACross(f)

	// ADX scales conviction: weak trends pull the score toward neutral.
	score *= adxDamping(f.ADX)

	return 1.0 / (1.0 + math.Exp(-s.Steepness*score)), nil
}

// scoreRSI: oversold is bullish, overbought bearish.
func scoreRSI(rsi float64) float64 {
	switch {
	case rsi <= 20:
		return 2.0
	case rsi <= 30:
		return 1.5
	case rsi <= 40:
		return 0.5
	case rsi < 60:
		return 0
	case rsi < 70:
		return -0.5
	case rsi < 80:
		return -1.5
	default:
		return -2.0
	}
}

func scoreMACD(f *model.Features) float64 {
	score := 0.0
	if f.MACD > f.MACDSignal {
		score += 1.0
	} else {
		score -= 1.0
	}
	if f.MACDHist > 0 {
		score += 0.5
	} else if f.MACDHist < 0 {
		score -= 0.5
	}
	return score
}

func scoreStochastic(k, d float64) float64 {
	switch {
	case k <= 20 && k > d:
		return 1.5
	case k <= 20:
		return 1.0
	case k >= 80 && k < d:
		return -1.5
	case k >= 80:
		return -1.0
	default:
		return 0
	}
}

func scoreWilliams(wr float64) float64 {
	switch {
	case wr <= -80:
		return 1.5
	case wr >= -20:
		return -1.5
	default:
		return 0
	}
}

// scoreBollinger: price pressing a band suggests a reversion.
func scoreBollinger(f *model.Features) float64 {
	width := f.BBUpper - f.BBLower
	if width <= 0 {
		return 0
	}
	// Position of the middle-relative close approximated by the band
	// midpoint drift against MA20.
	pos := (f.MA10 - f.BBLower) / width
	switch {
	case pos <= 0.15:
		return 1.0
	case pos >= 0.85:
		return -1.0
	default:
		return 0
	}
}

func scoreMACross(f *model.Features) float64 {
	score := 0.0
	if f.MACross1020 > 0 {
		score += 0.75
	} else {
		score -= 0.75
	}
	if f.MACross2050 > 0 {
		score += 0.75
	} else {
		score -= 0.75
	}
	return score
}

func adxDamping(adx float64) float64 {
	switch {
	case adx < 15:
		return 0.5
	case adx < 25:
		return 0.8
	default:
		return 1.0
	}
}
