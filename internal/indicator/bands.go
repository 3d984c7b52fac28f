package indicator

import (
	"errors"
	"math"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
)

// Bollinger computes the Bollinger bands (lower, middle, upper) over the
// most recent period closes with the given standard-deviation multiplier.
func Bollinger(closes []float64, period int, mult float64) (lower, middle, upper float64, err error) {
	middle, err = SMA(closes, period)
	if err != nil {
		return 0, 0, 0, err
	}
	variance := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i] - middle
		variance += d * d
	}
	std := math.Sqrt(variance / float64(period))
	return middle - mult*std, middle, middle + mult*std, nil
}

// Stochastic computes the %K/%D stochastic oscillator: %K over kPeriod
// bars and %D as the dPeriod simple average of recent %K values.
func Stochastic(bars []model.OHLCV, kPeriod, dPeriod int) (k, d float64, err error) {
	if kPeriod <= 0 || dPeriod <= 0 {
		return 0, 0, errors.New("periods must be positive")
	}
	if len(bars) < kPeriod+dPeriod-1 {
		return 0, 0, errors.New("not enough data for stochastic calculation")
	}

	kSeries := make([]float64, dPeriod)
	for j := 0; j < dPeriod; j++ {
		end := len(bars) - (dPeriod - 1 - j)
		kSeries[j] = rawStochK(bars[:end], kPeriod)
	}
	d = 0
	for _, v := range kSeries {
		d += v
	}
	return kSeries[dPeriod-1], d / float64(dPeriod), nil
}

func rawStochK(bars []model.OHLCV, period int) float64 {
	high, low := highLow(bars, period)
	if high == low {
		return 50.0
	}
	return 100.0 * (bars[len(bars)-1].Close - low) / (high - low)
}

// WilliamsR computes Williams %R over the most recent period bars,
// ranging from -100 (close at the low) to 0 (close at the high).
func WilliamsR(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period {
		return 0, errors.New("not enough data for williams %R calculation")
	}
	high, low := highLow(bars, period)
	if high == low {
		return -50.0, nil
	}
	return -100.0 * (high - bars[len(bars)-1].Close) / (high - low), nil
}

func highLow(bars []model.OHLCV, period int) (high, low float64) {
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := len(bars) - period; i < len(bars); i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low
}
