package indicator

import (
	"errors"
	"math"

	"github.com/viicttorhugo/invest-botnuvem/internal/model"
)

// ADX computes Wilder's average directional index over the given period.
// Needs 2*period+1 bars: period to seed the smoothed TR/DM sums and
// another period of DX values to seed the ADX itself.
func ADX(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < 2*period+1 {
		return 0, errors.New("not enough data for ADX calculation")
	}

	n := len(bars)
	tr := make([]float64, n-1)
	plusDM := make([]float64, n-1)
	minusDM := make([]float64, n-1)
	for i := 1; i < n; i++ {
		cur, prev := bars[i], bars[i-1]
		tr[i-1] = math.Max(cur.High-cur.Low,
			math.Max(math.Abs(cur.High-prev.Close), math.Abs(cur.Low-prev.Close)))
		up := cur.High - prev.High
		down := prev.Low - cur.Low
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
	}

	var trS, plusS, minusS float64
	for i := 0; i < period; i++ {
		trS += tr[i]
		plusS += plusDM[i]
		minusS += minusDM[i]
	}

	var adx float64
	dxCount := 0
	dx := func() float64 {
		if trS == 0 {
			return 0
		}
		plusDI := 100.0 * plusS / trS
		minusDI := 100.0 * minusS / trS
		if plusDI+minusDI == 0 {
			return 0
		}
		return 100.0 * math.Abs(plusDI-minusDI) / (plusDI + minusDI)
	}

	adx = dx()
	dxCount = 1
	for i := period; i < len(tr); i++ {
		trS = trS - trS/float64(period) + tr[i]
		plusS = plusS - plusS/float64(period) + plusDM[i]
		minusS = minusS - minusS/float64(period) + minusDM[i]
		d := dx()
		if dxCount < period {
			// Still averaging the seed window.
			adx = (adx*float64(dxCount) + d) / float64(dxCount+1)
			dxCount++
		} else {
			adx = (adx*float64(period-1) + d) / float64(period)
		}
	}
	return adx, nil
}
