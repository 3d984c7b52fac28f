package indicator

import "errors"

// MACD computes the 12/26/9 moving average convergence divergence:
// the MACD line, its 9-period signal line and the histogram.
func MACD(closes []float64, fast, slow, signalPeriod int) (macd, signal, hist float64, err error) {
	if fast <= 0 || slow <= fast || signalPeriod <= 0 {
		return 0, 0, 0, errors.New("invalid MACD periods")
	}
	if len(closes) < slow+signalPeriod {
		return 0, 0, 0, errors.New("not enough data for MACD calculation")
	}

	fastSeries, err := emaSeries(closes, fast)
	if err != nil {
		return 0, 0, 0, err
	}
	slowSeries, err := emaSeries(closes, slow)
	if err != nil {
		return 0, 0, 0, err
	}

	// MACD line exists from index slow-1 onward.
	line := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		line = append(line, fastSeries[i]-slowSeries[i])
	}

	signalSeries, err := emaSeries(line, signalPeriod)
	if err != nil {
		return 0, 0, 0, err
	}

	macd = line[len(line)-1]
	signal = signalSeries[len(signalSeries)-1]
	return macd, signal, macd - signal, nil
}
