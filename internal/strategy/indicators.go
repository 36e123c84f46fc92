package strategy

import "math"

// indicators.go — shared technical indicator math over price series.
// All functions take the series oldest-first and return 0 (not NaN) when the
// series is too short, so evaluators can degrade gracefully on thin history.

// SMA returns the simple moving average of the last period points.
func SMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period)
}

// StdDev returns the population standard deviation of the last period points.
func StdDev(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period {
		return 0
	}
	mean := SMA(prices, period)
	variance := 0.0
	for _, p := range prices[len(prices)-period:] {
		d := p - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(period))
}

// BollingerBands returns the ±2σ bands around SMA(period).
func BollingerBands(prices []float64, period int, width float64) (upper, middle, lower float64) {
	middle = SMA(prices, period)
	sigma := StdDev(prices, period)
	return middle + width*sigma, middle, middle - width*sigma
}

// ZScore returns how many standard deviations the last price sits from
// SMA(period). 0 when the series is too short or flat.
func ZScore(prices []float64, period int) float64 {
	if len(prices) < period {
		return 0
	}
	sigma := StdDev(prices, period)
	if sigma == 0 {
		return 0
	}
	return (prices[len(prices)-1] - SMA(prices, period)) / sigma
}

// RSI returns the relative strength index over the given period using the
// simple (non-smoothed) average of gains and losses.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50 // neutral when there is not enough history
	}
	gains, losses := 0.0, 0.0
	tail := prices[len(prices)-period-1:]
	for i := 1; i < len(tail); i++ {
		delta := tail[i] - tail[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	if losses == 0 {
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}

// EMA returns the exponential moving average of the whole series seeded with
// the first value.
func EMA(prices []float64, period int) float64 {
	if period <= 0 || len(prices) == 0 {
		return 0
	}
	k := 2.0 / float64(period+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*k + ema*(1-k)
	}
	return ema
}

// MACD returns the MACD line (EMA12−EMA26), its EMA9 signal line, and the
// histogram. A positive histogram means a bullish crossover is in effect.
func MACD(prices []float64) (macd, signal, histogram float64) {
	if len(prices) < 26 {
		return 0, 0, 0
	}
	// Build the MACD series over the usable window so the signal line has
	// something to smooth.
	var series []float64
	for i := 26; i <= len(prices); i++ {
		window := prices[:i]
		series = append(series, EMA(window, 12)-EMA(window, 26))
	}
	macd = series[len(series)-1]
	signal = EMA(series, 9)
	return macd, signal, macd - signal
}
