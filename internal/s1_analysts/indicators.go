package s1_analysts

import (
	"math"

	"github.com/montanaflynn/stats"
)

// rsiEpsilon avoids division by zero on a loss-free window
const rsiEpsilon = 1e-10

// sma is the mean of the last window values, or of all values when fewer exist
func sma(values []float64, window int) float64 {
	if len(values) == 0 || window <= 0 {
		return 0
	}
	start := len(values) - window
	if start < 0 {
		start = 0
	}
	mean, err := stats.Mean(values[start:])
	if err != nil {
		return 0
	}
	return mean
}

// rsi uses simple rolling means of gains and losses over period deltas
func rsi(closes []float64, period int) float64 {
	if len(closes) == 0 {
		return 50
	}

	// 첫 번째 delta는 없음 → 0으로 취급
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}

	avgGain := sma(gains, period)
	avgLoss := sma(losses, period)
	rs := avgGain / (avgLoss + rsiEpsilon)
	return 100 - 100/(1+rs)
}

// ewm is an adjusted exponentially weighted mean with alpha = 2/(span+1)
func ewm(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	decay := 1 - 2/float64(span+1)
	var num, den float64
	for i, v := range values {
		num = v + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// macd returns the latest MACD(fast, slow) and its signal-span EWM
func macd(closes []float64, fast, slow, signal int) (float64, float64) {
	if len(closes) == 0 {
		return 0, 0
	}
	fastLine := ewm(closes, fast)
	slowLine := ewm(closes, slow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastLine[i] - slowLine[i]
	}
	signalLine := ewm(line, signal)

	last := len(closes) - 1
	return line[last], signalLine[last]
}

// volatility is the sample standard deviation of the last n daily returns, in percent
func volatility(closes []float64, n int) float64 {
	start := len(closes) - n - 1
	if start < 0 {
		start = 0
	}
	window := closes[start:]

	var returns []float64
	for i := 1; i < len(window); i++ {
		if window[i-1] == 0 {
			continue
		}
		returns = append(returns, window[i]/window[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}

	stdev, err := stats.StandardDeviationSample(returns)
	if err != nil {
		return 0
	}
	return round2(stdev * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
