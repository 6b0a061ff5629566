// Package indicator computes technical indicators over a price sequence.
// All functions are pure and stateless; the caller supplies the full series.
package indicator

const (
	// DefaultRSIPeriod is the conventional 14-sample lookback.
	DefaultRSIPeriod = 14

	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
)

// Snapshot carries the indicator values derived for one symbol. Nil fields
// mean the series is too short for that indicator.
type Snapshot struct {
	RSI    *float64 `json:"rsi"`
	MACD   *float64 `json:"macd"`
	Signal *float64 `json:"signal"`
}

// Compute derives the full snapshot for a price series.
func Compute(values []float64) Snapshot {
	var snap Snapshot
	if rsi, ok := RSI(values, DefaultRSIPeriod); ok {
		snap.RSI = &rsi
	}
	if macd, signal, ok := MACD(values); ok {
		snap.MACD = &macd
		snap.Signal = signal
	}
	return snap
}

// RSI computes the relative strength index over the trailing `period`
// deltas using a single gain/loss window rather than recursive Wilder
// smoothing. Returns false when fewer than period+1 values are available.
// A window with no losses saturates at exactly 100.
func RSI(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period+1 {
		return 0, false
	}

	var gains, losses float64
	for i := len(values) - period; i < len(values); i++ {
		diff := values[i] - values[i-1]
		if diff > 0 {
			gains += diff
		}
		if diff < 0 {
			losses += -diff
		}
	}
	if losses == 0 {
		return 100, true
	}
	rs := gains / losses
	return 100 - 100/(1+rs), true
}

// EMA computes the exponential moving average sequence for the series.
// The first element is the simple average of the first `period` values;
// the result aligns to input indexes period-1..len-1. Returns nil when
// fewer than `period` values are available.
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}

	k := 2 / (float64(period) + 1)
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)

	result := make([]float64, 0, len(values)-period+1)
	result = append(result, seed)
	for i := period; i < len(values); i++ {
		prev := result[len(result)-1]
		result = append(result, values[i]*k+prev*(1-k))
	}
	return result
}

// MACD returns the last MACD line value (EMA12-EMA26) and, when the MACD
// line itself is long enough for a 9-period EMA, the last signal value.
// Returns ok=false when fewer than 26 values are available.
func MACD(values []float64) (macd float64, signal *float64, ok bool) {
	if len(values) < macdSlowPeriod {
		return 0, nil, false
	}

	fast := EMA(values, macdFastPeriod)
	slow := EMA(values, macdSlowPeriod)
	if fast == nil || slow == nil {
		return 0, nil, false
	}

	// The fast series is longer; align it to the slow one from the right.
	offset := len(fast) - len(slow)
	line := make([]float64, len(slow))
	for i, v := range slow {
		line[i] = fast[i+offset] - v
	}

	if signalSeries := EMA(line, macdSignalPeriod); signalSeries != nil {
		last := signalSeries[len(signalSeries)-1]
		signal = &last
	}
	return line[len(line)-1], signal, true
}
