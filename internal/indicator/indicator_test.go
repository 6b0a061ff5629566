package indicator

import (
	"math"
	"testing"
)

func TestRSIRequiresPeriodPlusOne(t *testing.T) {
	values := make([]float64, DefaultRSIPeriod)
	for i := range values {
		values[i] = float64(i)
	}
	if _, ok := RSI(values, DefaultRSIPeriod); ok {
		t.Fatal("expected no RSI for 14 values with period 14")
	}
	if _, ok := RSI(append(values, 100), DefaultRSIPeriod); !ok {
		t.Fatal("expected RSI for 15 values with period 14")
	}
}

func TestRSISaturatesAtHundredWithoutLosses(t *testing.T) {
	values := make([]float64, 20)
	for i := range values {
		values[i] = 100 + float64(i)
	}
	rsi, ok := RSI(values, DefaultRSIPeriod)
	if !ok {
		t.Fatal("expected RSI to be computable")
	}
	if rsi != 100 {
		t.Fatalf("all-positive deltas should return exactly 100, got %v", rsi)
	}
}

func TestRSIBalancedGainsAndLosses(t *testing.T) {
	// Alternating +1/-1 over the window gives gains == losses, RSI 50.
	values := make([]float64, 21)
	for i := range values {
		if i%2 == 0 {
			values[i] = 10
		} else {
			values[i] = 11
		}
	}
	rsi, ok := RSI(values, DefaultRSIPeriod)
	if !ok {
		t.Fatal("expected RSI to be computable")
	}
	if math.Abs(rsi-50) > 1e-9 {
		t.Fatalf("balanced window should give RSI 50, got %v", rsi)
	}
}

func TestEMASeedIsSimpleAverage(t *testing.T) {
	values := []float64{2, 4, 6, 8, 10, 12}
	result := EMA(values, 4)
	if result == nil {
		t.Fatal("expected EMA sequence")
	}
	if result[0] != 5 {
		t.Fatalf("seed should equal mean of first 4 values, got %v", result[0])
	}
	if len(result) != 3 {
		t.Fatalf("expected sequence aligned to indexes 3..5, got length %d", len(result))
	}

	// Hand-computed second element: k = 2/5.
	k := 2.0 / 5.0
	want := values[4]*k + 5*(1-k)
	if math.Abs(result[1]-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, result[1])
	}
}

func TestEMAInsufficientValues(t *testing.T) {
	if got := EMA([]float64{1, 2}, 3); got != nil {
		t.Fatalf("expected nil for short series, got %v", got)
	}
}

func TestMACDRequires26Values(t *testing.T) {
	values := make([]float64, 25)
	if _, _, ok := MACD(values); ok {
		t.Fatal("expected no MACD for 25 values")
	}
}

func TestMACDFlatSeriesIsZero(t *testing.T) {
	values := make([]float64, 26)
	for i := range values {
		values[i] = 42.5
	}
	macd, signal, ok := MACD(values)
	if !ok {
		t.Fatal("expected MACD for 26 values")
	}
	if macd != 0 {
		t.Fatalf("flat series should give MACD 0, got %v", macd)
	}
	// 26 values yield a single-point MACD line, too short for a signal.
	if signal != nil {
		t.Fatalf("expected no signal for a 1-point MACD line, got %v", *signal)
	}
}

func TestMACDSignalOnLongFlatSeries(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = 42.5
	}
	macd, signal, ok := MACD(values)
	if !ok {
		t.Fatal("expected MACD")
	}
	if macd != 0 {
		t.Fatalf("flat series should give MACD 0, got %v", macd)
	}
	if signal == nil || *signal != 0 {
		t.Fatalf("flat series should give signal 0, got %v", signal)
	}
}

func TestComputeSnapshot(t *testing.T) {
	short := []float64{1, 2, 3}
	snap := Compute(short)
	if snap.RSI != nil || snap.MACD != nil || snap.Signal != nil {
		t.Fatal("short series should yield an empty snapshot")
	}

	long := make([]float64, 40)
	for i := range long {
		long[i] = 100 + float64(i%7)
	}
	snap = Compute(long)
	if snap.RSI == nil || snap.MACD == nil {
		t.Fatal("long series should yield RSI and MACD")
	}
}
