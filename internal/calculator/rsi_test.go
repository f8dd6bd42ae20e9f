package calculator

import (
	"math"
	"testing"

	"RsiSentinel/internal/collector"
	"RsiSentinel/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// wilderRSI is the textbook formulation: seed with the simple average of the
// first period changes, then smooth.
func wilderRSI(closes []float64, period int) float64 {
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		if ch := closes[i] - closes[i-1]; ch > 0 {
			avgGain += ch
		} else {
			avgLoss -= ch
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	for i := period + 1; i < len(closes); i++ {
		gain, loss := 0.0, 0.0
		if ch := closes[i] - closes[i-1]; ch > 0 {
			gain = ch
		} else {
			loss = -ch
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

func TestCompute_MonotonicIncreasingSaturatesHigh(t *testing.T) {
	rsi, err := NewRSICalculator().Compute(collector.SeriesFromCloses(ramp(30, 100, 1)...))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rsi, 90)
	assert.LessOrEqual(t, rsi, 100)
}

func TestCompute_MonotonicDecreasingSaturatesLow(t *testing.T) {
	rsi, err := NewRSICalculator().Compute(collector.SeriesFromCloses(ramp(30, 200, -1)...))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rsi, 0)
	assert.LessOrEqual(t, rsi, 10)
}

func TestCompute_EmptySeries(t *testing.T) {
	calc := NewRSICalculator()
	_, err := calc.Compute(model.CandleSeries{})
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = calc.Compute(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCompute_TwoCandlesIsInsufficient(t *testing.T) {
	_, err := NewRSICalculator().Compute(collector.SeriesFromCloses(105, 110))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCompute_MinimumWindow(t *testing.T) {
	calc := NewRSICalculator()
	_, err := calc.Compute(collector.SeriesFromCloses(ramp(14, 100, 1)...))
	assert.ErrorIs(t, err, ErrInsufficientData)

	rsi, err := calc.Compute(collector.SeriesFromCloses(ramp(15, 100, 1)...))
	require.NoError(t, err)
	assert.Equal(t, 100, rsi)
}

func TestCompute_FlatSeriesIsInsufficient(t *testing.T) {
	closes := make([]float64, 200)
	for i := range closes {
		closes[i] = 140.5
	}
	_, err := NewRSICalculator().Compute(collector.SeriesFromCloses(closes...))
	assert.ErrorIs(t, err, ErrInsufficientData)

	// A single move anywhere makes the value defined again.
	closes[0] = 140.4
	_, err = NewRSICalculator().Compute(collector.SeriesFromCloses(closes...))
	assert.NoError(t, err)
}

func TestCompute_BadCloseIsInsufficient(t *testing.T) {
	series := collector.SeriesFromCloses(ramp(20, 100, 1)...)
	series[7].Close = decimal.Zero
	_, err := NewRSICalculator().Compute(series)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestCalculateRSI_MatchesWilder(t *testing.T) {
	// Deterministic zig-zag walk; long enough that seeding differences decay.
	closes := make([]float64, 200)
	p := 100.0
	for i := range closes {
		p += math.Sin(float64(i)*0.7)*2 + math.Cos(float64(i)*0.13)
		closes[i] = p
	}

	got, err := CalculateRSI(closes, DefaultRSIPeriod)
	require.NoError(t, err)
	assert.InDelta(t, wilderRSI(closes, DefaultRSIPeriod), got, 1.0)
	assert.Greater(t, got, 0.0)
	assert.Less(t, got, 100.0)
}

func TestCompute_Truncates(t *testing.T) {
	closes := []float64{44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42,
		45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.00, 46.03, 46.41}
	v, err := CalculateRSI(closes, DefaultRSIPeriod)
	require.NoError(t, err)

	rsi, err := NewRSICalculator().Compute(collector.SeriesFromCloses(closes...))
	require.NoError(t, err)
	assert.Equal(t, int(math.Trunc(v)), rsi)
}

func TestCalculateRSI_InvalidPeriod(t *testing.T) {
	_, err := CalculateRSI(ramp(30, 1, 1), 0)
	assert.Error(t, err)
}
