package calculator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"RsiSentinel/internal/model"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"
)

// DefaultRSIPeriod is the conventional Wilder look-back.
const DefaultRSIPeriod = 14

// ErrInsufficientData is returned when the series cannot produce a
// meaningful RSI: too short, empty, or holding unusable prices.
var ErrInsufficientData = errors.New("insufficient data for RSI")

// Indicator turns a candle series into a single oscillator reading.
type Indicator interface {
	Compute(series model.CandleSeries) (int, error)
}

// RSICalculator computes RSI over closing prices, truncated to an integer.
type RSICalculator struct {
	Period int
}

// NewRSICalculator returns a 14-period calculator.
func NewRSICalculator() *RSICalculator {
	return &RSICalculator{Period: DefaultRSIPeriod}
}

// Compute returns the RSI of the most recent candle in [0,100]. It never
// panics; any failure is reported as ErrInsufficientData.
func (c *RSICalculator) Compute(series model.CandleSeries) (rsi int, err error) {
	defer func() {
		if r := recover(); r != nil {
			rsi, err = 0, fmt.Errorf("%w: %v", ErrInsufficientData, r)
		}
	}()

	v, err := CalculateRSI(series.Closes(), c.Period)
	if err != nil {
		return 0, err
	}
	rsi = int(v)
	if rsi < 0 {
		rsi = 0
	}
	if rsi > 100 {
		rsi = 100
	}
	return rsi, nil
}

// CalculateRSI computes the Wilder-smoothed RSI of the last close.
// Requires at least period+1 closes.
func CalculateRSI(closes []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(closes) < period+1 {
		return 0, fmt.Errorf("%w: have %d closes, need %d", ErrInsufficientData, len(closes), period+1)
	}

	// Periods are synthetic; only their order matters to techan.
	series := techan.NewTimeSeries()
	start := time.Unix(0, 0).UTC()
	moved := false
	for i, c := range closes {
		if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return 0, fmt.Errorf("%w: bad close %v at %d", ErrInsufficientData, c, i)
		}
		if i > 0 && c != closes[i-1] {
			moved = true
		}
		candle := techan.NewCandle(techan.NewTimePeriod(start.Add(time.Duration(i)*time.Minute), time.Minute))
		candle.ClosePrice = big.NewDecimal(c)
		series.AddCandle(candle)
	}

	// Zero average gain and zero average loss leave RS as 0/0.
	if !moved {
		return 0, fmt.Errorf("%w: no price movement in %d closes", ErrInsufficientData, len(closes))
	}

	ind := techan.NewRelativeStrengthIndexIndicator(techan.NewClosePriceIndicator(series), period)
	v := ind.Calculate(series.LastIndex()).Float()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: rsi evaluated to %v", ErrInsufficientData, v)
	}
	return v, nil
}
