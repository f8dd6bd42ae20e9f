package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle represents a single kline bar. Prices keep the exchange's decimal
// representation until an indicator needs floats.
type Candle struct {
	Time  time.Time
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
}

// CandleSeries is an ordered run of candles, oldest first.
type CandleSeries []Candle

// Closes returns the closing prices in series order.
func (s CandleSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, c := range s {
		closes[i], _ = c.Close.Float64()
	}
	return closes
}

// Last returns the most recent candle and false when the series is empty.
func (s CandleSeries) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}
