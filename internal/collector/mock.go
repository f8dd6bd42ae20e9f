package collector

import (
	"context"
	"sync/atomic"
	"time"

	"RsiSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Series model.CandleSeries
	Err    error
	// Block, when set, is received from before returning, or until ctx is done.
	Block <-chan struct{}

	calls atomic.Int32
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchCandles(ctx context.Context) (model.CandleSeries, error) {
	m.calls.Add(1)
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Series, nil
}

// Calls returns how many times FetchCandles was invoked.
func (m *MockFetcher) Calls() int { return int(m.calls.Load()) }

// SeriesFromCloses builds an hourly series ending now from closing prices.
func SeriesFromCloses(closes ...float64) model.CandleSeries {
	start := time.Now().Truncate(time.Hour).Add(-time.Duration(len(closes)) * time.Hour)
	series := make(model.CandleSeries, len(closes))
	for i, c := range closes {
		p := decimal.NewFromFloat(c)
		series[i] = model.Candle{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  p,
			High:  p,
			Low:   p,
			Close: p,
		}
	}
	return series
}
