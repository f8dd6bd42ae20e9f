package collector

import (
	"context"

	"RsiSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchCandles returns the recent candles for the configured symbol and
	// interval, oldest first. An empty series is not an error.
	FetchCandles(ctx context.Context) (model.CandleSeries, error)
	Name() string
}
