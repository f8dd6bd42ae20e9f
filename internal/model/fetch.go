package model

import "time"

// Interval is a Bybit kline granularity: minutes, or D/W/M.
type Interval string

var validIntervals = map[Interval]bool{
	"1": true, "3": true, "5": true, "15": true, "30": true,
	"60": true, "120": true, "240": true, "360": true, "720": true,
	"D": true, "W": true, "M": true,
}

// Valid reports whether the exchange accepts the interval.
func (i Interval) Valid() bool {
	return validIntervals[i]
}

// FetchConfig is the immutable configuration of a kline fetcher.
type FetchConfig struct {
	BaseURL        string
	Symbol         string
	Interval       Interval
	MaxRetries     int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
	RateLimit      float64 // requests per second, <= 0 disables the limiter
}
