package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"RsiSentinel/internal/metrics"
	"RsiSentinel/internal/model"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// DefaultBybitURL is the public testnet host the bot has always polled.
const DefaultBybitURL = "https://api-testnet.bybit.com"

// bybitRateLimitCode is the retCode Bybit returns with HTTP 200 for
// "too many visits".
const bybitRateLimitCode = 10006

// BybitFetcher implements Fetcher using the Bybit v5 mark-price kline API.
type BybitFetcher struct {
	Config  model.FetchConfig
	Client  *http.Client
	Limiter *rate.Limiter
	Log     logrus.FieldLogger
	Metrics *metrics.Metrics

	// wait blocks for d or until ctx is done. Replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewBybitFetcher creates a new fetcher with optional proxy support.
func NewBybitFetcher(cfg model.FetchConfig, proxyURL string, log logrus.FieldLogger, m *metrics.Metrics) *BybitFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBybitURL
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &BybitFetcher{
		Config: cfg,
		Client: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		Limiter: rate.NewLimiter(limit, 1),
		Log:     log,
		Metrics: m,
		wait:    sleepContext,
	}
}

func (f *BybitFetcher) Name() string { return "bybit" }

// FetchCandles retrieves the kline window, retrying rate limits after
// Config.RetryDelay and transient failures immediately, for at most
// Config.MaxRetries attempts.
func (f *BybitFetcher) FetchCandles(ctx context.Context) (model.CandleSeries, error) {
	log := f.Log.WithFields(logrus.Fields{"symbol": f.Config.Symbol, "interval": f.Config.Interval})

	for attempt := 1; attempt <= f.Config.MaxRetries; attempt++ {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("fetch klines: %w", err)
		}

		series, err := f.fetchOnce(ctx)
		if err == nil {
			f.Metrics.ObserveFetchAttempt("ok")
			return series, nil
		}
		if ctx.Err() != nil {
			f.Metrics.ObserveFetchAttempt("cancelled")
			return nil, fmt.Errorf("fetch klines: %w", ctx.Err())
		}
		if !IsRetryable(err) {
			f.Metrics.ObserveFetchAttempt("fatal")
			return nil, fmt.Errorf("fetch klines: %w", err)
		}

		alog := log.WithField("attempt", attempt)
		if IsRateLimited(err) {
			f.Metrics.ObserveFetchAttempt("rate_limited")
			if attempt == f.Config.MaxRetries {
				alog.Warn("rate limit exceeded on final attempt")
				break
			}
			alog.Warnf("rate limit exceeded, retrying after %v", f.Config.RetryDelay)
			if err := f.wait(ctx, f.Config.RetryDelay); err != nil {
				return nil, fmt.Errorf("fetch klines: %w", err)
			}
			continue
		}

		f.Metrics.ObserveFetchAttempt("error")
		alog.WithError(err).Warn("fetch attempt failed")
	}

	log.Error("max retries exceeded, unable to fetch data")
	return nil, ErrRetriesExhausted
}

func (f *BybitFetcher) endpoint() string {
	q := url.Values{}
	q.Set("category", "linear")
	q.Set("symbol", f.Config.Symbol)
	q.Set("interval", string(f.Config.Interval))
	return f.Config.BaseURL + "/v5/market/mark-price-kline?" + q.Encode()
}

func (f *BybitFetcher) fetchOnce(ctx context.Context) (model.CandleSeries, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitedError{RetryAfter: f.Config.RetryDelay}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return parseKlines(body, f.Config.RetryDelay)
}

// parseKlines decodes a mark-price-kline response body. List entries may be
// positional arrays, which is what Bybit sends, or keyed objects.
func parseKlines(body []byte, retryDelay time.Duration) (model.CandleSeries, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode klines: invalid json")
	}
	root := gjson.ParseBytes(body)

	if code := root.Get("retCode"); code.Exists() && code.Int() != 0 {
		if code.Int() == bybitRateLimitCode {
			return nil, &RateLimitedError{RetryAfter: retryDelay}
		}
		return nil, &APIError{Code: code.Int(), Message: root.Get("retMsg").String()}
	}

	list := root.Get("result.list")
	if !list.Exists() || !list.IsArray() {
		return model.CandleSeries{}, nil
	}

	var (
		series model.CandleSeries
		perr   error
	)
	list.ForEach(func(_, entry gjson.Result) bool {
		var c model.Candle
		c, perr = parseCandle(entry)
		if perr != nil {
			return false
		}
		series = append(series, c)
		return true
	})
	if perr != nil {
		return nil, fmt.Errorf("decode klines: %w", perr)
	}

	// Ensure chronological order
	sort.SliceStable(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })
	return series, nil
}

func parseCandle(entry gjson.Result) (model.Candle, error) {
	var fields [5]gjson.Result
	switch {
	case entry.IsArray():
		arr := entry.Array()
		if len(arr) < 5 {
			return model.Candle{}, fmt.Errorf("kline has %d fields, want 5", len(arr))
		}
		copy(fields[:], arr[:5])
	case entry.IsObject():
		for i, key := range []string{"timestamp", "open", "high", "low", "close"} {
			fields[i] = entry.Get(key)
		}
	default:
		return model.Candle{}, fmt.Errorf("unexpected kline entry %q", entry.Raw)
	}

	ts, err := parseTimestamp(fields[0])
	if err != nil {
		return model.Candle{}, err
	}
	var prices [4]decimal.Decimal
	for i := range prices {
		f := fields[i+1]
		if !f.Exists() {
			return model.Candle{}, fmt.Errorf("kline missing price field %d", i+1)
		}
		d, err := decimal.NewFromString(f.String())
		if err != nil {
			return model.Candle{}, fmt.Errorf("parse price %q: %w", f.String(), err)
		}
		prices[i] = d
	}
	return model.Candle{
		Time:  ts,
		Open:  prices[0],
		High:  prices[1],
		Low:   prices[2],
		Close: prices[3],
	}, nil
}

// parseTimestamp accepts epoch milliseconds as a number or string, or an
// RFC3339 string.
func parseTimestamp(r gjson.Result) (time.Time, error) {
	switch r.Type {
	case gjson.Number:
		return time.UnixMilli(r.Int()).UTC(), nil
	case gjson.String:
		if ms, err := strconv.ParseInt(r.Str, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		t, err := time.Parse(time.RFC3339, r.Str)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse timestamp %q: %w", r.Str, err)
		}
		return t.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("kline missing timestamp")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
