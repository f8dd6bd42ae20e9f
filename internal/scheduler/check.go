package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"RsiSentinel/internal/collector"
	"RsiSentinel/internal/model"
	"RsiSentinel/internal/notifier"
	"RsiSentinel/internal/strategy"

	"github.com/sirupsen/logrus"
)

// RunCheck runs one fetch → compute → decide → notify cycle. Failures are
// logged and reported in the result; they never escape as panics or errors.
// If a cycle is already in flight the call returns OutcomeSkipped at once.
func (s *Scheduler) RunCheck(ctx context.Context) model.CheckResult {
	r := model.CheckResult{
		Symbol:    s.Symbol,
		Interval:  s.Interval,
		StartedAt: time.Now(),
	}
	log := s.Log.WithFields(logrus.Fields{"symbol": s.Symbol, "interval": s.Interval})

	if !s.running.CompareAndSwap(false, true) {
		log.Warn("rsi check already in progress, skipping")
		r.Outcome = model.OutcomeSkipped
		s.Metrics.ObserveCheck(string(r.Outcome), 0)
		return r
	}
	defer s.running.Store(false)

	s.runCheck(ctx, &r, log)
	r.Duration = time.Since(r.StartedAt)
	s.Metrics.ObserveCheck(string(r.Outcome), r.Duration)

	entry := log.WithFields(logrus.Fields{"outcome": r.Outcome, "duration": r.Duration.Round(time.Millisecond)})
	if r.HasRSI() {
		entry = entry.WithField("rsi", r.Decision.RSI)
	}
	if r.Err != nil {
		entry.WithError(r.Err).Warn("rsi check finished")
	} else {
		entry.Info("rsi check finished")
	}
	return r
}

func (s *Scheduler) runCheck(ctx context.Context, r *model.CheckResult, log logrus.FieldLogger) {
	defer func() {
		if p := recover(); p != nil {
			r.Outcome, r.Err = model.OutcomeInternalError, fmt.Errorf("panic in rsi check: %v", p)
		}
	}()

	series, err := s.Fetcher.FetchCandles(ctx)
	switch {
	case errors.Is(err, collector.ErrRetriesExhausted):
		r.Outcome, r.Err = model.OutcomeNoData, err
		return
	case err != nil:
		r.Outcome, r.Err = model.OutcomeFetchFailed, err
		return
	case len(series) == 0:
		log.Warn("failed to fetch klines data: empty list")
		r.Outcome = model.OutcomeNoData
		return
	}
	if last, ok := series.Last(); ok {
		log.WithFields(logrus.Fields{"candles": len(series), "last_close": last.Close.String()}).Debug("klines fetched")
	}

	rsi, err := s.Indicator.Compute(series)
	if err != nil {
		r.Outcome, r.Err = model.OutcomeInsufficientData, err
		return
	}
	s.Metrics.ObserveRSI(rsi)

	r.Decision = strategy.Decide(rsi)
	if !r.Decision.Alert() {
		r.Outcome = model.OutcomeNoAlert
		return
	}

	if err := s.Notifier.Send(ctx, notifier.FormatAlert(r.Decision)); err != nil {
		r.Outcome, r.Err = model.OutcomeDeliveryFailed, err
		return
	}
	s.Metrics.ObserveAlert(string(r.Decision.Signal))
	r.Outcome = model.OutcomeAlerted
}
