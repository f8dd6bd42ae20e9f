package model

import "time"

// Signal is the alert class derived from an RSI reading.
type Signal string

const (
	SignalNone       Signal = "none"
	SignalOverbought Signal = "overbought"
	SignalOversold   Signal = "oversold"
)

// Decision is the outcome of checking one RSI reading against the thresholds.
type Decision struct {
	Signal Signal
	RSI    int
}

// Alert reports whether the decision should be delivered.
func (d Decision) Alert() bool {
	return d.Signal != SignalNone && d.Signal != ""
}

// Outcome is how a check cycle ended.
type Outcome string

const (
	OutcomeAlerted          Outcome = "alerted"
	OutcomeNoAlert          Outcome = "no_alert"
	OutcomeNoData           Outcome = "no_data"
	OutcomeFetchFailed      Outcome = "fetch_failed"
	OutcomeInsufficientData Outcome = "insufficient_data"
	OutcomeDeliveryFailed   Outcome = "delivery_failed"
	OutcomeSkipped          Outcome = "skipped"
	OutcomeInternalError    Outcome = "internal_error"
)

// CheckResult summarizes one check cycle.
type CheckResult struct {
	Symbol    string
	Interval  Interval
	Outcome   Outcome
	Decision  Decision // zero unless RSI was computed
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

// HasRSI reports whether the cycle got as far as computing RSI.
func (r *CheckResult) HasRSI() bool {
	return r.Decision.Signal != ""
}
