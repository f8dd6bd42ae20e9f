package strategy

import "RsiSentinel/internal/model"

// RSI alert thresholds. Both comparisons are strict.
const (
	OverboughtThreshold = 70
	OversoldThreshold   = 30
)

// Decide maps an RSI reading to a Decision.
func Decide(rsi int) model.Decision {
	switch {
	case rsi > OverboughtThreshold:
		return model.Decision{Signal: model.SignalOverbought, RSI: rsi}
	case rsi < OversoldThreshold:
		return model.Decision{Signal: model.SignalOversold, RSI: rsi}
	default:
		return model.Decision{Signal: model.SignalNone, RSI: rsi}
	}
}
