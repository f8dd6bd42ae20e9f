package strategy

import (
	"testing"

	"RsiSentinel/internal/model"
)

func TestDecide_Boundaries(t *testing.T) {
	tests := []struct {
		rsi    int
		signal model.Signal
	}{
		{100, model.SignalOverbought},
		{71, model.SignalOverbought},
		{70, model.SignalNone},
		{50, model.SignalNone},
		{30, model.SignalNone},
		{29, model.SignalOversold},
		{0, model.SignalOversold},
	}
	for _, tt := range tests {
		d := Decide(tt.rsi)
		if d.Signal != tt.signal {
			t.Errorf("rsi %d: expected %q, got %q", tt.rsi, tt.signal, d.Signal)
		}
		if d.RSI != tt.rsi {
			t.Errorf("rsi %d: decision carried %d", tt.rsi, d.RSI)
		}
		if d.Alert() != (tt.signal != model.SignalNone) {
			t.Errorf("rsi %d: Alert() = %v", tt.rsi, d.Alert())
		}
	}
}
