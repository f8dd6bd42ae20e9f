package notifier

import (
	"errors"
	"testing"

	"RsiSentinel/internal/model"
)

func TestFormatAlert(t *testing.T) {
	tests := []struct {
		d    model.Decision
		want string
	}{
		{model.Decision{Signal: model.SignalOverbought, RSI: 71}, "RSI is overbought at 71"},
		{model.Decision{Signal: model.SignalOversold, RSI: 29}, "RSI is oversold at 29"},
		{model.Decision{Signal: model.SignalNone, RSI: 50}, ""},
	}
	for _, tt := range tests {
		if got := FormatAlert(tt.d); got != tt.want {
			t.Errorf("FormatAlert(%+v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatCheckReport(t *testing.T) {
	r := &model.CheckResult{
		Symbol:   "SOLUSDT",
		Interval: "60",
		Outcome:  model.OutcomeAlerted,
		Decision: model.Decision{Signal: model.SignalOversold, RSI: 22},
	}
	want := "SOLUSDT 60 RSI(14): 22\nalert sent: RSI is oversold at 22"
	if got := FormatCheckReport(r); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	r = &model.CheckResult{
		Symbol:   "SOLUSDT",
		Interval: "60",
		Outcome:  model.OutcomeFetchFailed,
		Err:      errors.New("status 500"),
	}
	want = "SOLUSDT 60 RSI(14)\nfetch_failed (status 500)"
	if got := FormatCheckReport(r); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
