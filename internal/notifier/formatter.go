package notifier

import (
	"fmt"
	"strings"

	"RsiSentinel/internal/model"
)

// FormatAlert renders the alert text for a decision, or "" when there is
// nothing to send.
func FormatAlert(d model.Decision) string {
	switch d.Signal {
	case model.SignalOverbought:
		return fmt.Sprintf("RSI is overbought at %d", d.RSI)
	case model.SignalOversold:
		return fmt.Sprintf("RSI is oversold at %d", d.RSI)
	default:
		return ""
	}
}

// FormatCheckReport formats the result of an on-demand check as a reply.
func FormatCheckReport(r *model.CheckResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s RSI(14)", r.Symbol, r.Interval))
	if r.HasRSI() {
		b.WriteString(fmt.Sprintf(": %d", r.Decision.RSI))
	}
	b.WriteString("\n")

	switch r.Outcome {
	case model.OutcomeAlerted:
		b.WriteString("alert sent: " + FormatAlert(r.Decision))
	case model.OutcomeNoAlert:
		b.WriteString("within 30-70, no alert")
	case model.OutcomeSkipped:
		b.WriteString("a check is already running")
	case model.OutcomeNoData:
		b.WriteString("no kline data available")
	case model.OutcomeInsufficientData:
		b.WriteString("not enough data to compute RSI")
	default:
		b.WriteString(string(r.Outcome))
	}
	if r.Err != nil {
		b.WriteString(fmt.Sprintf(" (%v)", r.Err))
	}
	return b.String()
}

// HelpText lists the chat commands.
const HelpText = "Available commands:\n• /rsi - run an RSI check now"
