package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"StockSentinel/internal/model"
)

// FormatRunSummary formats a finished run into a Telegram message.
func FormatRunSummary(r *model.RunReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>StockSentinel run</b> | %s\n\n", r.StartedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Symbols: %d | Records: %d | Skipped: %d\n", r.Symbols, r.Records, r.Skipped))
	b.WriteString(fmt.Sprintf("Highlighted: %d\n", r.Highlighted))
	if len(r.HighlightedSymbols) > 0 {
		b.WriteString("  " + strings.Join(r.HighlightedSymbols, ", ") + "\n")
	}

	if len(r.SkipCounts) > 0 {
		reasons := make([]string, 0, len(r.SkipCounts))
		for reason := range r.SkipCounts {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		b.WriteString("\n<b>Skips:</b>\n")
		for _, reason := range reasons {
			b.WriteString(fmt.Sprintf("  %s: %d\n", reason, r.SkipCounts[model.SkipReason(reason)]))
		}
	}

	b.WriteString(fmt.Sprintf("\nEmails: %d | Event published: %v | Took %s\n",
		r.Emailed, r.Published, r.Duration().Round(time.Millisecond)))

	if len(r.Errors) > 0 {
		b.WriteString("\n⚠️ <b>Errors:</b>\n")
		for _, e := range r.Errors {
			b.WriteString("  " + escapeHTML(e) + "\n")
		}
	}
	return b.String()
}

// FormatStatus answers the /status command.
func FormatStatus(last *model.RunReport, running bool) string {
	if last == nil {
		if running {
			return "⏳ First run in progress."
		}
		return "No run has completed yet."
	}
	var b strings.Builder
	if running {
		b.WriteString("⏳ A run is in progress.\n\n")
	}
	b.WriteString(fmt.Sprintf("Last run %s finished %s\n", last.RunID, last.FinishedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Records: %d | Highlighted: %d | Skipped: %d\n", last.Records, last.Highlighted, last.Skipped))
	return b.String()
}

func escapeHTML(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
