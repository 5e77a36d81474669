package views

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numberPrinter = message.NewPrinter(language.English)

// TimeAgo renders a timestamp as a coarse relative age for list views.
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	duration := time.Since(t)
	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		minutes := int(duration.Minutes())
		return fmt.Sprintf("%dm ago", minutes)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		return fmt.Sprintf("%dh ago", hours)
	default:
		days := int(duration.Hours() / 24)
		return fmt.Sprintf("%dd ago", days)
	}
}

// TimeAgoPtr is TimeAgo for nullable timestamps.
func TimeAgoPtr(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return TimeAgo(*t)
}

// Duration renders how long an execution took. A missing start means it
// has not been picked up yet; a missing finish means it is still going,
// so the elapsed time keeps counting.
func Duration(started, finished *time.Time) string {
	if started == nil {
		return "-"
	}
	end := time.Now()
	if finished != nil {
		end = *finished
	}

	duration := end.Sub(*started)
	if duration < 0 {
		duration = 0
	}
	switch {
	case duration < time.Second:
		return fmt.Sprintf("%dms", duration.Milliseconds())
	case duration < time.Minute:
		return fmt.Sprintf("%.1fs", duration.Seconds())
	case duration < time.Hour:
		return fmt.Sprintf("%dm %ds", int(duration.Minutes()), int(duration.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm", int(duration.Hours()), int(duration.Minutes())%60)
	}
}

// Comma formats a count with thousands separators.
func Comma(n int) string {
	return numberPrinter.Sprintf("%d", n)
}

// Percent renders part/total as a whole percentage, guarding empty totals.
func Percent(part, total int) string {
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%d%%", int(float64(part)/float64(total)*100+0.5))
}

// Score renders a 0-100 quality score with one decimal.
func Score(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// SeverityClass maps an issue severity onto its badge class.
func SeverityClass(severity string) string {
	switch severity {
	case "critical":
		return "badge badge-critical"
	case "high":
		return "badge badge-high"
	case "medium":
		return "badge badge-medium"
	case "low":
		return "badge badge-low"
	default:
		return "badge"
	}
}

// StatusClass maps an execution status onto its badge class.
func StatusClass(status string) string {
	switch status {
	case "succeeded":
		return "badge badge-success"
	case "failed":
		return "badge badge-failure"
	case "partially_succeeded":
		return "badge badge-partial"
	case "running":
		return "badge badge-running"
	case "queued":
		return "badge badge-queued"
	case "cancelled":
		return "badge badge-muted"
	default:
		return "badge"
	}
}

// TitleCase turns snake_case API values into display labels, for example
// "partially_succeeded" into "Partially succeeded".
func TitleCase(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}
