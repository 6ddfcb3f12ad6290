// internal/stats/format.go
package stats

import (
	"fmt"
	"time"
)

// formatRelativeTime renders an event instant as a coarse age relative to
// now ("just now", "5m ago", "3h ago", "2d ago", "1mo ago").
func formatRelativeTime(now, t time.Time) string {
	diff := now.Sub(t)
	if diff < time.Minute {
		return "just now"
	}
	if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	}
	if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}
	days := int(diff.Hours()) / 24
	if days < 30 {
		return fmt.Sprintf("%dd ago", days)
	}
	return fmt.Sprintf("%dmo ago", days/30)
}
