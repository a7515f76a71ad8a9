package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"MineralTracker/internal/batch"
	"MineralTracker/internal/model"
)

// FormatUnit formats one unit result as a single line.
func FormatUnit(u *batch.UnitResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %-3s %-8s %d ok", model.DateLabel(u.Request.Reference), u.Request.Period, u.Status, len(u.Symbols)))
	if len(u.Failures) > 0 {
		names := make([]string, len(u.Failures))
		for i, f := range u.Failures {
			names[i] = f.Symbol
		}
		b.WriteString(fmt.Sprintf(", failed: %s", strings.Join(names, ", ")))
	}
	for _, a := range u.Artifacts {
		b.WriteString(" | " + filepath.Base(a.Path))
	}
	return b.String()
}

// FormatSummary formats a run summary for a notification or the console.
func FormatSummary(title string, sum *batch.Summary, elapsed time.Duration) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", title, time.Now().Format("2006-01-02 15:04")))

	b.WriteString(fmt.Sprintf("Units: %d (OK %d, partial %d, no data %d, error %d)\n",
		len(sum.Units), sum.Count(batch.StatusOK), sum.Count(batch.StatusPartial),
		sum.Count(batch.StatusNoData), sum.Count(batch.StatusError)))
	if elapsed > 0 {
		b.WriteString(fmt.Sprintf("Elapsed: %s\n", elapsed.Round(time.Second)))
	}

	var problems []string
	for _, u := range sum.Units {
		if u.Status != batch.StatusOK {
			problems = append(problems, FormatUnit(u))
		}
	}
	if len(problems) > 0 {
		b.WriteString("\n⚠️ <b>Incomplete:</b>\n")
		for _, p := range problems {
			b.WriteString("  " + p + "\n")
		}
	}

	var urls []string
	for _, u := range sum.Units {
		urls = append(urls, u.URLs...)
	}
	if len(urls) > 0 {
		b.WriteString("\n🔗 <b>Published:</b>\n")
		for _, u := range urls {
			b.WriteString("  " + u + "\n")
		}
	}
	return b.String()
}

// FormatRecent formats the last entries of the URL log.
func FormatRecent(lines []string) string {
	if len(lines) == 0 {
		return "No uploaded charts yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔗 <b>Last %d uploaded charts</b>\n\n", len(lines)))
	for _, l := range lines {
		b.WriteString(l + "\n")
	}
	return b.String()
}
