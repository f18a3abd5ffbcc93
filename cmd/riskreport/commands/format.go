package commands

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/wonny/riskreport/internal/analysis"
	"github.com/wonny/riskreport/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const maxPrintedWarnings = 20

// printReport renders an analysis report as text tables
func printReport(w io.Writer, path string, rep *analysis.Report, elapsed time.Duration) {
	PrintDoubleSeparator(w)
	fmt.Fprintf(w, "  Risk Report: %s\n", path)
	PrintSeparator(w)
	PrintKeyValue(w, "Report ID", rep.ID, 16)
	PrintKeyValue(w, "Format", rep.Format, 16)
	PrintKeyValue(w, "Trades", fmt.Sprintf("%d", rep.Ledger.Len()), 16)
	PrintKeyValue(w, "Initial balance", rep.Ledger.InitialBalance.StringFixed(2), 16)
	PrintKeyValue(w, "Final balance", rep.Ledger.FinalBalance().StringFixed(2), 16)
	if first, last := rep.Ledger.Span(); !first.IsZero() {
		PrintKeyValue(w, "Period", first.Format("2006-01-02")+" ~ "+last.Format("2006-01-02"), 16)
	}

	printMetrics(w, rep.Metrics)
	printRecovery(w, rep.Recovery)
	printTemporal(w, rep.Temporal)
	if rep.Simulation != nil {
		printSimulation(w, rep.Simulation)
	}
	printWarnings(w, rep.Warnings)

	fmt.Fprintln(w)
	PrintSuccess(w, fmt.Sprintf("Analysis completed in %.2fs", elapsed.Seconds()))
}

func printMetrics(w io.Writer, ms contracts.MetricSet) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[Metrics]")
	for _, m := range ms.All() {
		PrintKeyValue(w, string(m.Name), formatFloat(m.Value), 20)
	}
}

func printTemporal(w io.Writer, tr contracts.TemporalReport) {
	widths := []int{12, 7, 9, 12, 12}
	columns := []string{"Bucket", "Trades", "Win rate", "Total", "Average"}

	section := func(title string, buckets []contracts.TemporalBucket, skipEmpty bool) {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "[%s]\n", title)
		PrintTableHeader(w, columns, widths)
		for _, b := range buckets {
			if skipEmpty && b.Count == 0 {
				continue
			}
			PrintTableRow(w, []string{
				b.Key,
				fmt.Sprintf("%d", b.Count),
				fmt.Sprintf("%.1f%%", b.WinRate*100),
				fmt.Sprintf("%.2f", b.TotalProfit),
				fmt.Sprintf("%.2f", b.AvgProfit),
			}, widths)
		}
	}

	section("By session", tr.BySession, false)
	section("By weekday", tr.ByWeekday, false)
	section("By hour", tr.ByHour, true)
	section("Worst sessions", tr.WorstSessions, true)
	section("Worst days", tr.WorstDays, true)
}

func printRecovery(w io.Writer, rr contracts.RecoveryReport) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[Drawdown recovery]")
	PrintKeyValue(w, "Drawdowns", fmt.Sprintf("%d (%d recovered)", len(rr.Periods), rr.Recovered), 20)
	PrintKeyValue(w, "Avg trades to recover", fmt.Sprintf("%.1f", rr.AvgTradesToRecover), 20)
	PrintKeyValue(w, "Longest underwater", fmt.Sprintf("%d trades / %.1fh", rr.LongestUnderwaterTrades, rr.LongestUnderwaterHours), 20)
	if rr.StillUnderwater {
		PrintWarning(w, "equity is still below its last peak")
	}
}

func printSimulation(w io.Writer, sim *contracts.SimulationResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[Monte Carlo]")
	PrintKeyValue(w, "Trials", fmt.Sprintf("%d (seed %d)", sim.Trials, sim.Seed), 20)
	PrintKeyValue(w, "Ruin threshold", fmt.Sprintf("%.2f", sim.RuinThreshold), 20)
	PrintKeyValue(w, "Ruin probability", fmt.Sprintf("%.2f%%", sim.RuinProbability*100), 20)
	PrintKeyValue(w, "Loss probability", fmt.Sprintf("%.2f%%", sim.Risk.ProbabilityOfLoss*100), 20)
	PrintKeyValue(w, "Mean final", fmt.Sprintf("%.2f", sim.Risk.MeanFinalBalance), 20)
	PrintKeyValue(w, "StdDev final", fmt.Sprintf("%.2f", sim.Risk.StdDevFinalBalance), 20)

	widths := []int{10, 14, 14}
	fmt.Fprintln(w)
	PrintTableHeader(w, []string{"Pct", "Final balance", "Max drawdown"}, widths)
	for i, p := range sim.FinalBalanceBands.Percentiles {
		dd, _ := sim.MaxDrawdownBands.At(p)
		PrintTableRow(w, []string{
			fmt.Sprintf("p%g", p),
			fmt.Sprintf("%.2f", sim.FinalBalanceBands.Values[i]),
			fmt.Sprintf("%.2f", dd),
		}, widths)
	}

	if len(sim.Scenarios) > 0 {
		fmt.Fprintln(w)
		items := make([]string, 0, len(sim.Scenarios))
		for _, s := range sim.Scenarios {
			items = append(items, fmt.Sprintf("%-8s (p%g): %.2f", s.Name, s.Percentile, s.FinalBalance))
		}
		PrintList(w, items)
	}
}

func printWarnings(w io.Writer, warnings []contracts.ParseWarning) {
	if len(warnings) == 0 {
		return
	}
	PrintWarning(w, fmt.Sprintf("%d parse warnings (%d rows skipped)", len(warnings), contracts.SkippedRows(warnings)))

	items := make([]string, 0, maxPrintedWarnings)
	for i, pw := range warnings {
		if i == maxPrintedWarnings {
			items = append(items, fmt.Sprintf("... %d more", len(warnings)-maxPrintedWarnings))
			break
		}
		items = append(items, pw.String())
	}
	PrintList(w, items)
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "∞"
	case math.IsInf(v, -1):
		return "-∞"
	case v == math.Trunc(v) && math.Abs(v) < 1e15:
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.4f", v)
}

// PrintSeparator prints a visual separator
func PrintSeparator(w io.Writer) {
	fmt.Fprintln(w, "───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator(w io.Writer) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, message string) {
	fmt.Fprintf(w, "✅ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(w io.Writer, columns []string, widths []int) {
	PrintTableRow(w, columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(w, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(w io.Writer, values []string, widths []int) {
	for i, val := range values {
		fmt.Fprintf(w, "%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
}

// PrintList prints a bulleted list
func PrintList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(w io.Writer, key string, value string, keyWidth int) {
	fmt.Fprintf(w, "   %-*s : %s\n", keyWidth, key, value)
}
