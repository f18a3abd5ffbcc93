package metrics

import (
	"time"

	"github.com/wonny/riskreport/internal/contracts"
	"github.com/wonny/riskreport/internal/stats"
)

// Recovery lists the drawdown periods of the ledger's balance curve.
// Balance index 0 is the baseline (first open time), index i the close of trade i-1.
func (e *Engine) Recovery(ledger *contracts.Ledger) contracts.RecoveryReport {
	report := contracts.RecoveryReport{Periods: []contracts.DrawdownPeriod{}}
	if ledger.Empty() {
		return report
	}

	at := func(i int) time.Time {
		if i == 0 {
			return ledger.Entries[0].OpenTime
		}
		return ledger.Entries[i-1].CloseTime
	}
	_, last := ledger.Span()

	var sumRecover int
	for _, p := range stats.DrawdownPeriods(ledger.BalanceFloat()) {
		dp := contracts.DrawdownPeriod{
			Start:          at(p.PeakIndex),
			Trough:         at(p.TroughIndex),
			Depth:          p.Amount,
			DepthPct:       p.Pct,
			TradesToTrough: p.TroughIndex - p.PeakIndex,
		}

		end, underwater := last, len(ledger.Balance)-1-p.PeakIndex
		if p.Recovered() {
			rec := at(p.RecoveryIndex)
			dp.Recovery = &rec
			dp.TradesToRecover = p.RecoveryIndex - p.TroughIndex
			end, underwater = rec, p.RecoveryIndex-p.PeakIndex

			report.Recovered++
			sumRecover += dp.TradesToRecover
			if dp.TradesToRecover > report.MaxTradesToRecover {
				report.MaxTradesToRecover = dp.TradesToRecover
			}
		} else {
			report.StillUnderwater = true
		}
		dp.Duration = end.Sub(dp.Start).Hours()

		if underwater > report.LongestUnderwaterTrades {
			report.LongestUnderwaterTrades = underwater
		}
		if dp.Duration > report.LongestUnderwaterHours {
			report.LongestUnderwaterHours = dp.Duration
		}
		report.Periods = append(report.Periods, dp)
	}
	if report.Recovered > 0 {
		report.AvgTradesToRecover = float64(sumRecover) / float64(report.Recovered)
	}
	return report
}
