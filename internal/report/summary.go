package report

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Canonical summary keys
const (
	SummaryInitialDeposit     = "initial_deposit"
	SummaryTotalNetProfit     = "total_net_profit"
	SummaryGrossProfit        = "gross_profit"
	SummaryGrossLoss          = "gross_loss"
	SummaryProfitFactor       = "profit_factor"
	SummaryExpectedPayoff     = "expected_payoff"
	SummaryRecoveryFactor     = "recovery_factor"
	SummarySharpeRatio        = "sharpe_ratio"
	SummaryTotalTrades        = "total_trades"
	SummaryBalanceDrawdownMax = "balance_drawdown_maximal"
	SummaryEquityDrawdownMax  = "equity_drawdown_maximal"
	SummaryBalance            = "balance"
	SummaryEquity             = "equity"
)

// summaryLabels maps normalized labels of the report summary block to canonical keys
var summaryLabels = map[string]string{
	"initial deposit":          SummaryInitialDeposit,
	"total net profit":         SummaryTotalNetProfit,
	"gross profit":             SummaryGrossProfit,
	"gross loss":               SummaryGrossLoss,
	"profit factor":            SummaryProfitFactor,
	"expected payoff":          SummaryExpectedPayoff,
	"recovery factor":          SummaryRecoveryFactor,
	"sharpe ratio":             SummarySharpeRatio,
	"total trades":             SummaryTotalTrades,
	"balance drawdown maximal": SummaryBalanceDrawdownMax,
	"equity drawdown maximal":  SummaryEquityDrawdownMax,
	"balance":                  SummaryBalance,
	"equity":                   SummaryEquity,
}

// extractSummary collects "Label:" / value cell pairs from every table row.
// Values like "1 234.56 (12.3%)" keep the leading amount. The initial deposit is also returned exactly.
func extractSummary(doc *goquery.Document) (map[string]float64, *decimal.Decimal) {
	summary := make(map[string]float64)
	var deposit *decimal.Decimal

	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Children().Filter("td, th").Each(func(_ int, cell *goquery.Selection) {
			if isHidden(cell) {
				return
			}
			if text := strings.TrimSpace(cell.Text()); text != "" {
				cells = append(cells, text)
			}
		})

		for i := 0; i+1 < len(cells); i++ {
			if !strings.HasSuffix(cells[i], ":") {
				continue
			}
			key, ok := summaryLabels[NormalizeHeader(cells[i])]
			if !ok {
				continue
			}
			if _, seen := summary[key]; seen {
				continue
			}
			value, err := ParseNumber(leadingAmount(cells[i+1]))
			if err != nil {
				continue
			}
			summary[key] = value.InexactFloat64()
			if key == SummaryInitialDeposit {
				v := value
				deposit = &v
			}
		}
	})
	return summary, deposit
}

// leadingAmount drops a trailing "(...)" annotation
func leadingAmount(s string) string {
	if i := strings.Index(s, "("); i > 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
