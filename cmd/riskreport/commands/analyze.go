package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/riskreport/internal/analysis"
	"github.com/wonny/riskreport/internal/report"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "리포트 분석",
	Long: `백테스트 리포트(HTML/CSV)를 분석합니다.

출력:
- 성과 지표 (승률, Profit Factor, Sharpe, Sortino, MDD ...)
- 시간대/요일/세션별 통계
- Monte Carlo 리스크 (파산 확률, 최종 잔고/드로다운 분포, 시나리오)
- 파싱 경고 (건너뛴 행 포함)

Flags:
  --format    html|csv (기본: 파일 확장자로 추론)
  --balance   초기 잔고 (기본: 리포트 → 설정 → 10000)
  --trials    Monte Carlo 시행 횟수
  --seed      난수 시드 (재현 가능한 결과)
  --ruin      파산 기준 잔고 (절대값)
  --json      JSON 출력

Example:
  go run ./cmd/riskreport analyze StrategyTester.html
  go run ./cmd/riskreport analyze trades.csv --balance 5000 --seed 42
  go run ./cmd/riskreport analyze trades.csv --trials 10000 --json > result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeFormat  string
	analyzeBalance float64
	analyzeTrials  int
	analyzeSeed    int64
	analyzeRuin    float64
	analyzeWorkers int
	analyzeJSON    bool
	analyzeCurves  bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Flags
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "", "리포트 포맷 (html|csv)")
	analyzeCmd.Flags().Float64Var(&analyzeBalance, "balance", 0, "초기 잔고")
	analyzeCmd.Flags().IntVar(&analyzeTrials, "trials", 0, "Monte Carlo 시행 횟수")
	analyzeCmd.Flags().Int64Var(&analyzeSeed, "seed", 0, "난수 시드")
	analyzeCmd.Flags().Float64Var(&analyzeRuin, "ruin", 0, "파산 기준 잔고")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "시뮬레이션 워커 수 (기본: CPU 수)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "JSON 출력")
	analyzeCmd.Flags().BoolVar(&analyzeCurves, "curves", false, "JSON 출력에 전체 시뮬레이션 경로 포함")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	flags := cmd.Flags()

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg, cmd.ErrOrStderr())

	// 2. Resolve format
	var format report.Format
	if analyzeFormat != "" {
		format, err = report.ParseFormat(analyzeFormat)
	} else {
		format, err = report.FormatFromPath(path)
	}
	if err != nil {
		return fmt.Errorf("%w (use --format html|csv)", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	// 3. Session
	if flags.Changed("balance") {
		cfg.Analysis.InitialBalance = &analyzeBalance
	}
	session, err := analysis.NewSession(cfg.Analysis, log)
	if err != nil {
		return err
	}
	if _, err := session.Load(raw, format); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	params, err := session.DefaultParams()
	if err != nil {
		return err
	}
	if flags.Changed("trials") {
		if analyzeTrials > cfg.Analysis.MaxTrials {
			return fmt.Errorf("--trials %d exceeds the limit of %d (MC_MAX_TRIALS)", analyzeTrials, cfg.Analysis.MaxTrials)
		}
		params.Trials = analyzeTrials
	}
	if flags.Changed("seed") {
		seed := analyzeSeed
		params.Seed = &seed
	}
	if flags.Changed("ruin") {
		params.RuinThreshold = analyzeRuin
	}
	if flags.Changed("workers") {
		params.Workers = analyzeWorkers
	}
	params.DiscardCurves = !(analyzeJSON && analyzeCurves)

	// 4. Analyze (Ctrl+C cancels the simulation)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	rep, err := session.Analyze(ctx, raw, format, &params)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if analyzeCurves {
			return enc.Encode(rep)
		}
		return enc.Encode(newReportJSON(rep))
	}

	printReport(out, path, rep, time.Since(start))
	return nil
}

// reportJSON is the default JSON output: simulation summary instead of every path
type reportJSON struct {
	*analysis.Report
	Simulation interface{} `json:"simulation"`
}

func newReportJSON(rep *analysis.Report) reportJSON {
	return reportJSON{Report: rep, Simulation: rep.Simulation.Summary()}
}
