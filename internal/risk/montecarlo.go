// Package risk runs the bootstrap Monte Carlo simulation over a ledger's trade profits.
package risk

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/riskreport/internal/contracts"
	"github.com/wonny/riskreport/internal/stats"
)

// MonteCarloSimulator Monte Carlo 시뮬레이터 (implements contracts.Simulator)
type MonteCarloSimulator struct {
	now func() time.Time
}

// NewMonteCarloSimulator 새 시뮬레이터 생성
func NewMonteCarloSimulator() *MonteCarloSimulator {
	return &MonteCarloSimulator{now: time.Now}
}

// trialOutcome is what one trial writes into its slot
type trialOutcome struct {
	curve       []float64
	maxDrawdown float64
	ruined      bool
}

// Simulate 트레이드 손익 Bootstrap 시뮬레이션 실행
// Each trial draws len(ledger) profits with replacement and accumulates them from the
// ledger's initial balance. Fixed seed + ledger = bit-identical result at any worker count.
func (mc *MonteCarloSimulator) Simulate(
	ctx context.Context,
	ledger *contracts.Ledger,
	params contracts.SimulationParams,
) (*contracts.SimulationResult, error) {
	// 입력 검증 (계산 전에 거부)
	if params.Trials <= 0 {
		return nil, fmt.Errorf("%w: trials must be positive, got %d", contracts.ErrInvalidTrialCount, params.Trials)
	}
	if params.Trials > MaxTrials {
		return nil, fmt.Errorf("%w: %d exceeds the limit of %d", contracts.ErrInvalidTrialCount, params.Trials, MaxTrials)
	}
	if math.IsNaN(params.RuinThreshold) || math.IsInf(params.RuinThreshold, 0) {
		return nil, fmt.Errorf("%w: %v", contracts.ErrInvalidRuinThreshold, params.RuinThreshold)
	}
	percentiles := params.Percentiles
	if len(percentiles) == 0 {
		percentiles = contracts.DefaultPercentiles
	}
	for _, p := range percentiles {
		if p < 0 || p > 100 || math.IsNaN(p) {
			return nil, fmt.Errorf("percentile out of range [0,100]: %v", p)
		}
	}

	baseSeed := mc.now().UnixNano()
	if params.Seed != nil {
		baseSeed = *params.Seed
	}

	profits := ledger.Profits()
	var initial float64
	if ledger != nil {
		initial = ledger.InitialBalance.InexactFloat64()
	}

	outcomes, err := mc.runTrials(ctx, params.Trials, params.Workers, func(t int) trialOutcome {
		return runTrial(profits, initial, params.RuinThreshold, trialSeed(baseSeed, t))
	})
	if err != nil {
		return nil, err
	}

	result := &contracts.SimulationResult{
		Trials:         params.Trials,
		Seed:           baseSeed,
		TradeCount:     len(profits),
		InitialBalance: initial,
		RuinThreshold:  params.RuinThreshold,
		Curves:         make([][]float64, params.Trials),
		FinalBalances:  make([]float64, params.Trials),
		MaxDrawdowns:   make([]float64, params.Trials),
	}
	for t, o := range outcomes {
		result.Curves[t] = o.curve
		result.FinalBalances[t] = o.curve[len(o.curve)-1]
		result.MaxDrawdowns[t] = o.maxDrawdown
		if o.ruined {
			result.Ruined++
		}
	}

	mc.calculateResult(result, percentiles)
	if params.DiscardCurves {
		result.Curves = nil
	}
	return result, nil
}

// runTrials fans trials out over workers; each trial writes only its own slot
func (mc *MonteCarloSimulator) runTrials(ctx context.Context, trials, workers int, run func(t int) trialOutcome) ([]trialOutcome, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > trials {
		workers = trials
	}

	outcomes := make([]trialOutcome, trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	chunk := (trials + workers - 1) / workers
	for start := 0; start < trials; start += chunk {
		start, end := start, start+chunk
		if end > trials {
			end = trials
		}
		g.Go(func() error {
			for t := start; t < end; t++ {
				if (t-start)%ctxCheckEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				outcomes[t] = run(t)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("monte carlo aborted: %w", err)
	}
	return outcomes, nil
}

// runTrial 단일 Bootstrap 경로
func runTrial(profits []float64, initial, ruinThreshold float64, seed int64) trialOutcome {
	n := len(profits)
	curve := make([]float64, n+1)
	curve[0] = initial
	ruined := initial < ruinThreshold

	rng := rand.New(rand.NewSource(seed))
	for i := 1; i <= n; i++ {
		// 복원 추출
		curve[i] = curve[i-1] + profits[rng.Intn(n)]
		if curve[i] < ruinThreshold {
			ruined = true
		}
	}

	return trialOutcome{
		curve:       curve,
		maxDrawdown: stats.MaxDrawdown(curve).Amount,
		ruined:      ruined,
	}
}

// calculateResult 시뮬레이션 결과 통계 계산
func (mc *MonteCarloSimulator) calculateResult(r *contracts.SimulationResult, percentiles []float64) {
	ps := append([]float64(nil), percentiles...)
	trials := float64(r.Trials)

	sortedFinals := stats.Sorted(r.FinalBalances)
	r.FinalBalanceBands = band(sortedFinals, ps)
	r.MaxDrawdownBands = band(stats.Sorted(r.MaxDrawdowns), ps)
	r.RuinProbability = float64(r.Ruined) / trials

	// 스텝별 equity 신뢰구간
	r.EquityBands = make([]contracts.PercentileBand, r.TradeCount+1)
	column := make([]float64, r.Trials)
	for step := 0; step <= r.TradeCount; step++ {
		for t, curve := range r.Curves {
			column[t] = curve[step]
		}
		r.EquityBands[step] = contracts.PercentileBand{
			Percentiles: ps,
			Values:      stats.Percentiles(column, ps),
		}
	}

	// 리스크 지표 (최종 손익 기준, 손실 양수)
	finalProfits := make([]float64, len(r.FinalBalances))
	losing := 0
	for i, fb := range r.FinalBalances {
		finalProfits[i] = fb - r.InitialBalance
		if fb < r.InitialBalance {
			losing++
		}
	}
	var95 := stats.HistoricalVaR(finalProfits, 0.95)
	var99 := stats.HistoricalVaR(finalProfits, 0.99)
	r.Risk = contracts.SimulationRisk{
		MeanFinalBalance:    stats.Mean(r.FinalBalances),
		StdDevFinalBalance:  stats.StdDev(r.FinalBalances),
		ProbabilityOfLoss:   float64(losing) / trials,
		VaR95:               var95.VaR,
		VaR99:               var99.VaR,
		ExpectedShortfall95: var95.CVaR,
		ExpectedShortfall99: var99.CVaR,
	}

	r.Scenarios = make([]contracts.Scenario, 0, len(scenarioPercentiles))
	for _, s := range scenarioPercentiles {
		r.Scenarios = append(r.Scenarios, contracts.Scenario{
			Name:         s.name,
			Percentile:   s.p,
			FinalBalance: stats.Percentile(sortedFinals, s.p),
		})
	}
}

func band(sorted, ps []float64) contracts.PercentileBand {
	values := make([]float64, len(ps))
	for i, p := range ps {
		values[i] = stats.Percentile(sorted, p)
	}
	return contracts.PercentileBand{Percentiles: ps, Values: values}
}
