package risk

// =============================================================================
// Monte Carlo defaults
// =============================================================================

const (
	// DefaultTrials 기본 시뮬레이션 횟수
	DefaultTrials = 1000
	// MaxTrials is the hard ceiling of one simulation
	MaxTrials = 1_000_000
	// DefaultRuinFraction ruin threshold as a fraction of the initial balance
	DefaultRuinFraction = 0.5
	// ctxCheckEvery trials between cancellation checks inside a worker
	ctxCheckEvery = 64
)

// Scenario names, best to worst
const (
	ScenarioBest     = "best"
	ScenarioGood     = "good"
	ScenarioExpected = "expected"
	ScenarioPoor     = "poor"
	ScenarioWorst    = "worst"
)

// scenarioPercentiles maps scenario names to final-balance percentiles
var scenarioPercentiles = []struct {
	name string
	p    float64
}{
	{ScenarioBest, 95},
	{ScenarioGood, 75},
	{ScenarioExpected, 50},
	{ScenarioPoor, 25},
	{ScenarioWorst, 5},
}

// RuinThreshold returns fraction * initial balance
func RuinThreshold(initialBalance, fraction float64) float64 {
	return initialBalance * fraction
}

// Seed returns a pointer for SimulationParams.Seed
func Seed(v int64) *int64 {
	return &v
}

// =============================================================================
// Seed derivation
// =============================================================================

// splitmix64 mixes x into a well-distributed 64-bit value
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// trialSeed derives the PRNG seed of trial t from the base seed.
// ⭐ SSOT: 트라이얼별 시드는 워커 수와 무관 (병렬 실행 결과 동일성 보장)
func trialSeed(base int64, t int) int64 {
	return int64(splitmix64(uint64(base) + uint64(t)))
}
