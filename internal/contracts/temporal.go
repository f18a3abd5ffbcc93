package contracts

import "sort"

// TemporalBucket aggregates the trades that share one categorical key
type TemporalBucket struct {
	Key         string  `json:"key"`
	Count       int     `json:"count"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	WinRate     float64 `json:"win_rate"`     // wins / count, 0 for empty buckets
	TotalProfit float64 `json:"total_profit"` // sum of profits
	AvgProfit   float64 `json:"avg_profit"`   // total / count, 0 for empty buckets
}

// TemporalReport groups trades by close time
// ⭐ SSOT: 버킷 순서는 결정적 (시간 0-23, 월-일, 세션 선언 순서 + Off-session, 날짜 오름차순)
type TemporalReport struct {
	ByHour    []TemporalBucket `json:"by_hour"`
	ByWeekday []TemporalBucket `json:"by_weekday"`
	BySession []TemporalBucket `json:"by_session"`
	ByDay     []TemporalBucket `json:"by_day"`

	// WorstDays / WorstSessions rank non-empty buckets by total profit, lowest first
	WorstDays     []TemporalBucket `json:"worst_days"`
	WorstSessions []TemporalBucket `json:"worst_sessions"`
}

// Bucket looks up a bucket by key in one of the groupings
func Bucket(buckets []TemporalBucket, key string) (TemporalBucket, bool) {
	for _, b := range buckets {
		if b.Key == key {
			return b, true
		}
	}
	return TemporalBucket{}, false
}

// Worst returns up to n non-empty buckets ordered by total profit ascending (ties by key)
func Worst(buckets []TemporalBucket, n int) []TemporalBucket {
	out := make([]TemporalBucket, 0, len(buckets))
	for _, b := range buckets {
		if b.Count > 0 {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalProfit != out[j].TotalProfit {
			return out[i].TotalProfit < out[j].TotalProfit
		}
		return out[i].Key < out[j].Key
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
