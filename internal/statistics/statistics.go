// Package statistics summarizes a player's results over a session of rounds
package statistics

import (
	"fmt"
	"math"
	"slices"

	"github.com/meir-san/ultimateholdem/internal/market"
)

// RoundResult is the player's outcome of one resolved round
type RoundResult struct {
	Round  int
	Winner market.Outcome
	Staked float64 // cash paid into positions still open at resolution
	Profit float64 // payout minus Staked
}

// OutcomeStats tracks the rounds a given outcome won
type OutcomeStats struct {
	Rounds int
	Profit float64
}

// Statistics accumulates round results
type Statistics struct {
	Rounds     int
	SumProfit  float64
	SumProfit2 float64   // sum of squares for the variance
	Values     []float64 // every profit, for the median and percentiles

	TradedRounds int // rounds with money at stake
	Wins         int // rounds with positive profit
	TotalStaked  float64
	BestRound    float64
	WorstRound   float64

	Outcomes [market.NumOutcomes]OutcomeStats
}

// Add incorporates a round
func (s *Statistics) Add(r RoundResult) {
	s.Rounds++
	s.SumProfit += r.Profit
	s.SumProfit2 += r.Profit * r.Profit
	s.Values = append(s.Values, r.Profit)

	if r.Staked > 0 {
		s.TradedRounds++
		s.TotalStaked += r.Staked
	}
	if r.Profit > 0 {
		s.Wins++
	}
	if s.Rounds == 1 || r.Profit > s.BestRound {
		s.BestRound = r.Profit
	}
	if s.Rounds == 1 || r.Profit < s.WorstRound {
		s.WorstRound = r.Profit
	}

	if r.Winner.Valid() {
		s.Outcomes[r.Winner].Rounds++
		s.Outcomes[r.Winner].Profit += r.Profit
	}
}

// Mean returns the average profit per round
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumProfit / float64(s.Rounds)
}

// Variance returns the sample variance of round profits
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return max(0, (s.SumProfit2-float64(s.Rounds)*mean*mean)/float64(s.Rounds-1))
}

// StdDev returns the sample standard deviation of round profits
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// ROI is total profit over total stake. Zero before any trade.
func (s *Statistics) ROI() float64 {
	if s.TotalStaked == 0 {
		return 0
	}
	return s.SumProfit / s.TotalStaked
}

// Frequency returns how often o won, as a fraction of rounds
func (s *Statistics) Frequency(o market.Outcome) float64 {
	if s.Rounds == 0 || !o.Valid() {
		return 0
	}
	return float64(s.Outcomes[o].Rounds) / float64(s.Rounds)
}

// Median returns the median round profit
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the interpolated round profit at p in [0, 1]
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Clone(s.Values)
	slices.Sort(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// IsLedgerBalanced checks that per-outcome profits add up to the total
func (s *Statistics) IsLedgerBalanced() bool {
	var sum float64
	for _, o := range s.Outcomes {
		sum += o.Profit
	}
	return math.Abs(sum-s.SumProfit) <= 1e-6
}

// Validate checks the accumulated data for consistency
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: total profit %.6f differs from the per-outcome sum", s.SumProfit)
	}
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid round count: %d", s.Rounds)
	}
	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values length (%d) does not match round count (%d)", len(s.Values), s.Rounds)
	}
	if s.Wins > s.TradedRounds {
		return fmt.Errorf("wins (%d) exceed traded rounds (%d)", s.Wins, s.TradedRounds)
	}
	total := 0
	for _, o := range s.Outcomes {
		total += o.Rounds
	}
	if total != s.Rounds {
		return fmt.Errorf("outcome rounds total (%d) does not match round count (%d)", total, s.Rounds)
	}
	return nil
}
