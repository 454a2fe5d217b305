package market

import (
	"fmt"
	"math"
)

// DefaultFee is the platform fee taken once, at purchase
const DefaultFee = 0.035

// PricingModel selects what the tradable price tracks
type PricingModel int

const (
	// TrueOdds prices every outcome at its computed probability. The pool
	// only funds payouts.
	TrueOdds PricingModel = iota
	// PoolImplied prices every outcome at its share of pool volume
	PoolImplied
)

// String returns the config name of the model
func (m PricingModel) String() string {
	switch m {
	case TrueOdds:
		return "true_odds"
	case PoolImplied:
		return "pool_implied"
	default:
		return "unknown"
	}
}

// ParsePricingModel accepts the String form of a model
func ParsePricingModel(s string) (PricingModel, error) {
	switch s {
	case "", "true_odds":
		return TrueOdds, nil
	case "pool_implied":
		return PoolImplied, nil
	}
	return 0, fmt.Errorf("unknown pricing model %q", s)
}

// Position is one purchase of shares on an outcome
type Position struct {
	AmountPaid float64 `json:"amount_paid"`
	Shares     float64 `json:"shares"`
	EntryOdds  float64 `json:"entry_odds"` // decimal, 0..1
}

// ImpliedOdds returns o's share of the pool in percent. An empty pool is
// an equal split over the active outcomes.
func ImpliedOdds(o Outcome, pool [NumOutcomes]float64, active []Outcome) float64 {
	var total float64
	for _, a := range active {
		total += pool[a]
	}
	if total <= 0 {
		if len(active) == 0 {
			return 0
		}
		return 100 / float64(len(active))
	}
	return pool[o] / total * 100
}

// PoolOdds returns the payout multiple, in percent, that the pool implies
// for o after the fee. It is 0 while the outcome has no volume.
func PoolOdds(o Outcome, pool [NumOutcomes]float64, active []Outcome, fee float64) float64 {
	var total float64
	for _, a := range active {
		total += pool[a]
	}
	if total <= 0 || pool[o] <= 0 {
		return 0
	}
	return total * (1 - fee) / pool[o] * 100
}

// CalculateShares converts amount into shares at entryOdds (decimal).
// The fee is deducted first. Non-positive or non-finite odds buy nothing.
func CalculateShares(amount, entryOdds, fee float64) float64 {
	if math.IsNaN(entryOdds) || math.IsInf(entryOdds, 0) || entryOdds <= 0 {
		return 0
	}
	return amount * (1 - fee) / entryOdds
}

// TotalShares sums shares across positions
func TotalShares(positions []Position) float64 {
	var s float64
	for _, p := range positions {
		s += p.Shares
	}
	return s
}

// TotalPaid sums the amount paid across positions
func TotalPaid(positions []Position) float64 {
	var s float64
	for _, p := range positions {
		s += p.AmountPaid
	}
	return s
}

// PotentialPayout is what positions pay if their outcome wins: $1 a share
func PotentialPayout(positions []Position) float64 {
	return TotalShares(positions)
}

// PositionValue marks positions to market at oddsPercent
func PositionValue(positions []Position, oddsPercent float64) float64 {
	if len(positions) == 0 {
		return 0
	}
	return TotalShares(positions) * oddsPercent / 100
}

// UnrealizedPnL is the mark-to-market value less the amount paid
func UnrealizedPnL(positions []Position, oddsPercent float64) float64 {
	paid := TotalPaid(positions)
	if paid == 0 {
		return 0
	}
	return PositionValue(positions, oddsPercent) - paid
}
