package market

import (
	"errors"
	"math"
	"math/rand/v2"
)

var (
	// ErrNoPosition is returned when selling an outcome with no shares
	ErrNoPosition = errors.New("no position to sell")
	// ErrInvalidAmount is returned for non-positive purchase amounts
	ErrInvalidAmount = errors.New("bet amount must be positive")
	// ErrNoPrice is returned when an outcome has no positive price
	ErrNoPrice = errors.New("outcome has no price")
)

// Config holds the market parameters shared by pricing and dynamics
type Config struct {
	Fee                float64
	Pricing            PricingModel
	PoolBase           float64
	PoolJitter         float64 // jitter range for seat outcomes
	PushPoolJitter     float64 // jitter range for the push outcome
	RebalanceThreshold float64 // percentage points
	RebalanceFactor    float64
	RebalanceFloor     float64
	Crowd              CrowdConfig
}

// DefaultConfig returns the standard market parameters
func DefaultConfig() Config {
	return Config{
		Fee:                DefaultFee,
		Pricing:            TrueOdds,
		PoolBase:           1000,
		PoolJitter:         50,
		PushPoolJitter:     20,
		RebalanceThreshold: 3,
		RebalanceFactor:    0.9,
		RebalanceFloor:     10,
		Crowd:              DefaultCrowdConfig(),
	}
}

// Ledger is the pool and position book of one round
type Ledger struct {
	Pool      [NumOutcomes]float64    `json:"pool"`
	Crowd     [NumOutcomes]float64    `json:"crowd"`
	Positions [NumOutcomes][]Position `json:"positions"`
}

// NewLedger seeds a pool around odds with a little noise so the opening
// book does not look synthetic. The seeded volume counts as crowd volume.
func NewLedger(rng *rand.Rand, odds Odds, active []Outcome, cfg Config) *Ledger {
	l := &Ledger{}
	for _, a := range active {
		jitter := cfg.PoolJitter
		if a == Push {
			jitter = cfg.PushPoolJitter
		}
		v := math.Round(cfg.PoolBase*odds[a]/100 + (rng.Float64()-0.5)*jitter)
		v = math.Max(0, v)
		l.Pool[a] = v
		l.Crowd[a] = v
	}
	return l
}

// TotalPool returns the pool volume over all outcomes
func (l *Ledger) TotalPool() float64 {
	var s float64
	for _, v := range l.Pool {
		s += v
	}
	return s
}

// Price returns the decimal price of o under the configured model
func (l *Ledger) Price(o Outcome, odds Odds, active []Outcome, model PricingModel) float64 {
	if model == PoolImplied {
		return ImpliedOdds(o, l.Pool, active) / 100
	}
	return odds[o] / 100
}

// Buy records a purchase of amount on o at price (decimal) and adds the
// fee-adjusted amount to the pool.
func (l *Ledger) Buy(o Outcome, amount, price, fee float64) (Position, error) {
	if amount <= 0 || math.IsNaN(amount) {
		return Position{}, ErrInvalidAmount
	}
	shares := CalculateShares(amount, price, fee)
	if shares == 0 {
		return Position{}, ErrNoPrice
	}
	p := Position{AmountPaid: amount, Shares: shares, EntryOdds: price}
	l.Positions[o] = append(l.Positions[o], p)
	l.Pool[o] += amount * (1 - fee)
	return p, nil
}

// Sell cashes out every position on o at price (decimal). The cash-out is
// removed from the pool, floored at zero, and the positions are cleared.
func (l *Ledger) Sell(o Outcome, price float64) (float64, error) {
	if len(l.Positions[o]) == 0 {
		return 0, ErrNoPosition
	}
	cash := TotalShares(l.Positions[o]) * price
	l.Pool[o] = math.Max(0, l.Pool[o]-cash)
	l.Positions[o] = nil
	return cash, nil
}

// AddCrowd injects synthetic volume on o
func (l *Ledger) AddCrowd(o Outcome, amount float64) {
	l.Pool[o] += amount
	l.Crowd[o] += amount
}

// HumanContribution is the pool capital backing the human's positions on o
func (l *Ledger) HumanContribution(o Outcome) float64 {
	var s float64
	for _, p := range l.Positions[o] {
		s += p.Shares * p.EntryOdds
	}
	return s
}

// Invested is the total the human paid this round across all outcomes
func (l *Ledger) Invested() float64 {
	var s float64
	for _, ps := range l.Positions {
		s += TotalPaid(ps)
	}
	return s
}

// Payout is what the human's positions pay when winner wins
func (l *Ledger) Payout(winner Outcome) float64 {
	return PotentialPayout(l.Positions[winner])
}

// Rebalance pulls the crowd-held volume toward now when any active outcome
// moved more than the threshold since prev. Human capital is added back
// unchanged. It reports whether a rebalance happened.
func (l *Ledger) Rebalance(prev, now Odds, active []Outcome, cfg Config) bool {
	if now.MaxShift(prev, active) <= cfg.RebalanceThreshold {
		return false
	}

	var crowdTotal float64
	for _, a := range active {
		crowdTotal += l.Crowd[a]
	}

	for _, a := range active {
		current := 1 / float64(len(active))
		if crowdTotal > 0 {
			current = l.Crowd[a] / crowdTotal
		}
		target := now[a] / 100
		crowd := crowdTotal * (current + (target-current)*cfg.RebalanceFactor)
		l.Crowd[a] = math.Max(cfg.RebalanceFloor, crowd)
		l.Pool[a] = l.Crowd[a] + l.HumanContribution(a)
	}
	return true
}
