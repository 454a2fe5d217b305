package market

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// CrowdConfig shapes the synthetic order flow
type CrowdConfig struct {
	Noise     float64 // full width of the uniform noise on each outcome, in points
	SeatFloor float64
	PushFloor float64
	MinAmount float64
	MaxAmount float64
	Skew      float64 // exponent applied to the uniform draw; > 1 favours small bets
	MinDelay  time.Duration
	MaxDelay  time.Duration
}

// DefaultCrowdConfig returns the standard crowd parameters
func DefaultCrowdConfig() CrowdConfig {
	return CrowdConfig{
		Noise:     6,
		SeatFloor: 5,
		PushFloor: 1,
		MinAmount: 5,
		MaxAmount: 80,
		Skew:      1.5,
		MinDelay:  500 * time.Millisecond,
		MaxDelay:  2000 * time.Millisecond,
	}
}

// Trade is one synthetic bet
type Trade struct {
	Username string
	Outcome  Outcome
	Amount   float64
}

var (
	adjectives = [...]string{"Lucky", "Smart", "Bold", "Quick", "Wise", "Sharp", "Slick", "Hot", "Cool", "Big"}
	nouns      = [...]string{"Trader", "Shark", "Wolf", "Bull", "Bear", "Whale", "Fish", "Cat", "Dog", "Fox"}
)

// Username returns a synthetic bettor name like "SlickWhale42"
func Username(rng *rand.Rand) string {
	return fmt.Sprintf("%s%s%d", adjectives[rng.IntN(len(adjectives))], nouns[rng.IntN(len(nouns))], rng.IntN(99))
}

// CrowdBet draws one synthetic bet. The outcome is sampled from odds
// perturbed by symmetric noise and floored, the amount from a skewed
// distribution favouring small bets.
func CrowdBet(rng *rand.Rand, odds Odds, active []Outcome, cfg CrowdConfig) Trade {
	var weights [NumOutcomes]float64
	var total float64
	for _, a := range active {
		floor := cfg.SeatFloor
		if a == Push {
			floor = cfg.PushFloor
		}
		w := math.Max(floor, odds[a]+(rng.Float64()-0.5)*cfg.Noise)
		weights[a] = w
		total += w
	}

	pick := active[len(active)-1]
	r := rng.Float64() * total
	for _, a := range active {
		if r < weights[a] {
			pick = a
			break
		}
		r -= weights[a]
	}

	amount := math.Floor(math.Pow(rng.Float64(), cfg.Skew)*(cfg.MaxAmount-cfg.MinAmount)) + cfg.MinAmount
	return Trade{
		Username: Username(rng),
		Outcome:  pick,
		Amount:   amount,
	}
}

// CrowdDelay draws the wait before the next synthetic bet
func CrowdDelay(rng *rand.Rand, cfg CrowdConfig) time.Duration {
	span := cfg.MaxDelay - cfg.MinDelay
	if span <= 0 {
		return cfg.MinDelay
	}
	return cfg.MinDelay + time.Duration(rng.Int64N(int64(span)))
}
