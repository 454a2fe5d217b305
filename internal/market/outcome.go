// Package market prices $1-contingent shares on round outcomes and keeps
// the pool ledger that funds their payout.
package market

import (
	"fmt"
	"math"
	"strings"
)

// Outcome identifies a tradable result of a round. Heads-up variants use
// Seat1 for the player and Seat2 for the dealer.
type Outcome int

const (
	Seat1 Outcome = iota
	Seat2
	Seat3
	Push
)

// NumOutcomes is the size of every outcome-indexed array
const NumOutcomes = 4

// String returns the string representation of an outcome
func (o Outcome) String() string {
	switch o {
	case Seat1:
		return "seat1"
	case Seat2:
		return "seat2"
	case Seat3:
		return "seat3"
	case Push:
		return "push"
	default:
		return "unknown"
	}
}

// ParseOutcome accepts the String form of an outcome
func ParseOutcome(s string) (Outcome, error) {
	for o := Outcome(0); o < NumOutcomes; o++ {
		if strings.EqualFold(s, o.String()) {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// MarshalText encodes the outcome by name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an outcome name
func (o *Outcome) UnmarshalText(b []byte) error {
	v, err := ParseOutcome(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

// Valid reports whether o indexes an outcome array
func (o Outcome) Valid() bool {
	return o >= 0 && o < NumOutcomes
}

// Seat returns the outcome for a zero-based seat index
func Seat(i int) Outcome {
	return Outcome(i)
}

// Odds is a distribution over outcomes in percent. Outcomes a variant
// does not use stay at zero so the sum over the whole array is 100.
type Odds [NumOutcomes]float64

// CertaintyEpsilon is the tolerance used when testing for a forced result
const CertaintyEpsilon = 1e-9

// Sum returns the total of all entries
func (o Odds) Sum() float64 {
	var s float64
	for _, v := range o {
		s += v
	}
	return s
}

// Normalize rescales o to sum to 100. A zero distribution is returned as is.
func (o Odds) Normalize() Odds {
	s := o.Sum()
	if s <= 0 {
		return o
	}
	for i := range o {
		o[i] = o[i] / s * 100
	}
	return o
}

// Certain returns the outcome whose probability is 100, if any
func (o Odds) Certain() (Outcome, bool) {
	for i, v := range o {
		if v >= 100-CertaintyEpsilon {
			return Outcome(i), true
		}
	}
	return 0, false
}

// IsCertain reports whether any outcome is forced
func (o Odds) IsCertain() bool {
	_, ok := o.Certain()
	return ok
}

// MaxShift returns the largest absolute change between two snapshots over
// the active outcomes.
func (o Odds) MaxShift(prev Odds, active []Outcome) float64 {
	var shift float64
	for _, a := range active {
		shift = math.Max(shift, math.Abs(o[a]-prev[a]))
	}
	return shift
}

// CertainOdds returns the distribution that puts everything on winner
func CertainOdds(winner Outcome) Odds {
	var o Odds
	o[winner] = 100
	return o
}

// EvenOdds splits 100 equally over the active outcomes
func EvenOdds(active []Outcome) Odds {
	var o Odds
	if len(active) == 0 {
		return o
	}
	for _, a := range active {
		o[a] = 100 / float64(len(active))
	}
	return o
}
