package odds

import (
	"errors"
	"fmt"

	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/meir-san/ultimateholdem/internal/market"
)

// Game selects how hands are played out
type Game int

const (
	Blackjack Game = iota
	Holdem
)

// String returns the string representation of a game
func (g Game) String() string {
	switch g {
	case Blackjack:
		return "blackjack"
	case Holdem:
		return "holdem"
	default:
		return "unknown"
	}
}

// MaxSeats is the most hold'em seats an outcome array can price
const MaxSeats = market.NumOutcomes - 1

// Rules parameterize the engine for one table variant
type Rules struct {
	Game  Game
	Seats int // hold'em seats; blackjack is always player and dealer

	// Qualify makes seat 2 concede to seat 1 when it finishes below a pair
	Qualify bool
	// FoldUnraised folds seat 1 when its raise tables never fire
	FoldUnraised bool
}

// Outcomes lists the outcomes the rules can produce
func (r Rules) Outcomes() []market.Outcome {
	n := r.Seats
	if r.Game == Blackjack {
		n = 2
	}
	out := make([]market.Outcome, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, market.Seat(i))
	}
	return append(out, market.Push)
}

// Request is one information state to price.
//
// Unknown holds every card the public cannot see: the undealt deck plus any
// face-down hole cards. Hidden cards must not appear in Holes.
type Request struct {
	Key       uint64
	Rules     Rules
	Holes     [][]deck.Card // revealed cards per seat; blackjack: player, dealer
	Community []deck.Card
	Unknown   []deck.Card

	// DealerHidden is set when the blackjack dealer still takes a face-down card
	DealerHidden bool
	// Raised is set once seat 1 has put in a play bet
	Raised bool
}

// ErrInvalidRequest wraps every request validation failure
var ErrInvalidRequest = errors.New("invalid odds request")

func (r *Request) validate() error {
	switch r.Rules.Game {
	case Blackjack:
		if len(r.Holes) != 2 {
			return fmt.Errorf("%w: blackjack needs player and dealer hands, got %d", ErrInvalidRequest, len(r.Holes))
		}
		if len(r.Community) > 0 {
			return fmt.Errorf("%w: blackjack has no community cards", ErrInvalidRequest)
		}
	case Holdem:
		if r.Rules.Seats < 2 || r.Rules.Seats > MaxSeats {
			return fmt.Errorf("%w: %d seats", ErrInvalidRequest, r.Rules.Seats)
		}
		if len(r.Holes) != r.Rules.Seats {
			return fmt.Errorf("%w: %d hands for %d seats", ErrInvalidRequest, len(r.Holes), r.Rules.Seats)
		}
		for i, h := range r.Holes {
			if len(h) > 2 {
				return fmt.Errorf("%w: seat %d has %d hole cards", ErrInvalidRequest, i+1, len(h))
			}
		}
		if len(r.Community) > 5 {
			return fmt.Errorf("%w: %d community cards", ErrInvalidRequest, len(r.Community))
		}
		groups := append([][]deck.Card{r.Community, r.Unknown}, r.Holes...)
		var seen deck.CardSet
		for _, g := range groups {
			for _, c := range g {
				if seen.Contains(c) {
					return fmt.Errorf("%w: duplicate card %s", ErrInvalidRequest, c)
				}
				seen.Add(c)
			}
		}
	default:
		return fmt.Errorf("%w: unknown game %d", ErrInvalidRequest, r.Rules.Game)
	}
	return nil
}

// preDeal reports whether nothing has been dealt yet
func (r *Request) preDeal() bool {
	if len(r.Community) > 0 {
		return false
	}
	for _, h := range r.Holes {
		if len(h) > 0 {
			return false
		}
	}
	return !r.Raised
}

// symmetricSeats returns the seats that are interchangeable: no revealed
// cards and no seat-specific rules.
func (r *Request) symmetricSeats() []int {
	if r.Rules.Game != Holdem || r.Rules.Qualify || r.Rules.FoldUnraised {
		return nil
	}
	var seats []int
	for i, h := range r.Holes {
		if len(h) == 0 {
			seats = append(seats, i)
		}
	}
	if len(seats) < 2 {
		return nil
	}
	return seats
}
