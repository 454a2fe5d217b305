// Package strategy holds the fixed heuristic tables that drive the
// non-human side of a round: blackjack basic strategy and Ultimate
// Texas Hold'em raise decisions. The same functions steer the
// probability engine's simulations, so changing a threshold changes
// every derived price.
package strategy

import (
	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/meir-san/ultimateholdem/internal/evaluator"
)

// DealerStandsOn is the total at which the dealer stops drawing
const DealerStandsOn = 17

// upcardValue returns the dealer upcard as the strategy tables read it:
// ace counts 11 and face cards 10.
func upcardValue(c deck.Card) int {
	if c.IsAce() {
		return 11
	}
	return deck.BlackjackValue(c.BlackjackRank())
}

// ShouldHit reports whether basic strategy draws another card for player
// against the dealer's upcard.
//
//	soft 19+       stand
//	soft 18        hit vs 9, 10, A
//	soft 17-       hit
//	hard 17+       stand
//	hard 11-       hit
//	hard 12        hit vs 2, 3, 7+
//	hard 13-16     hit vs 7+
func ShouldHit(player []deck.Card, dealerUp deck.Card) bool {
	total := evaluator.BlackjackCards(player)
	if total > evaluator.BlackjackLimit {
		return false
	}
	dealer := upcardValue(dealerUp)

	if evaluator.IsSoft(player) {
		switch {
		case total >= 19:
			return false
		case total == 18:
			return dealer >= 9
		default:
			return true
		}
	}

	switch {
	case total >= DealerStandsOn:
		return false
	case total <= 11:
		return true
	case total == 12:
		return dealer <= 3 || dealer >= 7
	default:
		return dealer >= 7
	}
}

// DealerShouldHit applies the house rule: draw below 17, stand on any 17
func DealerShouldHit(dealer []deck.Card) bool {
	return evaluator.BlackjackCards(dealer) < DealerStandsOn
}

// BustProbability returns the percentage chance that the next card from
// remaining busts a hand totalling total. Aces count 1 here since they can
// never bust a hand. Totals of 17 or more report 0 because the strategy
// stands there.
func BustProbability(total int, remaining []deck.Card) float64 {
	if total >= DealerStandsOn || len(remaining) == 0 {
		return 0
	}
	threshold := evaluator.BlackjackLimit - total
	bust := 0
	for _, c := range remaining {
		if deck.BlackjackValue(c.BlackjackRank()) > threshold {
			bust++
		}
	}
	return float64(bust) / float64(len(remaining)) * 100
}
