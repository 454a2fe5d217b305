package strategy

import (
	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/meir-san/ultimateholdem/internal/evaluator"
)

// Decision is the player's action on an Ultimate Texas Hold'em street
type Decision int

const (
	Check Decision = iota
	Raise4x
	Raise2x
	Raise1x
	Fold
)

// String returns the string representation of a decision
func (d Decision) String() string {
	switch d {
	case Check:
		return "check"
	case Raise4x:
		return "raise 4x"
	case Raise2x:
		return "raise 2x"
	case Raise1x:
		return "raise 1x"
	case Fold:
		return "fold"
	default:
		return "unknown"
	}
}

// Raised reports whether the decision puts a play bet in
func (d Decision) Raised() bool {
	return d == Raise4x || d == Raise2x || d == Raise1x
}

// ShouldRaise4x is the preflop table:
//
//	any pair 3s or better
//	any ace
//	K5+ suited, KQ offsuit
//	Q8+ suited or offsuit
//	J8+ suited, T8+ suited
func ShouldRaise4x(hole []deck.Card) bool {
	if len(hole) != 2 {
		return false
	}
	hi, lo := hole[0].Rank, hole[1].Rank
	if lo > hi {
		hi, lo = lo, hi
	}
	suited := hole[0].Suit == hole[1].Suit

	switch {
	case hi == lo:
		return hi >= deck.Three
	case hi == deck.Ace:
		return true
	case hi == deck.King:
		return (suited && lo >= deck.Five) || lo == deck.Queen
	case hi == deck.Queen:
		return lo >= deck.Eight
	case hi == deck.Jack || hi == deck.Ten:
		return suited && lo >= deck.Eight
	}
	return false
}

// ShouldRaise2x is the flop table: two pair or better, a hidden pair (a
// hole card paired on the board), or four to a flush holding a ten or
// better in that suit.
func ShouldRaise2x(hole, board []deck.Card) bool {
	if len(hole) != 2 || len(board) < 3 {
		return false
	}
	hand := evaluator.MustEvaluate(join(hole, board))
	if hand.Rank >= evaluator.TwoPair {
		return true
	}
	if hiddenPair(hole, board) {
		return true
	}
	return fourFlushWithHighCard(join(hole, board))
}

// ShouldRaise1x is the river table: any pair or better, board pairs included
func ShouldRaise1x(hole, board []deck.Card) bool {
	if len(hole) != 2 || len(board) < 5 {
		return false
	}
	return evaluator.MustEvaluate(join(hole, board)).Rank >= evaluator.Pair
}

// Decide returns the decision for the street implied by the board size.
// Without a raise on the river the player folds.
func Decide(hole, board []deck.Card) Decision {
	switch {
	case len(board) < 3:
		if ShouldRaise4x(hole) {
			return Raise4x
		}
	case len(board) < 5:
		if ShouldRaise2x(hole, board) {
			return Raise2x
		}
	default:
		if ShouldRaise1x(hole, board) {
			return Raise1x
		}
		return Fold
	}
	return Check
}

// Line plays a full hand against a complete board and returns the first
// raise the tables make, or Fold when none applies.
func Line(hole, board []deck.Card) Decision {
	if ShouldRaise4x(hole) {
		return Raise4x
	}
	if len(board) >= 3 && ShouldRaise2x(hole, board[:3]) {
		return Raise2x
	}
	if len(board) >= 5 && ShouldRaise1x(hole, board[:5]) {
		return Raise1x
	}
	return Fold
}

func hiddenPair(hole, board []deck.Card) bool {
	for _, h := range hole {
		for _, b := range board {
			if h.Rank == b.Rank {
				return true
			}
		}
	}
	return false
}

func fourFlushWithHighCard(cards []deck.Card) bool {
	var count [deck.NumSuits]int
	var high [deck.NumSuits]bool
	for _, c := range cards {
		count[c.Suit]++
		if c.Rank >= deck.Ten {
			high[c.Suit] = true
		}
	}
	for s := range count {
		if count[s] >= 4 && high[s] {
			return true
		}
	}
	return false
}

func join(a, b []deck.Card) []deck.Card {
	out := make([]deck.Card, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
