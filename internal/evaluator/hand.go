package evaluator

import (
	"fmt"
	"strings"

	"github.com/meir-san/ultimateholdem/internal/deck"
)

// HandRank represents the category of a poker hand, ordered weakest to strongest
type HandRank int

const (
	HighCard HandRank = iota + 1
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the string representation of a hand rank
func (hr HandRank) String() string {
	switch hr {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// Hand represents an evaluated poker hand: its category, the best five
// cards and the ordered tie-break ranks.
//
// Kickers lead with the ranks that define the category (the quad, trip or
// pair ranks, or the straight's high card; 5 for the wheel) followed by the
// remaining cards in descending order.
type Hand struct {
	Rank    HandRank
	Cards   [5]deck.Card // Sorted by rank, descending
	Kickers []deck.Rank
}

// String returns a string representation of the hand
func (h Hand) String() string {
	cardStrs := make([]string, len(h.Cards))
	for i, card := range h.Cards {
		cardStrs[i] = card.String()
	}
	return fmt.Sprintf("%s [%s]", h.Rank, strings.Join(cardStrs, " "))
}

// Compare compares two hands and returns:
// -1 if h1 is weaker than h2
//
//	0 if h1 equals h2
//	1 if h1 is stronger than h2
func (h1 Hand) Compare(h2 Hand) int {
	if h1.Rank < h2.Rank {
		return -1
	}
	if h1.Rank > h2.Rank {
		return 1
	}

	n := max(len(h1.Kickers), len(h2.Kickers))
	for i := 0; i < n; i++ {
		var k1, k2 deck.Rank
		if i < len(h1.Kickers) {
			k1 = h1.Kickers[i]
		}
		if i < len(h2.Kickers) {
			k2 = h2.Kickers[i]
		}
		if k1 < k2 {
			return -1
		}
		if k1 > k2 {
			return 1
		}
	}

	return 0
}

// Winner is the result of a heads-up comparison
type Winner int

const (
	PlayerWins Winner = iota
	DealerWins
	Tie
)

// String returns the string representation of a heads-up result
func (w Winner) String() string {
	switch w {
	case PlayerWins:
		return "player"
	case DealerWins:
		return "dealer"
	default:
		return "push"
	}
}

// DetermineWinner compares the player's hand against the dealer's
func DetermineWinner(player, dealer Hand) Winner {
	switch player.Compare(dealer) {
	case 1:
		return PlayerWins
	case -1:
		return DealerWins
	default:
		return Tie
	}
}

// DetermineWinnerAmong returns the index of the unique strongest hand.
// When two or more hands share the top spot the result is a push and the
// index is -1; split pots are not modelled.
func DetermineWinnerAmong(hands ...Hand) int {
	best := -1
	tied := false
	for i, h := range hands {
		if best < 0 {
			best = i
			continue
		}
		switch h.Compare(hands[best]) {
		case 1:
			best = i
			tied = false
		case 0:
			tied = true
		}
	}
	if tied {
		return -1
	}
	return best
}

// WinnerOfScores is DetermineWinnerAmong for packed scores
func WinnerOfScores(scores []uint32) int {
	best := -1
	tied := false
	for i, s := range scores {
		switch {
		case best < 0 || s > scores[best]:
			best = i
			tied = false
		case s == scores[best]:
			tied = true
		}
	}
	if tied {
		return -1
	}
	return best
}
