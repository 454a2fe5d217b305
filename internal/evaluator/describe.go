package evaluator

import (
	"fmt"
	"strings"

	"github.com/meir-san/ultimateholdem/internal/deck"
)

func rankName(r deck.Rank) string {
	if r == deck.Ten {
		return "10"
	}
	return r.String()
}

func rankNames(ranks []deck.Rank) string {
	names := make([]string, len(ranks))
	for i, r := range ranks {
		names[i] = rankName(r)
	}
	return strings.Join(names, " ")
}

// Short returns the compact description used in round history, e.g.
// "Pair of K, A Q 9 kickers", "4 of a kind A, 7 kicker", "Flush K High".
func (h Hand) Short() string {
	k := h.Kickers
	switch h.Rank {
	case RoyalFlush:
		return "Royal Flush"
	case StraightFlush:
		return "Straight Flush " + rankName(k[0])
	case FourOfAKind:
		return fmt.Sprintf("4 of a kind %s, %s kicker", rankName(k[0]), rankName(k[1]))
	case FullHouse:
		return fmt.Sprintf("Full House %s over %s", rankName(k[0]), rankName(k[1]))
	case Flush:
		return fmt.Sprintf("Flush %s High", rankName(k[0]))
	case Straight:
		return "Straight " + rankName(k[0])
	case ThreeOfAKind:
		return fmt.Sprintf("3 of a kind %s, %s kickers", rankName(k[0]), rankNames(k[1:]))
	case TwoPair:
		return fmt.Sprintf("Two Pair %s & %s, %s kicker", rankName(k[0]), rankName(k[1]), rankName(k[2]))
	case Pair:
		return fmt.Sprintf("Pair of %s, %s kickers", rankName(k[0]), rankNames(k[1:]))
	default:
		return "High Card " + rankNames(k)
	}
}

// Describe returns the short description of the best hand made from hole
// and community cards. When the board alone plays, the description is
// prefixed with "Board: ".
func Describe(hole, community []deck.Card) string {
	all := make([]deck.Card, 0, len(hole)+len(community))
	all = append(all, hole...)
	all = append(all, community...)

	if len(all) == 0 {
		return ""
	}
	if len(all) < 5 {
		return "High Card " + rankName(PartialHighCard(all))
	}

	hand := MustEvaluate(all)
	if len(community) >= 5 {
		board := MustEvaluate(community)
		if hand.Compare(board) == 0 {
			return "Board: " + board.Short()
		}
	}
	return hand.Short()
}
