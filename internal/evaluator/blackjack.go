package evaluator

import "github.com/meir-san/ultimateholdem/internal/deck"

// BlackjackLimit is the highest total that does not bust
const BlackjackLimit = 21

// BlackjackTotal totals 1..13 blackjack ranks. Aces start at 1 and are
// promoted to 11 one at a time while the total stays at or under 21.
func BlackjackTotal(ranks []int) int {
	total, _ := blackjackTotal(ranks)
	return total
}

// BlackjackCards is BlackjackTotal for cards
func BlackjackCards(cards []deck.Card) int {
	total, _ := blackjackCards(cards)
	return total
}

// IsSoft reports whether the total of cards counts an ace as 11
func IsSoft(cards []deck.Card) bool {
	_, soft := blackjackCards(cards)
	return soft
}

// IsBust reports whether cards total more than 21
func IsBust(cards []deck.Card) bool {
	return BlackjackCards(cards) > BlackjackLimit
}

func blackjackCards(cards []deck.Card) (int, bool) {
	var ranks [16]int
	rs := ranks[:0]
	for _, c := range cards {
		rs = append(rs, c.BlackjackRank())
	}
	return blackjackTotal(rs)
}

func blackjackTotal(ranks []int) (int, bool) {
	total, aces := 0, 0
	for _, r := range ranks {
		total += deck.BlackjackValue(r)
		if r == 1 {
			aces++
		}
	}

	soft := false
	for aces > 0 && total+10 <= BlackjackLimit {
		total += 10
		aces--
		soft = true
	}
	return total, soft
}

// CompareBlackjack settles two finished blackjack hands. A player bust
// loses before the dealer's total matters.
func CompareBlackjack(player, dealer []deck.Card) Winner {
	p, d := BlackjackCards(player), BlackjackCards(dealer)
	switch {
	case p > BlackjackLimit:
		return DealerWins
	case d > BlackjackLimit:
		return PlayerWins
	case p > d:
		return PlayerWins
	case d > p:
		return DealerWins
	default:
		return Tie
	}
}
