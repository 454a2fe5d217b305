package evaluator

import (
	"errors"

	"github.com/meir-san/ultimateholdem/internal/deck"
)

// ErrTooFewCards is returned when fewer than five cards are evaluated
var ErrTooFewCards = errors.New("need at least 5 cards to evaluate a hand")

// Scores pack the hand rank into the top bits and up to five 4-bit kicker
// ranks below it, so a larger score is always a stronger hand:
//
//	rank<<20 | k0<<16 | k1<<12 | k2<<8 | k3<<4 | k4
const (
	rankShift   = 20
	kickerBits  = 4
	kickerMask  = 1<<kickerBits - 1
	maxKickers  = 5
	wheelHigh   = int(deck.Five)
	aceHighRank = int(deck.Ace)
)

var kickerCount = [...]int{
	HighCard:      5,
	Pair:          4,
	TwoPair:       3,
	ThreeOfAKind:  3,
	Straight:      1,
	Flush:         5,
	FullHouse:     2,
	FourOfAKind:   2,
	StraightFlush: 1,
	RoyalFlush:    1,
}

// Evaluate returns the best five-card hand out of cards.
// Every C(n,5) combination is scored; fewer than five cards is an error.
func Evaluate(cards []deck.Card) (Hand, error) {
	if len(cards) < 5 {
		return Hand{}, ErrTooFewCards
	}
	score, best := bestOf(cards)
	return handFromScore(score, best), nil
}

// MustEvaluate is Evaluate for callers that have already checked the card count
func MustEvaluate(cards []deck.Card) Hand {
	h, err := Evaluate(cards)
	if err != nil {
		panic(err)
	}
	return h
}

// Score returns the packed strength of the best five-card hand in cards.
// Scores order exactly as Hand.Compare does. Fewer than five cards is an error.
func Score(cards []deck.Card) (uint32, error) {
	if len(cards) < 5 {
		return 0, ErrTooFewCards
	}
	score, _ := bestOf(cards)
	return score, nil
}

// Score7 scores seven cards without allocating. It is the hot path of the
// probability engine.
func Score7(cards *[7]deck.Card) uint32 {
	var best uint32
	var combo [5]deck.Card
	for a := 0; a < 3; a++ {
		for b := a + 1; b < 4; b++ {
			for c := b + 1; c < 5; c++ {
				for d := c + 1; d < 6; d++ {
					for e := d + 1; e < 7; e++ {
						combo[0], combo[1], combo[2], combo[3], combo[4] = cards[a], cards[b], cards[c], cards[d], cards[e]
						if s := score5(&combo); s > best {
							best = s
						}
					}
				}
			}
		}
	}
	return best
}

// RankOf extracts the hand category from a packed score
func RankOf(score uint32) HandRank {
	return HandRank(score >> rankShift)
}

// bestOf walks every five-card combination of cards using an index array
func bestOf(cards []deck.Card) (uint32, [5]deck.Card) {
	n := len(cards)
	var idx [5]int
	for i := range idx {
		idx[i] = i
	}

	var best uint32
	var bestCombo, combo [5]deck.Card
	for {
		for i := range combo {
			combo[i] = cards[idx[i]]
		}
		if s := score5(&combo); s > best {
			best = s
			bestCombo = combo
		}

		i := 4
		for i >= 0 && idx[i] == n-5+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < 5; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
	return best, bestCombo
}

func score5(c *[5]deck.Card) uint32 {
	var r [5]int
	for i := range r {
		r[i] = int(c[i].Rank)
	}
	for i := 1; i < 5; i++ {
		for j := i; j > 0 && r[j] > r[j-1]; j-- {
			r[j], r[j-1] = r[j-1], r[j]
		}
	}

	flush := c[0].Suit == c[1].Suit && c[1].Suit == c[2].Suit &&
		c[2].Suit == c[3].Suit && c[3].Suit == c[4].Suit

	straightHigh := 0
	if r[0] != r[1] && r[1] != r[2] && r[2] != r[3] && r[3] != r[4] {
		if r[0]-r[4] == 4 {
			straightHigh = r[0]
		} else if r[0] == aceHighRank && r[1] == wheelHigh {
			// A-2-3-4-5 plays the ace low
			straightHigh = wheelHigh
		}
	}

	if flush && straightHigh > 0 {
		if straightHigh == aceHighRank {
			return pack(RoyalFlush, straightHigh)
		}
		return pack(StraightFlush, straightHigh)
	}

	// Group equal ranks; groups end up ordered by count, then rank.
	var gr, gc [5]int
	n := 0
	for i := 0; i < 5; {
		j := i
		for j < 5 && r[j] == r[i] {
			j++
		}
		gr[n], gc[n] = r[i], j-i
		n++
		i = j
	}
	for i := 1; i < n; i++ {
		for j := i; j > 0 && gc[j] > gc[j-1]; j-- {
			gr[j], gr[j-1] = gr[j-1], gr[j]
			gc[j], gc[j-1] = gc[j-1], gc[j]
		}
	}

	switch {
	case gc[0] == 4:
		return pack(FourOfAKind, gr[0], gr[1])
	case gc[0] == 3 && gc[1] == 2:
		return pack(FullHouse, gr[0], gr[1])
	case flush:
		return pack(Flush, r[0], r[1], r[2], r[3], r[4])
	case straightHigh > 0:
		return pack(Straight, straightHigh)
	case gc[0] == 3:
		return pack(ThreeOfAKind, gr[0], gr[1], gr[2])
	case gc[0] == 2 && gc[1] == 2:
		return pack(TwoPair, gr[0], gr[1], gr[2])
	case gc[0] == 2:
		return pack(Pair, gr[0], gr[1], gr[2], gr[3])
	default:
		return pack(HighCard, r[0], r[1], r[2], r[3], r[4])
	}
}

func pack(rank HandRank, kickers ...int) uint32 {
	s := uint32(rank) << rankShift
	for i, k := range kickers {
		s |= uint32(k) << (kickerBits * (maxKickers - 1 - i))
	}
	return s
}

func handFromScore(score uint32, cards [5]deck.Card) Hand {
	rank := RankOf(score)
	kickers := make([]deck.Rank, kickerCount[rank])
	for i := range kickers {
		kickers[i] = deck.Rank(score >> (kickerBits * (maxKickers - 1 - i)) & kickerMask)
	}

	for i := 1; i < len(cards); i++ {
		for j := i; j > 0 && cards[j].Rank > cards[j-1].Rank; j-- {
			cards[j], cards[j-1] = cards[j-1], cards[j]
		}
	}

	return Hand{Rank: rank, Cards: cards, Kickers: kickers}
}

// PartialHighCard returns the highest rank among fewer than five cards.
// It is the display path for hands that cannot be evaluated yet.
func PartialHighCard(cards []deck.Card) deck.Rank {
	var high deck.Rank
	for _, c := range cards {
		if c.Rank > high {
			high = c.Rank
		}
	}
	return high
}
