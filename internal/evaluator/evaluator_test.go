package evaluator

import (
	"testing"

	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/paulhankin/poker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		cards    string
		expected HandRank
		kickers  []deck.Rank
	}{
		{"Royal Flush", "AsKsQsJsTs9h8h", RoyalFlush, []deck.Rank{deck.Ace}},
		{"Straight Flush", "9s8s7s6s5s4h3h", StraightFlush, []deck.Rank{deck.Nine}},
		{"Steel Wheel", "As2s3s4s5sKhQh", StraightFlush, []deck.Rank{deck.Five}},
		{"Four of a Kind", "AsAhAdAcKs2h3h", FourOfAKind, []deck.Rank{deck.Ace, deck.King}},
		{"Full House", "AsAhAdKsKh2h3h", FullHouse, []deck.Rank{deck.Ace, deck.King}},
		{"Full House From Two Trips", "7s7h7d5s5h5d2c", FullHouse, []deck.Rank{deck.Seven, deck.Five}},
		{"Flush", "AsKsQs8s6s4h3h", Flush, []deck.Rank{deck.Ace, deck.King, deck.Queen, deck.Eight, deck.Six}},
		{"Straight", "AsKhQdJcTs9h8h", Straight, []deck.Rank{deck.Ace}},
		{"Wheel", "Ah2c3d4s5h9cKd", Straight, []deck.Rank{deck.Five}},
		{"Three of a Kind", "AsAhAdKs9c7h5h", ThreeOfAKind, []deck.Rank{deck.Ace, deck.King, deck.Nine}},
		{"Two Pair", "AsAhKdKs9c7h5h", TwoPair, []deck.Rank{deck.Ace, deck.King, deck.Nine}},
		{"Three Pairs Play Top Two", "AsAhKdKs9c9h5h", TwoPair, []deck.Rank{deck.Ace, deck.King, deck.Nine}},
		{"One Pair", "AsAhKdQs9c7h5h", Pair, []deck.Rank{deck.Ace, deck.King, deck.Queen, deck.Nine}},
		{"High Card", "AsKhQd9s7c5h3h", HighCard, []deck.Rank{deck.Ace, deck.King, deck.Queen, deck.Nine, deck.Seven}},
		{"Five Cards", "2c3c4c5c7d", HighCard, []deck.Rank{deck.Seven, deck.Five, deck.Four, deck.Three, deck.Two}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand, err := Evaluate(deck.MustParseCards(tt.cards))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, hand.Rank)
			assert.Equal(t, tt.kickers, hand.Kickers)
		})
	}
}

func TestEvaluateRequiresFiveCards(t *testing.T) {
	_, err := Evaluate(deck.MustParseCards("AsKsQsJs"))
	assert.ErrorIs(t, err, ErrTooFewCards)

	_, err = Score(nil)
	assert.ErrorIs(t, err, ErrTooFewCards)

	assert.Panics(t, func() { MustEvaluate(deck.MustParseCards("As")) })
}

func TestHandComparison(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"flush beats straight", "2h5h8hJhKh", "9c8dTh7sJc", 1},
		{"quads beat full house", "2s2h2d2cKs", "AsAhAdKcKh", 1},
		{"higher kicker wins", "AsAhKd9c7h", "AdAcQs9d7s", 1},
		{"wheel loses to six high", "Ah2c3d4s5h", "2d3h4c5s6d", -1},
		{"identical ranks tie", "AsKhQd9s7c", "AhKdQc9h7d", 0},
		{"higher pair beats kickers", "3s3hAdKcQh", "2s2hAcKdQs", 1},
		{"second pair decides", "AsAhJdJc2h", "AdAcTsTh9d", 1},
		{"higher quads win", "9s9h9d9c2s", "8s8h8d8cAs", 1},
		{"higher trips win", "9s9h9d2c3s", "8s8h8dAcKs", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := MustEvaluate(deck.MustParseCards(tt.a))
			b := MustEvaluate(deck.MustParseCards(tt.b))
			assert.Equal(t, tt.expected, a.Compare(b))
			assert.Equal(t, -tt.expected, b.Compare(a))
		})
	}
}

func TestScoreMatchesCompare(t *testing.T) {
	hands := generate7CardHands(7, 400)
	for i := 1; i < len(hands); i++ {
		a, b := hands[i-1], hands[i]
		ha, hb := MustEvaluate(a[:]), MustEvaluate(b[:])
		sa, sb := Score7(&a), Score7(&b)

		assert.Equal(t, ha.Rank, RankOf(sa))
		assert.Equal(t, sign(int64(sa)-int64(sb)), ha.Compare(hb), "%v vs %v", ha, hb)
	}
}

// The comparator must agree with an independent evaluator on every pair.
func TestCompareAgreesWithReferenceEvaluator(t *testing.T) {
	hands := generate7CardHands(11, 2000)
	for i := 1; i < len(hands); i++ {
		a, b := hands[i-1], hands[i]
		ours := MustEvaluate(a[:]).Compare(MustEvaluate(b[:]))

		ra, rb := referenceScore(t, a), referenceScore(t, b)
		assert.Equal(t, sign(int64(ra)-int64(rb)), ours, "%s vs %s",
			deck.FormatCards(a[:]), deck.FormatCards(b[:]))
	}
}

func TestDetermineWinner(t *testing.T) {
	board := "Td7s8h2c3d"
	player := MustEvaluate(deck.MustParseCards("9c6d" + board))
	dealer := MustEvaluate(deck.MustParseCards("AhAd" + board))
	assert.Equal(t, PlayerWins, DetermineWinner(player, dealer))
	assert.Equal(t, DealerWins, DetermineWinner(dealer, player))
	assert.Equal(t, Tie, DetermineWinner(player, player))
}

func TestDetermineWinnerAmong(t *testing.T) {
	board := "KsKd7h4c2s"
	eval := func(hole string) Hand { return MustEvaluate(deck.MustParseCards(hole + board)) }

	t.Run("unique maximum wins", func(t *testing.T) {
		assert.Equal(t, 2, DetermineWinnerAmong(eval("9c8c"), eval("QhJh"), eval("AhTc")))
	})

	t.Run("tie at the top is a push", func(t *testing.T) {
		assert.Equal(t, -1, DetermineWinnerAmong(eval("AhTc"), eval("3c5d"), eval("AdTs")))
	})

	t.Run("tie below the top does not matter", func(t *testing.T) {
		assert.Equal(t, 0, DetermineWinnerAmong(eval("7c7d"), eval("3c5d"), eval("3h5s")))
	})

	t.Run("scores agree", func(t *testing.T) {
		assert.Equal(t, 1, WinnerOfScores([]uint32{3, 9, 4}))
		assert.Equal(t, -1, WinnerOfScores([]uint32{9, 9, 4}))
		assert.Equal(t, 0, WinnerOfScores([]uint32{9, 4, 4}))
	})
}

func TestPartialHighCard(t *testing.T) {
	assert.Equal(t, deck.King, PartialHighCard(deck.MustParseCards("7cKd2h")))
	assert.Equal(t, deck.Rank(0), PartialHighCard(nil))
}

func sign(x int64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func referenceScore(t *testing.T, cards [7]deck.Card) int16 {
	t.Helper()
	var pc [7]poker.Card
	for i, c := range cards {
		var suit poker.Suit
		switch c.Suit {
		case deck.Spades:
			suit = poker.Spade
		case deck.Hearts:
			suit = poker.Heart
		case deck.Diamonds:
			suit = poker.Diamond
		default:
			suit = poker.Club
		}
		rank := poker.Rank(c.Rank)
		if c.Rank == deck.Ace {
			rank = poker.Rank(1)
		}
		card, err := poker.MakeCard(suit, rank)
		require.NoError(t, err)
		pc[i] = card
	}
	return poker.Eval7(&pc)
}
