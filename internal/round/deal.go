package round

import (
	"github.com/meir-san/ultimateholdem/internal/deck"
	"github.com/meir-san/ultimateholdem/internal/evaluator"
	"github.com/meir-san/ultimateholdem/internal/market"
	"github.com/meir-san/ultimateholdem/internal/strategy"
)

func (st *state) raised() bool {
	for _, d := range st.decisions {
		if d.Raised() {
			return true
		}
	}
	return false
}

func (st *state) deal(seat, n int) error {
	cards, err := st.deck.PopN(n)
	if err != nil {
		return err
	}
	st.hands[seat] = append(st.hands[seat], cards...)
	return nil
}

func (st *state) dealCommunity(n int) error {
	cards, err := st.deck.PopN(n)
	if err != nil {
		return err
	}
	st.community = append(st.community, cards...)
	return nil
}

// dealBlackjack plays one step of the blackjack round. The player follows
// basic strategy; once the player stands the hole card is turned and the
// dealer draws to 17.
func (g *Game) dealBlackjack() (market.Outcome, bool, error) {
	st := g.st
	const player, dealer = 0, 1

	switch st.phase {
	case PreDeal:
		if err := st.deal(player, 1); err != nil {
			return 0, false, err
		}
		st.phase = PlayerCard1

	case PlayerCard1:
		if err := st.deal(dealer, 1); err != nil {
			return 0, false, err
		}
		st.phase = DealerCard1

	case DealerCard1:
		if err := st.deal(player, 1); err != nil {
			return 0, false, err
		}
		if err := st.deal(dealer, 1); err != nil {
			return 0, false, err
		}
		st.phase = PlayerCard2

	case PlayerCard2, PlayerHitting:
		if strategy.ShouldHit(st.hands[player], st.hands[dealer][0]) {
			if err := st.deal(player, 1); err != nil {
				return 0, false, err
			}
			st.phase = PlayerHitting
			if evaluator.IsBust(st.hands[player]) {
				return market.Seat2, true, nil
			}
			break
		}
		st.revealed[dealer] = true
		st.phase = DealerReveal
		if !strategy.DealerShouldHit(st.hands[dealer]) {
			return blackjackOutcome(st.hands[player], st.hands[dealer]), true, nil
		}

	case DealerReveal, DealerHitting:
		if strategy.DealerShouldHit(st.hands[dealer]) {
			if err := st.deal(dealer, 1); err != nil {
				return 0, false, err
			}
			st.phase = DealerHitting
		}
		if !strategy.DealerShouldHit(st.hands[dealer]) {
			return blackjackOutcome(st.hands[player], st.hands[dealer]), true, nil
		}
	}

	st.bustRisk = 0
	if len(st.hands[player]) >= 2 {
		st.bustRisk = strategy.BustProbability(evaluator.BlackjackCards(st.hands[player]), g.unknown())
	}
	return 0, false, nil
}

func blackjackOutcome(player, dealer []deck.Card) market.Outcome {
	switch evaluator.CompareBlackjack(player, dealer) {
	case evaluator.PlayerWins:
		return market.Seat1
	case evaluator.DealerWins:
		return market.Seat2
	default:
		return market.Push
	}
}

// dealHoldem deals the next street. Ultimate Texas Hold'em records the
// player's raise decision on each decision street and deals the dealer
// after the river; three-handed hold'em turns the hidden seats at showdown.
func (g *Game) dealHoldem() (market.Outcome, bool, error) {
	st := g.st
	uth := g.cfg.Variant == UTH

	switch st.phase {
	case PreDeal:
		seats := len(st.hands)
		if uth {
			seats = 1
		}
		for i := 0; i < seats; i++ {
			if err := st.deal(i, 2); err != nil {
				return 0, false, err
			}
		}
		st.phase = PlayerCards

	case PlayerCards:
		if err := st.dealCommunity(3); err != nil {
			return 0, false, err
		}
		st.phase = Flop

	case Flop:
		if err := st.dealCommunity(1); err != nil {
			return 0, false, err
		}
		st.phase = Turn
		return 0, false, nil

	case Turn:
		if err := st.dealCommunity(1); err != nil {
			return 0, false, err
		}
		st.phase = River

	case River:
		if uth {
			if err := st.deal(1, 2); err != nil {
				return 0, false, err
			}
			st.phase = DealerCards
			return g.showdown(), true, nil
		}
		for i := range st.revealed {
			st.revealed[i] = true
		}
		st.phase = Showdown
		return g.showdown(), true, nil
	}

	if uth && g.decide() {
		return market.Seat2, true, nil
	}
	return 0, false, nil
}

// decide records the player's decision for the street just dealt and
// reports whether the player folded.
func (g *Game) decide() bool {
	st := g.st
	if st.raised() {
		return false
	}
	d := strategy.Decide(st.hands[0], st.community)
	if d == strategy.Fold && !g.cfg.FoldUnraised {
		d = strategy.Check
	}
	st.decisions = append(st.decisions, d)
	if d == strategy.Fold {
		st.folded = true
		return true
	}
	return false
}

// showdown settles a complete hold'em board. Three-way ties and exact
// ties push.
func (g *Game) showdown() market.Outcome {
	st := g.st
	hands := make([]evaluator.Hand, len(st.hands))
	for i, hole := range st.hands {
		hands[i] = evaluator.MustEvaluate(append(append([]deck.Card{}, hole...), st.community...))
	}

	if g.cfg.Variant == UTH && hands[1].Rank < evaluator.Pair {
		return market.Seat1
	}
	w := evaluator.DetermineWinnerAmong(hands...)
	if w < 0 {
		return market.Push
	}
	return market.Seat(w)
}

func dealerQualifies(hole, community []deck.Card) bool {
	all := append(append([]deck.Card{}, hole...), community...)
	if len(all) < 5 {
		return false
	}
	return evaluator.MustEvaluate(all).Rank >= evaluator.Pair
}
